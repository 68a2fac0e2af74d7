// Package types defines the JSON request/response contracts of the backend
// API. Field names and shapes are part of the deployed wire format; do not
// rename them.
package types

// MultichainSignatureRequest carries a signature produced on a specific
// chain.
type MultichainSignatureRequest struct {
	ChainID       uint32  `json:"chain_id"`
	SignatureData string  `json:"signature_data"`
	PublicKey     *string `json:"public_key,omitempty"`
}

// UniversalAddressRequest is an address on a specific chain, in 32-byte hex
// form.
type UniversalAddressRequest struct {
	ChainID uint32 `json:"chain_id"`
	Address string `json:"address"`
}

// CommitmentAllocationRequest is one recipient line of a commitment
// submission. Amount is a decimal string.
type CommitmentAllocationRequest struct {
	RecipientChainID uint32 `json:"recipient_chain_id"`
	RecipientAddress string `json:"recipient_address"` // 32-byte hex
	Amount           string `json:"amount"`
}

// CommitmentSubmitRequest is the "commit a checkbook to allocations" wire
// payload.
type CommitmentSubmitRequest struct {
	Allocations   []CommitmentAllocationRequest `json:"allocations"`
	DepositID     string                        `json:"deposit_id"` // decimal string
	Signature     MultichainSignatureRequest    `json:"signature"`
	OwnerAddress  UniversalAddressRequest       `json:"owner_address"`
	TokenSymbol   string                        `json:"token_symbol"`
	TokenDecimals uint8                         `json:"token_decimals"`
	Lang          uint8                         `json:"lang"`
}

// WithdrawIntentRequest is the intent section of a withdraw submission.
type WithdrawIntentRequest struct {
	Type               int    `json:"type"` // 0 = RawToken; higher values reserved
	BeneficiaryChainID uint32 `json:"beneficiaryChainId"`
	BeneficiaryAddress string `json:"beneficiaryAddress"` // 32-byte hex
	TokenSymbol        string `json:"tokenSymbol"`
}

// WithdrawSubmitRequest is the "withdraw allocations to a beneficiary" wire
// payload.
type WithdrawSubmitRequest struct {
	Allocations []string                   `json:"allocations"` // allocation IDs, ordered
	Intent      WithdrawIntentRequest      `json:"intent"`
	Signature   MultichainSignatureRequest `json:"signature"`
	ChainID     uint32                     `json:"chainId"` // signing chain
}

// RetryRequest asks the backend to rerun a failed automated step of a
// withdraw request. Op is one of "retry", "retry-payout", "retry-fallback".
type RetryRequest struct {
	RequestID string `json:"request_id"`
	Op        string `json:"op"`
}

// APIError is the backend's error envelope.
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
