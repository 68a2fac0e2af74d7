// Package models holds the client-side view of the backend entities:
// checkbooks, allocations and withdraw requests. The backend owns and
// mutates these; the client only observes them, so none of the types here
// carry local mutation helpers for status fields.
package models

import (
	"time"

	"zkpay-sdk/address"
)

// TokenInfo identifies the token a checkbook holds.
type TokenInfo struct {
	ID       uint16 `json:"id"`       // on-chain token identifier
	Symbol   string `json:"symbol"`   // "USDT", "USDC", ...
	Decimals uint8  `json:"decimals"` // display decimals on the deposit chain
}

// Checkbook is one on-chain deposit event tracked by the backend.
type Checkbook struct {
	ID             string `json:"id"`
	LocalDepositID uint64 `json:"local_deposit_id"` // deposit ID from the contract event
	SLIP44ChainID  uint32 `json:"slip44_chain_id"`

	Owner address.UniversalAddress `json:"owner"`
	Token TokenInfo                `json:"token"`

	GrossAmount       string `json:"gross_amount"`       // uint256 decimal string
	AllocatableAmount string `json:"allocatable_amount"` // amount available for allocation
	RemainingAmount   string `json:"remaining_amount"`   // allocatable minus allocated

	Status     CheckbookStatus `json:"status"`
	Commitment *string         `json:"commitment,omitempty"` // bytes32 hex, nil until committed

	DepositTxHash string    `json:"deposit_tx_hash"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Allocation is a single redeemable slice of a checkbook's funds.
type Allocation struct {
	ID          string `json:"id"`
	CheckbookID string `json:"checkbook_id"`

	Seq    uint32 `json:"seq"`    // monotonic index within the checkbook
	Amount string `json:"amount"` // uint256 decimal string

	Status     AllocationStatus `json:"status"`
	Token      TokenInfo        `json:"token"`
	Commitment string           `json:"commitment"` // commitment hash of the parent checkbook

	WithdrawRequestID *string `json:"withdraw_request_id,omitempty"` // set once used

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WithdrawIntent describes where redeemed funds go.
type WithdrawIntent struct {
	Type        IntentType               `json:"type"`
	Beneficiary address.UniversalAddress `json:"beneficiary"`
	TokenSymbol string                   `json:"token_symbol"`
}

// WithdrawRequest is an intent to redeem one or more idle allocations
// (possibly from different checkbooks with the same owner) to a beneficiary.
type WithdrawRequest struct {
	ID            string   `json:"id"`
	AllocationIDs []string `json:"allocation_ids"`
	Amount        string   `json:"amount"` // exact sum of allocation amounts

	Intent WithdrawIntent `json:"intent"`

	Status        WithdrawRequestStatus `json:"status"`
	ProofStatus   ProofStatus           `json:"proof_status"`
	ExecuteStatus ExecuteStatus         `json:"execute_status"`
	ExecuteTxHash string                `json:"execute_tx_hash,omitempty"`

	ProofError   string `json:"proof_error,omitempty"`
	ExecuteError string `json:"execute_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the request reached a state the backend will
// never advance on its own.
func (w *WithdrawRequest) IsTerminal() bool {
	return WithdrawRequestStatus(w.Status).IsTerminalFailure() ||
		w.Status == WithdrawStatusCompleted
}

// CanRetryExecute reports whether on-chain execution can be retried. Only
// submit_failed (RPC/network errors) qualifies; verify_failed means the
// proof itself is invalid and the request must be cancelled.
func (w *WithdrawRequest) CanRetryExecute() bool {
	return w.ExecuteStatus == ExecuteStatusSubmitFailed
}
