// Package provider defines the contract-access capability consumed by the
// SDK. Callers that only format and submit protocol payloads never touch an
// RPC endpoint directly; everything goes through this interface.
package provider

import (
	"context"
	"math/big"
)

// ContractProvider is the capability set for on-chain access. Chain IDs here
// are native EVM chain IDs, not SLIP-44.
type ContractProvider interface {
	// ReadContract performs an eth_call against a contract and returns the
	// raw return data.
	ReadContract(ctx context.Context, contract string, callData []byte) ([]byte, error)
	// WriteContract submits a transaction and returns its hash.
	WriteContract(ctx context.Context, contract string, callData []byte, value *big.Int) (string, error)
	// WaitForTransaction blocks until the transaction is mined or ctx ends.
	WaitForTransaction(ctx context.Context, txHash string) (*TxReceipt, error)
	// Address returns the provider's account address in native format.
	Address() string
	// ChainID returns the native EVM chain ID.
	ChainID(ctx context.Context) (uint32, error)
}

// TxReceipt is the subset of a transaction receipt the SDK cares about.
type TxReceipt struct {
	TxHash      string
	BlockNumber uint64
	Success     bool
}
