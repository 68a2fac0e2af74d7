// Package signer defines the message-signing capability consumed by the
// commit/withdraw flows, with a local ECDSA implementation and a KMS-backed
// one. The formatters depend only on the interface, never on a transport.
package signer

import (
	"context"

	"zkpay-sdk/types"
)

// Signer signs a prepared protocol message. Implementations return the
// signature in the backend's multichain wire shape.
type Signer interface {
	// SignMessage signs the canonical message text using the chain's
	// personal-message scheme.
	SignMessage(ctx context.Context, message string) (types.MultichainSignatureRequest, error)
	// Address returns the signer's universal address hex.
	Address() string
	// ChainID returns the SLIP-44 chain the signature is attributed to.
	ChainID() uint32
}
