package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"zkpay-sdk/address"
	"zkpay-sdk/types"
)

// LocalSigner signs with an in-process ECDSA key. Intended for tools and
// tests; production deployments use the KMS signer.
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	addr    address.UniversalAddress
	chainID uint32
}

// NewLocalSigner builds a signer from a hex-encoded secp256k1 private key.
func NewLocalSigner(privateKeyHex string, slip44ChainID uint32) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	native := crypto.PubkeyToAddress(key.PublicKey).Hex()
	ua, err := address.FromNative(native, slip44ChainID)
	if err != nil {
		return nil, err
	}
	return &LocalSigner{key: key, addr: ua, chainID: slip44ChainID}, nil
}

// SignMessage signs with the EIP-191 personal-message scheme and returns a
// 65-byte signature with the legacy v offset (27/28) expected by the
// backend.
func (s *LocalSigner) SignMessage(_ context.Context, message string) (types.MultichainSignatureRequest, error) {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	hash := crypto.Keccak256([]byte(prefixed))

	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return types.MultichainSignatureRequest{}, fmt.Errorf("failed to sign message: %w", err)
	}
	sig[64] += 27

	pub := hexutil.Encode(crypto.FromECDSAPub(&s.key.PublicKey))
	return types.MultichainSignatureRequest{
		ChainID:       s.chainID,
		SignatureData: hexutil.Encode(sig),
		PublicKey:     &pub,
	}, nil
}

func (s *LocalSigner) Address() string { return s.addr.Hex() }

func (s *LocalSigner) ChainID() uint32 { return s.chainID }
