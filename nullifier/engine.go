// Package nullifier derives the per-allocation nullifier that the contract
// uses to prevent double spends. The derivation must match the on-chain
// verifier bit for bit: keccak256 over the big-endian concatenation of
//
//	depositID (32) || owner.Data (32) || slip44ChainID (4) ||
//	tokenID (2) || seq (4) || amountWire (32)
//
// Two calls with identical inputs always produce byte-identical outputs.
package nullifier

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"zkpay-sdk/address"
	"zkpay-sdk/amount"
)

// preimageLen = 32 + 32 + 4 + 2 + 4 + 32.
const preimageLen = 106

// Nullifier computes the nullifier for a single allocation.
func Nullifier(depositID [32]byte, owner address.UniversalAddress, slip44ChainID uint32, tokenID uint16, seq uint32, amountWire *big.Int) ([32]byte, error) {
	amt, err := amount.ToBytes32(amountWire)
	if err != nil {
		return [32]byte{}, fmt.Errorf("nullifier amount: %w", err)
	}

	data := make([]byte, 0, preimageLen)
	data = append(data, depositID[:]...)
	data = append(data, owner.Data[:]...)
	data = binary.BigEndian.AppendUint32(data, slip44ChainID)
	data = binary.BigEndian.AppendUint16(data, tokenID)
	data = binary.BigEndian.AppendUint32(data, seq)
	data = append(data, amt[:]...)

	var out [32]byte
	copy(out[:], crypto.Keccak256(data))
	return out, nil
}

// AllocationInput is one allocation's (seq, amount) pair for batch
// derivation. Amount is a wire amount string (decimal, or hex with an
// explicit 0x prefix).
type AllocationInput struct {
	Seq    uint32
	Amount string
}

// Batch derives nullifiers for a set of allocations sharing one deposit.
// Output order follows input order; the function is pure, so permuting the
// input permutes the output identically without changing any individual
// nullifier.
func Batch(allocs []AllocationInput, owner address.UniversalAddress, depositID [32]byte, slip44ChainID uint32, tokenID uint16) ([][32]byte, error) {
	out := make([][32]byte, len(allocs))
	for i, a := range allocs {
		wire, err := amount.ParseWire(a.Amount)
		if err != nil {
			return nil, fmt.Errorf("allocation seq %d: %w", a.Seq, err)
		}
		n, err := Nullifier(depositID, owner, slip44ChainID, tokenID, a.Seq, wire)
		if err != nil {
			return nil, fmt.Errorf("allocation seq %d: %w", a.Seq, err)
		}
		out[i] = n
	}
	return out, nil
}

// DepositIDFromHex parses a 0x-prefixed bytes32 deposit identifier.
func DepositIDFromHex(s string) [32]byte {
	return common.HexToHash(s)
}

// Hex formats a nullifier as a 0x-prefixed hex string.
func Hex(n [32]byte) string {
	return "0x" + common.Bytes2Hex(n[:])
}
