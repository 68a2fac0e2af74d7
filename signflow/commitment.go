package signflow

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"zkpay-sdk/address"
	"zkpay-sdk/amount"
	"zkpay-sdk/models"
	"zkpay-sdk/nullifier"
	"zkpay-sdk/types"
)

// CommitmentAllocation is one allocation intent of a commitment: who
// receives it and how much. Amount is a wire amount string (decimal, or hex
// with an explicit 0x prefix).
type CommitmentAllocation struct {
	Seq       uint32
	Recipient address.UniversalAddress
	Amount    string
}

// CommitmentInput carries everything needed to build a commitment signature
// message and wire payload.
type CommitmentInput struct {
	Allocations      []CommitmentAllocation
	DepositIDHex     string // bytes32 hex from the deposit event
	LocalDepositID   uint64 // cross-checked against DepositIDHex when nonzero
	TokenID          uint16
	TokenSymbol      string
	TokenDecimals    uint8
	SLIP44ChainID    uint32 // checkbook's chain
	Owner            address.UniversalAddress
	Lang             models.LanguageCode
	ChainDisplayName string
}

// CommitmentSignData is the prepared output: the message an external signer
// must sign, its hash, the per-allocation nullifiers, and the backend
// payload awaiting the signature.
type CommitmentSignData struct {
	Message     string
	MessageHash [32]byte
	Nullifiers  [][32]byte

	// Payload is the backend submission body. Signature is left zero; fill
	// it with AttachSignature once the message is signed.
	Payload types.CommitmentSubmitRequest
}

// AttachSignature completes the payload with the external signer's output.
func (d *CommitmentSignData) AttachSignature(sig types.MultichainSignatureRequest) *types.CommitmentSubmitRequest {
	d.Payload.Signature = sig
	return &d.Payload
}

// PrepareCommitmentSignData renders the canonical commitment message, hashes
// it, computes the allocation nullifiers, and assembles the wire payload.
// It does not sign.
func PrepareCommitmentSignData(in CommitmentInput) (*CommitmentSignData, error) {
	if len(in.Allocations) == 0 {
		return nil, ErrEmptyAllocationList
	}
	tpl, err := templateFor(in.Lang)
	if err != nil {
		return nil, err
	}

	// The signer sees the deposit identifier as a decimal integer, never as
	// raw hex.
	depositID := nullifier.DepositIDFromHex(in.DepositIDHex)
	depositDec := new(big.Int).SetBytes(depositID[:]).String()
	if in.LocalDepositID != 0 && depositDec != strconv.FormatUint(in.LocalDepositID, 10) {
		return nil, fmt.Errorf("%w: event hex %s decodes to %s, checkbook has %d",
			ErrDepositIDMismatch, in.DepositIDHex, depositDec, in.LocalDepositID)
	}

	total := new(big.Int)
	lines := make([]messageLine, 0, len(in.Allocations))
	wireAllocs := make([]types.CommitmentAllocationRequest, 0, len(in.Allocations))
	nullifierInputs := make([]nullifier.AllocationInput, 0, len(in.Allocations))

	for _, alloc := range in.Allocations {
		wire, err := amount.ParseWire(alloc.Amount)
		if err != nil {
			return nil, fmt.Errorf("allocation seq %d: %w", alloc.Seq, err)
		}
		display, err := amount.FormatDisplay(wire, int(in.TokenDecimals))
		if err != nil {
			return nil, fmt.Errorf("allocation seq %d: %w", alloc.Seq, err)
		}
		canonical, err := amount.WireToDecimal(wire, int(in.TokenDecimals))
		if err != nil {
			return nil, fmt.Errorf("allocation seq %d: %w", alloc.Seq, err)
		}
		total.Add(total, wire)

		lines = append(lines, messageLine{
			chainID:   alloc.Recipient.ChainID,
			addr:      alloc.Recipient,
			amountKey: canonical,
			text:      fmt.Sprintf("%d:%s %s %s", alloc.Recipient.ChainID, alloc.Recipient.Hex(), display, in.TokenSymbol),
			wireAlloc: types.CommitmentAllocationRequest{
				RecipientChainID: alloc.Recipient.ChainID,
				RecipientAddress: alloc.Recipient.Hex(),
				Amount:           wire.String(),
			},
		})
		nullifierInputs = append(nullifierInputs, nullifier.AllocationInput{
			Seq:    alloc.Seq,
			Amount: wire.String(),
		})
	}

	totalDisplay, err := amount.FormatDisplay(total, int(in.TokenDecimals))
	if err != nil {
		return nil, err
	}

	// The message lines and the payload share one canonical order.
	sortLines(lines)
	for _, line := range lines {
		wireAllocs = append(wireAllocs, line.wireAlloc)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", tpl.commitmentTitle)
	fmt.Fprintf(&b, "%s: %s\n", tpl.depositLabel, depositDec)
	fmt.Fprintf(&b, "%s: %s\n", tpl.chainLabel, in.ChainDisplayName)
	fmt.Fprintf(&b, "%s: %s\n", tpl.tokenLabel, in.TokenSymbol)
	fmt.Fprintf(&b, "%s:\n", tpl.allocsLabel)
	for i, line := range lines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, line.text)
	}
	fmt.Fprintf(&b, "%s: %s %s", tpl.totalLabel, totalDisplay, in.TokenSymbol)
	message := b.String()

	nullifiers, err := nullifier.Batch(nullifierInputs, in.Owner, depositID, in.SLIP44ChainID, in.TokenID)
	if err != nil {
		return nil, err
	}

	return &CommitmentSignData{
		Message:     message,
		MessageHash: personalHash(message),
		Nullifiers:  nullifiers,
		Payload: types.CommitmentSubmitRequest{
			Allocations: wireAllocs,
			DepositID:   depositDec,
			OwnerAddress: types.UniversalAddressRequest{
				ChainID: in.Owner.ChainID,
				Address: in.Owner.Hex(),
			},
			TokenSymbol:   in.TokenSymbol,
			TokenDecimals: in.TokenDecimals,
			Lang:          uint8(in.Lang),
		},
	}, nil
}
