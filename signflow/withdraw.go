package signflow

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"zkpay-sdk/address"
	"zkpay-sdk/amount"
	"zkpay-sdk/models"
	"zkpay-sdk/nullifier"
	"zkpay-sdk/types"
)

// CheckbookRef resolves an allocation back to its originating checkbook.
// Withdrawals may combine allocations from several checkbooks of one owner,
// so the formatter never assumes a single checkbook context.
type CheckbookRef struct {
	LocalDepositID uint64
	SLIP44ChainID  uint32
	DepositIDHex   string // bytes32 deposit identifier, needed for the nullifier
	TokenID        uint16
}

// WithdrawInput carries everything needed to build a withdrawal signature
// message and wire payload.
type WithdrawInput struct {
	Allocations      []models.Allocation
	Intent           models.WithdrawIntent
	Owner            address.UniversalAddress
	TokenSymbol      string
	TokenDecimals    uint8
	Lang             models.LanguageCode
	ChainDisplayName string // display name of the beneficiary chain
	MinOutput        string // wire amount string; "" means no constraint
	SigningChainID   uint32 // SLIP-44 chain the signature is produced on

	// Checkbooks maps allocation ID to its originating checkbook.
	Checkbooks map[string]CheckbookRef
}

// WithdrawalSignData is the prepared output of a withdraw operation.
type WithdrawalSignData struct {
	Message     string
	MessageHash [32]byte

	// Nullifier is the aggregate request identifier: the first allocation's
	// nullifier in canonical order, which the contract uses as the on-chain
	// request ID.
	Nullifier [32]byte

	TargetChain   uint32
	TargetAddress string
	TokenSymbol   string
	AllocationIDs []string

	// Payload is the backend submission body awaiting the signature.
	Payload types.WithdrawSubmitRequest
}

// AttachSignature completes the payload with the external signer's output.
func (d *WithdrawalSignData) AttachSignature(sig types.MultichainSignatureRequest) *types.WithdrawSubmitRequest {
	d.Payload.Signature = sig
	return &d.Payload
}

// withdrawLine is one allocation entry with its canonical sort keys.
type withdrawLine struct {
	chainID        uint32
	localDepositID uint64
	seq            uint32
	amountKey      string
	allocationID   string
	nullifier      [32]byte
	text           string
}

// PrepareWithdrawSignData renders the canonical withdrawal message, hashes
// it, derives the aggregate nullifier, and assembles the wire payload. All
// allocations must share one token; amounts are summed with exact
// big-integer arithmetic.
func PrepareWithdrawSignData(in WithdrawInput) (*WithdrawalSignData, error) {
	if len(in.Allocations) == 0 {
		return nil, ErrEmptyAllocationList
	}
	tpl, err := templateFor(in.Lang)
	if err != nil {
		return nil, err
	}

	total := new(big.Int)
	lines := make([]withdrawLine, 0, len(in.Allocations))
	for _, alloc := range in.Allocations {
		if alloc.Token.Symbol != in.TokenSymbol {
			return nil, fmt.Errorf("%w: allocation %s holds %s, withdraw is %s",
				ErrMixedTokenAllocations, alloc.ID, alloc.Token.Symbol, in.TokenSymbol)
		}
		ref, ok := in.Checkbooks[alloc.ID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCheckbookForAllocation, alloc.ID)
		}

		wire, err := amount.ParseWire(alloc.Amount)
		if err != nil {
			return nil, fmt.Errorf("allocation %s: %w", alloc.ID, err)
		}
		display, err := amount.FormatDisplay(wire, int(in.TokenDecimals))
		if err != nil {
			return nil, fmt.Errorf("allocation %s: %w", alloc.ID, err)
		}
		canonical, err := amount.WireToDecimal(wire, int(in.TokenDecimals))
		if err != nil {
			return nil, fmt.Errorf("allocation %s: %w", alloc.ID, err)
		}
		total.Add(total, wire)

		n, err := nullifier.Nullifier(nullifier.DepositIDFromHex(ref.DepositIDHex),
			in.Owner, ref.SLIP44ChainID, ref.TokenID, alloc.Seq, wire)
		if err != nil {
			return nil, fmt.Errorf("allocation %s: %w", alloc.ID, err)
		}

		lines = append(lines, withdrawLine{
			chainID:        ref.SLIP44ChainID,
			localDepositID: ref.LocalDepositID,
			seq:            alloc.Seq,
			amountKey:      canonical,
			allocationID:   alloc.ID,
			nullifier:      n,
			text: fmt.Sprintf("%d/%d#%d %s %s",
				ref.SLIP44ChainID, ref.LocalDepositID, alloc.Seq, display, in.TokenSymbol),
		})
	}

	// Canonical order: originating chain id, then deposit, then seq, then
	// amount. Deterministic regardless of input order.
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.chainID != b.chainID {
			return a.chainID < b.chainID
		}
		if a.localDepositID != b.localDepositID {
			return a.localDepositID < b.localDepositID
		}
		if a.seq != b.seq {
			return a.seq < b.seq
		}
		return amountLess(a.amountKey, b.amountKey)
	})

	totalDisplay, err := amount.FormatDisplay(total, int(in.TokenDecimals))
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", tpl.withdrawTitle)
	fmt.Fprintf(&b, "%s: %s\n", tpl.intentLabel, intentTypeName(in.Intent.Type))
	fmt.Fprintf(&b, "%s: %d:%s\n", tpl.beneficiary, in.Intent.Beneficiary.ChainID, in.Intent.Beneficiary.Hex())
	fmt.Fprintf(&b, "%s: %s\n", tpl.chainLabel, in.ChainDisplayName)
	fmt.Fprintf(&b, "%s: %s\n", tpl.tokenLabel, in.TokenSymbol)
	fmt.Fprintf(&b, "%s:\n", tpl.allocsLabel)
	for i, line := range lines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, line.text)
	}
	fmt.Fprintf(&b, "%s: %s %s", tpl.totalLabel, totalDisplay, in.TokenSymbol)
	if in.MinOutput != "" {
		minWire, err := amount.ParseWire(in.MinOutput)
		if err != nil {
			return nil, fmt.Errorf("min output: %w", err)
		}
		minDisplay, err := amount.FormatDisplay(minWire, int(in.TokenDecimals))
		if err != nil {
			return nil, fmt.Errorf("min output: %w", err)
		}
		fmt.Fprintf(&b, "\n%s: %s %s", tpl.minOutputLabel, minDisplay, in.TokenSymbol)
	}
	message := b.String()

	ids := make([]string, len(lines))
	for i, line := range lines {
		ids[i] = line.allocationID
	}

	return &WithdrawalSignData{
		Message:       message,
		MessageHash:   personalHash(message),
		Nullifier:     lines[0].nullifier,
		TargetChain:   in.Intent.Beneficiary.ChainID,
		TargetAddress: in.Intent.Beneficiary.Hex(),
		TokenSymbol:   in.TokenSymbol,
		AllocationIDs: ids,
		Payload: types.WithdrawSubmitRequest{
			Allocations: ids,
			Intent: types.WithdrawIntentRequest{
				Type:               int(in.Intent.Type),
				BeneficiaryChainID: in.Intent.Beneficiary.ChainID,
				BeneficiaryAddress: in.Intent.Beneficiary.Hex(),
				TokenSymbol:        in.TokenSymbol,
			},
			ChainID: in.SigningChainID,
		},
	}, nil
}
