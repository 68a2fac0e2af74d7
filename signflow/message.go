// Package signflow builds the canonical signable messages and backend wire
// payloads for commitment and withdrawal operations. The rendered message is
// what the user's wallet (or the KMS) signs; it must hash identically across
// every client implementation and the on-chain verifier, so rendering order
// and formatting are fully specified here and must not drift.
package signflow

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"zkpay-sdk/address"
	"zkpay-sdk/amount"
	"zkpay-sdk/models"
	"zkpay-sdk/types"
)

var (
	// ErrEmptyAllocationList is returned when there is nothing to sign.
	ErrEmptyAllocationList = errors.New("empty allocation list")
	// ErrUnsupportedLanguage is returned for a language code outside the
	// closed supported set.
	ErrUnsupportedLanguage = errors.New("unsupported language code")
	// ErrAmountOverflow is returned when an amount exceeds the token's
	// maximum representable wire value.
	ErrAmountOverflow = amount.ErrAmountOverflow
	// ErrMixedTokenAllocations is returned when one withdraw combines
	// allocations of different tokens.
	ErrMixedTokenAllocations = errors.New("allocations use different tokens")
	// ErrUnknownCheckbookForAllocation is returned when an allocation's
	// originating checkbook is missing from the supplied map.
	ErrUnknownCheckbookForAllocation = errors.New("unknown checkbook for allocation")
	// ErrDepositIDMismatch is returned when the deposit id decoded from the
	// event hex disagrees with the checkbook's local deposit id.
	ErrDepositIDMismatch = errors.New("deposit id mismatch")
)

// messageLine is one recipient entry of a rendered message, kept alongside
// its sort keys.
type messageLine struct {
	chainID   uint32
	addr      address.UniversalAddress
	amountKey string // canonical decimal, for the tertiary sort key
	text      string

	// wireAlloc rides along so the submitted payload keeps the same
	// canonical order as the rendered message.
	wireAlloc types.CommitmentAllocationRequest
}

// sortLines applies the canonical tie-break order: recipient chain id
// ascending, then recipient address bytes ascending (unsigned
// lexicographic), then amount ascending. Every implementation must sort the
// same way or signatures stop being portable.
func sortLines(lines []messageLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.chainID != b.chainID {
			return a.chainID < b.chainID
		}
		if a.addr != b.addr {
			return a.addr.Less(b.addr)
		}
		return amountLess(a.amountKey, b.amountKey)
	})
}

// amountLess compares two canonical decimal amount strings numerically.
// Shorter digit strings are smaller; equal lengths compare lexically.
func amountLess(a, b string) bool {
	ai, af, _ := strings.Cut(a, ".")
	bi, bf, _ := strings.Cut(b, ".")
	if len(ai) != len(bi) {
		return len(ai) < len(bi)
	}
	if ai != bi {
		return ai < bi
	}
	return af < bf
}

// personalHash applies the standard personal-message-hash scheme of the
// signing chain (EIP-191 / TIP-191 prefix + keccak256).
func personalHash(message string) [32]byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	var out [32]byte
	copy(out[:], crypto.Keccak256([]byte(prefixed)))
	return out
}

// template holds the per-language message fragments. The english and
// chinese variants are the closed set supported by the deployed verifier.
type template struct {
	commitmentTitle string
	withdrawTitle   string
	depositLabel    string
	chainLabel      string
	tokenLabel      string
	allocsLabel     string
	totalLabel      string
	intentLabel     string
	beneficiary     string
	minOutputLabel  string
}

var templates = map[models.LanguageCode]template{
	models.LangEn: {
		commitmentTitle: "ZKPay Commitment Confirmation",
		withdrawTitle:   "ZKPay Withdrawal Confirmation",
		depositLabel:    "Deposit ID",
		chainLabel:      "Chain",
		tokenLabel:      "Token",
		allocsLabel:     "Allocations",
		totalLabel:      "Total",
		intentLabel:     "Intent",
		beneficiary:     "Beneficiary",
		minOutputLabel:  "Minimum Output",
	},
	models.LangZhCN: {
		commitmentTitle: "ZKPay 承诺确认",
		withdrawTitle:   "ZKPay 提现确认",
		depositLabel:    "存款编号",
		chainLabel:      "链",
		tokenLabel:      "代币",
		allocsLabel:     "分配列表",
		totalLabel:      "总计",
		intentLabel:     "意图",
		beneficiary:     "收款人",
		minOutputLabel:  "最小输出",
	},
}

func templateFor(lang models.LanguageCode) (template, error) {
	t, ok := templates[lang]
	if !ok {
		return template{}, fmt.Errorf("%w: %d", ErrUnsupportedLanguage, lang)
	}
	return t, nil
}

// intentTypeName renders the intent discriminant for the message body. The
// name, not the number, is shown to the signer.
func intentTypeName(t models.IntentType) string {
	switch t {
	case models.IntentTypeRawToken:
		return "RawToken"
	default:
		return fmt.Sprintf("Intent(%d)", t)
	}
}
