// Package amount converts between decimal token amounts and the fixed-width
// uint256 wire representation. Every conversion uses an explicit numeral
// base; the base is never inferred from the shape of the input string. A
// digit string like "15000000000000000000" is always a decimal amount.
// Misreading it as hex once produced a "99169.69" display for a 15.00
// deposit in production.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrInvalidAmount is returned for malformed decimal amount strings.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAmountOverflow is returned when a wire amount does not fit uint256.
	ErrAmountOverflow = errors.New("amount overflows uint256")
)

// maxUint256 = 2^256 - 1, the largest representable wire amount.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// DecimalToWire converts a decimal amount string ("15", "15.5", "0.000001")
// scaled by 10^decimals into a big unsigned integer. Base 10 only; no
// floating point is involved at any step.
func DecimalToWire(s string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, fmt.Errorf("%w: negative decimals %d", ErrInvalidAmount, decimals)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("%w: negative amount %q", ErrInvalidAmount, s)
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("%w: %q has %d fraction digits, token has %d decimals", ErrInvalidAmount, s, len(frac), decimals)
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}

	// whole*10^decimals + frac*10^(decimals-len(frac)), all in base 10.
	w, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, whole)
	}
	w.Mul(w, pow10(decimals))
	if frac != "" {
		f, ok := new(big.Int).SetString(frac, 10)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, frac)
		}
		f.Mul(f, pow10(decimals-len(frac)))
		w.Add(w, f)
	}
	if w.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrAmountOverflow, s)
	}
	return w, nil
}

// ParseWire parses a wire amount string. Decimal strings and 0x-prefixed hex
// strings are both accepted, but the base is decided solely by the explicit
// 0x prefix, never by guessing.
func ParseWire(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty wire amount", ErrInvalidAmount)
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	v, ok := new(big.Int).SetString(s, base)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q is not a base-%d integer", ErrInvalidAmount, s, base)
	}
	if v.Cmp(maxUint256) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrAmountOverflow, s)
	}
	return v, nil
}

// WireToDecimal converts a wire amount back to its canonical decimal string:
// no leading zeros, trailing fractional zeros trimmed, no "." when the
// fraction is empty. Inverse of DecimalToWire up to normalization.
func WireToDecimal(wire *big.Int, decimals int) (string, error) {
	if wire == nil || wire.Sign() < 0 {
		return "", fmt.Errorf("%w: nil or negative wire amount", ErrInvalidAmount)
	}
	if wire.Cmp(maxUint256) > 0 {
		return "", fmt.Errorf("%w: %s", ErrAmountOverflow, wire.String())
	}
	if decimals < 0 {
		return "", fmt.Errorf("%w: negative decimals %d", ErrInvalidAmount, decimals)
	}
	whole, frac := new(big.Int).QuoRem(wire, pow10(decimals), new(big.Int))
	if frac.Sign() == 0 {
		return whole.String(), nil
	}
	fracStr := strings.TrimRight(fmt.Sprintf("%0*s", decimals, frac.String()), "0")
	return whole.String() + "." + fracStr, nil
}

// FormatDisplay renders a wire amount for human display in signature
// messages: exact value, minimum two fraction digits. 15e18 wei at 18
// decimals renders as "15.00".
func FormatDisplay(wire *big.Int, decimals int) (string, error) {
	s, err := WireToDecimal(wire, decimals)
	if err != nil {
		return "", err
	}
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return s + ".00", nil
	}
	if len(s)-i-1 < 2 {
		return s + strings.Repeat("0", 2-(len(s)-i-1)), nil
	}
	return s, nil
}

// ToBytes32 encodes a wire amount as a 32-byte big-endian value (U256).
func ToBytes32(wire *big.Int) ([32]byte, error) {
	var out [32]byte
	if wire == nil || wire.Sign() < 0 || wire.Cmp(maxUint256) > 0 {
		return out, fmt.Errorf("%w: %v", ErrAmountOverflow, wire)
	}
	wire.FillBytes(out[:])
	return out, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
