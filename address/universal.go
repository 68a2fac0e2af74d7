// Package address implements the 32-byte chain-tagged Universal Address
// format used in every ZKPay signed message and wire payload. Native chain
// addresses (20-byte EVM, Base58 TRON) are embedded right-aligned with
// leading zero padding.
package address

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// ErrInvalidAddressFormat is returned when a native address is not valid for
// the given chain's address scheme.
var ErrInvalidAddressFormat = errors.New("invalid address format")

const slip44Tron = 195

var evmHexPattern = regexp.MustCompile("^[0-9a-fA-F]{40}$")

// UniversalAddress is a chain-tagged 32-byte address. Immutable once built.
type UniversalAddress struct {
	ChainID uint32   // SLIP-44 Chain ID (BSC=714, ETH=60)
	Data    [32]byte // native address, right-aligned, zero-padded
}

// IsTronNative reports whether s looks like a TRON Base58 address.
func IsTronNative(s string) bool {
	return s != "" && strings.HasPrefix(s, "T") && len(s) == 34
}

// IsEVMNative reports whether s looks like a 20-byte EVM hex address.
func IsEVMNative(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		s = s[2:]
	}
	return evmHexPattern.MatchString(s)
}

// FromNative converts a native chain address to a UniversalAddress.
// EVM chains accept 40 hex chars with or without 0x prefix; TRON (SLIP-44
// 195) accepts a Base58 address with a valid double-sha256 checksum.
func FromNative(native string, slip44ChainID uint32) (UniversalAddress, error) {
	if slip44ChainID == slip44Tron {
		return fromTron(native)
	}
	return fromEVM(native, slip44ChainID)
}

func fromEVM(native string, slip44ChainID uint32) (UniversalAddress, error) {
	if !IsEVMNative(native) {
		return UniversalAddress{}, fmt.Errorf("%w: %q is not a 20-byte EVM address", ErrInvalidAddressFormat, native)
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(native), "0x"))
	if err != nil {
		return UniversalAddress{}, fmt.Errorf("%w: %v", ErrInvalidAddressFormat, err)
	}
	ua := UniversalAddress{ChainID: slip44ChainID}
	copy(ua.Data[12:], raw) // 20 bytes into the low end, 12 leading zero bytes
	return ua, nil
}

func fromTron(native string) (UniversalAddress, error) {
	if !IsTronNative(native) {
		return UniversalAddress{}, fmt.Errorf("%w: %q is not a TRON address", ErrInvalidAddressFormat, native)
	}
	decoded, err := base58Decode(native)
	if err != nil {
		return UniversalAddress{}, fmt.Errorf("%w: %v", ErrInvalidAddressFormat, err)
	}
	// 21 address bytes + 4 checksum bytes
	if len(decoded) != 25 {
		return UniversalAddress{}, fmt.Errorf("%w: decoded to %d bytes, want 25", ErrInvalidAddressFormat, len(decoded))
	}
	addr, checksum := decoded[:21], decoded[21:]
	h1 := sha256.Sum256(addr)
	h2 := sha256.Sum256(h1[:])
	if !bytes.Equal(checksum, h2[:4]) {
		return UniversalAddress{}, fmt.Errorf("%w: bad TRON checksum", ErrInvalidAddressFormat)
	}
	if addr[0] != 0x41 {
		return UniversalAddress{}, fmt.Errorf("%w: bad TRON prefix 0x%02x", ErrInvalidAddressFormat, addr[0])
	}
	ua := UniversalAddress{ChainID: slip44Tron}
	copy(ua.Data[12:], addr[1:])
	return ua, nil
}

// ToNative converts back to the chain's native address format. The round
// trip FromNative → ToNative is lossless for every supported chain.
func (a UniversalAddress) ToNative() (string, error) {
	if a.ChainID == slip44Tron {
		return a.toTron()
	}
	// 20-byte EVM address: the first 12 bytes must be zero padding.
	for _, b := range a.Data[:12] {
		if b != 0 {
			return "", fmt.Errorf("%w: non-zero padding in universal address %s", ErrInvalidAddressFormat, a.Hex())
		}
	}
	return "0x" + hex.EncodeToString(a.Data[12:]), nil
}

func (a UniversalAddress) toTron() (string, error) {
	for _, b := range a.Data[:12] {
		if b != 0 {
			return "", fmt.Errorf("%w: non-zero padding in universal address %s", ErrInvalidAddressFormat, a.Hex())
		}
	}
	raw := make([]byte, 21)
	raw[0] = 0x41
	copy(raw[1:], a.Data[12:])
	h1 := sha256.Sum256(raw)
	h2 := sha256.Sum256(h1[:])
	return base58Encode(append(raw, h2[:4]...)), nil
}

// Hex returns the 0x-prefixed 64-hex-char form used in wire payloads.
func (a UniversalAddress) Hex() string {
	return "0x" + hex.EncodeToString(a.Data[:])
}

// ParseHex parses a 0x-prefixed (or bare) 64-hex-char universal address.
func ParseHex(s string, slip44ChainID uint32) (UniversalAddress, error) {
	h := strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(h) != 64 {
		return UniversalAddress{}, fmt.Errorf("%w: %d hex chars, want 64", ErrInvalidAddressFormat, len(h))
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return UniversalAddress{}, fmt.Errorf("%w: %v", ErrInvalidAddressFormat, err)
	}
	ua := UniversalAddress{ChainID: slip44ChainID}
	copy(ua.Data[:], raw)
	return ua, nil
}

// Less orders addresses by unsigned lexicographic byte comparison. Used as
// the message-ordering tie break.
func (a UniversalAddress) Less(b UniversalAddress) bool {
	return bytes.Compare(a.Data[:], b.Data[:]) < 0
}

const b58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

func base58Decode(input string) ([]byte, error) {
	decode := make(map[byte]int, len(b58Alphabet))
	for i := 0; i < len(b58Alphabet); i++ {
		decode[b58Alphabet[i]] = i
	}

	zeroCount := 0
	for i := 0; i < len(input) && input[i] == '1'; i++ {
		zeroCount++
	}

	num := big.NewInt(0)
	base := big.NewInt(58)
	for i := 0; i < len(input); i++ {
		val, ok := decode[input[i]]
		if !ok {
			return nil, fmt.Errorf("invalid base58 character: %c", input[i])
		}
		num.Mul(num, base)
		num.Add(num, big.NewInt(int64(val)))
	}

	decoded := num.Bytes()
	for i := 0; i < zeroCount; i++ {
		decoded = append([]byte{0}, decoded...)
	}
	return decoded, nil
}

func base58Encode(input []byte) string {
	num := new(big.Int).SetBytes(input)
	base := big.NewInt(58)
	zero := big.NewInt(0)

	var result []byte
	for num.Cmp(zero) > 0 {
		mod := new(big.Int)
		num.DivMod(num, base, mod)
		result = append(result, b58Alphabet[mod.Int64()])
	}
	for _, b := range input {
		if b == 0 {
			result = append(result, '1')
		} else {
			break
		}
	}
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return string(result)
}
