package nullifier

import (
	"math/big"
	"strings"
	"testing"

	"zkpay-sdk/address"
)

func testOwner(t *testing.T) address.UniversalAddress {
	t.Helper()
	ua, err := address.FromNative("0x742d35Cc6634C0532925a3b0F26750C66d78EB66", 714)
	if err != nil {
		t.Fatal(err)
	}
	return ua
}

func TestNullifierDeterministic(t *testing.T) {
	owner := testOwner(t)
	depositID := DepositIDFromHex("0xa8c67f5fd8466da0f75415c42ad9fa15bb2daf0d4a9923da4042954f979ed366")
	amt := big.NewInt(1000000)

	a, err := Nullifier(depositID, owner, 714, 1, 0, amt)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Nullifier(depositID, owner, 714, 1, 0, amt)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("identical inputs must produce identical nullifiers")
	}
}

func TestNullifierInputSensitivity(t *testing.T) {
	owner := testOwner(t)
	other := testOwner(t)
	other.Data[31] ^= 1
	depositID := DepositIDFromHex("0x01")
	otherDeposit := DepositIDFromHex("0x02")
	amt := big.NewInt(1000000)

	base, err := Nullifier(depositID, owner, 714, 1, 0, amt)
	if err != nil {
		t.Fatal(err)
	}

	variants := []struct {
		name string
		fn   func() ([32]byte, error)
	}{
		{"deposit", func() ([32]byte, error) { return Nullifier(otherDeposit, owner, 714, 1, 0, amt) }},
		{"owner", func() ([32]byte, error) { return Nullifier(depositID, other, 714, 1, 0, amt) }},
		{"chain", func() ([32]byte, error) { return Nullifier(depositID, owner, 60, 1, 0, amt) }},
		{"token", func() ([32]byte, error) { return Nullifier(depositID, owner, 714, 2, 0, amt) }},
		{"seq", func() ([32]byte, error) { return Nullifier(depositID, owner, 714, 1, 1, amt) }},
		{"amount", func() ([32]byte, error) { return Nullifier(depositID, owner, 714, 1, 0, big.NewInt(1000001)) }},
	}
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			got, err := v.fn()
			if err != nil {
				t.Fatal(err)
			}
			if got == base {
				t.Errorf("changing %s must change the nullifier", v.name)
			}
		})
	}
}

func TestNullifierRejectsBadAmount(t *testing.T) {
	owner := testOwner(t)
	if _, err := Nullifier(DepositIDFromHex("0x01"), owner, 714, 1, 0, nil); err == nil {
		t.Error("nil amount should fail")
	}
	if _, err := Nullifier(DepositIDFromHex("0x01"), owner, 714, 1, 0, big.NewInt(-1)); err == nil {
		t.Error("negative amount should fail")
	}
}

func TestBatchFollowsInputOrder(t *testing.T) {
	owner := testOwner(t)
	depositID := DepositIDFromHex("0x0a")
	allocs := []AllocationInput{
		{Seq: 0, Amount: "100"},
		{Seq: 1, Amount: "200"},
		{Seq: 2, Amount: "300"},
	}

	out, err := Batch(allocs, owner, depositID, 714, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d nullifiers, want 3", len(out))
	}

	// Permuting the input permutes the output identically.
	reversed := []AllocationInput{allocs[2], allocs[1], allocs[0]}
	outRev, err := Batch(reversed, owner, depositID, 714, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := range out {
		if out[i] != outRev[len(out)-1-i] {
			t.Errorf("nullifier %d changed under permutation", i)
		}
	}
}

func TestBatchHexAmount(t *testing.T) {
	owner := testOwner(t)
	depositID := DepositIDFromHex("0x0a")

	dec, err := Batch([]AllocationInput{{Seq: 0, Amount: "255"}}, owner, depositID, 714, 1)
	if err != nil {
		t.Fatal(err)
	}
	hex, err := Batch([]AllocationInput{{Seq: 0, Amount: "0xff"}}, owner, depositID, 714, 1)
	if err != nil {
		t.Fatal(err)
	}
	if dec[0] != hex[0] {
		t.Error("255 and 0xff are the same amount and must hash identically")
	}

	if _, err := Batch([]AllocationInput{{Seq: 0, Amount: "nope"}}, owner, depositID, 714, 1); err == nil {
		t.Error("malformed amount should fail")
	}
}

func TestHex(t *testing.T) {
	var n [32]byte
	n[31] = 0xab
	got := Hex(n)
	if !strings.HasPrefix(got, "0x") || len(got) != 66 {
		t.Errorf("Hex() = %q, want 0x + 64 chars", got)
	}
	if !strings.HasSuffix(got, "ab") {
		t.Errorf("Hex() = %q, want suffix ab", got)
	}
}
