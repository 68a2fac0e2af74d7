package chains

import "testing"

func TestToEVMChainID(t *testing.T) {
	r := Default()
	tests := []struct {
		name   string
		slip44 uint32
		want   uint32
	}{
		{"bsc", 714, 56},
		{"ethereum", 60, 1},
		{"polygon", 966, 137},
		{"tron", 195, 195},
		{"arbitrum", 1042161, 42161},
		{"optimism", 1000010, 10},
		{"base", 1008453, 8453},
		{"avalanche", 9000, 43114},
		// Unmapped IDs fall back to identity.
		{"unmapped local chain", 31337, 31337},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ToEVMChainID(tt.slip44); got != tt.want {
				t.Errorf("ToEVMChainID(%d) = %d, want %d", tt.slip44, got, tt.want)
			}
		})
	}
}

func TestToSLIP44(t *testing.T) {
	r := Default()
	tests := []struct {
		name   string
		native uint32
		want   uint32
	}{
		{"bsc", 56, 714},
		{"ethereum", 1, 60},
		{"polygon", 137, 966},
		{"arbitrum", 42161, 1042161},
		{"unmapped local chain", 31337, 31337},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ToSLIP44(tt.native); got != tt.want {
				t.Errorf("ToSLIP44(%d) = %d, want %d", tt.native, got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	r := Default()
	for _, c := range r.AllChains() {
		if got := r.ToSLIP44(r.ToEVMChainID(c.SLIP44ChainID)); got != c.SLIP44ChainID {
			t.Errorf("%s: round trip %d -> %d", c.Name, c.SLIP44ChainID, got)
		}
	}
}

func TestKnown(t *testing.T) {
	r := Default()
	if !r.Known(714) {
		t.Error("Known(714) = false, want true")
	}
	if r.Known(31337) {
		t.Error("Known(31337) = true, want false")
	}
}

func TestDisplayName(t *testing.T) {
	r := Default()
	if got := r.DisplayName(714); got != "BSC" {
		t.Errorf("DisplayName(714) = %q, want BSC", got)
	}
	if got := r.DisplayName(424242); got != "Chain 424242" {
		t.Errorf("DisplayName(424242) = %q, want fallback", got)
	}
}

func TestByName(t *testing.T) {
	r := Default()
	info, ok := r.ByName("bsc")
	if !ok || info.SLIP44ChainID != 714 {
		t.Fatalf("ByName(bsc) = %+v, %v", info, ok)
	}
	if _, ok := r.ByName("solana"); ok {
		t.Error("ByName(solana) should miss")
	}
}

func TestIsEVMCompatible(t *testing.T) {
	r := Default()
	if r.IsEVMCompatible(195) {
		t.Error("TRON should not be EVM compatible")
	}
	if !r.IsEVMCompatible(714) {
		t.Error("BSC should be EVM compatible")
	}
	// Unknown chains default to EVM.
	if !r.IsEVMCompatible(31337) {
		t.Error("unknown chains should default to EVM")
	}
}

func TestRPCEndpoint(t *testing.T) {
	r := Default()
	if _, err := r.RPCEndpoint(714); err != nil {
		t.Errorf("RPCEndpoint(714): %v", err)
	}
	if _, err := r.RPCEndpoint(31337); err == nil {
		t.Error("RPCEndpoint(31337) should fail")
	}
}
