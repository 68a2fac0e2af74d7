// Package chains maps between the two chain identifier spaces used by the
// ZKPay protocol: SLIP-44 coin IDs (backend API, signing messages) and native
// EVM chain IDs (RPC and contract calls).
package chains

import (
	"fmt"
	"strings"
)

// ChainInfo describes one supported chain.
type ChainInfo struct {
	SLIP44ChainID uint32   `json:"slip44_chain_id"` // SLIP-44 Chain ID (API / signing)
	NativeChainID uint32   `json:"native_chain_id"` // Native Chain ID (RPC)
	Name          string   `json:"name"`
	Symbol        string   `json:"symbol"` // native token symbol
	IsEVM         bool     `json:"is_evm"`
	RPCEndpoints  []string `json:"rpc_endpoints"`
	ExplorerURL   string   `json:"explorer_url"`
}

// Registry is an immutable bidirectional chain ID table. Construct it once
// and pass it into every component that needs chain ID conversion; there is
// no package-level mutable instance.
type Registry struct {
	bySlip44 map[uint32]*ChainInfo
	byNative map[uint32]*ChainInfo
}

// NewRegistry builds a registry from an explicit chain table.
func NewRegistry(chains []*ChainInfo) *Registry {
	r := &Registry{
		bySlip44: make(map[uint32]*ChainInfo, len(chains)),
		byNative: make(map[uint32]*ChainInfo, len(chains)),
	}
	for _, c := range chains {
		r.bySlip44[c.SLIP44ChainID] = c
		r.byNative[c.NativeChainID] = c
	}
	return r
}

// Default returns the registry of all chains supported by the deployed
// protocol. Custom SLIP-44 IDs for L2s follow the 1000000+native convention.
func Default() *Registry {
	return NewRegistry([]*ChainInfo{
		{
			SLIP44ChainID: 60,
			NativeChainID: 1,
			Name:          "Ethereum",
			Symbol:        "ETH",
			IsEVM:         true,
			RPCEndpoints:  []string{"https://eth.llamarpc.com", "https://rpc.ankr.com/eth"},
			ExplorerURL:   "https://etherscan.io",
		},
		{
			SLIP44ChainID: 714,
			NativeChainID: 56,
			Name:          "BSC",
			Symbol:        "BNB",
			IsEVM:         true,
			RPCEndpoints:  []string{"https://bsc-dataseed1.binance.org", "https://bsc-dataseed2.binance.org"},
			ExplorerURL:   "https://bscscan.com",
		},
		{
			SLIP44ChainID: 966,
			NativeChainID: 137,
			Name:          "Polygon",
			Symbol:        "MATIC",
			IsEVM:         true,
			RPCEndpoints:  []string{"https://polygon-rpc.com", "https://rpc.ankr.com/polygon"},
			ExplorerURL:   "https://polygonscan.com",
		},
		{
			SLIP44ChainID: 195,
			NativeChainID: 195,
			Name:          "Tron",
			Symbol:        "TRX",
			IsEVM:         false,
			RPCEndpoints:  []string{"https://api.trongrid.io"},
			ExplorerURL:   "https://tronscan.org",
		},
		{
			SLIP44ChainID: 1042161,
			NativeChainID: 42161,
			Name:          "Arbitrum",
			Symbol:        "ETH",
			IsEVM:         true,
			RPCEndpoints:  []string{"https://arb1.arbitrum.io/rpc", "https://rpc.ankr.com/arbitrum"},
			ExplorerURL:   "https://arbiscan.io",
		},
		{
			SLIP44ChainID: 1000010,
			NativeChainID: 10,
			Name:          "Optimism",
			Symbol:        "ETH",
			IsEVM:         true,
			RPCEndpoints:  []string{"https://mainnet.optimism.io", "https://rpc.ankr.com/optimism"},
			ExplorerURL:   "https://optimistic.etherscan.io",
		},
		{
			SLIP44ChainID: 1008453,
			NativeChainID: 8453,
			Name:          "Base",
			Symbol:        "ETH",
			IsEVM:         true,
			RPCEndpoints:  []string{"https://mainnet.base.org", "https://base.llamarpc.com"},
			ExplorerURL:   "https://basescan.org",
		},
		{
			SLIP44ChainID: 9000,
			NativeChainID: 43114,
			Name:          "Avalanche",
			Symbol:        "AVAX",
			IsEVM:         true,
			RPCEndpoints:  []string{"https://api.avax.network/ext/bc/C/rpc"},
			ExplorerURL:   "https://snowtrace.io",
		},
	})
}

// BySlip44 looks up chain info by SLIP-44 ID.
func (r *Registry) BySlip44(slip44 uint32) (*ChainInfo, bool) {
	info, ok := r.bySlip44[slip44]
	return info, ok
}

// ByNative looks up chain info by native chain ID.
func (r *Registry) ByNative(native uint32) (*ChainInfo, bool) {
	info, ok := r.byNative[native]
	return info, ok
}

// Known reports whether the SLIP-44 ID has an explicit table entry. Callers
// that must not tolerate the identity fallback check this first.
func (r *Registry) Known(slip44 uint32) bool {
	_, ok := r.bySlip44[slip44]
	return ok
}

// ToEVMChainID converts a SLIP-44 ID to the native EVM chain ID. Unmapped
// IDs fall back to identity: EVM-only test chains register deposits under
// their EVM chain ID directly, so slip44 == native for them.
func (r *Registry) ToEVMChainID(slip44 uint32) uint32 {
	if info, ok := r.bySlip44[slip44]; ok {
		return info.NativeChainID
	}
	return slip44
}

// ToSLIP44 converts a native EVM chain ID to the SLIP-44 ID, with the same
// identity fallback as ToEVMChainID.
func (r *Registry) ToSLIP44(native uint32) uint32 {
	if info, ok := r.byNative[native]; ok {
		return info.SLIP44ChainID
	}
	return native
}

// DisplayName returns the human-readable chain name used in signature
// messages.
func (r *Registry) DisplayName(slip44 uint32) string {
	if info, ok := r.bySlip44[slip44]; ok {
		return info.Name
	}
	return fmt.Sprintf("Chain %d", slip44)
}

// IsEVMCompatible reports whether the chain speaks the EVM address format.
// Unknown chains are treated as EVM: every supported non-EVM chain (TRON)
// has an explicit entry.
func (r *Registry) IsEVMCompatible(slip44 uint32) bool {
	if info, ok := r.bySlip44[slip44]; ok {
		return info.IsEVM
	}
	return true
}

// RPCEndpoint returns the primary RPC endpoint for a chain.
func (r *Registry) RPCEndpoint(slip44 uint32) (string, error) {
	info, ok := r.bySlip44[slip44]
	if !ok || len(info.RPCEndpoints) == 0 {
		return "", fmt.Errorf("no RPC endpoint for chain: %d", slip44)
	}
	return info.RPCEndpoints[0], nil
}

// ByName looks up chain info by name, case-insensitively. Event subjects
// carry lowercase chain names ("bsc", "ethereum").
func (r *Registry) ByName(name string) (*ChainInfo, bool) {
	for _, c := range r.bySlip44 {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

// AllChains returns every registered chain.
func (r *Registry) AllChains() []*ChainInfo {
	chains := make([]*ChainInfo, 0, len(r.bySlip44))
	for _, c := range r.bySlip44 {
		chains = append(chains, c)
	}
	return chains
}
