// Package chain defines the supported EVM networks and their parameters.
// All chain-specific values are hardcoded here - no external configuration needed.
package chain

import "sort"

// Params contains all parameters for a supported network.
type Params struct {
	// Identity
	ChainID   uint64 // EVM chain ID
	Name      string // Morph, X Layer, etc.
	ShortName string // morph, xlayer, etc.

	// Native currency
	NativeSymbol   string // ETH, OKB, tBNB
	NativeDecimals uint8  // always 18 on the supported chains

	// Features
	IsTestnet    bool
	SupportsSwap bool // router deployed and swaps enabled

	// Endpoints
	RPCURL      string
	ExplorerURL string
	APIEndpoint string // token catalog API base URL, empty when no catalog
	FaucetURL   string // testnets only
}

// registry maps chainID -> network parameters.
var registry = map[uint64]*Params{
	// ==========================================================================
	// Mainnets
	// ==========================================================================

	// Morph (chainID 2818)
	2818: {
		ChainID:        2818,
		Name:           "Morph",
		ShortName:      "morph",
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
		SupportsSwap:   true,
		RPCURL:         "https://rpc-quicknode.morphl2.io",
		ExplorerURL:    "https://explorer.morphl2.io",
		APIEndpoint:    "https://gate.game.com",
	},

	// X Layer (chainID 196)
	196: {
		ChainID:        196,
		Name:           "X Layer",
		ShortName:      "xlayer",
		NativeSymbol:   "OKB",
		NativeDecimals: 18,
		SupportsSwap:   false,
		RPCURL:         "https://rpc.xlayer.tech",
		ExplorerURL:    "https://www.oklink.com/xlayer",
		APIEndpoint:    "https://gate.game.com",
	},

	// ==========================================================================
	// Testnets
	// ==========================================================================

	// Morph Holesky (chainID 2810)
	2810: {
		ChainID:        2810,
		Name:           "Morph Holesky",
		ShortName:      "morph-holesky",
		NativeSymbol:   "ETH",
		NativeDecimals: 18,
		IsTestnet:      true,
		SupportsSwap:   true,
		RPCURL:         "https://rpc-quicknode-holesky.morphl2.io",
		ExplorerURL:    "https://explorer-holesky.morphl2.io",
		APIEndpoint:    "https://moodfun-api-dev.being.com",
		FaucetURL:      "https://morphfaucet.com",
	},

	// BSC Testnet (chainID 97)
	97: {
		ChainID:        97,
		Name:           "BSC Testnet",
		ShortName:      "bsc-testnet",
		NativeSymbol:   "tBNB",
		NativeDecimals: 18,
		IsTestnet:      true,
		SupportsSwap:   false,
		RPCURL:         "https://data-seed-prebsc-1-s1.binance.org:8545",
		ExplorerURL:    "https://testnet.bscscan.com",
		FaucetURL:      "https://testnet.bnbchain.org/faucet-smart",
	},
}

// Get returns network parameters for a chain ID.
func Get(chainID uint64) (*Params, bool) {
	params, ok := registry[chainID]
	return params, ok
}

// Supported returns all registered chain IDs in ascending order.
func Supported() []uint64 {
	ids := make([]uint64, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsSupported returns true if the chain is registered.
func IsSupported(chainID uint64) bool {
	_, ok := registry[chainID]
	return ok
}

// SupportsSwap returns true if swaps are enabled on the chain.
func SupportsSwap(chainID uint64) bool {
	params, ok := registry[chainID]
	return ok && params.SupportsSwap
}

// HasCatalog returns true if the chain has a token catalog API.
func HasCatalog(chainID uint64) bool {
	params, ok := registry[chainID]
	return ok && params.APIEndpoint != ""
}
