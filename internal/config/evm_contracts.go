// Package config provides centralized configuration for the moodswap daemon.
//
// ALL contract addresses and swap parameters MUST be defined here. Do not
// scatter addresses or magic numbers throughout the codebase.
package config

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ==========================================================================
// Router contracts
// ==========================================================================

// routerRegistry maps chainID -> UniswapV2-style router address.
var routerRegistry = map[uint64]common.Address{
	// Morph (chainID 2818)
	2818: common.HexToAddress("0x3ab6F687F8C2EcA42f0Eb6dE5a8BF8deE077A7C2"),

	// X Layer (chainID 196)
	196: common.HexToAddress("0x236e11ce039cE0DD079cB356056C9127f65586F9"),

	// Morph Holesky (chainID 2810)
	2810: common.HexToAddress("0x73265ce577783A4Ae11cC4d58817a3b26B685863"),

	// BSC Testnet (chainID 97)
	97: common.HexToAddress("0x73265ce577783A4Ae11cC4d58817a3b26B685863"),
}

// RouterFor returns the swap router address for a chain ID.
func RouterFor(chainID uint64) (common.Address, bool) {
	addr, ok := routerRegistry[chainID]
	return addr, ok
}

// ==========================================================================
// Multicall3
// ==========================================================================

// Multicall3Address is the canonical Multicall3 deployment, identical on
// every supported chain.
var Multicall3Address = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

// ==========================================================================
// Swap parameters
// ==========================================================================

const (
	// DeadlineWindow is how far in the future swap transaction deadlines are set.
	DeadlineWindow = 20 * time.Minute

	// SlippageBufferBps is the fixed buffer added on top of the user's
	// slippage tolerance when computing the minimum output amount.
	SlippageBufferBps = 100 // 1%

	// DefaultSlippageBps is the user slippage tolerance used when none is given.
	DefaultSlippageBps = 500 // 5%

	// QuoteRefreshInterval is how often a displayed quote is re-fetched while
	// a pair and amount are selected.
	QuoteRefreshInterval = 10 * time.Second
)
