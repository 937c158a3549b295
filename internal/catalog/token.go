// Package catalog resolves the tradable token list for each supported chain.
//
// Lists come from the remote coin-list API when available, with curated
// entries pinned to the front and a static per-chain fallback when the
// remote fetch fails. Callers always get a usable list, never an error.
package catalog

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// HubSymbol is the pairing hub: every other token trades against it.
const HubSymbol = "M"

// Token describes a tradable token on one chain.
type Token struct {
	ID             string         `json:"id"`
	ChainID        uint64         `json:"chainId"`
	Symbol         string         `json:"symbol"`
	Name           string         `json:"name"`
	Address        common.Address `json:"address"`
	Decimals       uint8          `json:"decimals"`
	LogoURL        string         `json:"logoUrl,omitempty"`
	PriceUSD       float64        `json:"priceUsd"`
	MarketCap      float64        `json:"marketCap"`
	PriceChange24h float64        `json:"priceChange24h"`
}

// IsHub returns true if the token is the pairing hub.
func (t Token) IsHub() bool {
	return strings.EqualFold(t.Symbol, HubSymbol)
}

// IsNative returns true if the token stands for the chain's native currency.
// The zero address is the native placeholder throughout the engine.
func (t Token) IsNative() bool {
	return t.Address == (common.Address{})
}

// curated tokens pinned to the front of each chain's list, in display order.
// They double as the fallback list when the remote fetch fails.
var curated = map[uint64][]Token{
	// Morph
	2818: {
		{
			ID:       "bgb-2818",
			ChainID:  2818,
			Symbol:   "BGB",
			Name:     "Bitget Token",
			Address:  common.HexToAddress("0x55d1f1879969bdbB9960d269974564C58DBc3238"),
			Decimals: 18,
			PriceUSD: 4.98,
		},
		{
			ID:       "m-2818",
			ChainID:  2818,
			Symbol:   "M",
			Name:     "M",
			Address:  common.HexToAddress("0x13345d9e5a0ce52f08c8667dd1dbd60de0f46868"),
			Decimals: 18,
			PriceUSD: 1,
		},
	},

	// Morph Holesky
	2810: {
		{
			ID:       "bgb-2810",
			ChainID:  2810,
			Symbol:   "BGB",
			Name:     "Bitget Token",
			Address:  common.HexToAddress("0x1670F6eb896191C385C5609C78eD8C9fD8514f56"),
			Decimals: 18,
			PriceUSD: 4.98,
		},
		{
			ID:       "m-2810",
			ChainID:  2810,
			Symbol:   "M",
			Name:     "M",
			Address:  common.HexToAddress("0x9f79650d31ee7efa6fa5a45ca19b4bf7276d6868"),
			Decimals: 18,
			PriceUSD: 1,
		},
	},

	// X Layer
	196: {
		{
			ID:       "okb-196",
			ChainID:  196,
			Symbol:   "OKB",
			Name:     "OKB",
			Address:  common.HexToAddress("0xe538905cf8410324e03A5A23C1c177a474D59b2b"),
			Decimals: 18,
		},
		{
			ID:       "okay-196",
			ChainID:  196,
			Symbol:   "OKAY",
			Name:     "OKAY",
			Address:  common.HexToAddress("0x8854b281cdf5940ebd4a753f8d37f49775058e03"),
			Decimals: 18,
		},
	},
}

// Curated returns the pinned tokens for a chain, in display order.
// Chains without curated entries return nil.
func Curated(chainID uint64) []Token {
	src, ok := curated[chainID]
	if !ok {
		return nil
	}
	out := make([]Token, len(src))
	copy(out, src)
	return out
}

// Counterparts returns the tokens the fixed token may trade against,
// filtered from all. The hub pairs with every non-hub token; every
// non-hub token pairs only with the hub.
func Counterparts(all []Token, fixed Token) []Token {
	var out []Token
	if fixed.IsHub() {
		for _, t := range all {
			if !t.IsHub() {
				out = append(out, t)
			}
		}
		return out
	}
	for _, t := range all {
		if t.IsHub() {
			out = append(out, t)
		}
	}
	return out
}
