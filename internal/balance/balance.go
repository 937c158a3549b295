// Package balance reads native and ERC-20 balances, batching token reads
// through Multicall3 with per-call failure isolation.
package balance

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/moodswap/moodswapd/internal/catalog"
	"github.com/moodswap/moodswapd/internal/evm"
	"github.com/moodswap/moodswapd/pkg/helpers"
	"github.com/moodswap/moodswapd/pkg/logging"
)

func format(raw *big.Int, decimals uint8) string {
	return helpers.FormatAmount(raw, decimals)
}

// ChainClient is the chain access the reader needs.
type ChainClient interface {
	NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error)
	ERC20Balance(ctx context.Context, token, owner common.Address) (*big.Int, error)
	Aggregate3(ctx context.Context, calls []evm.Call3) ([]evm.Call3Result, error)
}

// Entry is one token's balance in a batch result.
type Entry struct {
	Token   catalog.Token
	Raw     *big.Int
	Display string
}

// Reader reads balances across the supported chains.
type Reader struct {
	clients map[uint64]ChainClient
	log     *logging.Logger
}

// NewReader creates a reader over the given per-chain clients.
func NewReader(clients map[uint64]ChainClient, log *logging.Logger) *Reader {
	return &Reader{clients: clients, log: log.Component("balance")}
}

// Balance reads a single token balance.
func (r *Reader) Balance(ctx context.Context, chainID uint64, owner common.Address, token catalog.Token) (*big.Int, string, error) {
	client, ok := r.clients[chainID]
	if !ok {
		return nil, "", fmt.Errorf("no client for chain %d", chainID)
	}

	var (
		raw *big.Int
		err error
	)
	if token.IsNative() {
		raw, err = client.NativeBalance(ctx, owner)
	} else {
		raw, err = client.ERC20Balance(ctx, token.Address, owner)
	}
	if err != nil {
		return nil, "", err
	}
	return raw, format(raw, token.Decimals), nil
}

// Balances reads many token balances in one pass. ERC-20 reads go through a
// single Multicall3 aggregate3 call with per-call failure allowed; native
// reads run concurrently alongside. The result slice matches the input order
// exactly, and any individual failure yields a zero balance rather than an
// error. If the batch call itself fails, every token is retried individually.
func (r *Reader) Balances(ctx context.Context, chainID uint64, owner common.Address, tokens []catalog.Token) []Entry {
	entries := make([]Entry, len(tokens))
	for i, tok := range tokens {
		entries[i] = Entry{Token: tok, Raw: big.NewInt(0), Display: format(big.NewInt(0), tok.Decimals)}
	}

	client, ok := r.clients[chainID]
	if !ok {
		r.log.Warn("no client for chain, returning zero balances", "chain", chainID)
		return entries
	}

	var wg sync.WaitGroup
	var erc20Idx []int
	for i, tok := range tokens {
		if tok.IsNative() {
			wg.Add(1)
			go func(i int, tok catalog.Token) {
				defer wg.Done()
				raw, err := client.NativeBalance(ctx, owner)
				if err != nil {
					r.log.Warn("native balance failed", "chain", chainID, "err", err)
					return
				}
				entries[i].Raw = raw
				entries[i].Display = format(raw, tok.Decimals)
			}(i, tok)
			continue
		}
		erc20Idx = append(erc20Idx, i)
	}

	if len(erc20Idx) > 0 {
		calls := make([]evm.Call3, len(erc20Idx))
		for j, i := range erc20Idx {
			calls[j] = evm.Call3{
				Target:       tokens[i].Address,
				AllowFailure: true,
				CallData:     evm.PackBalanceOf(owner),
			}
		}

		results, err := client.Aggregate3(ctx, calls)
		if err != nil || len(results) != len(calls) {
			r.log.Warn("aggregate3 failed, falling back to individual reads", "chain", chainID, "err", err)
			r.readIndividually(ctx, client, chainID, owner, tokens, erc20Idx, entries)
		} else {
			for j, i := range erc20Idx {
				if !results[j].Success {
					continue
				}
				raw, err := evm.UnpackBalanceOf(results[j].ReturnData)
				if err != nil {
					r.log.Warn("balanceOf decode failed", "token", tokens[i].Address.Hex(), "err", err)
					continue
				}
				entries[i].Raw = raw
				entries[i].Display = format(raw, tokens[i].Decimals)
			}
		}
	}

	wg.Wait()
	return entries
}

func (r *Reader) readIndividually(ctx context.Context, client ChainClient, chainID uint64, owner common.Address, tokens []catalog.Token, idx []int, entries []Entry) {
	for _, i := range idx {
		raw, err := client.ERC20Balance(ctx, tokens[i].Address, owner)
		if err != nil {
			r.log.Warn("balanceOf failed", "chain", chainID, "token", tokens[i].Address.Hex(), "err", err)
			continue
		}
		entries[i].Raw = raw
		entries[i].Display = format(raw, tokens[i].Decimals)
	}
}
