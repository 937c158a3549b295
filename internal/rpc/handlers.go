package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/moodswap/moodswapd/internal/catalog"
	"github.com/moodswap/moodswapd/internal/chain"
	"github.com/moodswap/moodswapd/internal/config"
)

// ErrReadOnly is returned for swap methods when no signing key is loaded.
var ErrReadOnly = errors.New("daemon is running without a signing key")

// NetworkInfo describes one supported chain to RPC clients.
type NetworkInfo struct {
	ChainID        uint64 `json:"chainId"`
	Name           string `json:"name"`
	ShortName      string `json:"shortName"`
	NativeSymbol   string `json:"nativeSymbol"`
	NativeDecimals uint8  `json:"nativeDecimals"`
	IsTestnet      bool   `json:"isTestnet"`
	SupportsSwap   bool   `json:"supportsSwap"`
	HasCatalog     bool   `json:"hasCatalog"`
	Router         string `json:"router,omitempty"`
	ExplorerURL    string `json:"explorerUrl,omitempty"`
	FaucetURL      string `json:"faucetUrl,omitempty"`
}

// networkList returns every supported chain.
func (s *Server) networkList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	ids := chain.Supported()
	networks := make([]NetworkInfo, 0, len(ids))
	for _, id := range ids {
		p, _ := chain.Get(id)
		info := NetworkInfo{
			ChainID:        p.ChainID,
			Name:           p.Name,
			ShortName:      p.ShortName,
			NativeSymbol:   p.NativeSymbol,
			NativeDecimals: p.NativeDecimals,
			IsTestnet:      p.IsTestnet,
			SupportsSwap:   p.SupportsSwap,
			HasCatalog:     chain.HasCatalog(p.ChainID),
			ExplorerURL:    p.ExplorerURL,
			FaucetURL:      p.FaucetURL,
		}
		if router, ok := config.RouterFor(p.ChainID); ok {
			info.Router = router.Hex()
		}
		networks = append(networks, info)
	}
	return map[string]interface{}{"networks": networks}, nil
}

// tokenListParams are the parameters for token_list.
type tokenListParams struct {
	ChainID uint64 `json:"chainId"`
	Keyword string `json:"keyword,omitempty"`
}

// tokenList returns the resolved token catalog for a chain.
func (s *Server) tokenList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p tokenListParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if !chain.IsSupported(p.ChainID) {
		return nil, fmt.Errorf("unsupported chain %d", p.ChainID)
	}

	tokens := s.resolver.List(ctx, p.ChainID, p.Keyword)
	return map[string]interface{}{"tokens": tokens}, nil
}

// balanceGetParams are the parameters for balance_get.
type balanceGetParams struct {
	ChainID uint64        `json:"chainId"`
	Owner   string        `json:"owner,omitempty"`
	Token   catalog.Token `json:"token"`
}

// BalanceInfo is one balance entry returned to RPC clients.
type BalanceInfo struct {
	Token   catalog.Token `json:"token"`
	Raw     string        `json:"raw"`
	Display string        `json:"display"`
}

// balanceGet reads a single token balance.
func (s *Server) balanceGet(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p balanceGetParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	owner, err := s.resolveOwner(p.Owner)
	if err != nil {
		return nil, err
	}

	raw, display, err := s.balances.Balance(ctx, p.ChainID, owner, p.Token)
	if err != nil {
		return nil, err
	}
	return BalanceInfo{Token: p.Token, Raw: raw.String(), Display: display}, nil
}

// balanceListParams are the parameters for balance_list.
type balanceListParams struct {
	ChainID uint64          `json:"chainId"`
	Owner   string          `json:"owner,omitempty"`
	Tokens  []catalog.Token `json:"tokens,omitempty"`
}

// balanceList reads balances for a token list in one batch. When no tokens
// are given, the chain's resolved catalog is used.
func (s *Server) balanceList(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p balanceListParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	owner, err := s.resolveOwner(p.Owner)
	if err != nil {
		return nil, err
	}

	tokens := p.Tokens
	if len(tokens) == 0 {
		tokens = s.resolver.List(ctx, p.ChainID, "")
	}

	entries := s.balances.Balances(ctx, p.ChainID, owner, tokens)
	infos := make([]BalanceInfo, len(entries))
	for i, e := range entries {
		infos[i] = BalanceInfo{Token: e.Token, Raw: e.Raw.String(), Display: e.Display}
	}
	return map[string]interface{}{"balances": infos}, nil
}

// quoteParams are the parameters for quote_get and quote_subscribe.
type quoteParams struct {
	ChainID     uint64        `json:"chainId"`
	TokenIn     catalog.Token `json:"tokenIn"`
	TokenOut    catalog.Token `json:"tokenOut"`
	AmountIn    string        `json:"amountIn"`
	SlippageBps int           `json:"slippageBps,omitempty"`
}

// quoteGet fetches a single quote from the on-chain router.
func (s *Server) quoteGet(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p quoteParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}

	quote, err := s.engine.Quote(ctx, p.ChainID, p.AmountIn, p.TokenIn, p.TokenOut)
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// quoteSubscribe points the quote session at a pair and amount. Refreshed
// quotes are pushed to WebSocket subscribers as quote_update events.
func (s *Server) quoteSubscribe(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p quoteParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	if !chain.SupportsSwap(p.ChainID) {
		return nil, fmt.Errorf("chain %d does not support swaps", p.ChainID)
	}

	s.session.SetPair(p.ChainID, p.TokenIn, p.TokenOut)
	if p.SlippageBps > 0 {
		s.session.SetSlippage(p.SlippageBps)
	}
	s.session.SetAmount(p.AmountIn)
	return s.session.Snapshot(), nil
}

// quoteUnsubscribe stops the quote poller.
func (s *Server) quoteUnsubscribe(ctx context.Context, params json.RawMessage) (interface{}, error) {
	s.session.SetAmount("")
	return s.session.Snapshot(), nil
}

// swapExecute starts a swap attempt and returns it immediately. Phase
// transitions stream over WebSocket; swap_status polls the same state.
func (s *Server) swapExecute(ctx context.Context, params json.RawMessage) (interface{}, error) {
	if s.signer == nil {
		return nil, ErrReadOnly
	}

	var p quoteParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}

	attempt, err := s.executor.Begin(p.ChainID, p.TokenIn, p.TokenOut, p.AmountIn, p.SlippageBps)
	if err != nil {
		return nil, err
	}

	go s.executor.Run(context.Background())

	return attempt, nil
}

// swapStatus returns the current swap attempt, if any.
func (s *Server) swapStatus(ctx context.Context, params json.RawMessage) (interface{}, error) {
	attempt, ok := s.executor.Current()
	if !ok {
		return map[string]interface{}{"active": false}, nil
	}
	return map[string]interface{}{
		"active":  !attempt.Phase.IsTerminal(),
		"attempt": attempt,
	}, nil
}

// klineGetParams are the parameters for kline_get.
type klineGetParams struct {
	Chain    string `json:"chain"`
	Contract string `json:"contract"`
	Market   string `json:"market"`
	Size     int    `json:"size,omitempty"`
}

// klineGet proxies a candlestick request upstream and passes the JSON
// body through untouched.
func (s *Server) klineGet(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p klineGetParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}
	return s.kline.Get(ctx, p.Chain, p.Contract, p.Market, p.Size)
}

// resolveOwner parses an owner address, falling back to the signer's
// address when the parameter is omitted.
func (s *Server) resolveOwner(owner string) (common.Address, error) {
	if owner == "" {
		if s.signer == nil {
			return common.Address{}, fmt.Errorf("owner is required in read-only mode")
		}
		return s.signer.Address(), nil
	}
	if !common.IsHexAddress(owner) {
		return common.Address{}, fmt.Errorf("invalid owner address %q", owner)
	}
	return common.HexToAddress(owner), nil
}

// unmarshalParams decodes request parameters, treating absent params as
// an empty object.
func unmarshalParams(params json.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}
