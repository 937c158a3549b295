package router

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/moodswap/moodswapd/internal/catalog"
	"github.com/moodswap/moodswapd/internal/chain"
	"github.com/moodswap/moodswapd/internal/config"
	"github.com/moodswap/moodswapd/pkg/helpers"
	"github.com/moodswap/moodswapd/pkg/logging"
)

var (
	// ErrNoLiquidity means the router cannot price the pair (no pool, or
	// the quote call reverted / returned zero).
	ErrNoLiquidity = errors.New("no liquidity for pair")

	// ErrZeroAmount means the input amount parsed to zero raw units.
	ErrZeroAmount = errors.New("amount is zero")

	// ErrSwapUnsupported means swaps are not enabled on the chain.
	ErrSwapUnsupported = errors.New("swaps not supported on chain")

	// ErrNoRouter means no router contract is registered for the chain.
	ErrNoRouter = errors.New("no router for chain")
)

// Caller is the read-only chain access the engine needs.
type Caller interface {
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// Quote is a priced swap at one observation time.
type Quote struct {
	AmountInRaw  *big.Int         `json:"-"`
	AmountIn     string           `json:"amountIn"`
	AmountOutRaw *big.Int         `json:"-"`
	AmountOut    string           `json:"amountOut"`
	Path         []common.Address `json:"path"`
	FetchedAt    time.Time        `json:"fetchedAt"`
}

// SwapTx is a prepared router transaction.
type SwapTx struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}

// Engine prices and prepares swaps against the per-chain routers.
type Engine struct {
	clients map[uint64]Caller
	log     *logging.Logger
}

// NewEngine creates an engine over the given per-chain clients.
func NewEngine(clients map[uint64]Caller, log *logging.Logger) *Engine {
	return &Engine{clients: clients, log: log.Component("router")}
}

// Quote prices amountIn of tokenIn in terms of tokenOut. The display amount
// is scaled by the input token's decimals, truncating toward zero; a nonzero
// display amount that scales to zero raw units is an input error.
func (e *Engine) Quote(ctx context.Context, chainID uint64, amountIn string, tokenIn, tokenOut catalog.Token) (*Quote, error) {
	routerAddr, client, err := e.routerFor(chainID)
	if err != nil {
		return nil, err
	}

	raw, err := helpers.ParseAmount(amountIn, tokenIn.Decimals)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amountIn, err)
	}
	if raw.Sign() == 0 {
		return nil, fmt.Errorf("%w: %q scales to zero base units", ErrZeroAmount, amountIn)
	}

	path := []common.Address{tokenIn.Address, tokenOut.Address}
	out, err := client.Call(ctx, routerAddr, packGetAmountsOut(raw, path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoLiquidity, err)
	}
	amounts, err := unpackGetAmountsOut(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoLiquidity, err)
	}
	if len(amounts) < 2 || amounts[len(amounts)-1].Sign() == 0 {
		return nil, ErrNoLiquidity
	}

	outRaw := amounts[len(amounts)-1]
	return &Quote{
		AmountInRaw:  raw,
		AmountIn:     helpers.FormatAmount(raw, tokenIn.Decimals),
		AmountOutRaw: outRaw,
		AmountOut:    helpers.FormatAmount(outRaw, tokenOut.Decimals),
		Path:         path,
		FetchedAt:    time.Now(),
	}, nil
}

// BuildSwap prepares the router transaction for a priced swap, picking the
// entry point by which side is native. Native input moves as transaction
// value rather than an ERC-20 transfer.
func (e *Engine) BuildSwap(chainID uint64, tokenIn, tokenOut catalog.Token, amountInRaw, minOutRaw *big.Int, recipient common.Address) (*SwapTx, error) {
	routerAddr, _, err := e.routerFor(chainID)
	if err != nil {
		return nil, err
	}

	path := []common.Address{tokenIn.Address, tokenOut.Address}
	deadline := big.NewInt(time.Now().Add(config.DeadlineWindow).Unix())

	var (
		data  []byte
		value = big.NewInt(0)
	)
	switch {
	case tokenIn.IsNative():
		data, err = routerABI.Pack("swapExactETHForTokens", minOutRaw, path, recipient, deadline)
		value = amountInRaw
	case tokenOut.IsNative():
		data, err = routerABI.Pack("swapExactTokensForETH", amountInRaw, minOutRaw, path, recipient, deadline)
	default:
		data, err = routerABI.Pack("swapExactTokensForTokens", amountInRaw, minOutRaw, path, recipient, deadline)
	}
	if err != nil {
		return nil, fmt.Errorf("pack swap: %w", err)
	}

	return &SwapTx{To: routerAddr, Data: data, Value: value}, nil
}

// MinOutput computes the minimum acceptable output for an expected amount,
// applying the user's slippage tolerance plus the fixed buffer, in basis
// points on raw integers.
func MinOutput(expectedRaw *big.Int, userSlippageBps int) *big.Int {
	totalBps := int64(userSlippageBps + config.SlippageBufferBps)
	if totalBps >= 10000 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(expectedRaw, big.NewInt(10000-totalBps))
	return out.Quo(out, big.NewInt(10000))
}

func (e *Engine) routerFor(chainID uint64) (common.Address, Caller, error) {
	if !chain.SupportsSwap(chainID) {
		return common.Address{}, nil, fmt.Errorf("%w: chain %d", ErrSwapUnsupported, chainID)
	}
	routerAddr, ok := config.RouterFor(chainID)
	if !ok {
		return common.Address{}, nil, fmt.Errorf("%w: chain %d", ErrNoRouter, chainID)
	}
	client, ok := e.clients[chainID]
	if !ok {
		return common.Address{}, nil, fmt.Errorf("no client for chain %d", chainID)
	}
	return routerAddr, client, nil
}
