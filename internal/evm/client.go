package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/moodswap/moodswapd/internal/config"
	"github.com/moodswap/moodswapd/pkg/logging"
)

// Client wraps an ethclient connection to one chain.
type Client struct {
	chainID uint64
	eth     *ethclient.Client
	log     *logging.Logger
}

// Dial connects to a chain's RPC endpoint.
func Dial(ctx context.Context, chainID uint64, rpcURL string, log *logging.Logger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain %d: %w", chainID, err)
	}
	return &Client{
		chainID: chainID,
		eth:     eth,
		log:     log.Component("evm").With("chain", chainID),
	}, nil
}

// ChainID returns the chain this client is connected to.
func (c *Client) ChainID() uint64 {
	return c.chainID
}

// Raw returns the underlying ethclient for transaction plumbing.
func (c *Client) Raw() *ethclient.Client {
	return c.eth
}

// Close shuts down the underlying connection.
func (c *Client) Close() {
	c.eth.Close()
}

// Call performs an eth_call against the latest block.
func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

// NativeBalance returns the native currency balance of an address.
func (c *Client) NativeBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	bal, err := c.eth.BalanceAt(ctx, owner, nil)
	if err != nil {
		return nil, fmt.Errorf("native balance: %w", err)
	}
	return bal, nil
}

// ERC20Balance returns the token balance of an address.
func (c *Client) ERC20Balance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	out, err := c.Call(ctx, token, PackBalanceOf(owner))
	if err != nil {
		return nil, fmt.Errorf("balanceOf %s: %w", token.Hex(), err)
	}
	return UnpackBalanceOf(out)
}

// Allowance returns the amount the spender may move on the owner's behalf.
// The native placeholder (zero address) needs no approval and returns zero.
func (c *Client) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	if token == (common.Address{}) {
		return big.NewInt(0), nil
	}
	out, err := c.Call(ctx, token, PackAllowance(owner, spender))
	if err != nil {
		return nil, fmt.Errorf("allowance %s: %w", token.Hex(), err)
	}
	return UnpackAllowance(out)
}

// Clients is a set of per-chain connections.
type Clients map[uint64]*Client

// Allowance reads an ERC-20 allowance on the given chain.
func (cs Clients) Allowance(ctx context.Context, chainID uint64, token, owner, spender common.Address) (*big.Int, error) {
	c, ok := cs[chainID]
	if !ok {
		return nil, fmt.Errorf("no client for chain %d", chainID)
	}
	return c.Allowance(ctx, token, owner, spender)
}

// Close shuts down every connection.
func (cs Clients) Close() {
	for _, c := range cs {
		c.Close()
	}
}

// Aggregate3 executes a Multicall3 batch in one eth_call.
func (c *Client) Aggregate3(ctx context.Context, calls []Call3) ([]Call3Result, error) {
	data, err := PackAggregate3(calls)
	if err != nil {
		return nil, err
	}
	out, err := c.Call(ctx, config.Multicall3Address, data)
	if err != nil {
		return nil, fmt.Errorf("aggregate3: %w", err)
	}
	return UnpackAggregate3(out)
}
