// Package kline proxies candlestick data requests to the Bitget market API,
// passing the upstream JSON body through untouched.
package kline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/moodswap/moodswapd/pkg/logging"
)

const (
	defaultEndpoint = "https://web3.bitget.com/bgwapi/market/quotev2/getKline"
	defaultSize     = 100
)

// ErrMissingParam is returned when a required request parameter is empty.
var ErrMissingParam = errors.New("missing required parameter")

// Client proxies kline requests upstream.
type Client struct {
	http     *http.Client
	endpoint string
	log      *logging.Logger
}

// NewClient creates a kline proxy client.
func NewClient(log *logging.Logger) *Client {
	return &Client{
		http:     &http.Client{Timeout: 15 * time.Second},
		endpoint: defaultEndpoint,
		log:      log.Component("kline"),
	}
}

// Get fetches candles for a token contract. chain is the upstream chain
// name, market the candle interval. size defaults to 100 when non-positive.
func (c *Client) Get(ctx context.Context, chain, contract, market string, size int) (json.RawMessage, error) {
	if chain == "" {
		return nil, fmt.Errorf("%w: chain", ErrMissingParam)
	}
	if contract == "" {
		return nil, fmt.Errorf("%w: contract", ErrMissingParam)
	}
	if market == "" {
		return nil, fmt.Errorf("%w: market", ErrMissingParam)
	}
	if size <= 0 {
		size = defaultSize
	}

	form := url.Values{}
	form.Set("chain", chain)
	form.Set("contract", contract)
	form.Set("market", market)
	form.Set("size", strconv.Itoa(size))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kline request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kline status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read kline body: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("kline response is not valid JSON")
	}
	return json.RawMessage(body), nil
}
