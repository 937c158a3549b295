package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/moodswap/moodswapd/internal/chain"
	"github.com/moodswap/moodswapd/pkg/logging"
)

const (
	coinListPath    = "/v1/mood/coin_list"
	okxCoinListPath = "/v1/okx/coin_list"

	pageSize = 100

	// API tokens carry no decimals field; every listed token is 18.
	apiTokenDecimals = 18
)

// Resolver fetches and curates per-chain token lists.
type Resolver struct {
	client    *http.Client
	endpoints map[uint64]string // chainID -> API base URL
	log       *logging.Logger
}

// NewResolver creates a resolver with endpoints from the network registry.
func NewResolver(log *logging.Logger) *Resolver {
	endpoints := make(map[uint64]string)
	for _, chainID := range chain.Supported() {
		if params, ok := chain.Get(chainID); ok && params.APIEndpoint != "" {
			endpoints[chainID] = params.APIEndpoint
		}
	}
	return &Resolver{
		client:    &http.Client{Timeout: 15 * time.Second},
		endpoints: endpoints,
		log:       log.Component("catalog"),
	}
}

// List returns the token list for a chain. Curated tokens come first, then
// the remote list. Any fetch or decode failure falls back to the curated
// static list; failures are logged, never returned.
func (r *Resolver) List(ctx context.Context, chainID uint64, keyword string) []Token {
	endpoint, ok := r.endpoints[chainID]
	if !ok {
		return Curated(chainID)
	}

	remote, err := r.fetch(ctx, chainID, endpoint, keyword)
	if err != nil {
		r.log.Warn("coin list fetch failed, using fallback", "chain", chainID, "err", err)
		return Curated(chainID)
	}
	if len(remote) == 0 && keyword == "" {
		r.log.Warn("coin list empty, using fallback", "chain", chainID)
		return Curated(chainID)
	}

	return curate(chainID, remote)
}

// curate pins the chain's curated tokens to the front, taking live records
// from the remote list when present at the known address, and appends the
// rest of the remote list.
func curate(chainID uint64, remote []Token) []Token {
	pinned := Curated(chainID)
	if len(pinned) == 0 {
		return remote
	}

	byAddr := make(map[common.Address]Token, len(remote))
	for _, t := range remote {
		byAddr[t.Address] = t
	}

	out := make([]Token, 0, len(pinned)+len(remote))
	pinnedAddrs := make(map[common.Address]bool, len(pinned))
	for _, p := range pinned {
		pinnedAddrs[p.Address] = true
		if live, ok := byAddr[p.Address]; ok {
			out = append(out, live)
		} else {
			out = append(out, p)
		}
	}
	for _, t := range remote {
		if !pinnedAddrs[t.Address] {
			out = append(out, t)
		}
	}
	return out
}

type coinRecord struct {
	ID             json.Number `json:"id"`
	Symbol         string      `json:"symbol"`
	Name           string      `json:"name"`
	Mint           string      `json:"mint"`
	ImgURL         string      `json:"img_url"`
	ImageURL       string      `json:"image_url"`
	PriceUSD       float64     `json:"price_usd_f"`
	MarketCap      float64     `json:"market_cap_f"`
	PriceChange24h float64     `json:"price_change_24h_f"`
	QuoteMint      string      `json:"quote_mint"`
}

type coinListResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		List []coinRecord `json:"list"`
	} `json:"data"`
}

func (r *Resolver) fetch(ctx context.Context, chainID uint64, endpoint, keyword string) ([]Token, error) {
	path := coinListPath
	if chainID == 196 {
		path = okxCoinListPath
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	fields := map[string]string{
		"user_addr":   "",
		"page":        "1",
		"page_size":   strconv.Itoa(pageSize),
		"sort_type":   "3",
		"keyword":     keyword,
		"filter_type": "",
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("build form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+path, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coin list request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coin list status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read coin list: %w", err)
	}

	var parsed coinListResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode coin list: %w", err)
	}

	tokens := make([]Token, 0, len(parsed.Data.List))
	for _, rec := range parsed.Data.List {
		if rec.Mint == "" {
			continue
		}
		logo := rec.ImgURL
		if logo == "" {
			logo = rec.ImageURL
		}
		tokens = append(tokens, Token{
			ID:             rec.ID.String(),
			ChainID:        chainID,
			Symbol:         rec.Symbol,
			Name:           rec.Name,
			Address:        common.HexToAddress(rec.Mint),
			Decimals:       apiTokenDecimals,
			LogoURL:        logo,
			PriceUSD:       rec.PriceUSD,
			MarketCap:      rec.MarketCap,
			PriceChange24h: rec.PriceChange24h,
		})
	}
	return tokens, nil
}
