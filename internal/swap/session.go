package swap

import (
	"context"
	"sync"
	"time"

	"github.com/moodswap/moodswapd/internal/catalog"
	"github.com/moodswap/moodswapd/internal/config"
	"github.com/moodswap/moodswapd/internal/router"
	"github.com/moodswap/moodswapd/pkg/logging"
)

// QuoteListener observes refreshed quotes for the selected pair.
type QuoteListener func(chainID uint64, q *router.Quote, err error)

// Session holds the user's current swap selection and keeps its displayed
// quote fresh. A repeating poller runs exactly while both a pair and a
// nonempty amount are selected; every selection change replaces it.
type Session struct {
	engine   Quoter
	log      *logging.Logger
	interval time.Duration

	mu          sync.Mutex
	chainID     uint64
	tokenIn     *catalog.Token
	tokenOut    *catalog.Token
	amountIn    string
	slippageBps int
	lastQuote   *router.Quote
	cancel      context.CancelFunc
	listeners   []QuoteListener
}

// State is a snapshot of the session.
type State struct {
	ChainID     uint64         `json:"chainId"`
	TokenIn     *catalog.Token `json:"tokenIn,omitempty"`
	TokenOut    *catalog.Token `json:"tokenOut,omitempty"`
	AmountIn    string         `json:"amountIn,omitempty"`
	SlippageBps int            `json:"slippageBps"`
	LastQuote   *router.Quote  `json:"lastQuote,omitempty"`
	Polling     bool           `json:"polling"`
}

// NewSession creates a session over the quote engine.
func NewSession(engine Quoter, log *logging.Logger) *Session {
	return &Session{
		engine:      engine,
		log:         log.Component("session"),
		interval:    config.QuoteRefreshInterval,
		slippageBps: config.DefaultSlippageBps,
	}
}

// OnQuote registers a listener for refreshed quotes.
func (s *Session) OnQuote(fn QuoteListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SetPair selects the trading pair, dropping any stale quote.
func (s *Session) SetPair(chainID uint64, tokenIn, tokenOut catalog.Token) {
	s.mu.Lock()
	s.chainID = chainID
	s.tokenIn = &tokenIn
	s.tokenOut = &tokenOut
	s.lastQuote = nil
	s.reconcileLocked()
	s.mu.Unlock()
}

// SetAmount sets the input amount. An empty amount stops quoting.
func (s *Session) SetAmount(amountIn string) {
	s.mu.Lock()
	s.amountIn = amountIn
	if amountIn == "" {
		s.lastQuote = nil
	}
	s.reconcileLocked()
	s.mu.Unlock()
}

// SetSlippage sets the user slippage tolerance in basis points.
func (s *Session) SetSlippage(bps int) {
	s.mu.Lock()
	if bps > 0 {
		s.slippageBps = bps
	}
	s.mu.Unlock()
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ChainID:     s.chainID,
		TokenIn:     s.tokenIn,
		TokenOut:    s.tokenOut,
		AmountIn:    s.amountIn,
		SlippageBps: s.slippageBps,
		LastQuote:   s.lastQuote,
		Polling:     s.cancel != nil,
	}
}

// Close stops the poller.
func (s *Session) Close() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
}

// reconcileLocked starts or stops the poller to match the selection.
func (s *Session) reconcileLocked() {
	s.stopLocked()
	if s.tokenIn == nil || s.tokenOut == nil || s.amountIn == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.poll(ctx, s.chainID, *s.tokenIn, *s.tokenOut, s.amountIn)
}

func (s *Session) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) poll(ctx context.Context, chainID uint64, tokenIn, tokenOut catalog.Token, amountIn string) {
	s.refresh(ctx, chainID, tokenIn, tokenOut, amountIn)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx, chainID, tokenIn, tokenOut, amountIn)
		}
	}
}

func (s *Session) refresh(ctx context.Context, chainID uint64, tokenIn, tokenOut catalog.Token, amountIn string) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	q, err := s.engine.Quote(fetchCtx, chainID, amountIn, tokenIn, tokenOut)
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	if err == nil {
		s.lastQuote = q
	}
	listeners := s.listeners
	s.mu.Unlock()

	if err != nil {
		s.log.Debug("quote refresh failed", "chain", chainID, "err", err)
	}
	for _, fn := range listeners {
		fn(chainID, q, err)
	}
}
