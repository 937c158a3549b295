package swap

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/moodswap/moodswapd/internal/catalog"
	"github.com/moodswap/moodswapd/internal/router"
	"github.com/moodswap/moodswapd/pkg/logging"
)

type countingQuoter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingQuoter) Quote(ctx context.Context, chainID uint64, amountIn string, tokenIn, tokenOut catalog.Token) (*router.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &router.Quote{
		AmountInRaw:  big.NewInt(1),
		AmountIn:     amountIn,
		AmountOutRaw: big.NewInt(int64(c.calls)),
		AmountOut:    "1",
		FetchedAt:    time.Now(),
	}, nil
}

func (c *countingQuoter) BuildSwap(chainID uint64, tokenIn, tokenOut catalog.Token, amountInRaw, minOutRaw *big.Int, recipient common.Address) (*router.SwapTx, error) {
	return nil, nil
}

func (c *countingQuoter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestSession(q Quoter) *Session {
	s := NewSession(q, logging.Default())
	s.interval = 10 * time.Millisecond
	return s
}

func TestSessionPollsWhilePairAndAmountSet(t *testing.T) {
	q := &countingQuoter{}
	s := newTestSession(q)
	defer s.Close()

	got := make(chan *router.Quote, 16)
	s.OnQuote(func(chainID uint64, quote *router.Quote, err error) {
		if err == nil {
			got <- quote
		}
	})

	s.SetPair(2818, execTokenM, execTokenBGB)
	if s.Snapshot().Polling {
		t.Error("pair alone should not start polling")
	}

	s.SetAmount("1")
	if !s.Snapshot().Polling {
		t.Error("pair + amount should start polling")
	}

	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("no quote delivered")
	}

	// The poller repeats on its interval.
	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("no repeated quote delivered")
	}

	if s.Snapshot().LastQuote == nil {
		t.Error("LastQuote should be recorded")
	}
}

func TestSessionStopsWhenAmountCleared(t *testing.T) {
	q := &countingQuoter{}
	s := newTestSession(q)
	defer s.Close()

	s.SetPair(2818, execTokenM, execTokenBGB)
	s.SetAmount("1")
	time.Sleep(30 * time.Millisecond)

	s.SetAmount("")
	if s.Snapshot().Polling {
		t.Error("clearing the amount should stop polling")
	}
	if s.Snapshot().LastQuote != nil {
		t.Error("clearing the amount should drop the stale quote")
	}

	calls := q.count()
	time.Sleep(50 * time.Millisecond)
	if q.count() > calls+1 {
		t.Errorf("poller kept running after stop: %d -> %d", calls, q.count())
	}
}

func TestSessionPairChangeDropsStaleQuote(t *testing.T) {
	q := &countingQuoter{}
	s := newTestSession(q)
	defer s.Close()

	s.SetPair(2818, execTokenM, execTokenBGB)
	s.SetAmount("1")

	deadline := time.Now().Add(time.Second)
	for s.Snapshot().LastQuote == nil {
		if time.Now().After(deadline) {
			t.Fatal("no quote recorded")
		}
		time.Sleep(time.Millisecond)
	}

	s.SetPair(2818, execTokenBGB, execTokenM)
	snap := s.Snapshot()
	if !snap.Polling {
		t.Error("pair change with amount set should keep polling")
	}
	if snap.TokenIn.Symbol != "BGB" {
		t.Errorf("TokenIn = %s, want BGB", snap.TokenIn.Symbol)
	}
}

func TestSessionQuoteErrorKeepsLastQuote(t *testing.T) {
	q := &countingQuoter{}
	s := newTestSession(q)
	defer s.Close()

	errs := make(chan error, 16)
	s.OnQuote(func(chainID uint64, quote *router.Quote, err error) {
		if err != nil {
			errs <- err
		}
	})

	s.SetPair(2818, execTokenM, execTokenBGB)
	s.SetAmount("1")

	deadline := time.Now().Add(time.Second)
	for s.Snapshot().LastQuote == nil {
		if time.Now().After(deadline) {
			t.Fatal("no quote recorded")
		}
		time.Sleep(time.Millisecond)
	}

	q.mu.Lock()
	q.err = router.ErrNoLiquidity
	q.mu.Unlock()

	select {
	case <-errs:
	case <-time.After(time.Second):
		t.Fatal("error not delivered to listener")
	}

	if s.Snapshot().LastQuote == nil {
		t.Error("failed refresh should not drop the last good quote")
	}
}

func TestSessionSlippage(t *testing.T) {
	s := newTestSession(&countingQuoter{})
	defer s.Close()

	if s.Snapshot().SlippageBps != 500 {
		t.Errorf("default slippage = %d, want 500", s.Snapshot().SlippageBps)
	}
	s.SetSlippage(100)
	if s.Snapshot().SlippageBps != 100 {
		t.Errorf("slippage = %d, want 100", s.Snapshot().SlippageBps)
	}
	s.SetSlippage(0)
	if s.Snapshot().SlippageBps != 100 {
		t.Error("non-positive slippage should be ignored")
	}
}
