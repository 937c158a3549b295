// Package swap drives a swap attempt through its phases: balance check,
// allowance check, authoritative quote, submission, and confirmation.
package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/moodswap/moodswapd/internal/catalog"
	"github.com/moodswap/moodswapd/internal/chain"
	"github.com/moodswap/moodswapd/internal/config"
	"github.com/moodswap/moodswapd/internal/evm"
	"github.com/moodswap/moodswapd/internal/router"
	"github.com/moodswap/moodswapd/internal/wallet"
	"github.com/moodswap/moodswapd/pkg/helpers"
	"github.com/moodswap/moodswapd/pkg/logging"
)

// ErrInvalidPhase is returned on a disallowed phase transition.
var ErrInvalidPhase = errors.New("invalid phase transition")

// ErrAttemptActive means a swap attempt is already running.
var ErrAttemptActive = errors.New("swap attempt already in progress")

// Phase is one step of a swap attempt.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseBalanceVerifying  Phase = "balance_verifying"
	PhaseAllowanceChecking Phase = "allowance_checking"
	PhaseApprovalPending   Phase = "approval_pending"
	PhaseQuoteFetching     Phase = "quote_fetching"
	PhaseSubmitting        Phase = "submitting"
	PhaseConfirming        Phase = "confirming"
	PhaseSucceeded         Phase = "succeeded"
	PhaseFailed            Phase = "failed"
)

// validTransitions defines the allowed phase graph. Any phase may fail.
var validTransitions = map[Phase][]Phase{
	PhaseIdle:              {PhaseBalanceVerifying},
	PhaseBalanceVerifying:  {PhaseAllowanceChecking, PhaseQuoteFetching, PhaseFailed},
	PhaseAllowanceChecking: {PhaseApprovalPending, PhaseQuoteFetching, PhaseFailed},
	PhaseApprovalPending:   {},
	PhaseQuoteFetching:     {PhaseSubmitting, PhaseFailed},
	PhaseSubmitting:        {PhaseConfirming, PhaseFailed},
	PhaseConfirming:        {PhaseSucceeded, PhaseFailed},
	PhaseSucceeded:         {},
	PhaseFailed:            {},
}

// IsTerminal returns true if no further transition is possible.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseApprovalPending, PhaseSucceeded, PhaseFailed:
		return true
	default:
		return false
	}
}

// Attempt is the state of one swap attempt.
type Attempt struct {
	ID          string        `json:"id"`
	ChainID     uint64        `json:"chainId"`
	TokenIn     catalog.Token `json:"tokenIn"`
	TokenOut    catalog.Token `json:"tokenOut"`
	AmountIn    string        `json:"amountIn"`
	SlippageBps int           `json:"slippageBps"`
	Phase       Phase         `json:"phase"`
	TxHash      common.Hash   `json:"txHash"`
	ApprovalTx  common.Hash   `json:"approvalTx"`
	AmountOut   string        `json:"amountOut,omitempty"`
	Err         *Error        `json:"-"`
	ErrKind     Kind          `json:"errKind,omitempty"`
	ErrMessage  string        `json:"errMessage,omitempty"`
	StartedAt   time.Time     `json:"startedAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// BalanceSource re-reads the input token balance before a swap.
type BalanceSource interface {
	Balance(ctx context.Context, chainID uint64, owner common.Address, token catalog.Token) (*big.Int, string, error)
}

// AllowanceSource reads ERC-20 allowances.
type AllowanceSource interface {
	Allowance(ctx context.Context, chainID uint64, token, owner, spender common.Address) (*big.Int, error)
}

// Quoter prices and prepares router transactions.
type Quoter interface {
	Quote(ctx context.Context, chainID uint64, amountIn string, tokenIn, tokenOut catalog.Token) (*router.Quote, error)
	BuildSwap(chainID uint64, tokenIn, tokenOut catalog.Token, amountInRaw, minOutRaw *big.Int, recipient common.Address) (*router.SwapTx, error)
}

// PhaseListener observes attempt phase changes.
type PhaseListener func(a Attempt)

// Executor runs swap attempts, one at a time.
type Executor struct {
	balances   BalanceSource
	allowances AllowanceSource
	engine     Quoter
	signer     wallet.Signer
	log        *logging.Logger

	mu        sync.Mutex
	current   *Attempt
	listeners []PhaseListener
}

// NewExecutor creates an executor over the given collaborators.
func NewExecutor(balances BalanceSource, allowances AllowanceSource, engine Quoter, signer wallet.Signer, log *logging.Logger) *Executor {
	return &Executor{
		balances:   balances,
		allowances: allowances,
		engine:     engine,
		signer:     signer,
		log:        log.Component("swap"),
	}
}

// OnPhaseChange registers a listener for phase changes.
func (e *Executor) OnPhaseChange(fn PhaseListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Current returns a copy of the most recent attempt.
func (e *Executor) Current() (Attempt, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return Attempt{}, false
	}
	return *e.current, true
}

// Execute runs one swap attempt to a terminal phase. A new attempt may only
// start when no attempt is running; a finished attempt is replaced.
func (e *Executor) Execute(ctx context.Context, chainID uint64, tokenIn, tokenOut catalog.Token, amountIn string, slippageBps int) (Attempt, error) {
	if _, err := e.Begin(chainID, tokenIn, tokenOut, amountIn, slippageBps); err != nil {
		return Attempt{}, err
	}
	return e.Run(ctx), nil
}

// Begin registers a new attempt without running it. Callers follow up with
// Run, usually on their own goroutine.
func (e *Executor) Begin(chainID uint64, tokenIn, tokenOut catalog.Token, amountIn string, slippageBps int) (Attempt, error) {
	if slippageBps <= 0 {
		slippageBps = config.DefaultSlippageBps
	}
	a, err := e.begin(chainID, tokenIn, tokenOut, amountIn, slippageBps)
	if err != nil {
		return Attempt{}, err
	}
	return *a, nil
}

// Run drives the current attempt to a terminal phase and returns it.
func (e *Executor) Run(ctx context.Context) Attempt {
	e.mu.Lock()
	a := e.current
	e.mu.Unlock()

	if serr := e.run(ctx, a); serr != nil {
		e.fail(serr)
	}
	final, _ := e.Current()
	return final
}

func (e *Executor) begin(chainID uint64, tokenIn, tokenOut catalog.Token, amountIn string, slippageBps int) (*Attempt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil && !e.current.Phase.IsTerminal() {
		return nil, fmt.Errorf("%w: %s in phase %s", ErrAttemptActive, e.current.ID, e.current.Phase)
	}

	now := time.Now()
	e.current = &Attempt{
		ID:          uuid.NewString(),
		ChainID:     chainID,
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		AmountIn:    amountIn,
		SlippageBps: slippageBps,
		Phase:       PhaseIdle,
		StartedAt:   now,
		UpdatedAt:   now,
	}
	return e.current, nil
}

func (e *Executor) run(ctx context.Context, a *Attempt) *Error {
	if !chain.SupportsSwap(a.ChainID) {
		return NewError(KindPreconditions, fmt.Sprintf("swaps not supported on chain %d", a.ChainID), nil)
	}
	routerAddr, ok := config.RouterFor(a.ChainID)
	if !ok {
		return NewError(KindPreconditions, fmt.Sprintf("no router on chain %d", a.ChainID), nil)
	}
	if e.signer == nil {
		return NewError(KindPreconditions, "no signing key configured", nil)
	}
	if a.TokenIn.Address == a.TokenOut.Address {
		return NewError(KindPreconditions, "input and output tokens are the same", nil)
	}

	amountInRaw, err := helpers.ParseAmount(a.AmountIn, a.TokenIn.Decimals)
	if err != nil {
		return NewError(KindPreconditions, fmt.Sprintf("invalid amount %q", a.AmountIn), err)
	}
	if amountInRaw.Sign() == 0 {
		return NewError(KindPreconditions, "amount is zero", nil)
	}

	owner := e.signer.Address()

	// Balance is always re-read; the UI's cached value is never trusted.
	if terr := e.transition(PhaseBalanceVerifying); terr != nil {
		return terr
	}
	balance, _, err := e.balances.Balance(ctx, a.ChainID, owner, a.TokenIn)
	if err != nil {
		return NewError(KindPreconditions, "failed to verify balance", err)
	}
	if balance.Cmp(amountInRaw) < 0 {
		return NewError(KindInsufficientBalance,
			fmt.Sprintf("balance %s below requested %s %s",
				helpers.FormatAmount(balance, a.TokenIn.Decimals), a.AmountIn, a.TokenIn.Symbol), nil)
	}

	// Native input needs no allowance.
	if !a.TokenIn.IsNative() {
		if terr := e.transition(PhaseAllowanceChecking); terr != nil {
			return terr
		}
		allowance, err := e.allowances.Allowance(ctx, a.ChainID, a.TokenIn.Address, owner, routerAddr)
		if err != nil {
			return NewError(KindPreconditions, "failed to read allowance", err)
		}
		if allowance.Cmp(amountInRaw) < 0 {
			return e.submitApproval(ctx, a, routerAddr)
		}
	}

	// Authoritative re-quote; the displayed quote is never executed on.
	if terr := e.transition(PhaseQuoteFetching); terr != nil {
		return terr
	}
	quote, err := e.engine.Quote(ctx, a.ChainID, a.AmountIn, a.TokenIn, a.TokenOut)
	if err != nil {
		if errors.Is(err, router.ErrNoLiquidity) {
			return NewError(KindNoLiquidity, "not enough liquidity for this trade", err)
		}
		return NewError(KindPreconditions, "failed to fetch quote", err)
	}
	minOut := router.MinOutput(quote.AmountOutRaw, a.SlippageBps)

	if terr := e.transition(PhaseSubmitting); terr != nil {
		return terr
	}
	tx, err := e.engine.BuildSwap(a.ChainID, a.TokenIn, a.TokenOut, quote.AmountInRaw, minOut, owner)
	if err != nil {
		return NewError(KindSubmissionFailed, "failed to build swap transaction", err)
	}
	hash, err := e.signer.SignAndSend(ctx, a.ChainID, tx.To, tx.Data, tx.Value)
	if err != nil {
		return ClassifySubmission(err)
	}
	e.update(func(a *Attempt) {
		a.TxHash = hash
		a.AmountOut = quote.AmountOut
	})

	// The hash set above survives a confirmation failure.
	if terr := e.transition(PhaseConfirming); terr != nil {
		return terr
	}
	if err := e.signer.WaitForConfirmation(ctx, a.ChainID, hash); err != nil {
		return NewError(KindConfirmationFailed, "swap transaction failed or timed out", err)
	}

	return e.transition(PhaseSucceeded)
}

// submitApproval submits an unlimited approval and ends the attempt in
// ApprovalPending. The swap is not resumed automatically; the user starts a
// fresh attempt once the approval confirms.
func (e *Executor) submitApproval(ctx context.Context, a *Attempt, spender common.Address) *Error {
	data := evm.PackApprove(spender, evm.MaxUint256)
	hash, err := e.signer.SignAndSend(ctx, a.ChainID, a.TokenIn.Address, data, big.NewInt(0))
	if err != nil {
		return ClassifySubmission(err)
	}
	e.update(func(a *Attempt) {
		a.ApprovalTx = hash
		a.ErrKind = KindApprovalRequired
		a.ErrMessage = "approval submitted, retry the swap once it confirms"
	})
	return e.transition(PhaseApprovalPending)
}

// transition moves the current attempt to the next phase, enforcing the
// phase graph, and notifies listeners. It returns a tagged error on a
// disallowed transition; that indicates a bug, not a user-facing failure.
func (e *Executor) transition(next Phase) *Error {
	e.mu.Lock()
	a := e.current
	allowed := false
	for _, p := range validTransitions[a.Phase] {
		if p == next {
			allowed = true
			break
		}
	}
	if !allowed {
		e.mu.Unlock()
		return NewError(KindPreconditions,
			fmt.Sprintf("cannot move from %s to %s", a.Phase, next), ErrInvalidPhase)
	}
	a.Phase = next
	a.UpdatedAt = time.Now()
	snapshot := *a
	listeners := e.listeners
	e.mu.Unlock()

	e.log.Info("phase", "attempt", snapshot.ID, "phase", next)
	for _, fn := range listeners {
		fn(snapshot)
	}
	return nil
}

// fail records the error and forces the attempt into Failed.
func (e *Executor) fail(serr *Error) {
	e.mu.Lock()
	a := e.current
	a.Err = serr
	a.ErrKind = serr.Kind
	a.ErrMessage = serr.Message
	if !a.Phase.IsTerminal() {
		a.Phase = PhaseFailed
	}
	a.UpdatedAt = time.Now()
	snapshot := *a
	listeners := e.listeners
	e.mu.Unlock()

	e.log.Warn("swap attempt failed", "attempt", snapshot.ID, "kind", serr.Kind, "err", serr.Message)
	if snapshot.Phase == PhaseFailed {
		for _, fn := range listeners {
			fn(snapshot)
		}
	}
}

func (e *Executor) update(fn func(a *Attempt)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.current)
	e.current.UpdatedAt = time.Now()
}
