// Package scheduler drives the randomized, failure-aware trading loop.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"solana-volume-engine/internal/domain"
	"solana-volume-engine/internal/executor"
	"solana-volume-engine/internal/idhash"
	"solana-volume-engine/internal/ledger"
	"solana-volume-engine/internal/logging"
	"solana-volume-engine/internal/observability"
	"solana-volume-engine/internal/solana"
)

const (
	// scheduleFloor prevents back-to-back attempts when intervals are
	// tiny or an attempt fails fast.
	scheduleFloor = 1 * time.Second

	// errorCooldown delays rescheduling after an unclassified attempt
	// error.
	errorCooldown = 5 * time.Second

	// attemptTimeout bounds one attempt end to end, including its
	// retry loop.
	attemptTimeout = 2 * time.Minute
)

// ErrSessionActive is returned by Start while a previous session is still
// running or paused.
var ErrSessionActive = errors.New("session still active")

// TradeExecutor submits one trade for a wallet.
type TradeExecutor interface {
	Execute(ctx context.Context, w *domain.ActiveWallet, o *domain.Order, cfg *domain.TradingConfig) (*executor.Result, error)
}

// WalletSource lists wallets eligible for trading, with live balances.
type WalletSource interface {
	ListEligible(ctx context.Context, mint string) ([]*domain.ActiveWallet, error)
}

// Options configures a SessionScheduler.
type Options struct {
	Executor TradeExecutor
	Wallets  WalletSource
	Ledger   *ledger.OrderLedger
	Recorder logging.Recorder

	// Rand drives side, amount, and interval draws. Nil seeds from the
	// clock.
	Rand *rand.Rand

	// Now is the scheduler clock, injectable in tests.
	Now func() time.Time
}

// SessionScheduler owns the trading session state machine. Exactly one
// scheduled attempt timer is pending at a time; attempts never run in
// parallel. Pause and stop take effect at the next scheduling boundary;
// an in-flight attempt is not interrupted.
type SessionScheduler struct {
	exec     TradeExecutor
	wallets  WalletSource
	ledger   *ledger.OrderLedger
	recorder logging.Recorder

	mu      sync.Mutex
	rand    *rand.Rand
	now     func() time.Time
	session *domain.Session
	timer   *time.Timer

	consecutiveFailures int
	lastTradeTime       time.Time
	orderSeq            uint64

	// generation invalidates timers armed for an earlier session or
	// before a pause.
	generation uint64
}

// New creates a SessionScheduler.
func New(opts Options) *SessionScheduler {
	s := &SessionScheduler{
		exec:     opts.Executor,
		wallets:  opts.Wallets,
		ledger:   opts.Ledger,
		recorder: opts.Recorder,
		rand:     opts.Rand,
		now:      opts.Now,
	}
	if s.ledger == nil {
		s.ledger = ledger.NewOrderLedger()
	}
	if s.recorder == nil {
		s.recorder = logging.NopRecorder{}
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Start validates the configuration and wallet readiness, creates a fresh
// running session, and arms the first scheduled attempt. On any validation
// failure no state is mutated.
func (s *SessionScheduler) Start(ctx context.Context, cfg domain.TradingConfig) (*domain.Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, &domain.ValidationError{Field: "enabled", Reason: "trading is disabled"}
	}
	if !solana.IsValidPubkey(cfg.TokenMint) {
		return nil, &domain.ValidationError{Field: "token_mint", Reason: "not a valid base58 public key"}
	}

	eligible, err := s.wallets.ListEligible(ctx, cfg.TokenMint)
	if err != nil {
		return nil, fmt.Errorf("wallet pool readiness: %w", err)
	}
	if len(eligible) == 0 {
		return nil, &domain.ValidationError{Field: "wallets", Reason: "no wallet with balance above the dust threshold"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil &&
		(s.session.Status == domain.SessionRunning || s.session.Status == domain.SessionPaused) {
		return nil, fmt.Errorf("%w: %s", ErrSessionActive, s.session.ID)
	}

	now := s.now()
	sess := &domain.Session{
		ID:        idhash.ComputeSessionID(cfg.TokenMint, now.UnixNano()),
		Status:    domain.SessionRunning,
		Config:    cfg,
		StartedAt: now,
	}
	s.session = sess
	s.consecutiveFailures = 0
	s.lastTradeTime = time.Time{}
	s.orderSeq = 0
	s.generation++

	observability.UpdateSessionStatus(string(domain.SessionRunning))
	observability.UpdateConsecutiveFailures(0)
	s.recorder.Record(logging.Event{
		Level:    logging.LevelInfo,
		Category: "scheduler",
		Message:  "session started",
		Details: map[string]any{
			"session": sess.ID,
			"mint":    cfg.TokenMint,
			"wallets": len(eligible),
		},
	})

	s.armLocked()
	sessCopy := *sess
	return &sessCopy, nil
}

// Pause cancels the pending attempt and suspends scheduling. Idempotent;
// a no-op unless the session is running.
func (s *SessionScheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || s.session.Status != domain.SessionRunning {
		return
	}

	s.cancelTimerLocked()
	s.session.Status = domain.SessionPaused
	observability.UpdateSessionStatus(string(domain.SessionPaused))
	s.recorder.Record(logging.Event{
		Level:    logging.LevelInfo,
		Category: "scheduler",
		Message:  "session paused",
		Details:  map[string]any{"session": s.session.ID},
	})
}

// Resume re-arms scheduling from now. Only valid from paused; elapsed
// pause time is not credited toward the next interval.
func (s *SessionScheduler) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || s.session.Status != domain.SessionPaused {
		return fmt.Errorf("resume requires a paused session")
	}

	s.session.Status = domain.SessionRunning
	s.lastTradeTime = time.Time{} // schedule relative to now, not the pre-pause trade
	observability.UpdateSessionStatus(string(domain.SessionRunning))
	s.recorder.Record(logging.Event{
		Level:    logging.LevelInfo,
		Category: "scheduler",
		Message:  "session resumed",
		Details:  map[string]any{"session": s.session.ID},
	})

	s.armLocked()
	return nil
}

// Stop cancels the pending attempt and ends the session. Safe to call in
// any state; terminal for the current session.
func (s *SessionScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimerLocked()

	if s.session == nil ||
		(s.session.Status != domain.SessionRunning && s.session.Status != domain.SessionPaused) {
		return
	}

	s.session.Status = domain.SessionStopped
	s.session.EndedAt = s.now()
	observability.UpdateSessionStatus(string(domain.SessionStopped))
	s.recorder.Record(logging.Event{
		Level:    logging.LevelInfo,
		Category: "scheduler",
		Message:  "session stopped",
		Details: map[string]any{
			"session": s.session.ID,
			"trades":  s.session.TotalTrades,
			"volume":  s.session.TotalVolume,
		},
	})
}

// Session returns a snapshot of the current session, or nil before the
// first start.
func (s *SessionScheduler) Session() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	sessCopy := *s.session
	return &sessCopy
}

// Orders returns the current session's orders in creation order.
func (s *SessionScheduler) Orders() []*domain.Order {
	s.mu.Lock()
	sessionID := ""
	if s.session != nil {
		sessionID = s.session.ID
	}
	s.mu.Unlock()

	if sessionID == "" {
		return nil
	}
	return s.ledger.BySession(sessionID)
}

// armLocked schedules the next attempt at
// max(lastTradeTime + randomInterval, now + floor). Caller holds the lock.
func (s *SessionScheduler) armLocked() {
	cfg := s.session.Config
	interval := cfg.MinInterval
	if span := cfg.MaxInterval - cfg.MinInterval; span > 0 {
		interval += time.Duration(s.rand.Int63n(int64(span) + 1))
	}

	now := s.now()
	next := s.lastTradeTime.Add(interval)
	if floor := now.Add(scheduleFloor); next.Before(floor) {
		next = floor
	}
	s.armAfterLocked(next.Sub(now))
}

// armAfterLocked schedules the next attempt after delay, replacing any
// pending timer. Caller holds the lock.
func (s *SessionScheduler) armAfterLocked(delay time.Duration) {
	s.cancelTimerLocked()
	gen := s.generation
	s.timer = time.AfterFunc(delay, func() { s.attempt(gen) })
}

// cancelTimerLocked stops the pending timer and bumps the generation so a
// callback that already fired becomes a no-op. Caller holds the lock.
func (s *SessionScheduler) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.generation++
}

// attempt runs one scheduled trade: select a wallet round-robin, draw side
// and amount, delegate to the executor, update counters, reschedule.
func (s *SessionScheduler) attempt(gen uint64) {
	s.mu.Lock()
	if s.generation != gen || s.session == nil || s.session.Status != domain.SessionRunning {
		s.mu.Unlock()
		return
	}

	sess := s.session
	cfg := sess.Config
	slot := sess.TotalTrades
	sess.TotalTrades++

	// Side and size are drawn under the lock; the wallet is picked after
	// the (network) eligibility listing.
	preferSell := s.rand.Intn(2) == 1
	amount := cfg.MinLamports()
	if span := cfg.MaxLamports() - cfg.MinLamports(); span > 0 {
		amount += uint64(s.rand.Int63n(int64(span) + 1))
	}
	s.orderSeq++
	orderID := idhash.ComputeOrderID(sess.ID, s.orderSeq)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), attemptTimeout)
	defer cancel()

	eligible, err := s.wallets.ListEligible(ctx, cfg.TokenMint)
	if err == nil && len(eligible) == 0 {
		err = errors.New("no eligible wallets")
	}
	if err != nil {
		s.finishAttempt(gen, "", "", fmt.Errorf("wallet selection: %w", err))
		return
	}
	observability.UpdateEligibleWallets(len(eligible))

	w := eligible[slot%uint64(len(eligible))]

	side := domain.SideBuy
	if preferSell && w.TokenUnits > 0 {
		side = domain.SideSell
	}

	order := &domain.Order{
		ID:        orderID,
		SessionID: sess.ID,
		WalletID:  w.ID,
		Side:      side,
		Amount:    amount,
		Status:    domain.OrderPending,
		CreatedAt: s.now(),
	}
	if err := s.ledger.Add(order); err != nil {
		s.finishAttempt(gen, "", "", fmt.Errorf("record order: %w", err))
		return
	}
	_ = s.ledger.MarkExecuting(order.ID)
	observability.RecordTradeSubmitted(string(side))

	res, err := s.exec.Execute(ctx, w, order, &cfg)
	if err != nil {
		_ = s.ledger.Fail(order.ID, err.Error())
		s.finishAttempt(gen, order.ID, string(side), err)
		return
	}

	_ = s.ledger.Complete(order.ID, res.Signature, res.CounterAmount)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.consecutiveFailures = 0
	sess.SuccessfulTrades++
	sess.TotalVolume += order.Amount
	sess.TotalFees += res.FeeLamports
	s.lastTradeTime = s.now()

	observability.RecordTradeCompleted(string(side), order.Amount, res.FeeLamports)
	observability.UpdateConsecutiveFailures(0)
	s.recorder.Record(logging.Event{
		Level:    logging.LevelInfo,
		Category: "scheduler",
		Message:  "trade completed",
		Details: map[string]any{
			"session":   sess.ID,
			"order_id":  order.ID,
			"mint":      cfg.TokenMint,
			"side":      side,
			"amount":    order.Amount,
			"signature": res.Signature,
		},
	})

	if sess.Status == domain.SessionRunning && s.generation == gen {
		s.armLocked()
	}
}

// finishAttempt records a failed attempt and either reschedules or trips
// the circuit breaker.
func (s *SessionScheduler) finishAttempt(gen uint64, orderID, side string, attemptErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session
	if sess == nil {
		return
	}

	sess.FailedTrades++
	sess.ErrorCount++
	sess.LastError = attemptErr.Error()
	s.consecutiveFailures++

	kind := classify(attemptErr)
	if side != "" {
		observability.RecordTradeFailed(side, kind)
	}
	observability.UpdateConsecutiveFailures(s.consecutiveFailures)
	s.recorder.Record(logging.Event{
		Level:    logging.LevelError,
		Category: "scheduler",
		Message:  "trade attempt failed",
		Details: map[string]any{
			"session":              sess.ID,
			"order_id":             orderID,
			"mint":                 sess.Config.TokenMint,
			"kind":                 kind,
			"consecutive_failures": s.consecutiveFailures,
			"error":                attemptErr.Error(),
		},
	})

	if s.consecutiveFailures >= sess.Config.MaxFailures {
		s.cancelTimerLocked()
		sess.Status = domain.SessionError
		sess.EndedAt = s.now()
		observability.UpdateSessionStatus(string(domain.SessionError))
		observability.RecordCircuitBreakerTrip()
		s.recorder.Record(logging.Event{
			Level:    logging.LevelError,
			Category: "scheduler",
			Message:  "circuit breaker tripped",
			Details: map[string]any{
				"session":  sess.ID,
				"failures": s.consecutiveFailures,
			},
		})
		return
	}

	if sess.Status != domain.SessionRunning || s.generation != gen {
		return
	}

	if kind == "unexpected" {
		s.armAfterLocked(errorCooldown)
		return
	}
	s.armLocked()
}

// classify buckets an attempt error for logging and metrics: classified
// RPC kinds and precondition failures reschedule normally, anything else
// gets the fixed cooldown.
func classify(err error) string {
	var precondition *executor.PreconditionError
	if errors.As(err, &precondition) {
		return "precondition"
	}
	var rpcErr *solana.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Kind.String()
	}
	return "unexpected"
}
