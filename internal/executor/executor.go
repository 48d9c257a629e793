// Package executor turns trade orders into signed, submitted transactions.
package executor

import (
	"context"
	"fmt"
	"time"

	"solana-volume-engine/internal/cache"
	"solana-volume-engine/internal/curve"
	"solana-volume-engine/internal/domain"
	"solana-volume-engine/internal/logging"
	"solana-volume-engine/internal/observability"
	"solana-volume-engine/internal/pumpfun"
	"solana-volume-engine/internal/solana"
	"solana-volume-engine/internal/wallet"
)

// Submission attempt budgets. Sells get more attempts than buys: a wallet
// stuck holding tokens is worse than a missed buy.
const (
	DefaultBuyAttempts  = 3
	DefaultSellAttempts = 5
)

// Backoff policy inside one attempt's retry loop.
const (
	rateLimitBackoffInitial = 1 * time.Second
	rateLimitBackoffMax     = 10 * time.Second
	networkBackoff          = 500 * time.Millisecond
	simulationBackoff       = 1 * time.Second
)

// tokenDustUnits is the smallest sellable token balance.
const tokenDustUnits = 1_000

// feeLamportsPerSignature is the base fee charged per transaction signature.
const feeLamportsPerSignature = 5_000

// PreconditionError marks an attempt rejected before submission: bad
// address, missing token balance, completed curve. Never retried.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Reason
}

// Result is the outcome of a successfully submitted trade.
type Result struct {
	Signature string
	// CounterAmount is the curve-model prediction at build time: token
	// units received for buys, lamports received for sells. On-chain
	// settlement is not awaited.
	CounterAmount uint64
	FeeLamports   uint64
}

// Options configures a TransactionExecutor.
type Options struct {
	RPC      solana.RPCClient
	Wallets  *wallet.Pool
	Recorder logging.Recorder

	// BuyAttempts and SellAttempts bound the submission retry loop.
	// Zero selects the defaults.
	BuyAttempts  int
	SellAttempts int

	// Sleep is the backoff delay function, injectable in tests.
	Sleep func(ctx context.Context, d time.Duration) error

	// Now is the cache clock, injectable in tests.
	Now func() time.Time
}

// curveSnapshot is the cached per-mint chain state a build consumes.
type curveSnapshot struct {
	Curve  *domain.BondingCurveState
	Global *domain.GlobalState
}

// TransactionExecutor builds, signs, and submits bonding-curve trades with
// a classified retry loop.
type TransactionExecutor struct {
	rpc      solana.RPCClient
	wallets  *wallet.Pool
	recorder logging.Recorder

	buyAttempts  int
	sellAttempts int
	sleep        func(ctx context.Context, d time.Duration) error

	blockhashCache *cache.Single[solana.Blockhash]
	curveCache     *cache.Keyed[curveSnapshot]
	ataCache       *cache.Keyed[bool] // ata address -> exists
}

// New creates a TransactionExecutor.
func New(opts Options) *TransactionExecutor {
	e := &TransactionExecutor{
		rpc:          opts.RPC,
		wallets:      opts.Wallets,
		recorder:     opts.Recorder,
		buyAttempts:  opts.BuyAttempts,
		sellAttempts: opts.SellAttempts,
		sleep:        opts.Sleep,
	}
	if e.recorder == nil {
		e.recorder = logging.NopRecorder{}
	}
	if e.buyAttempts <= 0 {
		e.buyAttempts = DefaultBuyAttempts
	}
	if e.sellAttempts <= 0 {
		e.sellAttempts = DefaultSellAttempts
	}
	if e.sleep == nil {
		e.sleep = sleepContext
	}

	e.blockhashCache = cache.NewSingle[solana.Blockhash](cache.BlockhashTTL, opts.Now)
	e.curveCache = cache.NewKeyed[curveSnapshot](cache.CurveStateTTL, opts.Now)
	e.ataCache = cache.NewKeyed[bool](cache.CurveStateTTL, opts.Now)
	return e
}

// InvalidateCurve drops the cached chain state for mint, forcing a refetch
// on the next build. Called by the curve account watcher when the on-chain
// account changes.
func (e *TransactionExecutor) InvalidateCurve(mint string) {
	e.curveCache.Invalidate(mint)
}

// Execute runs one trade attempt for the order using the wallet's key.
// cfg supplies the mint and slippage tolerance. Returns a *PreconditionError
// for rejections before submission; otherwise the last classified RPC error
// once the retry budget is exhausted.
func (e *TransactionExecutor) Execute(ctx context.Context, w *domain.ActiveWallet, o *domain.Order, cfg *domain.TradingConfig) (*Result, error) {
	if !solana.IsValidPubkey(cfg.TokenMint) {
		return nil, &PreconditionError{Reason: fmt.Sprintf("invalid mint address %q", cfg.TokenMint)}
	}

	keypair, err := solana.KeypairFromBase58(w.PrivateKey)
	if err != nil {
		return nil, &PreconditionError{Reason: fmt.Sprintf("wallet %s: %v", w.ID, err)}
	}
	if keypair.PublicKey != w.Address {
		return nil, &PreconditionError{Reason: fmt.Sprintf("wallet %s key does not match address", w.ID)}
	}

	// Sells are validated against the live on-chain balance, not the
	// selection-time snapshot, to avoid building a guaranteed revert.
	var sellBalance uint64
	if o.Side == domain.SideSell {
		sellBalance, err = e.wallets.TokenBalance(ctx, w.Address, cfg.TokenMint)
		if err != nil {
			return nil, fmt.Errorf("sell balance check: %w", err)
		}
		if sellBalance < tokenDustUnits {
			return nil, &PreconditionError{Reason: fmt.Sprintf("token balance %d below dust floor", sellBalance)}
		}
	}

	attempts := e.buyAttempts
	if o.Side == domain.SideSell {
		attempts = e.sellAttempts
	}

	rateBackoff := rateLimitBackoffInitial
	useCache := true
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		wire, counter, err := e.build(ctx, keypair, w, o, cfg, sellBalance, useCache)
		if err != nil {
			return nil, err
		}
		useCache = true

		maxRetries := 0 // the node must not rebroadcast; retry policy lives here
		sig, err := e.rpc.SendTransaction(ctx, wire, &solana.SendOptions{
			PreflightCommitment: solana.CommitmentConfirmed,
			MaxRetries:          &maxRetries,
		})
		if err == nil {
			e.recorder.Record(logging.Event{
				Level:    logging.LevelInfo,
				Category: "executor",
				Message:  "trade submitted",
				Details: map[string]any{
					"order_id":  o.ID,
					"session":   o.SessionID,
					"mint":      cfg.TokenMint,
					"side":      o.Side,
					"signature": sig,
					"attempt":   attempt,
				},
			})
			return &Result{
				Signature:     sig,
				CounterAmount: counter,
				FeeLamports:   feeLamportsPerSignature,
			}, nil
		}
		lastErr = err

		kind := solana.Kind(err)
		observability.RecordSubmissionRetry(kind.String())
		e.recorder.Record(logging.Event{
			Level:    logging.LevelWarn,
			Category: "executor",
			Message:  "submission failed",
			Details: map[string]any{
				"order_id": o.ID,
				"session":  o.SessionID,
				"mint":     cfg.TokenMint,
				"kind":     kind.String(),
				"attempt":  attempt,
				"error":    err.Error(),
			},
		})

		switch kind {
		case solana.KindInsufficientFunds:
			// Permanent precondition failure
			return nil, lastErr

		case solana.KindBlockhashNotFound:
			// Rebuild with a fresh blockhash, no delay
			e.blockhashCache.Invalidate()

		case solana.KindRateLimited:
			if err := e.sleep(ctx, rateBackoff); err != nil {
				return nil, err
			}
			rateBackoff *= 2
			if rateBackoff > rateLimitBackoffMax {
				rateBackoff = rateLimitBackoffMax
			}

		case solana.KindSimulationFailed:
			// Cached chain state is suspect; refetch ground truth
			e.curveCache.Invalidate(cfg.TokenMint)
			if ata, err := solana.AssociatedTokenAddress(w.Address, cfg.TokenMint); err == nil {
				e.ataCache.Invalidate(ata)
			}
			useCache = false
			if err := e.sleep(ctx, simulationBackoff); err != nil {
				return nil, err
			}

		default:
			if err := e.sleep(ctx, networkBackoff); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("retries exhausted after %d attempts: %w", attempts, lastErr)
}

// build assembles and signs the trade transaction, returning the wire form
// and the model-predicted counter amount.
func (e *TransactionExecutor) build(ctx context.Context, kp *solana.Keypair, w *domain.ActiveWallet, o *domain.Order, cfg *domain.TradingConfig, sellBalance uint64, useCache bool) ([]byte, uint64, error) {
	snap, err := e.curveState(ctx, cfg.TokenMint, useCache)
	if err != nil {
		return nil, 0, err
	}
	if snap.Curve.Complete {
		return nil, 0, &PreconditionError{Reason: "bonding curve is complete; trading has migrated off-curve"}
	}

	slippageBps := cfg.SlippageBps
	if slippageBps == 0 {
		slippageBps = curve.SuggestedSlippageBps(snap.Curve, o.Amount)
	}

	var instructions []solana.Instruction
	var counter uint64

	switch o.Side {
	case domain.SideBuy:
		tokensOut, err := curve.TokensOutForSolIn(snap.Curve, o.Amount)
		if err != nil {
			return nil, 0, &PreconditionError{Reason: fmt.Sprintf("buy pricing: %v", err)}
		}
		maxSolCost := o.Amount + o.Amount*slippageBps/10_000

		hasATA, err := e.userATAExists(ctx, w.Address, cfg.TokenMint, useCache)
		if err != nil {
			return nil, 0, err
		}
		if !hasATA {
			createATA, err := pumpfun.CreateATAInstruction(w.Address, w.Address, cfg.TokenMint)
			if err != nil {
				return nil, 0, fmt.Errorf("build create ata: %w", err)
			}
			instructions = append(instructions, *createATA)
		}

		buy, err := pumpfun.BuyInstruction(cfg.TokenMint, w.Address, tokensOut, maxSolCost)
		if err != nil {
			return nil, 0, fmt.Errorf("build buy: %w", err)
		}
		instructions = append(instructions, *buy)
		counter = tokensOut

	case domain.SideSell:
		// Invert the SOL-denominated order size into a token quantity at
		// the current curve price, capped by the live balance.
		tokensIn, err := curve.TokensOutForSolIn(snap.Curve, o.Amount)
		if err != nil {
			return nil, 0, &PreconditionError{Reason: fmt.Sprintf("sell sizing: %v", err)}
		}
		if tokensIn > sellBalance {
			tokensIn = sellBalance
		}

		solOut, err := curve.SolOutForTokensIn(snap.Curve, tokensIn)
		if err != nil {
			return nil, 0, &PreconditionError{Reason: fmt.Sprintf("sell pricing: %v", err)}
		}
		minSolOutput := solOut - solOut*slippageBps/10_000

		sell, err := pumpfun.SellInstruction(cfg.TokenMint, w.Address, tokensIn, minSolOutput)
		if err != nil {
			return nil, 0, fmt.Errorf("build sell: %w", err)
		}
		instructions = append(instructions, *sell)
		counter = solOut

	default:
		return nil, 0, &PreconditionError{Reason: fmt.Sprintf("unknown side %q", o.Side)}
	}

	blockhash, err := e.latestBlockhash(ctx)
	if err != nil {
		return nil, 0, err
	}

	tx, err := solana.BuildTransaction(instructions, w.Address, blockhash.Hash)
	if err != nil {
		return nil, 0, fmt.Errorf("compile transaction: %w", err)
	}
	if err := tx.Sign(kp); err != nil {
		return nil, 0, fmt.Errorf("sign transaction: %w", err)
	}

	wire, err := tx.Serialize()
	if err != nil {
		return nil, 0, fmt.Errorf("serialize transaction: %w", err)
	}
	return wire, counter, nil
}

// curveState returns the cached per-mint snapshot, fetching on miss or when
// the caller forces a refetch.
func (e *TransactionExecutor) curveState(ctx context.Context, mint string, useCache bool) (*curveSnapshot, error) {
	if useCache {
		if snap, ok := e.curveCache.Get(mint); ok {
			observability.RecordCacheAccess("curve", true)
			return &snap, nil
		}
	}
	observability.RecordCacheAccess("curve", false)

	curveAddr, err := pumpfun.BondingCurveAddress(mint)
	if err != nil {
		return nil, fmt.Errorf("derive curve address: %w", err)
	}

	curveInfo, err := e.rpc.GetAccountInfo(ctx, curveAddr)
	if err != nil {
		return nil, fmt.Errorf("fetch curve account: %w", err)
	}
	if curveInfo == nil {
		return nil, &PreconditionError{Reason: fmt.Sprintf("no bonding curve account for mint %s", mint)}
	}
	curveState, err := pumpfun.DecodeBondingCurve(curveInfo.Data)
	if err != nil {
		return nil, fmt.Errorf("decode curve account: %w", err)
	}

	globalInfo, err := e.rpc.GetAccountInfo(ctx, pumpfun.GlobalAccount)
	if err != nil {
		return nil, fmt.Errorf("fetch global account: %w", err)
	}
	globalState := &domain.GlobalState{FeeRecipient: pumpfun.FeeRecipient}
	if globalInfo != nil {
		if decoded, err := pumpfun.DecodeGlobal(globalInfo.Data); err == nil {
			globalState = decoded
		}
	}

	snap := curveSnapshot{Curve: curveState, Global: globalState}
	e.curveCache.Set(mint, snap)
	return &snap, nil
}

// userATAExists reports whether the wallet already holds an associated
// token account for the mint, cached alongside the curve snapshot window.
func (e *TransactionExecutor) userATAExists(ctx context.Context, owner, mint string, useCache bool) (bool, error) {
	ata, err := solana.AssociatedTokenAddress(owner, mint)
	if err != nil {
		return false, fmt.Errorf("derive user ata: %w", err)
	}

	if useCache {
		if exists, ok := e.ataCache.Get(ata); ok {
			return exists, nil
		}
	}

	info, err := e.rpc.GetAccountInfo(ctx, ata)
	if err != nil {
		return false, fmt.Errorf("fetch user ata: %w", err)
	}
	exists := info != nil
	e.ataCache.Set(ata, exists)
	return exists, nil
}

// latestBlockhash serves the cached blockhash while fresh, fetching otherwise.
func (e *TransactionExecutor) latestBlockhash(ctx context.Context) (*solana.Blockhash, error) {
	if bh, ok := e.blockhashCache.Get(); ok {
		observability.RecordCacheAccess("blockhash", true)
		return &bh, nil
	}
	observability.RecordCacheAccess("blockhash", false)

	bh, err := e.rpc.GetLatestBlockhash(ctx, solana.CommitmentConfirmed)
	if err != nil {
		return nil, fmt.Errorf("fetch blockhash: %w", err)
	}
	e.blockhashCache.Set(*bh)
	return bh, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
