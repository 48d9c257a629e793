package domain

import (
	"fmt"
	"time"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// DustLamports is the minimum wallet balance considered spendable.
// Wallets at or below this threshold are ineligible for trading.
const DustLamports = 5_000_000 // 0.005 SOL

// TradingConfig is the launch configuration for a trading session.
// It is validated wholesale by Validate; a session keeps an immutable copy.
type TradingConfig struct {
	Enabled     bool          `json:"enabled"`
	TokenMint   string        `json:"token_mint"`
	MinAmount   float64       `json:"min_amount"`   // SOL per trade, lower bound
	MaxAmount   float64       `json:"max_amount"`   // SOL per trade, upper bound
	MinInterval time.Duration `json:"min_interval"` // between trades, lower bound
	MaxInterval time.Duration `json:"max_interval"` // between trades, upper bound
	MaxFailures int           `json:"max_failures"` // consecutive failures before the breaker trips
	SlippageBps uint64        `json:"slippage_bps"` // 0 = derive from price impact
}

// ValidationError describes a rejected configuration field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// Validate checks the configuration invariants. Returns a *ValidationError
// describing the first violated field, or nil.
func (c *TradingConfig) Validate() error {
	if c.TokenMint == "" {
		return &ValidationError{Field: "token_mint", Reason: "must not be empty"}
	}
	if c.MinAmount <= 0 {
		return &ValidationError{Field: "min_amount", Reason: "must be positive"}
	}
	if c.MaxAmount < c.MinAmount {
		return &ValidationError{Field: "max_amount", Reason: "must be >= min_amount"}
	}
	if c.MinInterval <= 0 {
		return &ValidationError{Field: "min_interval", Reason: "must be positive"}
	}
	if c.MaxInterval < c.MinInterval {
		return &ValidationError{Field: "max_interval", Reason: "must be >= min_interval"}
	}
	if c.MaxFailures <= 0 {
		return &ValidationError{Field: "max_failures", Reason: "must be positive"}
	}
	if c.SlippageBps > 10_000 {
		return &ValidationError{Field: "slippage_bps", Reason: "must be <= 10000"}
	}
	return nil
}

// MinLamports returns the lower trade bound in lamports.
func (c *TradingConfig) MinLamports() uint64 {
	return uint64(c.MinAmount * LamportsPerSOL)
}

// MaxLamports returns the upper trade bound in lamports.
func (c *TradingConfig) MaxLamports() uint64 {
	return uint64(c.MaxAmount * LamportsPerSOL)
}
