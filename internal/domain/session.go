package domain

import "time"

// SessionStatus is the lifecycle state of a trading session.
type SessionStatus string

// Session lifecycle states. Transitions:
// idle → running ⇄ paused → stopped, and running → error (terminal).
const (
	SessionIdle    SessionStatus = "idle"
	SessionRunning SessionStatus = "running"
	SessionPaused  SessionStatus = "paused"
	SessionStopped SessionStatus = "stopped"
	SessionError   SessionStatus = "error"
)

// Session is one trading run. Created on start; mutated only by the
// scheduler; retained until a new session is started.
type Session struct {
	ID        string        `json:"id"`
	Status    SessionStatus `json:"status"`
	Config    TradingConfig `json:"config"` // immutable copy of the launch config
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at,omitempty"`

	// Cumulative counters. successful + failed <= total always holds:
	// total is incremented when an attempt begins, the outcome counters
	// when it finishes.
	TotalTrades      uint64 `json:"total_trades"`
	SuccessfulTrades uint64 `json:"successful_trades"`
	FailedTrades     uint64 `json:"failed_trades"`
	TotalVolume      uint64 `json:"total_volume"` // lamports, completed trades only
	TotalFees        uint64 `json:"total_fees"`   // lamports
	ErrorCount       uint64 `json:"error_count"`
	LastError        string `json:"last_error,omitempty"`
}
