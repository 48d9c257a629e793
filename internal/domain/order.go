package domain

import "time"

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderStatus is the lifecycle state of a single trade attempt.
// pending → executing → completed | failed. Terminal orders are immutable.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderExecuting OrderStatus = "executing"
	OrderCompleted OrderStatus = "completed"
	OrderFailed    OrderStatus = "failed"
)

// Order is one trade attempt. Amount is the SOL-denominated trade size in
// lamports for both sides; for sells the executor converts it to a token
// quantity against the live curve.
type Order struct {
	ID        string      `json:"id"`
	SessionID string      `json:"session_id"`
	WalletID  string      `json:"wallet_id"`
	Side      Side        `json:"side"`
	Amount    uint64      `json:"amount"` // lamports
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	// ExecutedAt is set when the order reaches a terminal status.
	ExecutedAt time.Time `json:"executed_at,omitempty"`
	// Signature is the submitted transaction signature, set on completion.
	Signature string `json:"signature,omitempty"`
	// CounterAmount is the model-predicted counter quantity: tokens
	// received for buys, lamports received for sells.
	CounterAmount uint64 `json:"counter_amount,omitempty"`
	Error         string `json:"error,omitempty"`
}
