// Package ledger keeps the in-memory record of every trade attempt.
package ledger

import (
	"sync"
	"time"

	"solana-volume-engine/internal/domain"
	"solana-volume-engine/internal/storage"
)

// OrderLedger is an append-only order record. Orders move pending →
// executing → completed/failed; terminal orders are immutable.
type OrderLedger struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Order
	orders []*domain.Order // insertion order
}

// NewOrderLedger creates an empty ledger.
func NewOrderLedger() *OrderLedger {
	return &OrderLedger{
		byID: make(map[string]*domain.Order),
	}
}

// Add records a new order. Returns ErrDuplicateKey if the ID exists.
func (l *OrderLedger) Add(o *domain.Order) error {
	if o == nil || o.ID == "" {
		return storage.ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byID[o.ID]; exists {
		return storage.ErrDuplicateKey
	}

	orderCopy := *o
	l.byID[o.ID] = &orderCopy
	l.orders = append(l.orders, &orderCopy)
	return nil
}

// Get retrieves an order by ID. Returns ErrNotFound if not exists.
func (l *OrderLedger) Get(id string) (*domain.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	o, exists := l.byID[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	orderCopy := *o
	return &orderCopy, nil
}

// MarkExecuting transitions a pending order to executing.
func (l *OrderLedger) MarkExecuting(id string) error {
	return l.transition(id, domain.OrderPending, func(o *domain.Order) {
		o.Status = domain.OrderExecuting
	})
}

// Complete transitions an executing order to completed, recording the
// transaction signature and the counter quantity of the trade.
func (l *OrderLedger) Complete(id, signature string, counterAmount uint64) error {
	return l.transition(id, domain.OrderExecuting, func(o *domain.Order) {
		o.Status = domain.OrderCompleted
		o.Signature = signature
		o.CounterAmount = counterAmount
		o.ExecutedAt = time.Now()
	})
}

// Fail transitions a pending or executing order to failed with a reason.
func (l *OrderLedger) Fail(id, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, exists := l.byID[id]
	if !exists {
		return storage.ErrNotFound
	}
	if o.Status == domain.OrderCompleted || o.Status == domain.OrderFailed {
		return storage.ErrInvalidInput
	}

	o.Status = domain.OrderFailed
	o.Error = reason
	o.ExecutedAt = time.Now()
	return nil
}

// BySession retrieves all orders of a session in creation order.
func (l *OrderLedger) BySession(sessionID string) []*domain.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []*domain.Order
	for _, o := range l.orders {
		if o.SessionID == sessionID {
			orderCopy := *o
			result = append(result, &orderCopy)
		}
	}
	return result
}

// All retrieves every recorded order in creation order.
func (l *OrderLedger) All() []*domain.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*domain.Order, 0, len(l.orders))
	for _, o := range l.orders {
		orderCopy := *o
		result = append(result, &orderCopy)
	}
	return result
}

// transition applies mutate to the order iff it is in the required status.
func (l *OrderLedger) transition(id string, from domain.OrderStatus, mutate func(*domain.Order)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, exists := l.byID[id]
	if !exists {
		return storage.ErrNotFound
	}
	if o.Status != from {
		return storage.ErrInvalidInput
	}

	mutate(o)
	return nil
}
