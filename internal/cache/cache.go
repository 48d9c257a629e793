// Package cache provides time-bounded caches for chain state.
//
// Entries are valid while their age is below the cache TTL. Callers that
// need ground truth after an on-chain simulation failure must invalidate
// explicitly; expiry alone only bounds staleness.
package cache

import (
	"sync"
	"time"
)

// Default freshness windows.
const (
	// BlockhashTTL bounds how long a cached blockhash may be used to
	// build a transaction. Solana blockhashes stay valid for roughly
	// 60-90 seconds; the cache expires well before that.
	BlockhashTTL = 10 * time.Second

	// CurveStateTTL bounds how long a cached bonding-curve snapshot may
	// serve pricing without a refetch.
	CurveStateTTL = 30 * time.Second
)

type entry[V any] struct {
	value      V
	capturedAt time.Time
}

// Single is a single-value cache with a freshness window.
type Single[V any] struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	ent *entry[V]
}

// NewSingle creates a single-value cache. now may be nil for wall-clock time.
func NewSingle[V any](ttl time.Duration, now func() time.Time) *Single[V] {
	if now == nil {
		now = time.Now
	}
	return &Single[V]{ttl: ttl, now: now}
}

// Get returns the cached value if it is younger than the TTL.
func (c *Single[V]) Get() (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	if c.ent == nil || c.now().Sub(c.ent.capturedAt) >= c.ttl {
		return zero, false
	}
	return c.ent.value, true
}

// Set stores a value captured now.
func (c *Single[V]) Set(v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ent = &entry[V]{value: v, capturedAt: c.now()}
}

// Invalidate drops the cached value.
func (c *Single[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ent = nil
}

// Keyed is a string-keyed cache with a shared freshness window.
type Keyed[V any] struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	ents map[string]entry[V]
}

// NewKeyed creates a keyed cache. now may be nil for wall-clock time.
func NewKeyed[V any](ttl time.Duration, now func() time.Time) *Keyed[V] {
	if now == nil {
		now = time.Now
	}
	return &Keyed[V]{ttl: ttl, now: now, ents: make(map[string]entry[V])}
}

// Get returns the cached value for key if it is younger than the TTL.
func (c *Keyed[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	ent, ok := c.ents[key]
	if !ok || c.now().Sub(ent.capturedAt) >= c.ttl {
		return zero, false
	}
	return ent.value, true
}

// Set stores a value for key captured now.
func (c *Keyed[V]) Set(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ents[key] = entry[V]{value: v, capturedAt: c.now()}
}

// Invalidate drops the cached value for key.
func (c *Keyed[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ents, key)
}
