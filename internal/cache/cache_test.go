package cache

import (
	"testing"
	"time"
)

// fakeClock is an adjustable time source.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestSingle_FreshEntryServed(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := NewSingle[string](10*time.Second, clk.now)

	if _, ok := c.Get(); ok {
		t.Fatal("empty cache returned a value")
	}

	c.Set("hash1")
	clk.advance(9 * time.Second)

	got, ok := c.Get()
	if !ok || got != "hash1" {
		t.Errorf("Get = (%q, %v), want (hash1, true)", got, ok)
	}
}

func TestSingle_ExpiredEntryNotServed(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := NewSingle[string](10*time.Second, clk.now)

	c.Set("hash1")
	clk.advance(10 * time.Second) // exactly the TTL: no longer fresh

	if _, ok := c.Get(); ok {
		t.Error("entry at TTL age was served")
	}
}

func TestSingle_Invalidate(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := NewSingle[int](time.Minute, clk.now)

	c.Set(42)
	c.Invalidate()

	if _, ok := c.Get(); ok {
		t.Error("invalidated entry was served")
	}
}

func TestKeyed_IndependentKeys(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := NewKeyed[int](30*time.Second, clk.now)

	c.Set("mintA", 1)
	c.Set("mintB", 2)

	c.Invalidate("mintA")

	if _, ok := c.Get("mintA"); ok {
		t.Error("invalidated key was served")
	}
	if v, ok := c.Get("mintB"); !ok || v != 2 {
		t.Errorf("Get(mintB) = (%d, %v), want (2, true)", v, ok)
	}
}

func TestKeyed_Expiry(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := NewKeyed[int](30*time.Second, clk.now)

	c.Set("mintA", 1)
	clk.advance(29 * time.Second)
	if _, ok := c.Get("mintA"); !ok {
		t.Error("fresh entry not served")
	}

	clk.advance(2 * time.Second)
	if _, ok := c.Get("mintA"); ok {
		t.Error("stale entry served")
	}
}
