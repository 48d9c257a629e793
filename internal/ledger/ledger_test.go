package ledger

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"solana-volume-engine/internal/domain"
	"solana-volume-engine/internal/storage"
)

func testOrder(id, sessionID string) *domain.Order {
	return &domain.Order{
		ID:        id,
		SessionID: sessionID,
		WalletID:  "w1",
		Side:      domain.SideBuy,
		Amount:    50_000_000,
		Status:    domain.OrderPending,
		CreatedAt: time.Now(),
	}
}

func TestOrderLedger_AddAndGet(t *testing.T) {
	l := NewOrderLedger()

	o := testOrder("o1", "s1")
	if err := l.Add(o); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := l.Get("o1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.SessionID != "s1" || got.Status != domain.OrderPending {
		t.Errorf("unexpected order: %+v", got)
	}

	if err := l.Add(testOrder("o1", "s1")); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	if err := l.Add(nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := l.Get("missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOrderLedger_CompleteLifecycle(t *testing.T) {
	l := NewOrderLedger()

	if err := l.Add(testOrder("o1", "s1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Completing a pending order must fail: it has to be executing first
	if err := l.Complete("o1", "sig", 100); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput completing pending order, got %v", err)
	}

	if err := l.MarkExecuting("o1"); err != nil {
		t.Fatalf("MarkExecuting failed: %v", err)
	}
	if err := l.Complete("o1", "sig123", 42_000_000); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	got, err := l.Get("o1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != domain.OrderCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.Signature != "sig123" || got.CounterAmount != 42_000_000 {
		t.Errorf("unexpected completion fields: %+v", got)
	}
	if got.ExecutedAt.IsZero() {
		t.Error("ExecutedAt not set")
	}
}

func TestOrderLedger_TerminalOrdersImmutable(t *testing.T) {
	l := NewOrderLedger()

	if err := l.Add(testOrder("o1", "s1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := l.MarkExecuting("o1"); err != nil {
		t.Fatalf("MarkExecuting failed: %v", err)
	}
	if err := l.Complete("o1", "sig", 1); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if err := l.Fail("o1", "late failure"); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput failing completed order, got %v", err)
	}
	if err := l.MarkExecuting("o1"); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput re-executing completed order, got %v", err)
	}
}

func TestOrderLedger_FailFromPendingOrExecuting(t *testing.T) {
	l := NewOrderLedger()

	if err := l.Add(testOrder("o1", "s1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := l.Fail("o1", "no eligible wallet"); err != nil {
		t.Fatalf("Fail from pending failed: %v", err)
	}

	got, _ := l.Get("o1")
	if got.Status != domain.OrderFailed || got.Error != "no eligible wallet" {
		t.Errorf("unexpected failed order: %+v", got)
	}

	if err := l.Add(testOrder("o2", "s1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := l.MarkExecuting("o2"); err != nil {
		t.Fatalf("MarkExecuting failed: %v", err)
	}
	if err := l.Fail("o2", "rpc timeout"); err != nil {
		t.Fatalf("Fail from executing failed: %v", err)
	}
}

func TestOrderLedger_BySession(t *testing.T) {
	l := NewOrderLedger()

	for i := 0; i < 3; i++ {
		if err := l.Add(testOrder(fmt.Sprintf("a%d", i), "s1")); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	if err := l.Add(testOrder("b0", "s2")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	s1 := l.BySession("s1")
	if len(s1) != 3 {
		t.Fatalf("expected 3 orders for s1, got %d", len(s1))
	}
	for i, o := range s1 {
		if want := fmt.Sprintf("a%d", i); o.ID != want {
			t.Errorf("order %d = %s, want %s", i, o.ID, want)
		}
	}

	if got := len(l.BySession("s2")); got != 1 {
		t.Errorf("expected 1 order for s2, got %d", got)
	}
	if got := len(l.BySession("missing")); got != 0 {
		t.Errorf("expected 0 orders for unknown session, got %d", got)
	}
	if got := len(l.All()); got != 4 {
		t.Errorf("expected 4 orders total, got %d", got)
	}
}

func TestOrderLedger_ReturnsCopies(t *testing.T) {
	l := NewOrderLedger()

	if err := l.Add(testOrder("o1", "s1")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, _ := l.Get("o1")
	got.Status = domain.OrderCompleted

	again, _ := l.Get("o1")
	if again.Status != domain.OrderPending {
		t.Errorf("ledger leaked a mutable reference: status = %s", again.Status)
	}
}
