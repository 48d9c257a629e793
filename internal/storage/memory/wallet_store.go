// Package memory provides in-memory store implementations, used in tests
// and in deployments that load wallets from a keyfile at startup.
package memory

import (
	"context"
	"sort"
	"sync"

	"solana-volume-engine/internal/domain"
	"solana-volume-engine/internal/storage"
)

// WalletStore is an in-memory implementation of storage.WalletStore.
type WalletStore struct {
	mu        sync.RWMutex
	byID      map[string]*domain.Wallet
	byAddress map[string]*domain.Wallet
}

// NewWalletStore creates a new in-memory wallet store.
func NewWalletStore() *WalletStore {
	return &WalletStore{
		byID:      make(map[string]*domain.Wallet),
		byAddress: make(map[string]*domain.Wallet),
	}
}

// Compile-time interface check.
var _ storage.WalletStore = (*WalletStore)(nil)

// Insert adds a new wallet. Returns ErrDuplicateKey if the ID or address exists.
func (s *WalletStore) Insert(_ context.Context, w *domain.Wallet) error {
	if w == nil || w.ID == "" || w.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[w.ID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.byAddress[w.Address]; exists {
		return storage.ErrDuplicateKey
	}

	walletCopy := *w
	s.byID[w.ID] = &walletCopy
	s.byAddress[w.Address] = &walletCopy
	return nil
}

// GetByID retrieves a wallet by ID. Returns ErrNotFound if not exists.
func (s *WalletStore) GetByID(_ context.Context, id string) (*domain.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, exists := s.byID[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	walletCopy := *w
	return &walletCopy, nil
}

// GetByAddress retrieves a wallet by address. Returns ErrNotFound if not exists.
func (s *WalletStore) GetByAddress(_ context.Context, address string) (*domain.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, exists := s.byAddress[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	walletCopy := *w
	return &walletCopy, nil
}

// List retrieves all wallets ordered by creation time ASC.
func (s *WalletStore) List(_ context.Context) ([]*domain.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*domain.Wallet) bool { return true }), nil
}

// ListActive retrieves all active wallets ordered by creation time ASC.
func (s *WalletStore) ListActive(_ context.Context) ([]*domain.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(w *domain.Wallet) bool { return w.Active }), nil
}

// SetActive marks a wallet eligible or ineligible for trading.
func (s *WalletStore) SetActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, exists := s.byID[id]
	if !exists {
		return storage.ErrNotFound
	}
	w.Active = active
	return nil
}

// collect returns copies of wallets matching the filter, ordered by
// creation time then ID for a stable order. Caller must hold the lock.
func (s *WalletStore) collect(match func(*domain.Wallet) bool) []*domain.Wallet {
	result := make([]*domain.Wallet, 0, len(s.byID))
	for _, w := range s.byID {
		if match(w) {
			walletCopy := *w
			result = append(result, &walletCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}
