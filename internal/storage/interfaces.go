package storage

import (
	"context"

	"solana-volume-engine/internal/domain"
)

// WalletStore provides access to the trading wallet inventory.
type WalletStore interface {
	// Insert adds a new wallet. Returns ErrDuplicateKey if the wallet ID
	// or address already exists.
	Insert(ctx context.Context, w *domain.Wallet) error

	// GetByID retrieves a wallet by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)

	// GetByAddress retrieves a wallet by its public address. Returns
	// ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.Wallet, error)

	// List retrieves all wallets ordered by creation time ASC.
	List(ctx context.Context) ([]*domain.Wallet, error)

	// ListActive retrieves all wallets marked active, ordered by creation
	// time ASC.
	ListActive(ctx context.Context) ([]*domain.Wallet, error)

	// SetActive marks a wallet eligible or ineligible for trading.
	// Returns ErrNotFound if the wallet does not exist.
	SetActive(ctx context.Context, id string, active bool) error
}
