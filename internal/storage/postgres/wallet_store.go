package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-volume-engine/internal/domain"
	"solana-volume-engine/internal/storage"
)

// WalletStore implements storage.WalletStore using PostgreSQL.
type WalletStore struct {
	pool *Pool
}

// NewWalletStore creates a new WalletStore.
func NewWalletStore(pool *Pool) *WalletStore {
	return &WalletStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WalletStore = (*WalletStore)(nil)

// Insert adds a new wallet. Returns ErrDuplicateKey if the ID or address exists.
func (s *WalletStore) Insert(ctx context.Context, w *domain.Wallet) error {
	if w == nil || w.ID == "" || w.Address == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO wallets (id, address, private_key, label, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		w.ID,
		w.Address,
		w.PrivateKey,
		w.Label,
		w.Active,
		w.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID retrieves a wallet by ID. Returns ErrNotFound if not exists.
func (s *WalletStore) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	query := `
		SELECT id, address, private_key, label, active, created_at
		FROM wallets
		WHERE id = $1
	`

	w, err := scanWallet(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get wallet by id: %w", err)
	}
	return w, nil
}

// GetByAddress retrieves a wallet by address. Returns ErrNotFound if not exists.
func (s *WalletStore) GetByAddress(ctx context.Context, address string) (*domain.Wallet, error) {
	query := `
		SELECT id, address, private_key, label, active, created_at
		FROM wallets
		WHERE address = $1
	`

	w, err := scanWallet(s.pool.QueryRow(ctx, query, address))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get wallet by address: %w", err)
	}
	return w, nil
}

// List retrieves all wallets ordered by creation time ASC.
func (s *WalletStore) List(ctx context.Context) ([]*domain.Wallet, error) {
	query := `
		SELECT id, address, private_key, label, active, created_at
		FROM wallets
		ORDER BY created_at ASC, id ASC
	`
	return s.queryWallets(ctx, query)
}

// ListActive retrieves all active wallets ordered by creation time ASC.
func (s *WalletStore) ListActive(ctx context.Context) ([]*domain.Wallet, error) {
	query := `
		SELECT id, address, private_key, label, active, created_at
		FROM wallets
		WHERE active
		ORDER BY created_at ASC, id ASC
	`
	return s.queryWallets(ctx, query)
}

// SetActive marks a wallet eligible or ineligible for trading.
func (s *WalletStore) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE wallets SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set wallet active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *WalletStore) queryWallets(ctx context.Context, query string) ([]*domain.Wallet, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*domain.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallets: %w", err)
	}
	return wallets, nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	err := row.Scan(
		&w.ID,
		&w.Address,
		&w.PrivateKey,
		&w.Label,
		&w.Active,
		&w.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
