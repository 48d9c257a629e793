// Package wallet selects trading wallets from inventory with live balances.
package wallet

import (
	"context"
	"fmt"

	"solana-volume-engine/internal/domain"
	"solana-volume-engine/internal/solana"
	"solana-volume-engine/internal/storage"
)

// Pool resolves eligible trading wallets by joining the inventory store
// with live chain balances.
type Pool struct {
	store storage.WalletStore
	rpc   solana.RPCClient
}

// NewPool creates a wallet pool.
func NewPool(store storage.WalletStore, rpc solana.RPCClient) *Pool {
	return &Pool{store: store, rpc: rpc}
}

// ListEligible returns active wallets whose SOL balance exceeds the dust
// threshold, with live SOL and token balances attached. Wallets whose
// balance fetch fails are skipped rather than failing the whole list.
func (p *Pool) ListEligible(ctx context.Context, mint string) ([]*domain.ActiveWallet, error) {
	wallets, err := p.store.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active wallets: %w", err)
	}

	var eligible []*domain.ActiveWallet
	for _, w := range wallets {
		balance, err := p.rpc.GetBalance(ctx, w.Address)
		if err != nil {
			continue
		}
		if balance <= domain.DustLamports {
			continue
		}

		tokens, err := p.TokenBalance(ctx, w.Address, mint)
		if err != nil {
			tokens = 0
		}

		eligible = append(eligible, &domain.ActiveWallet{
			ID:         w.ID,
			Address:    w.Address,
			SolBalance: balance,
			TokenUnits: tokens,
			PrivateKey: w.PrivateKey,
		})
	}
	return eligible, nil
}

// TokenBalance returns the owner's total balance for mint across its token
// accounts, in base units. A missing token account is a zero balance.
func (p *Pool) TokenBalance(ctx context.Context, owner, mint string) (uint64, error) {
	accounts, err := p.rpc.GetTokenAccountsByOwner(ctx, owner, mint)
	if err != nil {
		return 0, fmt.Errorf("get token accounts: %w", err)
	}

	var total uint64
	for _, a := range accounts {
		total += a.Amount
	}
	return total, nil
}
