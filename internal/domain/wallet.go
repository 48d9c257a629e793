package domain

import "time"

// Wallet is a trading wallet held in inventory. PrivateKey is the base58
// encoding of the 64-byte ed25519 keypair (Solana CLI format).
type Wallet struct {
	ID         string    `json:"id"`
	Address    string    `json:"address"`
	PrivateKey string    `json:"-"`
	Label      string    `json:"label,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// ActiveWallet is a wallet eligible for trading together with its live
// SOL balance at selection time.
type ActiveWallet struct {
	ID         string `json:"id"`
	Address    string `json:"address"`
	SolBalance uint64 `json:"sol_balance"` // lamports
	TokenUnits uint64 `json:"token_units,omitempty"`
	PrivateKey string `json:"-"`
}
