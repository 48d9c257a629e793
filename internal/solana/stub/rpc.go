// Package stub provides a configurable in-memory solana.RPCClient for tests.
package stub

import (
	"context"
	"fmt"
	"sync"

	"solana-volume-engine/internal/solana"
)

// RPCClient implements solana.RPCClient for testing. Balances and accounts
// are backed by maps; each method can be overridden with an error or a
// custom function to script failure sequences.
type RPCClient struct {
	mu sync.Mutex

	Blockhash     solana.Blockhash
	Balances      map[string]uint64                // pubkey -> lamports
	Accounts      map[string]*solana.AccountInfo   // pubkey -> account
	TokenAccounts map[string][]solana.TokenAccount // owner|mint -> accounts

	// SendFunc, when set, handles SendTransaction; otherwise sends
	// succeed with a generated signature.
	SendFunc func(ctx context.Context, signedTx []byte, opts *solana.SendOptions) (string, error)

	// BlockhashErr, when set, fails GetLatestBlockhash.
	BlockhashErr error

	// Sent records every submitted transaction, in order.
	Sent [][]byte

	sendCount int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Blockhash:     solana.Blockhash{Hash: "11111111111111111111111111111111", LastValidBlockHeight: 1000},
		Balances:      make(map[string]uint64),
		Accounts:      make(map[string]*solana.AccountInfo),
		TokenAccounts: make(map[string][]solana.TokenAccount),
	}
}

var _ solana.RPCClient = (*RPCClient)(nil)

func (c *RPCClient) GetLatestBlockhash(_ context.Context, _ string) (*solana.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.BlockhashErr != nil {
		return nil, c.BlockhashErr
	}
	bh := c.Blockhash
	return &bh, nil
}

func (c *RPCClient) SendTransaction(ctx context.Context, signedTx []byte, opts *solana.SendOptions) (string, error) {
	c.mu.Lock()
	c.Sent = append(c.Sent, signedTx)
	c.sendCount++
	n := c.sendCount
	send := c.SendFunc
	c.mu.Unlock()

	if send != nil {
		return send(ctx, signedTx, opts)
	}
	return fmt.Sprintf("stub-signature-%d", n), nil
}

func (c *RPCClient) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Balances[pubkey], nil
}

func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.Accounts[pubkey]
	if !ok {
		return nil, nil
	}
	infoCopy := *info
	return &infoCopy, nil
}

func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner, mint string) ([]solana.TokenAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]solana.TokenAccount(nil), c.TokenAccounts[owner+"|"+mint]...), nil
}

func (c *RPCClient) GetTokenAccountBalance(_ context.Context, tokenAccount string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, accounts := range c.TokenAccounts {
		for _, a := range accounts {
			if a.Address == tokenAccount {
				return a.Amount, nil
			}
		}
	}
	return 0, nil
}

// SetTokenBalance registers a token account holding amount for owner/mint.
func (c *RPCClient) SetTokenBalance(owner, mint, account string, amount uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TokenAccounts[owner+"|"+mint] = []solana.TokenAccount{{Address: account, Amount: amount}}
}

// SendCount returns how many transactions were submitted.
func (c *RPCClient) SendCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCount
}
