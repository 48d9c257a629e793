package solana

import "context"

// Commitment levels for RPC queries.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// RPCClient defines the chain connection consumed by the trading engine.
// Implementations classify failures into ErrorKind at this boundary.
type RPCClient interface {
	// GetLatestBlockhash retrieves a recent blockhash and the last block
	// height at which it is valid.
	GetLatestBlockhash(ctx context.Context, commitment string) (*Blockhash, error)

	// SendTransaction submits a signed, serialized transaction and
	// returns its signature. Exactly one wire call per invocation; the
	// caller owns retry policy.
	SendTransaction(ctx context.Context, signedTx []byte, opts *SendOptions) (string, error)

	// GetBalance retrieves the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetAccountInfo retrieves account info by public key.
	// Returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetTokenAccountsByOwner retrieves the owner's token accounts for a
	// mint.
	GetTokenAccountsByOwner(ctx context.Context, owner, mint string) ([]TokenAccount, error)

	// GetTokenAccountBalance retrieves the token balance of a token
	// account, in base units.
	GetTokenAccountBalance(ctx context.Context, tokenAccount string) (uint64, error)
}
