package solana

// Blockhash is a recent blockhash with its validity bound.
type Blockhash struct {
	Hash                 string
	LastValidBlockHeight uint64
}

// SendOptions defines optional parameters for sendTransaction.
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment string
	MaxRetries          *int // RPC-node resubmission budget, not client retries
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

// TokenAccount is a token account held by an owner for one mint.
type TokenAccount struct {
	Address string
	Amount  uint64 // base units
}
