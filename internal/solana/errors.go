package solana

import (
	"errors"
	"fmt"
)

// ErrorKind is a closed classification of RPC failures. Classification
// happens once, at the chain-connection boundary; callers dispatch on the
// kind instead of matching error text.
type ErrorKind int

const (
	// KindNetwork is a generic transport or RPC failure, retryable with
	// mild backoff.
	KindNetwork ErrorKind = iota

	// KindRateLimited indicates HTTP 429 / "too many requests".
	KindRateLimited

	// KindBlockhashNotFound indicates the transaction's blockhash has
	// expired or is unknown; rebuild with a fresh blockhash and retry.
	KindBlockhashNotFound

	// KindInsufficientFunds is a permanent precondition failure; do not
	// retry.
	KindInsufficientFunds

	// KindSimulationFailed indicates preflight simulation rejected the
	// transaction; cached account state is suspect.
	KindSimulationFailed
)

// String returns the kind name for logging.
func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindBlockhashNotFound:
		return "blockhash_not_found"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindSimulationFailed:
		return "simulation_failed"
	default:
		return "network"
	}
}

// RPCError is a classified failure from the RPC boundary.
type RPCError struct {
	Kind    ErrorKind
	Code    int // JSON-RPC error code, 0 for transport failures
	Message string
}

func (e *RPCError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("rpc error %d (%s): %s", e.Code, e.Kind, e.Message)
	}
	return fmt.Sprintf("rpc error (%s): %s", e.Kind, e.Message)
}

// Kind extracts the classification from err. Unclassified errors are
// treated as generic network failures.
func Kind(err error) ErrorKind {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Kind
	}
	return KindNetwork
}
