// Package idhash derives deterministic identifiers for sessions and orders.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeSessionID computes a deterministic session identifier.
// Formula: SHA256(mint|started_unix_nano), hex-encoded, truncated to 32
// characters.
func ComputeSessionID(mint string, startedUnixNano int64) string {
	data := fmt.Sprintf("%s|%d", mint, startedUnixNano)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:32]
}

// ComputeOrderID computes a deterministic order identifier within a session.
// Formula: SHA256(session_id|sequence), hex-encoded, truncated to 32
// characters.
func ComputeOrderID(sessionID string, sequence uint64) string {
	data := fmt.Sprintf("%s|%d", sessionID, sequence)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:32]
}
