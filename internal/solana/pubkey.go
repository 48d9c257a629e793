package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Well-known program addresses.
const (
	SystemProgramID = "11111111111111111111111111111111"
	TokenProgramID  = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	ATAProgramID    = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	RentSysvarID    = "SysvarRent111111111111111111111111111111111"
	WrappedSOLMint  = "So11111111111111111111111111111111111111112"
)

// ErrNoValidBump is returned when PDA derivation exhausts all bump seeds.
var ErrNoValidBump = errors.New("no valid bump seed found")

// IsValidPubkey reports whether s is a base58-encoded 32-byte public key.
func IsValidPubkey(s string) bool {
	decoded, err := base58.Decode(s)
	return err == nil && len(decoded) == 32
}

// DecodePubkey decodes a base58 public key to its 32 raw bytes.
func DecodePubkey(s string) ([]byte, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode pubkey: %w", err)
	}
	if len(decoded) != 32 {
		return nil, fmt.Errorf("pubkey must be 32 bytes, got %d", len(decoded))
	}
	return decoded, nil
}

// DerivePDA derives a Program Derived Address from seeds and a program ID.
// It appends bump seeds from 255 downward until the resulting point is off
// the ed25519 curve, per the Solana derivation algorithm.
func DerivePDA(seeds [][]byte, programID string) (string, uint8, error) {
	programBytes, err := DecodePubkey(programID)
	if err != nil {
		return "", 0, err
	}

	for bump := byte(255); bump > 0; bump-- {
		data := make([]byte, 0, 128)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, programBytes...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)
		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:]), bump, nil
		}
	}

	return "", 0, ErrNoValidBump
}

// AssociatedTokenAddress derives the associated token account for an owner
// and mint. Seeds: [owner, token_program, mint] under the ATA program.
func AssociatedTokenAddress(owner, mint string) (string, error) {
	ownerBytes, err := DecodePubkey(owner)
	if err != nil {
		return "", fmt.Errorf("owner: %w", err)
	}
	mintBytes, err := DecodePubkey(mint)
	if err != nil {
		return "", fmt.Errorf("mint: %w", err)
	}
	tokenProgramBytes, err := DecodePubkey(TokenProgramID)
	if err != nil {
		return "", err
	}

	addr, _, err := DerivePDA([][]byte{ownerBytes, tokenProgramBytes, mintBytes}, ATAProgramID)
	return addr, err
}

// isOnCurve reports whether point is a valid ed25519 curve point.
func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
