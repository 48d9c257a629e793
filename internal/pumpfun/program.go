// Package pumpfun encodes instructions and decodes accounts of the pump.fun
// bonding-curve program.
package pumpfun

import (
	"fmt"

	"solana-volume-engine/internal/solana"
)

// Program and well-known account addresses.
const (
	ProgramID      = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	GlobalAccount  = "4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf"
	FeeRecipient   = "CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM"
	EventAuthority = "Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1"
)

// Anchor instruction discriminators, little-endian on the wire.
const (
	buyDiscriminator  uint64 = 0xeaebda01123d0666
	sellDiscriminator uint64 = 0xad837f01a485e633
)

// bondingCurveSeed is the PDA seed prefix for per-mint curve accounts.
var bondingCurveSeed = []byte("bonding-curve")

// BondingCurveAddress derives the bonding curve PDA for a mint.
func BondingCurveAddress(mint string) (string, error) {
	mintBytes, err := solana.DecodePubkey(mint)
	if err != nil {
		return "", fmt.Errorf("mint: %w", err)
	}

	addr, _, err := solana.DerivePDA([][]byte{bondingCurveSeed, mintBytes}, ProgramID)
	if err != nil {
		return "", fmt.Errorf("derive bonding curve: %w", err)
	}
	return addr, nil
}

// AssociatedBondingCurveAddress derives the curve's token account, the
// associated token account owned by the bonding curve PDA.
func AssociatedBondingCurveAddress(mint string) (string, error) {
	curve, err := BondingCurveAddress(mint)
	if err != nil {
		return "", err
	}
	return solana.AssociatedTokenAddress(curve, mint)
}
