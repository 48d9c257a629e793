package pumpfun

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"

	"solana-volume-engine/internal/domain"
)

// Anchor account discriminators, first 8 bytes of the account data.
var (
	bondingCurveAccountDisc = []byte{0x17, 0xb7, 0xf8, 0x37, 0x60, 0xd8, 0xac, 0x60}
	globalAccountDisc       = []byte{0xa7, 0xe8, 0xe8, 0xb1, 0xc8, 0xee, 0x21, 0xdf}
)

// Borsh layout sizes.
const (
	bondingCurveMinLen = 8 + 5*8 + 1        // discriminator, five u64 reserves, complete flag
	globalMinLen       = 8 + 1 + 2*32 + 5*8 // discriminator, initialized, two pubkeys, five u64
)

// DecodeBondingCurve parses a base64-encoded bonding curve account.
func DecodeBondingCurve(data string) (*domain.BondingCurveState, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}
	if len(raw) < bondingCurveMinLen {
		return nil, fmt.Errorf("bonding curve account too short: %d bytes", len(raw))
	}
	if !bytes.Equal(raw[:8], bondingCurveAccountDisc) {
		return nil, fmt.Errorf("not a bonding curve account")
	}

	return &domain.BondingCurveState{
		VirtualTokenReserves: binary.LittleEndian.Uint64(raw[8:16]),
		VirtualSolReserves:   binary.LittleEndian.Uint64(raw[16:24]),
		RealTokenReserves:    binary.LittleEndian.Uint64(raw[24:32]),
		RealSolReserves:      binary.LittleEndian.Uint64(raw[32:40]),
		TokenTotalSupply:     binary.LittleEndian.Uint64(raw[40:48]),
		Complete:             raw[48] != 0,
	}, nil
}

// DecodeGlobal parses a base64-encoded global configuration account.
func DecodeGlobal(data string) (*domain.GlobalState, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}
	if len(raw) < globalMinLen {
		return nil, fmt.Errorf("global account too short: %d bytes", len(raw))
	}
	if !bytes.Equal(raw[:8], globalAccountDisc) {
		return nil, fmt.Errorf("not a global account")
	}

	// Layout: initialized, authority, fee recipient, four initial-reserve
	// u64s, then fee basis points.
	return &domain.GlobalState{
		Initialized:    raw[8] != 0,
		Authority:      base58.Encode(raw[9:41]),
		FeeRecipient:   base58.Encode(raw[41:73]),
		FeeBasisPoints: binary.LittleEndian.Uint64(raw[105:113]),
	}, nil
}
