package pumpfun

import (
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/mr-tron/base58"
)

func encodeCurveAccount(vTok, vSol, rTok, rSol, supply uint64, complete bool) string {
	raw := make([]byte, bondingCurveMinLen)
	copy(raw[:8], bondingCurveAccountDisc)
	binary.LittleEndian.PutUint64(raw[8:16], vTok)
	binary.LittleEndian.PutUint64(raw[16:24], vSol)
	binary.LittleEndian.PutUint64(raw[24:32], rTok)
	binary.LittleEndian.PutUint64(raw[32:40], rSol)
	binary.LittleEndian.PutUint64(raw[40:48], supply)
	if complete {
		raw[48] = 1
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestDecodeBondingCurve(t *testing.T) {
	data := encodeCurveAccount(
		1_073_000_000_000_000,
		30_000_000_000,
		793_100_000_000_000,
		0,
		1_000_000_000_000_000,
		false,
	)

	state, err := DecodeBondingCurve(data)
	if err != nil {
		t.Fatalf("DecodeBondingCurve: %v", err)
	}

	if state.VirtualTokenReserves != 1_073_000_000_000_000 {
		t.Errorf("virtual token reserves = %d", state.VirtualTokenReserves)
	}
	if state.VirtualSolReserves != 30_000_000_000 {
		t.Errorf("virtual sol reserves = %d", state.VirtualSolReserves)
	}
	if state.RealTokenReserves != 793_100_000_000_000 {
		t.Errorf("real token reserves = %d", state.RealTokenReserves)
	}
	if state.RealSolReserves != 0 {
		t.Errorf("real sol reserves = %d", state.RealSolReserves)
	}
	if state.TokenTotalSupply != 1_000_000_000_000_000 {
		t.Errorf("token total supply = %d", state.TokenTotalSupply)
	}
	if state.Complete {
		t.Error("expected incomplete curve")
	}
}

func TestDecodeBondingCurve_Complete(t *testing.T) {
	data := encodeCurveAccount(1, 2, 3, 4, 5, true)

	state, err := DecodeBondingCurve(data)
	if err != nil {
		t.Fatalf("DecodeBondingCurve: %v", err)
	}
	if !state.Complete {
		t.Error("expected complete curve")
	}
}

func TestDecodeBondingCurve_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid base64", "not base64!!!"},
		{"too short", base64.StdEncoding.EncodeToString(make([]byte, 10))},
		{"wrong discriminator", base64.StdEncoding.EncodeToString(make([]byte, bondingCurveMinLen))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeBondingCurve(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecodeGlobal(t *testing.T) {
	authority, err := base58.Decode("4Nd1mYtFQUnVTtyMAGWF26DPdLM2vbhmtLSotKbjW9Gy")
	if err != nil {
		t.Fatalf("decode authority: %v", err)
	}
	recipient, err := base58.Decode(FeeRecipient)
	if err != nil {
		t.Fatalf("decode recipient: %v", err)
	}

	raw := make([]byte, globalMinLen)
	copy(raw[:8], globalAccountDisc)
	raw[8] = 1
	copy(raw[9:41], authority)
	copy(raw[41:73], recipient)
	binary.LittleEndian.PutUint64(raw[105:113], 100)

	state, err := DecodeGlobal(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("DecodeGlobal: %v", err)
	}

	if !state.Initialized {
		t.Error("expected initialized")
	}
	if state.Authority != "4Nd1mYtFQUnVTtyMAGWF26DPdLM2vbhmtLSotKbjW9Gy" {
		t.Errorf("authority = %s", state.Authority)
	}
	if state.FeeRecipient != FeeRecipient {
		t.Errorf("fee recipient = %s", state.FeeRecipient)
	}
	if state.FeeBasisPoints != 100 {
		t.Errorf("fee basis points = %d", state.FeeBasisPoints)
	}
}

func TestDecodeGlobal_WrongDiscriminator(t *testing.T) {
	raw := make([]byte, globalMinLen)
	copy(raw[:8], bondingCurveAccountDisc)

	if _, err := DecodeGlobal(base64.StdEncoding.EncodeToString(raw)); err == nil {
		t.Error("expected error for wrong discriminator")
	}
}
