package curve

import (
	"errors"
	"math/big"
	"testing"

	"solana-volume-engine/internal/domain"
)

// Reserves matching a freshly initialized pump.fun curve.
func freshCurve() *domain.BondingCurveState {
	return &domain.BondingCurveState{
		VirtualTokenReserves: 1_073_000_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		RealTokenReserves:    793_100_000_000_000,
		TokenTotalSupply:     1_000_000_000_000_000,
	}
}

func TestTokensOutForSolIn(t *testing.T) {
	s := freshCurve()

	out, err := TokensOutForSolIn(s, 1_000_000_000) // 1 SOL
	if err != nil {
		t.Fatalf("TokensOutForSolIn: %v", err)
	}

	// k = 30e9 * 1073e12 exceeds uint64, so derive the expectation with
	// the same big-int arithmetic the model uses:
	// newSol = 31e9; tokensOut = vTok - k/newSol.
	k := new(big.Int).Mul(big.NewInt(30_000_000_000), big.NewInt(1_073_000_000_000_000))
	newTok := new(big.Int).Quo(k, big.NewInt(31_000_000_000))
	want := uint64(1_073_000_000_000_000) - newTok.Uint64()
	if out != want {
		t.Errorf("tokensOut = %d, want %d", out, want)
	}

	if out == 0 || out >= s.VirtualTokenReserves {
		t.Errorf("tokensOut %d outside (0, virtualTokenReserves)", out)
	}
}

func TestTokensOutForSolIn_Monotonic(t *testing.T) {
	s := freshCurve()

	var prev uint64
	for _, solIn := range []uint64{1_000_000, 10_000_000, 100_000_000, 1_000_000_000, 10_000_000_000} {
		out, err := TokensOutForSolIn(s, solIn)
		if err != nil {
			t.Fatalf("TokensOutForSolIn(%d): %v", solIn, err)
		}
		if out < prev {
			t.Errorf("tokensOut decreased: %d SOL in -> %d tokens, previous %d", solIn, out, prev)
		}
		if out == 0 || out > s.VirtualTokenReserves {
			t.Errorf("tokensOut %d outside (0, virtualTokenReserves]", out)
		}
		prev = out
	}
}

func TestTokensOutForSolIn_CappedByRealReserves(t *testing.T) {
	s := freshCurve()
	s.RealTokenReserves = 1_000_000 // nearly drained curve

	out, err := TokensOutForSolIn(s, 50_000_000_000)
	if err != nil {
		t.Fatalf("TokensOutForSolIn: %v", err)
	}
	if out != 1_000_000 {
		t.Errorf("tokensOut = %d, want cap at real reserves %d", out, 1_000_000)
	}
}

func TestTokensOutForSolIn_DoesNotMutateReserves(t *testing.T) {
	s := freshCurve()
	before := *s

	if _, err := TokensOutForSolIn(s, 1_000_000_000); err != nil {
		t.Fatalf("TokensOutForSolIn: %v", err)
	}
	if *s != before {
		t.Error("reserves mutated by TokensOutForSolIn")
	}
}

func TestSolOutForTokensIn(t *testing.T) {
	s := freshCurve()

	// Round trip: sell back what a 1 SOL buy yields. The conservative
	// rounding on both legs must not return more than went in.
	tokens, err := TokensOutForSolIn(s, 1_000_000_000)
	if err != nil {
		t.Fatalf("TokensOutForSolIn: %v", err)
	}

	solOut, err := SolOutForTokensIn(s, tokens)
	if err != nil {
		t.Fatalf("SolOutForTokensIn: %v", err)
	}
	if solOut == 0 {
		t.Fatal("expected nonzero SOL out")
	}
	if solOut > 1_000_000_000 {
		t.Errorf("round trip returned %d lamports for 1_000_000_000 in", solOut)
	}
}

func TestSolOutForTokensIn_RoundsDown(t *testing.T) {
	// Reserves chosen so k/newTok has a remainder.
	s := &domain.BondingCurveState{
		VirtualSolReserves:   1_000_003,
		VirtualTokenReserves: 999_999,
	}

	out, err := SolOutForTokensIn(s, 7)
	if err != nil {
		t.Fatalf("SolOutForTokensIn: %v", err)
	}

	// Exact value is vSol - k/(vTok+7) = 6.99...; ceiling on the new
	// reserve truncates the payout down to 6.
	if out != 6 {
		t.Errorf("solOut = %d, want 6", out)
	}
}

func TestEmptyReserves(t *testing.T) {
	s := &domain.BondingCurveState{}

	if _, err := TokensOutForSolIn(s, 1); !errors.Is(err, ErrEmptyReserves) {
		t.Errorf("TokensOutForSolIn: expected ErrEmptyReserves, got %v", err)
	}
	if _, err := SolOutForTokensIn(s, 1); !errors.Is(err, ErrEmptyReserves) {
		t.Errorf("SolOutForTokensIn: expected ErrEmptyReserves, got %v", err)
	}
}

func TestZeroAmount(t *testing.T) {
	s := freshCurve()

	if _, err := TokensOutForSolIn(s, 0); !errors.Is(err, ErrZeroAmount) {
		t.Errorf("TokensOutForSolIn: expected ErrZeroAmount, got %v", err)
	}
	if _, err := SolOutForTokensIn(s, 0); !errors.Is(err, ErrZeroAmount) {
		t.Errorf("SolOutForTokensIn: expected ErrZeroAmount, got %v", err)
	}
}

func TestPriceImpactBps(t *testing.T) {
	s := freshCurve()

	small, err := PriceImpactBps(s, 1_000_000, 1_000_000)
	if err != nil {
		t.Fatalf("PriceImpactBps: %v", err)
	}
	if small != 0 {
		t.Errorf("impact of reference-sized trade = %d bps, want 0", small)
	}

	large, err := PriceImpactBps(s, 1_000_000, 10_000_000_000)
	if err != nil {
		t.Fatalf("PriceImpactBps: %v", err)
	}
	if large == 0 {
		t.Error("expected nonzero impact for 10 SOL trade")
	}

	larger, err := PriceImpactBps(s, 1_000_000, 20_000_000_000)
	if err != nil {
		t.Fatalf("PriceImpactBps: %v", err)
	}
	if larger <= large {
		t.Errorf("impact not increasing with size: %d then %d", large, larger)
	}
}

func TestSuggestedSlippageBps_Bounds(t *testing.T) {
	s := freshCurve()

	tests := []struct {
		name    string
		tradeIn uint64
		check   func(bps uint64) bool
	}{
		{"tiny trade clamps to floor", 1_000_000, func(bps uint64) bool { return bps == MinSlippageBps }},
		{"huge trade clamps to ceiling", 500_000_000_000, func(bps uint64) bool { return bps == MaxSlippageBps }},
		{"mid trade stays in bounds", 5_000_000_000, func(bps uint64) bool {
			return bps >= MinSlippageBps && bps <= MaxSlippageBps
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bps := SuggestedSlippageBps(s, tt.tradeIn)
			if !tt.check(bps) {
				t.Errorf("SuggestedSlippageBps(%d) = %d", tt.tradeIn, bps)
			}
		})
	}
}
