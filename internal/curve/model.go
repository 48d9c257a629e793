// Package curve implements constant-product bonding curve pricing.
//
// All arithmetic is exact big-integer arithmetic on the invariant
// k = virtualSolReserves * virtualTokenReserves. Floating point is never
// used for reserve or amount calculations: truncation direction is
// protocol-defined behavior, not an approximation.
package curve

import (
	"errors"
	"math/big"

	"solana-volume-engine/internal/domain"
)

// Slippage tolerance bounds in basis points for SuggestedSlippageBps.
const (
	MinSlippageBps = 50   // 0.5%
	MaxSlippageBps = 1000 // 10%
)

// referenceTradeLamports is the small reference trade used to estimate the
// spot unit price when deriving price impact (0.001 SOL).
const referenceTradeLamports = 1_000_000

var (
	// ErrEmptyReserves is returned when either virtual reserve is zero.
	ErrEmptyReserves = errors.New("curve: empty virtual reserves")

	// ErrZeroAmount is returned for a zero input amount.
	ErrZeroAmount = errors.New("curve: amount must be positive")
)

// TokensOutForSolIn returns the token quantity received for solIn lamports
// added to the curve. Integer division truncates toward zero, so the model
// never overstates tokens received. The result is capped at the curve's
// real token reserves, mirroring on-chain behavior. Reserves are not
// mutated.
func TokensOutForSolIn(s *domain.BondingCurveState, solIn uint64) (uint64, error) {
	if s.VirtualSolReserves == 0 || s.VirtualTokenReserves == 0 {
		return 0, ErrEmptyReserves
	}
	if solIn == 0 {
		return 0, ErrZeroAmount
	}

	vSol := new(big.Int).SetUint64(s.VirtualSolReserves)
	vTok := new(big.Int).SetUint64(s.VirtualTokenReserves)
	k := new(big.Int).Mul(vSol, vTok)

	newSol := new(big.Int).Add(vSol, new(big.Int).SetUint64(solIn))
	newTok := new(big.Int).Quo(k, newSol)
	out := new(big.Int).Sub(vTok, newTok)

	tokensOut := out.Uint64()
	if s.RealTokenReserves > 0 && tokensOut > s.RealTokenReserves {
		tokensOut = s.RealTokenReserves
	}
	return tokensOut, nil
}

// SolOutForTokensIn returns the lamports received for tokensIn added to the
// curve. The new SOL reserve is rounded up, so the model never overstates
// lamports received. Reserves are not mutated.
func SolOutForTokensIn(s *domain.BondingCurveState, tokensIn uint64) (uint64, error) {
	if s.VirtualSolReserves == 0 || s.VirtualTokenReserves == 0 {
		return 0, ErrEmptyReserves
	}
	if tokensIn == 0 {
		return 0, ErrZeroAmount
	}

	vSol := new(big.Int).SetUint64(s.VirtualSolReserves)
	vTok := new(big.Int).SetUint64(s.VirtualTokenReserves)
	k := new(big.Int).Mul(vSol, vTok)

	newTok := new(big.Int).Add(vTok, new(big.Int).SetUint64(tokensIn))

	// Ceiling division: the curve keeps at least k/newTok lamports.
	newSol, rem := new(big.Int).QuoRem(k, newTok, new(big.Int))
	if rem.Sign() > 0 {
		newSol.Add(newSol, big.NewInt(1))
	}

	out := new(big.Int).Sub(vSol, newSol)
	if out.Sign() < 0 {
		return 0, nil
	}
	return out.Uint64(), nil
}

// PriceImpactBps returns the percentage difference, in basis points, between
// the unit price implied by a small reference trade and the unit price
// implied by the actual trade size. Advisory only; it does not affect
// executed amounts.
func PriceImpactBps(s *domain.BondingCurveState, referenceSol, tradeSol uint64) (uint64, error) {
	refOut, err := TokensOutForSolIn(s, referenceSol)
	if err != nil {
		return 0, err
	}
	tradeOut, err := TokensOutForSolIn(s, tradeSol)
	if err != nil {
		return 0, err
	}
	if refOut == 0 || tradeOut == 0 {
		return 0, ErrEmptyReserves
	}

	// impact = (pTrade/pRef - 1) * 10000, with p = solIn/tokensOut.
	num := new(big.Int).Mul(new(big.Int).SetUint64(tradeSol), new(big.Int).SetUint64(refOut))
	num.Mul(num, big.NewInt(10_000))
	den := new(big.Int).Mul(new(big.Int).SetUint64(referenceSol), new(big.Int).SetUint64(tradeOut))
	ratio := new(big.Int).Quo(num, den)
	ratio.Sub(ratio, big.NewInt(10_000))
	if ratio.Sign() < 0 {
		return 0, nil
	}
	return ratio.Uint64(), nil
}

// SuggestedSlippageBps derives a slippage tolerance for a trade of tradeSol
// lamports from its estimated price impact, clamped to
// [MinSlippageBps, MaxSlippageBps].
func SuggestedSlippageBps(s *domain.BondingCurveState, tradeSol uint64) uint64 {
	ref := uint64(referenceTradeLamports)
	if tradeSol < ref {
		ref = tradeSol
	}
	impact, err := PriceImpactBps(s, ref, tradeSol)
	if err != nil {
		return MinSlippageBps
	}
	// Tolerate twice the estimated impact before the bounds apply.
	bps := impact * 2
	if bps < MinSlippageBps {
		return MinSlippageBps
	}
	if bps > MaxSlippageBps {
		return MaxSlippageBps
	}
	return bps
}
