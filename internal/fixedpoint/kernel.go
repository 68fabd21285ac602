// Package fixedpoint implements the 256-bit fixed-width integer kernel (C1)
// used by both AMM quoters: unsigned 256-bit arithmetic with overflow
// detection, and Q64.96 fixed-point prices where price = (sqrtPrice)^2 in the
// ratio token1/token0.
//
// Rounding discipline (spec.md §4.1) is load-bearing: amounts received by a
// trader round DOWN, amounts owed to the pool round UP. The amount-delta
// helpers take that as an explicit roundUp parameter, and each division
// primitive rounds one fixed way named in its function (MulDiv floors,
// MulDivRoundingUp and DivRoundingUp take the ceiling), the way the
// teacher's ComputeAmounts kept rounding choices explicit rather than
// implicit in call order.
package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/arbedge/quoteengine/internal/apierrors"
)

// Q96Resolution is the number of fractional bits in a Q64.96 sqrt price.
const Q96Resolution = 96

// MinTick and MaxTick bound the signed 24-bit tick range supported by the
// concentrated-liquidity venue.
const (
	MinTick = -887272
	MaxTick = 887272
)

var (
	q96 = func() *uint256.Int {
		z := new(uint256.Int)
		return z.Lsh(uint256.NewInt(1), Q96Resolution)
	}()
	maxUint256 = new(uint256.Int).Not(new(uint256.Int))
)

// Q96 returns 2^96 as a Q64.96-resolution uint256, used to convert liquidity
// and sqrt-price quantities between resolutions.
func Q96() *uint256.Int { return new(uint256.Int).Set(q96) }

// MaxUint256 returns the all-ones 256-bit value (2^256 - 1).
func MaxUint256() *uint256.Int { return new(uint256.Int).Set(maxUint256) }

// MulDiv computes floor(a*b/denom) using a 512-bit intermediate product via
// math/big, per spec.md §9 ("fall back to arbitrary precision only for
// intermediate products exceeding 512 bits"). denom must be non-zero.
func MulDiv(a, b, denom *uint256.Int) (*uint256.Int, error) {
	if denom.IsZero() {
		return nil, apierrors.New(apierrors.KindArithmeticOverflow, "mulDiv: division by zero")
	}
	prod := new(big.Int).Mul(a.ToBig(), b.ToBig())
	quot := new(big.Int).Quo(prod, denom.ToBig())
	return fromBigChecked(quot)
}

// MulDivRoundingUp computes ceil(a*b/denom).
func MulDivRoundingUp(a, b, denom *uint256.Int) (*uint256.Int, error) {
	if denom.IsZero() {
		return nil, apierrors.New(apierrors.KindArithmeticOverflow, "mulDivRoundingUp: division by zero")
	}
	prod := new(big.Int).Mul(a.ToBig(), b.ToBig())
	quot, rem := new(big.Int).QuoRem(prod, denom.ToBig(), new(big.Int))
	if rem.Sign() != 0 {
		quot.Add(quot, big.NewInt(1))
	}
	return fromBigChecked(quot)
}

// DivRoundingUp computes ceil(a/b) for non-negative a, b with b != 0.
func DivRoundingUp(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() {
		return nil, apierrors.New(apierrors.KindArithmeticOverflow, "divRoundingUp: division by zero")
	}
	quot, rem := new(uint256.Int), new(uint256.Int)
	quot.DivMod(a, b, rem)
	if !rem.IsZero() {
		quot.AddUint64(quot, 1)
	}
	return quot, nil
}

func fromBigChecked(v *big.Int) (*uint256.Int, error) {
	if v.Sign() < 0 {
		return nil, apierrors.New(apierrors.KindArithmeticOverflow, "negative result in unsigned arithmetic")
	}
	z, overflow := uint256.FromBig(v)
	if overflow {
		return nil, apierrors.New(apierrors.KindArithmeticOverflow, "result exceeds 256 bits")
	}
	return z, nil
}

// AddChecked returns a+b, failing with ArithmeticOverflow instead of
// wrapping, per spec.md §4.1 ("must reject overflow rather than wrap").
func AddChecked(a, b *uint256.Int) (*uint256.Int, error) {
	z := new(uint256.Int)
	_, overflow := z.AddOverflow(a, b)
	if overflow {
		return nil, apierrors.New(apierrors.KindArithmeticOverflow, "addition overflow")
	}
	return z, nil
}

// SubChecked returns a-b, failing with ArithmeticOverflow on underflow.
func SubChecked(a, b *uint256.Int) (*uint256.Int, error) {
	if a.Lt(b) {
		return nil, apierrors.New(apierrors.KindArithmeticOverflow, "subtraction underflow")
	}
	return new(uint256.Int).Sub(a, b), nil
}

// MulChecked returns a*b, failing with ArithmeticOverflow if the product does
// not fit in 256 bits.
func MulChecked(a, b *uint256.Int) (*uint256.Int, error) {
	z := new(uint256.Int)
	_, overflow := z.MulOverflow(a, b)
	if overflow {
		return nil, apierrors.New(apierrors.KindArithmeticOverflow, "multiplication overflow")
	}
	return z, nil
}

// BigIntToUint256 converts a non-negative *big.Int to *uint256.Int, failing
// with ArithmeticOverflow if it does not fit in 256 bits.
func BigIntToUint256(v *big.Int) (*uint256.Int, error) {
	return fromBigChecked(v)
}
