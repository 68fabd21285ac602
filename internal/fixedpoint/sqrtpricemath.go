package fixedpoint

import (
	"github.com/holiman/uint256"

	"github.com/arbedge/quoteengine/internal/apierrors"
)

// Amount0Delta returns the amount of token0 required to move the price from
// sqrtA to sqrtB at the given liquidity, i.e. |L * (1/sqrtA - 1/sqrtB)| in
// Q64.96, rounded per roundUp. Mirrors SqrtPriceMath.getAmount0Delta.
func Amount0Delta(sqrtA, sqrtB *uint256.Int, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	lo, hi := sqrtA, sqrtB
	if lo.Gt(hi) {
		lo, hi = hi, lo
	}
	if lo.IsZero() {
		return nil, apierrors.New(apierrors.KindArithmeticOverflow, "amount0Delta: zero sqrt price")
	}

	numerator1, err := MulChecked(liquidity, Q96())
	if err != nil {
		return nil, err
	}
	denomDiff, err := SubChecked(hi, lo)
	if err != nil {
		return nil, err
	}

	if roundUp {
		n1DivLo, err := MulDivRoundingUp(numerator1, denomDiff, lo)
		if err != nil {
			return nil, err
		}
		return DivRoundingUp(n1DivLo, hi)
	}
	n1DivLo, err := MulDiv(numerator1, denomDiff, lo)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(n1DivLo, hi), nil
}

// Amount1Delta returns the amount of token1 required to move the price from
// sqrtA to sqrtB at the given liquidity, i.e. |L * (sqrtB - sqrtA)| in Q64.96,
// rounded per roundUp. Mirrors SqrtPriceMath.getAmount1Delta.
func Amount1Delta(sqrtA, sqrtB *uint256.Int, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	lo, hi := sqrtA, sqrtB
	if lo.Gt(hi) {
		lo, hi = hi, lo
	}
	diff, err := SubChecked(hi, lo)
	if err != nil {
		return nil, err
	}
	if roundUp {
		return MulDivRoundingUp(liquidity, diff, Q96())
	}
	return MulDiv(liquidity, diff, Q96())
}

// NextSqrtPriceFromAmount0RoundingUp computes the new sqrt price after adding
// (zeroForOne) or removing amount of token0, rounding the result up so the
// pool never gives out more token1 than its invariant allows.
// Mirrors SqrtPriceMath.getNextSqrtPriceFromAmount0RoundingUp.
func NextSqrtPriceFromAmount0RoundingUp(sqrtPriceX96 *uint256.Int, liquidity *uint256.Int, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if amount.IsZero() {
		return new(uint256.Int).Set(sqrtPriceX96), nil
	}
	numerator1, err := MulChecked(liquidity, Q96())
	if err != nil {
		return nil, err
	}

	if add {
		product, err := MulChecked(amount, sqrtPriceX96)
		if err == nil {
			denom, err := AddChecked(numerator1, product)
			if err == nil {
				return MulDivRoundingUp(numerator1, sqrtPriceX96, denom)
			}
		}
		// product overflowed 256 bits: fall back to the division-first form,
		// algebraically equivalent, used by the reference implementation for
		// exactly this overflow case.
		denom, err := DivRoundingUp(numerator1, sqrtPriceX96)
		if err != nil {
			return nil, err
		}
		denom, err = AddChecked(denom, amount)
		if err != nil {
			return nil, err
		}
		return DivRoundingUp(numerator1, denom)
	}

	product, err := MulChecked(amount, sqrtPriceX96)
	if err != nil {
		return nil, err
	}
	if numerator1.Lte(product) {
		return nil, apierrors.New(apierrors.KindInsufficientLiquidity, "amount0 exceeds available liquidity")
	}
	denom, err := SubChecked(numerator1, product)
	if err != nil {
		return nil, err
	}
	return MulDivRoundingUp(numerator1, sqrtPriceX96, denom)
}

// NextSqrtPriceFromAmount1RoundingDown computes the new sqrt price after
// adding (not zeroForOne) or removing amount of token1, rounding the result
// down. Mirrors SqrtPriceMath.getNextSqrtPriceFromAmount1RoundingDown.
func NextSqrtPriceFromAmount1RoundingDown(sqrtPriceX96 *uint256.Int, liquidity *uint256.Int, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if add {
		var quotient *uint256.Int
		var err error
		quotient, err = MulDiv(amount, Q96(), liquidity)
		if err != nil {
			return nil, err
		}
		return AddChecked(sqrtPriceX96, quotient)
	}
	quotient, err := MulDivRoundingUp(amount, Q96(), liquidity)
	if err != nil {
		return nil, err
	}
	if sqrtPriceX96.Lte(quotient) {
		return nil, apierrors.New(apierrors.KindInsufficientLiquidity, "amount1 exceeds available liquidity")
	}
	return SubChecked(sqrtPriceX96, quotient)
}

// NextSqrtPriceFromInput computes the sqrt price after swapping amountIn of
// either token into the pool. Mirrors SqrtPriceMath.getNextSqrtPriceFromInput.
func NextSqrtPriceFromInput(sqrtPriceX96 *uint256.Int, liquidity *uint256.Int, amountIn *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if sqrtPriceX96.IsZero() || liquidity.IsZero() {
		return nil, apierrors.New(apierrors.KindSnapshotInconsistent, "zero price or liquidity")
	}
	if zeroForOne {
		return NextSqrtPriceFromAmount0RoundingUp(sqrtPriceX96, liquidity, amountIn, true)
	}
	return NextSqrtPriceFromAmount1RoundingDown(sqrtPriceX96, liquidity, amountIn, true)
}

// NextSqrtPriceFromOutput computes the sqrt price after swapping amountOut of
// either token out of the pool. Mirrors SqrtPriceMath.getNextSqrtPriceFromOutput.
func NextSqrtPriceFromOutput(sqrtPriceX96 *uint256.Int, liquidity *uint256.Int, amountOut *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if sqrtPriceX96.IsZero() || liquidity.IsZero() {
		return nil, apierrors.New(apierrors.KindSnapshotInconsistent, "zero price or liquidity")
	}
	if zeroForOne {
		return NextSqrtPriceFromAmount1RoundingDown(sqrtPriceX96, liquidity, amountOut, false)
	}
	return NextSqrtPriceFromAmount0RoundingUp(sqrtPriceX96, liquidity, amountOut, false)
}
