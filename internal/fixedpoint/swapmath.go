package fixedpoint

import (
	"github.com/holiman/uint256"
)

// SwapStepResult is the outcome of simulating a swap within a single
// initialized-liquidity segment, bounded either by the segment's target
// price or by the remaining amount, whichever binds first.
type SwapStepResult struct {
	SqrtPriceNext *uint256.Int
	AmountIn      *uint256.Int
	AmountOut     *uint256.Int
	FeeAmount     *uint256.Int
}

// ComputeSwapStep simulates swapping within one tick segment of constant
// liquidity, mirroring SwapMath.computeSwapStep. amountRemaining is always
// non-negative here: this engine only quotes exact-in sweeps (see
// venue/v4), so the exactOut case of the upstream function is unused and
// intentionally not ported.
func ComputeSwapStep(
	sqrtPriceCurrent *uint256.Int,
	sqrtPriceTarget *uint256.Int,
	liquidity *uint256.Int,
	amountRemaining *uint256.Int,
	feePips uint32,
) (*SwapStepResult, error) {
	zeroForOne := sqrtPriceCurrent.Gte(sqrtPriceTarget)

	feeComplement := 1_000_000 - feePips
	amountRemainingLessFee, err := MulDiv(amountRemaining, uint256.NewInt(uint64(feeComplement)), uint256.NewInt(1_000_000))
	if err != nil {
		return nil, err
	}

	var amountIn *uint256.Int
	if zeroForOne {
		amountIn, err = Amount0Delta(sqrtPriceTarget, sqrtPriceCurrent, liquidity, true)
	} else {
		amountIn, err = Amount1Delta(sqrtPriceCurrent, sqrtPriceTarget, liquidity, true)
	}
	if err != nil {
		return nil, err
	}

	var sqrtPriceNext *uint256.Int
	reachesTarget := amountRemainingLessFee.Gte(amountIn)
	if reachesTarget {
		sqrtPriceNext = sqrtPriceTarget
	} else {
		sqrtPriceNext, err = NextSqrtPriceFromInput(sqrtPriceCurrent, liquidity, amountRemainingLessFee, zeroForOne)
		if err != nil {
			return nil, err
		}
	}

	max := sqrtPriceNext.Eq(sqrtPriceTarget)

	var amountOut *uint256.Int
	if zeroForOne {
		if !(max && reachesTarget) {
			amountIn, err = Amount0Delta(sqrtPriceNext, sqrtPriceCurrent, liquidity, true)
			if err != nil {
				return nil, err
			}
		}
		amountOut, err = Amount1Delta(sqrtPriceNext, sqrtPriceCurrent, liquidity, false)
	} else {
		if !(max && reachesTarget) {
			amountIn, err = Amount1Delta(sqrtPriceCurrent, sqrtPriceNext, liquidity, true)
			if err != nil {
				return nil, err
			}
		}
		amountOut, err = Amount0Delta(sqrtPriceCurrent, sqrtPriceNext, liquidity, false)
	}
	if err != nil {
		return nil, err
	}

	var feeAmount *uint256.Int
	if reachesTarget {
		feeAmount, err = MulDivRoundingUp(amountIn, uint256.NewInt(uint64(feePips)), uint256.NewInt(uint64(feeComplement)))
		if err != nil {
			return nil, err
		}
	} else {
		feeAmount, err = SubChecked(amountRemaining, amountIn)
		if err != nil {
			return nil, err
		}
	}

	return &SwapStepResult{
		SqrtPriceNext: sqrtPriceNext,
		AmountIn:      amountIn,
		AmountOut:     amountOut,
		FeeAmount:     feeAmount,
	}, nil
}
