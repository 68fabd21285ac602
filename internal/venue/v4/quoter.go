// Package v4 simulates exact-in and exact-out swaps against a
// concentrated-liquidity pool snapshot (component C2), following the same
// tick-sweep algorithm the on-chain pool itself executes.
package v4

import (
	"math/big"
	"sort"

	"github.com/holiman/uint256"

	"github.com/arbedge/quoteengine/internal/apierrors"
	"github.com/arbedge/quoteengine/internal/fixedpoint"
	"github.com/arbedge/quoteengine/internal/venue"
)

// maxTickCrossings bounds how many tick crossings a single quote
// may perform before giving up; a well-sized snapshot window (chosen per
// spec.md §4.4) should never approach this, so hitting it means the
// snapshot itself is inconsistent rather than the trade being unreasonable.
const maxTickCrossings = 2000

// ExactIn simulates selling amountIn of the "from" token (determined by
// direction and token0IsWeth) for the other token, sweeping across
// initialized ticks exactly as SwapMath/TickBitmap would on-chain.
func ExactIn(snap *venue.V4Snapshot, direction venue.Direction, amountInRaw *big.Int) (*venue.Quote, error) {
	if amountInRaw.Sign() < 0 {
		return nil, apierrors.New(apierrors.KindInputInvalid, "amount_in must be non-negative")
	}

	zeroForOne, err := zeroForOneFor(snap, direction)
	if err != nil {
		return nil, err
	}

	amountIn, err := fixedpoint.BigIntToUint256(amountInRaw)
	if err != nil {
		return nil, err
	}

	if amountIn.IsZero() {
		spot, err := spotPriceUsdcPerEth(snap)
		if err != nil {
			return nil, err
		}
		return &venue.Quote{
			AmountInRaw:    big.NewInt(0),
			AmountOutRaw:   big.NewInt(0),
			ExecutionPrice: spot,
			SpotPrice:      spot,
			PriceImpactPct: 0,
		}, nil
	}

	sqrtPriceLimit := fixedpoint.MinSqrtRatio()
	if !zeroForOne {
		sqrtPriceLimit = fixedpoint.MaxSqrtRatio()
	}

	sqrtPrice, err := fixedpoint.BigIntToUint256(snap.SqrtPriceX96)
	if err != nil {
		return nil, err
	}
	liquidity, err := fixedpoint.BigIntToUint256(snap.Liquidity)
	if err != nil {
		return nil, err
	}
	tick := snap.CurrentTick
	ticks := sortedTicks(snap.Ticks)

	amountRemaining := amountIn
	amountOut := new(uint256.Int)

	for crossings := 0; amountRemaining.Sign() > 0 && !sqrtPrice.Eq(sqrtPriceLimit); crossings++ {
		if crossings > maxTickCrossings {
			return nil, apierrors.New(apierrors.KindSnapshotInconsistent, "tick sweep exceeded maximum crossings")
		}

		nextTick, nextInitialized, err := nextInitializedTick(ticks, tick, zeroForOne)
		if err != nil {
			return nil, err
		}

		targetSqrtPrice, err := fixedpoint.SqrtRatioAtTick(nextTick)
		if err != nil {
			return nil, err
		}
		if zeroForOne {
			if targetSqrtPrice.Lt(sqrtPriceLimit) {
				targetSqrtPrice = sqrtPriceLimit
			}
		} else {
			if targetSqrtPrice.Gt(sqrtPriceLimit) {
				targetSqrtPrice = sqrtPriceLimit
			}
		}

		step, err := fixedpoint.ComputeSwapStep(sqrtPrice, targetSqrtPrice, liquidity, amountRemaining, snap.FeePips)
		if err != nil {
			return nil, err
		}

		consumed, err := fixedpoint.AddChecked(step.AmountIn, step.FeeAmount)
		if err != nil {
			return nil, err
		}
		if consumed.Gt(amountRemaining) {
			consumed = amountRemaining
		}
		amountRemaining, err = fixedpoint.SubChecked(amountRemaining, consumed)
		if err != nil {
			return nil, err
		}
		amountOut, err = fixedpoint.AddChecked(amountOut, step.AmountOut)
		if err != nil {
			return nil, err
		}

		sqrtPrice = step.SqrtPriceNext

		if sqrtPrice.Eq(targetSqrtPrice) && nextInitialized {
			delta := deltaForTick(ticks, nextTick)
			if zeroForOne {
				delta = new(big.Int).Neg(delta)
			}
			newLiq, err := applyLiquidityNet(liquidity, delta)
			if err != nil {
				return nil, err
			}
			liquidity = newLiq
			if zeroForOne {
				tick = nextTick - 1
			} else {
				tick = nextTick
			}
		} else {
			tick, err = fixedpoint.TickAtSqrtRatio(sqrtPrice)
			if err != nil {
				return nil, err
			}
			if amountRemaining.IsZero() {
				break
			}
		}
	}

	if amountRemaining.Sign() > 0 && sqrtPrice.Eq(sqrtPriceLimit) {
		if amountOut.IsZero() {
			return nil, apierrors.New(apierrors.KindInsufficientLiquidity, "swap exhausted available liquidity before consuming input")
		}
	}

	spot, err := spotPriceUsdcPerEth(snap)
	if err != nil {
		return nil, err
	}
	exec := executionPriceUsdcPerEth(snap, direction, amountInRaw, amountOut.ToBig())
	impact := priceImpactPct(direction, exec, spot)

	return &venue.Quote{
		AmountInRaw:    new(big.Int).Sub(amountInRaw, amountRemaining.ToBig()),
		AmountOutRaw:   amountOut.ToBig(),
		ExecutionPrice: exec,
		SpotPrice:      spot,
		PriceImpactPct: impact,
	}, nil
}

// ExactOut simulates buying exactly amountOutRaw of the "to" token, solving
// for the required input via binary search, per spec.md §4.2.
func ExactOut(snap *venue.V4Snapshot, direction venue.Direction, amountOutRaw *big.Int) (*venue.Quote, error) {
	if amountOutRaw.Sign() < 0 {
		return nil, apierrors.New(apierrors.KindInputInvalid, "amount_out must be non-negative")
	}
	if amountOutRaw.Sign() == 0 {
		return ExactIn(snap, direction, big.NewInt(0))
	}

	spot, err := spotPriceUsdcPerEth(snap)
	if err != nil {
		return nil, err
	}

	lo := big.NewInt(0)
	hi := estimateUpperBoundIn(snap, direction, spot, amountOutRaw)

	const maxIterations = 96
	const tolerance = 1

	var best *venue.Quote
	for i := 0; i < maxIterations; i++ {
		mid := new(big.Int).Add(lo, hi)
		mid.Rsh(mid, 1)
		if mid.Sign() == 0 {
			mid = big.NewInt(1)
		}

		q, err := ExactIn(snap, direction, mid)
		if err != nil {
			if e, ok := apierrors.As(err); ok && e.Kind == apierrors.KindInsufficientLiquidity {
				lo = mid
				continue
			}
			return nil, err
		}

		diff := new(big.Int).Sub(q.AmountOutRaw, amountOutRaw)
		if diff.CmpAbs(big.NewInt(tolerance)) <= 0 {
			best = q
			break
		}
		if diff.Sign() < 0 {
			lo = mid
		} else {
			hi = mid
		}
		if lo.Cmp(hi) >= 0 {
			hi = new(big.Int).Mul(hi, big.NewInt(2))
		}
	}

	if best == nil {
		return nil, apierrors.New(apierrors.KindNoConvergence, "exact-out binary search did not converge")
	}
	return best, nil
}

func estimateUpperBoundIn(snap *venue.V4Snapshot, direction venue.Direction, spot float64, amountOutRaw *big.Int) *big.Int {
	ethDecimals, usdcDecimals := int(snap.Token0.Decimals), int(snap.Token1.Decimals)
	if !snap.Token0IsWeth {
		ethDecimals, usdcDecimals = usdcDecimals, ethDecimals
	}
	out := new(big.Float).SetInt(amountOutRaw)
	var bound *big.Float
	if direction == venue.SellEthBuyUsdc {
		// output is USDC; bound in ETH terms is out/spot, generously padded.
		bound = new(big.Float).Quo(out, big.NewFloat(spot))
		bound.Mul(bound, pow10(ethDecimals))
		bound.Quo(bound, pow10(usdcDecimals))
	} else {
		bound = new(big.Float).Mul(out, big.NewFloat(spot))
		bound.Mul(bound, pow10(usdcDecimals))
		bound.Quo(bound, pow10(ethDecimals))
	}
	bound.Mul(bound, big.NewFloat(100))
	result, _ := bound.Int(nil)
	if result.Sign() <= 0 {
		result = big.NewInt(1)
	}
	return result
}

func zeroForOneFor(snap *venue.V4Snapshot, direction venue.Direction) (bool, error) {
	sellingWeth := direction == venue.SellEthBuyUsdc
	// zeroForOne means selling token0 for token1.
	return sellingWeth == snap.Token0IsWeth, nil
}

func sortedTicks(ticks []venue.TickInfo) []venue.TickInfo {
	out := make([]venue.TickInfo, len(ticks))
	copy(out, ticks)
	sort.Slice(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out
}

func nextInitializedTick(ticks []venue.TickInfo, current int32, zeroForOne bool) (int32, bool, error) {
	if zeroForOne {
		for i := len(ticks) - 1; i >= 0; i-- {
			if ticks[i].Tick <= current {
				return ticks[i].Tick, true, nil
			}
		}
		return fixedpoint.MinTick, false, apierrors.New(apierrors.KindSnapshotTooNarrow, "no initialized tick below current price within snapshot window")
	}
	for _, t := range ticks {
		if t.Tick > current {
			return t.Tick, true, nil
		}
	}
	return fixedpoint.MaxTick, false, apierrors.New(apierrors.KindSnapshotTooNarrow, "no initialized tick above current price within snapshot window")
}

func deltaForTick(ticks []venue.TickInfo, tick int32) *big.Int {
	for _, t := range ticks {
		if t.Tick == tick {
			return new(big.Int).Set(t.LiquidityNet)
		}
	}
	return big.NewInt(0)
}

func applyLiquidityNet(liquidity *uint256.Int, delta *big.Int) (*uint256.Int, error) {
	if delta.Sign() >= 0 {
		d, err := fixedpoint.BigIntToUint256(delta)
		if err != nil {
			return nil, err
		}
		return fixedpoint.AddChecked(liquidity, d)
	}
	d, err := fixedpoint.BigIntToUint256(new(big.Int).Neg(delta))
	if err != nil {
		return nil, err
	}
	return fixedpoint.SubChecked(liquidity, d)
}

func spotPriceUsdcPerEth(snap *venue.V4Snapshot) (float64, error) {
	sqrtPrice := new(big.Float).SetInt(snap.SqrtPriceX96)
	q96 := new(big.Float).SetInt(fixedpoint.Q96().ToBig())
	ratio := new(big.Float).Quo(sqrtPrice, q96)
	priceToken1PerToken0 := new(big.Float).Mul(ratio, ratio)

	dec0 := int(tokenDecimals(snap, true))
	dec1 := int(tokenDecimals(snap, false))
	decAdj := decimalAdjustment(dec0, dec1)
	priceToken1PerToken0.Mul(priceToken1PerToken0, decAdj)

	p, _ := priceToken1PerToken0.Float64()
	if snap.Token0IsWeth {
		return p, nil
	}
	if p == 0 {
		return 0, apierrors.New(apierrors.KindSnapshotInconsistent, "zero spot price")
	}
	return 1 / p, nil
}

func tokenDecimals(snap *venue.V4Snapshot, token0 bool) uint8 {
	if token0 {
		return snap.Token0.Decimals
	}
	return snap.Token1.Decimals
}

func decimalAdjustment(dec0, dec1 int) *big.Float {
	diff := dec0 - dec1
	adj := new(big.Float).SetInt64(1)
	ten := big.NewFloat(10)
	for i := 0; i < diff; i++ {
		adj.Mul(adj, ten)
	}
	for i := 0; i > diff; i-- {
		adj.Quo(adj, ten)
	}
	return adj
}

func executionPriceUsdcPerEth(snap *venue.V4Snapshot, direction venue.Direction, amountInRaw, amountOutRaw *big.Int) float64 {
	if amountInRaw.Sign() == 0 {
		return 0
	}
	inF := new(big.Float).SetInt(amountInRaw)
	outF := new(big.Float).SetInt(amountOutRaw)

	var ethAmount, usdcAmount *big.Float
	if direction == venue.SellEthBuyUsdc {
		ethAmount, usdcAmount = inF, outF
	} else {
		ethAmount, usdcAmount = outF, inF
	}

	ethDecimals := 18
	usdcDecimals := 6
	if direction == venue.SellEthBuyUsdc {
		if !snap.Token0IsWeth {
			ethDecimals, usdcDecimals = int(snap.Token1.Decimals), int(snap.Token0.Decimals)
		} else {
			ethDecimals, usdcDecimals = int(snap.Token0.Decimals), int(snap.Token1.Decimals)
		}
	} else {
		if snap.Token0IsWeth {
			ethDecimals, usdcDecimals = int(snap.Token0.Decimals), int(snap.Token1.Decimals)
		} else {
			ethDecimals, usdcDecimals = int(snap.Token1.Decimals), int(snap.Token0.Decimals)
		}
	}

	ethHuman := new(big.Float).Quo(ethAmount, pow10(ethDecimals))
	usdcHuman := new(big.Float).Quo(usdcAmount, pow10(usdcDecimals))
	if ethHuman.Sign() == 0 {
		return 0
	}
	price := new(big.Float).Quo(usdcHuman, ethHuman)
	p, _ := price.Float64()
	return p
}

func pow10(n int) *big.Float {
	r := big.NewFloat(1)
	ten := big.NewFloat(10)
	for i := 0; i < n; i++ {
		r.Mul(r, ten)
	}
	return r
}

func priceImpactPct(direction venue.Direction, exec, spot float64) float64 {
	if spot == 0 {
		return 0
	}
	return (exec/spot - 1) * 100
}
