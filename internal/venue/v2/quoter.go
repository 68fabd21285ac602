// Package v2 simulates exact-in and exact-out swaps against a
// constant-product pair snapshot (component C3), mirroring the integer
// formulas a Uniswap-v2-style router itself evaluates on-chain.
package v2

import (
	"math/big"

	"github.com/arbedge/quoteengine/internal/apierrors"
	"github.com/arbedge/quoteengine/internal/venue"
)

const feeDenominator = 10000

// ExactIn computes amount_out for an exact-in trade of amountInRaw,
// rounding DOWN, per spec.md §4.3:
//
//	amount_out = Δx·(10000-fee_bps)·reserve_out / (reserve_in·10000 + Δx·(10000-fee_bps))
func ExactIn(snap *venue.V2Snapshot, direction venue.Direction, amountInRaw *big.Int) (*venue.Quote, error) {
	if amountInRaw.Sign() < 0 {
		return nil, apierrors.New(apierrors.KindInputInvalid, "amount_in must be non-negative")
	}
	if snap.FeeBps >= feeDenominator {
		return nil, apierrors.New(apierrors.KindSnapshotInconsistent, "fee_bps must be less than 10000")
	}

	reserveIn, reserveOut, err := reservesFor(snap, direction)
	if err != nil {
		return nil, err
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, apierrors.New(apierrors.KindSnapshotInconsistent, "reserves must be positive")
	}

	feeComplement := big.NewInt(int64(feeDenominator - snap.FeeBps))
	amountInWithFee := new(big.Int).Mul(amountInRaw, feeComplement)

	numerator := new(big.Int).Mul(amountInWithFee, reserveOut)
	denominator := new(big.Int).Mul(reserveIn, big.NewInt(feeDenominator))
	denominator.Add(denominator, amountInWithFee)

	var amountOut *big.Int
	if denominator.Sign() == 0 {
		amountOut = big.NewInt(0)
	} else {
		amountOut = new(big.Int).Quo(numerator, denominator) // floor: rounds DOWN, matching reserve_out owed to trader
	}

	spot, err := spotPriceUsdcPerEth(snap)
	if err != nil {
		return nil, err
	}
	exec := executionPrice(snap, direction, amountInRaw, amountOut)
	if amountInRaw.Sign() == 0 {
		// a zero trade executes at the spot price: no price impact
		exec = spot
	}

	return &venue.Quote{
		AmountInRaw:    new(big.Int).Set(amountInRaw),
		AmountOutRaw:   amountOut,
		ExecutionPrice: exec,
		SpotPrice:      spot,
		PriceImpactPct: priceImpactPct(exec, spot),
	}, nil
}

// ExactOut computes amount_in required to receive exactly amountOutRaw,
// rounding UP, per spec.md §4.3:
//
//	amount_in = reserve_in·Δy·10000 / ((reserve_out-Δy)·(10000-fee_bps)) + 1
func ExactOut(snap *venue.V2Snapshot, direction venue.Direction, amountOutRaw *big.Int) (*venue.Quote, error) {
	if amountOutRaw.Sign() < 0 {
		return nil, apierrors.New(apierrors.KindInputInvalid, "amount_out must be non-negative")
	}
	if snap.FeeBps >= feeDenominator {
		return nil, apierrors.New(apierrors.KindSnapshotInconsistent, "fee_bps must be less than 10000")
	}

	reserveIn, reserveOut, err := reservesFor(snap, direction)
	if err != nil {
		return nil, err
	}
	if amountOutRaw.Cmp(reserveOut) >= 0 {
		return nil, apierrors.New(apierrors.KindInsufficientLiquidity, "amount_out exceeds pool reserve")
	}
	if amountOutRaw.Sign() == 0 {
		return &venue.Quote{AmountInRaw: big.NewInt(0), AmountOutRaw: big.NewInt(0)}, nil
	}

	feeComplement := big.NewInt(int64(feeDenominator - snap.FeeBps))
	numerator := new(big.Int).Mul(reserveIn, amountOutRaw)
	numerator.Mul(numerator, big.NewInt(feeDenominator))

	remaining := new(big.Int).Sub(reserveOut, amountOutRaw)
	denominator := new(big.Int).Mul(remaining, feeComplement)

	amountIn := new(big.Int).Quo(numerator, denominator)
	amountIn.Add(amountIn, big.NewInt(1)) // +1 rounds UP, matching amount owed to pool

	spot, err := spotPriceUsdcPerEth(snap)
	if err != nil {
		return nil, err
	}
	exec := executionPrice(snap, direction, amountIn, amountOutRaw)

	return &venue.Quote{
		AmountInRaw:    amountIn,
		AmountOutRaw:   new(big.Int).Set(amountOutRaw),
		ExecutionPrice: exec,
		SpotPrice:      spot,
		PriceImpactPct: priceImpactPct(exec, spot),
	}, nil
}

func reservesFor(snap *venue.V2Snapshot, direction venue.Direction) (reserveIn, reserveOut *big.Int, err error) {
	sellingWeth := direction == venue.SellEthBuyUsdc
	wethIsToken0 := snap.Token0IsWeth

	switch {
	case sellingWeth && wethIsToken0:
		return snap.Reserve0, snap.Reserve1, nil
	case sellingWeth && !wethIsToken0:
		return snap.Reserve1, snap.Reserve0, nil
	case !sellingWeth && wethIsToken0:
		return snap.Reserve1, snap.Reserve0, nil
	default:
		return snap.Reserve0, snap.Reserve1, nil
	}
}

func spotPriceUsdcPerEth(snap *venue.V2Snapshot) (float64, error) {
	wethReserve, usdcReserve := snap.Reserve0, snap.Reserve1
	wethDecimals, usdcDecimals := snap.Token0.Decimals, snap.Token1.Decimals
	if !snap.Token0IsWeth {
		wethReserve, usdcReserve = snap.Reserve1, snap.Reserve0
		wethDecimals, usdcDecimals = snap.Token1.Decimals, snap.Token0.Decimals
	}
	if wethReserve.Sign() <= 0 {
		return 0, apierrors.New(apierrors.KindSnapshotInconsistent, "zero weth reserve")
	}

	wethHuman := new(big.Float).Quo(new(big.Float).SetInt(wethReserve), pow10(int(wethDecimals)))
	usdcHuman := new(big.Float).Quo(new(big.Float).SetInt(usdcReserve), pow10(int(usdcDecimals)))
	price := new(big.Float).Quo(usdcHuman, wethHuman)
	p, _ := price.Float64()
	return p, nil
}

func executionPrice(snap *venue.V2Snapshot, direction venue.Direction, amountInRaw, amountOutRaw *big.Int) float64 {
	var ethAmount, usdcAmount *big.Int
	var ethDecimals, usdcDecimals uint8
	wethIsToken0 := snap.Token0IsWeth

	if direction == venue.SellEthBuyUsdc {
		ethAmount, usdcAmount = amountInRaw, amountOutRaw
	} else {
		ethAmount, usdcAmount = amountOutRaw, amountInRaw
	}
	if wethIsToken0 {
		ethDecimals, usdcDecimals = snap.Token0.Decimals, snap.Token1.Decimals
	} else {
		ethDecimals, usdcDecimals = snap.Token1.Decimals, snap.Token0.Decimals
	}

	if ethAmount.Sign() == 0 {
		return 0
	}
	ethHuman := new(big.Float).Quo(new(big.Float).SetInt(ethAmount), pow10(int(ethDecimals)))
	usdcHuman := new(big.Float).Quo(new(big.Float).SetInt(usdcAmount), pow10(int(usdcDecimals)))
	price := new(big.Float).Quo(usdcHuman, ethHuman)
	p, _ := price.Float64()
	return p
}

func priceImpactPct(exec, spot float64) float64 {
	if spot == 0 {
		return 0
	}
	return (exec/spot - 1) * 100
}

func pow10(n int) *big.Float {
	r := big.NewFloat(1)
	ten := big.NewFloat(10)
	for i := 0; i < n; i++ {
		r.Mul(r, ten)
	}
	return r
}
