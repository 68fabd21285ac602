package v4

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbedge/quoteengine/internal/apierrors"
	"github.com/arbedge/quoteengine/internal/fixedpoint"
	"github.com/arbedge/quoteengine/internal/venue"
)

// flatSnapshot builds a single-segment pool at tick -276325 (about 1 USDC per
// WETH after decimal adjustment) with ample liquidity and a wide tick window, so
// a trade never crosses a tick boundary — useful for pinning down the
// decimal-adjusted spot/execution price math independent of tick-sweep logic.
func flatSnapshot(t *testing.T, feePips uint32) *venue.V4Snapshot {
	t.Helper()
	sqrtPrice, err := fixedpoint.SqrtRatioAtTick(-276325) // approx 1 USDC (6dp) per WETH (18dp) pre-adjustment boundary
	require.NoError(t, err)

	liquidity := new(big.Int)
	liquidity.SetString("5000000000000000000000000000", 10)

	return &venue.V4Snapshot{
		Token0:       venue.Token{Address: "0xWETH", Decimals: 18},
		Token1:       venue.Token{Address: "0xUSDC", Decimals: 6},
		Token0IsWeth: true,
		FeePips:      feePips,
		TickSpacing:  60,
		SqrtPriceX96: sqrtPrice.ToBig(),
		CurrentTick:  -276325,
		Liquidity:    liquidity,
		Ticks: []venue.TickInfo{
			{Tick: fixedpoint.MinTick + 1, LiquidityNet: big.NewInt(0)},
			{Tick: fixedpoint.MaxTick - 1, LiquidityNet: big.NewInt(0)},
		},
	}
}

func TestExactIn_ZeroAmountIsIdentity(t *testing.T) {
	snap := flatSnapshot(t, 3000)
	q, err := ExactIn(snap, venue.SellEthBuyUsdc, big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, 0, q.AmountOutRaw.Sign())
	assert.InDelta(t, 0, q.PriceImpactPct, 1e-9)
	assert.Equal(t, q.SpotPrice, q.ExecutionPrice)
}

func TestExactIn_MonotonicInAmount(t *testing.T) {
	snap := flatSnapshot(t, 3000)
	oneEth := new(big.Int)
	oneEth.SetString("1000000000000000000", 10)
	tenEth := new(big.Int).Mul(oneEth, big.NewInt(10))

	small, err := ExactIn(snap, venue.SellEthBuyUsdc, oneEth)
	require.NoError(t, err)
	large, err := ExactIn(snap, venue.SellEthBuyUsdc, tenEth)
	require.NoError(t, err)

	assert.True(t, large.AmountOutRaw.Cmp(small.AmountOutRaw) > 0, "amount_out must be non-decreasing in amount_in")
	assert.True(t, large.ExecutionPrice <= small.ExecutionPrice, "selling more ETH should not raise execution price")
}

func TestExactIn_NegativeAmountRejected(t *testing.T) {
	snap := flatSnapshot(t, 3000)
	_, err := ExactIn(snap, venue.SellEthBuyUsdc, big.NewInt(-1))
	require.Error(t, err)
	e, ok := apierrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apierrors.KindInputInvalid, e.Kind)
}

func TestExactOut_RoundTripsApproximatelyWithExactIn(t *testing.T) {
	snap := flatSnapshot(t, 3000)
	oneEth := new(big.Int)
	oneEth.SetString("1000000000000000000", 10)

	in, err := ExactIn(snap, venue.SellEthBuyUsdc, oneEth)
	require.NoError(t, err)
	require.True(t, in.AmountOutRaw.Sign() > 0)

	out, err := ExactOut(snap, venue.SellEthBuyUsdc, in.AmountOutRaw)
	require.NoError(t, err)

	// Receiving the exact USDC output of the first leg should cost about the
	// ETH that was sold: the search stops within one USDC base unit of the
	// target output, well under 0.001% of that output at this pool's price.
	inEth, _ := new(big.Float).SetInt(out.AmountInRaw).Float64()
	assert.InEpsilon(t, 1e18, inEth, 1e-5)
}
