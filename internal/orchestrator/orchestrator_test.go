package orchestrator

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbedge/quoteengine/internal/apierrors"
	"github.com/arbedge/quoteengine/internal/bridgefee"
	"github.com/arbedge/quoteengine/internal/chainclient"
	"github.com/arbedge/quoteengine/internal/fixedpoint"
	"github.com/arbedge/quoteengine/internal/refprice"
	"github.com/arbedge/quoteengine/internal/venue"
)

func flatV4Snapshot(t *testing.T) *venue.V4Snapshot {
	t.Helper()
	// floor(sqrt(4000e6 / 1e18) * 2^96): 4000 USDC per WETH after decimal
	// adjustment, the same price as flatV2Snapshot's reserves.
	sqrtPrice, ok := new(big.Int).SetString("5010828967500958623728276", 10)
	require.True(t, ok)
	liquidity := new(big.Int)
	liquidity.SetString("5000000000000000000000000000", 10)
	return &venue.V4Snapshot{
		Token0:       venue.Token{Address: "0xWETH", Decimals: 18},
		Token1:       venue.Token{Address: "0xUSDC", Decimals: 6},
		Token0IsWeth: true,
		FeePips:      0,
		TickSpacing:  60,
		SqrtPriceX96: sqrtPrice,
		CurrentTick:  -193380,
		Liquidity:    liquidity,
		Ticks: []venue.TickInfo{
			{Tick: fixedpoint.MinTick + 1, LiquidityNet: big.NewInt(0)},
			{Tick: fixedpoint.MaxTick - 1, LiquidityNet: big.NewInt(0)},
		},
	}
}

func flatV2Snapshot() *venue.V2Snapshot {
	weth := new(big.Int)
	weth.SetString("1000000000000000000000", 10)
	usdc := new(big.Int)
	usdc.SetString("4000000000000", 10)
	return &venue.V2Snapshot{
		Token0:       venue.Token{Address: "0xWETH", Decimals: 18},
		Token1:       venue.Token{Address: "0xUSDC", Decimals: 6},
		Token0IsWeth: true,
		Reserve0:     weth,
		Reserve1:     usdc,
		FeeBps:       0,
	}
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *chainclient.FakeChainClient, *chainclient.FakeChainClient) {
	t.Helper()
	chainA := &chainclient.FakeChainClient{V4Snapshot: flatV4Snapshot(t), GasPrice: big.NewInt(0)}
	chainB := &chainclient.FakeChainClient{V2Snap: flatV2Snapshot(), GasPrice: big.NewInt(0)}
	ref := &refprice.FakeClient{Price: 4000}
	bf := bridgefee.NewClient(&bridgefee.FakeQuoter{}, 0, nil)

	cfg := Config{V4PoolAddress: "pool", V2PairAddress: "pair", GasUnitsV4: 180000, GasUnitsV2: 160000, RequestDeadline: 2 * time.Second}
	return New(chainA, chainB, ref, bf, cfg, nil), chainA, chainB
}

func TestEvaluate_ZeroTradeIsNoArbitrage(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	report, err := o.Evaluate(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, ActionNoArbitrage, report.ArbitrageSummary.RecommendedAction)
	assert.Equal(t, 0.0, report.ArbitrageSummary.NetProfitBestUsd)
	assert.InDelta(t, 0, report.UniswapV4Details.PriceImpactPercent, 1e-9)
}

func TestEvaluate_SymmetricPoolsNoSpread(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	report, err := o.Evaluate(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, ActionNoArbitrage, report.ArbitrageSummary.RecommendedAction)
	assert.Equal(t, 0.0, report.ArbitrageSummary.NetProfitBestUsd)
}

func TestEvaluate_Stage1FailurePropagates(t *testing.T) {
	o, chainA, _ := newTestOrchestrator(t)
	chainA.LoadV4Err = apierrors.New(apierrors.KindRpcFailure, "boom")

	_, err := o.Evaluate(context.Background(), 1)
	require.Error(t, err)
	e, ok := apierrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apierrors.KindRpcFailure, e.Kind)
}

func TestEvaluate_DeadlineExceeded(t *testing.T) {
	o, chainA, _ := newTestOrchestrator(t)
	chainA.Delay = 5 * time.Second
	o.cfg.RequestDeadline = 50 * time.Millisecond

	start := time.Now()
	_, err := o.Evaluate(context.Background(), 1)
	elapsed := time.Since(start)

	require.Error(t, err)
	e, ok := apierrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apierrors.KindDeadlineExceeded, e.Kind)
	assert.True(t, elapsed < 500*time.Millisecond, "deadline propagation should abort well before the fake's full delay")
}
