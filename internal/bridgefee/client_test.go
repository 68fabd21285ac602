package bridgefee

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbedge/quoteengine/internal/venue"
)

func TestEvaluateDirection_TakesMinimumOfBothAssets(t *testing.T) {
	q := &FakeQuoter{UsdByKey: map[string]float64{"sell:weth": 5.0, "sell:usdc": 2.5}}
	c := NewClient(q, 0, nil)

	cost, err := c.EvaluateDirection(context.Background(), venue.SellEthBuyUsdc)
	require.NoError(t, err)
	assert.Equal(t, 2.5, cost.BestUsd)
	assert.False(t, cost.BothFailed)
}

func TestEvaluateDirection_OneFailureUsesOther(t *testing.T) {
	q := &FakeQuoter{
		UsdByKey: map[string]float64{"sell:usdc": 3.0},
		ErrByKey: map[string]error{"sell:weth": errors.New("relayer timeout")},
	}
	c := NewClient(q, 0, nil)

	cost, err := c.EvaluateDirection(context.Background(), venue.SellEthBuyUsdc)
	require.NoError(t, err)
	assert.Equal(t, 3.0, cost.BestUsd)
	assert.False(t, cost.BothFailed)
}

func TestEvaluateDirection_BothFailuresYieldInfinity(t *testing.T) {
	q := &FakeQuoter{
		ErrByKey: map[string]error{
			"sell:weth": errors.New("relayer timeout"),
			"sell:usdc": errors.New("relayer timeout"),
		},
	}
	c := NewClient(q, 0, nil)

	cost, err := c.EvaluateDirection(context.Background(), venue.SellEthBuyUsdc)
	require.NoError(t, err)
	assert.True(t, math.IsInf(cost.BestUsd, 1))
	assert.True(t, cost.BothFailed)
}

func TestEvaluateAll_CoversBothDirections(t *testing.T) {
	q := &FakeQuoter{UsdByKey: map[string]float64{
		"sell:weth": 4, "sell:usdc": 5,
		"buy:weth": 6, "buy:usdc": 7,
	}}
	c := NewClient(q, 0, nil)

	sell, buy, err := c.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4.0, sell.BestUsd)
	assert.Equal(t, 6.0, buy.BestUsd)
}
