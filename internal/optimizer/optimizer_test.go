package optimizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimize_AllNonPositiveYieldsNotFound(t *testing.T) {
	result, err := Optimize(func(size float64) (float64, error) { return -1.0, nil })
	require.NoError(t, err)
	assert.False(t, result.Found)
}

func TestOptimize_FindsInteriorMaximum(t *testing.T) {
	// An inverted parabola peaking at size=5 with net profit 100.
	f := func(size float64) (float64, error) {
		return 100 - (size-5)*(size-5), nil
	}
	result, err := Optimize(f)
	require.NoError(t, err)
	require.True(t, result.Found)
	assert.InDelta(t, 5.0, result.SizeEth, 0.01)
	assert.InDelta(t, 100.0, result.NetProfitUsd, 0.01)
}

func TestOptimize_QuoterErrorIsInfeasibleSize(t *testing.T) {
	// A quoter error marks that size as infeasible rather than aborting the
	// search; when every size fails, the direction has no optimum.
	result, err := Optimize(func(size float64) (float64, error) {
		return 0, assertErr
	})
	require.NoError(t, err)
	assert.False(t, result.Found)
}

var assertErr = &testError{"quoter failure"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func TestOptimize_PrefersGridPointOverWorseInteriorRefinement(t *testing.T) {
	// A curve with a sharp spike exactly at a grid point (size=1) that decays
	// on both sides faster than golden-section's probes would land on it.
	f := func(size float64) (float64, error) {
		if math.Abs(size-1) < 1e-9 {
			return 50, nil
		}
		return 50 - 1000*(size-1)*(size-1), nil
	}
	result, err := Optimize(f)
	require.NoError(t, err)
	require.True(t, result.Found)
	assert.InDelta(t, 1.0, result.SizeEth, 1e-9)
	assert.Equal(t, 50.0, result.NetProfitUsd)
}
