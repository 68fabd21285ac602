package gascost

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate_Basic(t *testing.T) {
	gasPrice := big.NewInt(20_000_000_000) // 20 gwei
	e := Estimate(180_000, gasPrice, 4000)

	// 180000 * 20e9 wei = 3.6e15 wei = 0.0036 ETH; at $4000/ETH = $14.4
	assert.InDelta(t, 14.4, e.TotalUsd, 1e-9)
	assert.Equal(t, uint64(180_000), e.GasUnits)
}

func TestEstimate_ZeroGasPriceIsZeroCost(t *testing.T) {
	e := Estimate(160_000, big.NewInt(0), 4000)
	assert.Equal(t, 0.0, e.TotalUsd)
}
