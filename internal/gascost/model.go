// Package gascost implements the gas cost model (component C7): per chain,
// total_usd = gas_units * gas_price_wei * eth_usd / 1e18, adapted from the
// teacher's util.ExtractGasCost pattern of deriving a USD figure from raw
// gas units and a live price, but driven from a live eth_gasPrice read
// rather than a settled transaction receipt, since this service never
// submits transactions.
package gascost

import (
	"math/big"

	"github.com/arbedge/quoteengine/internal/venue"
)

const weiPerEth = 1e18

// Estimate computes the USD cost of gasUnits at gasPriceWei, valued at
// ethUsd, per spec.md §4.7.
func Estimate(gasUnits uint64, gasPriceWei *big.Int, ethUsd float64) venue.GasEstimate {
	totalNativeWei := new(big.Int).Mul(big.NewInt(int64(gasUnits)), gasPriceWei)

	totalNativeFloat := new(big.Float).SetInt(totalNativeWei)
	totalEth := new(big.Float).Quo(totalNativeFloat, big.NewFloat(weiPerEth))
	totalEthF, _ := totalEth.Float64()

	return venue.GasEstimate{
		GasUnits:       gasUnits,
		GasPriceWei:    new(big.Int).Set(gasPriceWei),
		TotalNativeWei: totalNativeWei,
		TotalUsd:       totalEthF * ethUsd,
	}
}
