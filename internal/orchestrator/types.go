// Package orchestrator implements the fan-out/fan-in request driver
// (component C8) and the final report shape the HTTP layer serializes.
package orchestrator

// VenueDetails is the per-venue slice of the response body defined in
// spec.md §6.
type VenueDetails struct {
	SellPriceUsdcPerEth float64 `json:"sell_price_usdc_per_eth"`
	BuyPriceUsdcPerEth  float64 `json:"buy_price_usdc_per_eth"`
	PriceImpactPercent  float64 `json:"price_impact_percent"`
	EstimatedGasCostUsd float64 `json:"estimated_gas_cost_usd"`
}

// ArbitrageSummary is the `arbitrage_summary` object of the response body.
type ArbitrageSummary struct {
	SpreadUniToAero          float64 `json:"spread_uni_to_aero"`
	SpreadAeroToUni          float64 `json:"spread_aero_to_uni"`
	GrossProfitUniToAeroUsd  float64 `json:"gross_profit_uni_to_aero_usd"`
	GrossProfitAeroToUniUsd  float64 `json:"gross_profit_aero_to_uni_usd"`
	TotalGasCostUsd          float64 `json:"total_gas_cost_usd"`
	BridgeCostUsd            float64 `json:"bridge_cost_usd"`
	NetProfitBestUsd         float64 `json:"net_profit_best_usd"`
	RecommendedAction        string  `json:"recommended_action"`
}

// Recommended actions, per spec.md §6.
const (
	ActionArbitrageUniToAero = "ARBITRAGE_UNI_TO_AERO"
	ActionArbitrageAeroToUni = "ARBITRAGE_AERO_TO_UNI"
	ActionNoArbitrage        = "NO_ARBITRAGE"
)

// ArbitrageReport is the full response body for GET /api/v1/arbitrage-opportunity.
type ArbitrageReport struct {
	TimestampUtc           string           `json:"timestamp_utc"`
	TradeSizeEth           float64          `json:"trade_size_eth"`
	ReferenceCexPriceUsd   float64          `json:"reference_cex_price_usd"`
	UniswapV4Details       VenueDetails     `json:"uniswap_v4_details"`
	AerodromeDetails       VenueDetails     `json:"aerodrome_details"`
	ArbitrageSummary       ArbitrageSummary `json:"arbitrage_summary"`
}
