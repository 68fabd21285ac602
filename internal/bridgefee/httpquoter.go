package bridgefee

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/arbedge/quoteengine/internal/apierrors"
	"github.com/arbedge/quoteengine/internal/venue"
)

// HTTPQuoter calls a single relayer's REST quote endpoint, one request per
// (direction, asset) pair, exactly the shape EvaluateDirection fans out.
type HTTPQuoter struct {
	baseURL    string
	httpClient *http.Client
	refPrice   func(ctx context.Context) (float64, error)
}

// NewHTTPQuoter builds a relayer quoter against baseURL. refPrice supplies
// the ETH/USD rate used to convert relayer-native fee units to USD when the
// relayer itself doesn't quote in USD.
func NewHTTPQuoter(baseURL string, refPrice func(ctx context.Context) (float64, error)) *HTTPQuoter {
	return &HTTPQuoter{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 8 * time.Second},
		refPrice:   refPrice,
	}
}

type relayerQuoteResponse struct {
	FeeRaw        string `json:"fee_raw"`
	AssetDecimals uint8  `json:"asset_decimals"`
}

func assetParam(asset venue.BridgeAsset) string {
	if asset == venue.BridgeAssetWeth {
		return "WETH"
	}
	return "USDC"
}

func directionParam(direction venue.Direction) string {
	if direction == venue.SellEthBuyUsdc {
		return "sell_eth_buy_usdc"
	}
	return "buy_eth_sell_usdc"
}

func (q *HTTPQuoter) Quote(ctx context.Context, direction venue.Direction, asset venue.BridgeAsset) (*venue.BridgeFeeQuote, error) {
	reqURL := fmt.Sprintf("%s?%s", q.baseURL, url.Values{
		"direction": {directionParam(direction)},
		"asset":     {assetParam(asset)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindBridgeUnavailable, "failed to build bridge quote request", err)
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.KindBridgeUnavailable, "bridge quote request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apierrors.New(apierrors.KindBridgeUnavailable, "bridge relayer returned a non-200 status")
	}

	var body relayerQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apierrors.Wrap(apierrors.KindBridgeUnavailable, "failed to decode bridge quote response", err)
	}

	feeRaw, ok := new(big.Int).SetString(body.FeeRaw, 10)
	if !ok {
		return nil, apierrors.New(apierrors.KindBridgeUnavailable, "bridge relayer returned a malformed fee amount")
	}

	ethUsd, err := q.refPrice(ctx)
	if err != nil {
		return nil, err
	}

	feeHuman := new(big.Float).Quo(new(big.Float).SetInt(feeRaw), pow10(int(body.AssetDecimals)))
	var usd *big.Float
	if asset == venue.BridgeAssetWeth {
		usd = new(big.Float).Mul(feeHuman, big.NewFloat(ethUsd))
	} else {
		usd = feeHuman
	}
	usdF, _ := usd.Float64()

	return &venue.BridgeFeeQuote{
		Direction:     direction,
		Asset:         asset,
		TotalFeeRaw:   feeRaw,
		AssetDecimals: body.AssetDecimals,
		TotalUsd:      usdF,
	}, nil
}

func pow10(n int) *big.Float {
	r := big.NewFloat(1)
	ten := big.NewFloat(10)
	for i := 0; i < n; i++ {
		r.Mul(r, ten)
	}
	return r
}

var _ Quoter = (*HTTPQuoter)(nil)
