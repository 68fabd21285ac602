package bridgefee

import (
	"context"

	"github.com/arbedge/quoteengine/internal/venue"
)

// FakeQuoter is an in-memory Quoter double for tests. Errs keyed by
// "<direction>:<asset>" allow tests to force one-leg or both-legs failure.
type FakeQuoter struct {
	UsdByKey map[string]float64
	ErrByKey map[string]error
}

func quoterKey(direction venue.Direction, asset venue.BridgeAsset) string {
	d := "sell"
	if direction == venue.BuyEthSellUsdc {
		d = "buy"
	}
	a := "weth"
	if asset == venue.BridgeAssetUsdc {
		a = "usdc"
	}
	return d + ":" + a
}

func (f *FakeQuoter) Quote(ctx context.Context, direction venue.Direction, asset venue.BridgeAsset) (*venue.BridgeFeeQuote, error) {
	key := quoterKey(direction, asset)
	if err, ok := f.ErrByKey[key]; ok && err != nil {
		return nil, err
	}
	usd := f.UsdByKey[key]
	return &venue.BridgeFeeQuote{Direction: direction, Asset: asset, TotalUsd: usd}, nil
}

var _ Quoter = (*FakeQuoter)(nil)
