// Package bridgefee implements the bridge-fee client (component C6): for
// each arbitrage direction, two independent relayer quotes (bridge WETH back,
// or bridge USDC back) run in parallel; the direction's cost is the minimum
// of the successful ones. If both fail the direction's cost is treated as
// +Inf so the optimizer rejects it, per spec.md §4.6.
package bridgefee

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arbedge/quoteengine/internal/venue"
)

// Quoter issues a single relayer fee quote for one asset, one direction.
// Expressed as a capability interface (per the design notes) so both real
// relayer HTTP clients and an in-memory double for tests implement it.
type Quoter interface {
	Quote(ctx context.Context, direction venue.Direction, asset venue.BridgeAsset) (*venue.BridgeFeeQuote, error)
}

// Client evaluates both candidate assets for a direction and returns the
// direction's effective bridge cost plus whichever quotes succeeded.
type Client struct {
	quoter    Quoter
	freshness time.Duration
	log       Logger
}

// Logger is the minimal logging surface bridgefee needs; satisfied by
// *logrus.Entry without importing logrus here, keeping this package
// testable without a logging dependency in its own test file.
type Logger interface {
	Warnf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Warnf(string, ...interface{}) {}

// NewClient builds a bridge-fee client around quoter. freshness is stored as
// the per-direction staleness bound, but the client keeps no quote cache:
// every EvaluateDirection call issues new relayer requests and freshness is
// not consulted.
func NewClient(quoter Quoter, freshness time.Duration, log Logger) *Client {
	if log == nil {
		log = noopLogger{}
	}
	return &Client{quoter: quoter, freshness: freshness, log: log}
}

// DirectionCost is the resolved bridge-fee outcome for one direction: the
// minimum USD cost across the two assets that returned successfully, or
// +Inf if both failed.
type DirectionCost struct {
	Direction  venue.Direction
	BestUsd    float64
	WethQuote  *venue.BridgeFeeQuote
	UsdcQuote  *venue.BridgeFeeQuote
	BothFailed bool
}

// EvaluateDirection issues both asset quotes for direction in parallel and
// resolves the minimum, per spec.md §4.6.
func (c *Client) EvaluateDirection(ctx context.Context, direction venue.Direction) (*DirectionCost, error) {
	var wethQuote, usdcQuote *venue.BridgeFeeQuote
	var wethErr, usdcErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		wethQuote, wethErr = c.quoter.Quote(gctx, direction, venue.BridgeAssetWeth)
		return nil // errors are captured, not propagated: a single failed asset must not cancel its sibling
	})
	g.Go(func() error {
		usdcQuote, usdcErr = c.quoter.Quote(gctx, direction, venue.BridgeAssetUsdc)
		return nil
	})
	_ = g.Wait()

	if wethErr != nil {
		c.log.Warnf("bridge weth-back quote failed for direction %s: %v", direction, wethErr)
	}
	if usdcErr != nil {
		c.log.Warnf("bridge usdc-back quote failed for direction %s: %v", direction, usdcErr)
	}

	if wethErr != nil && usdcErr != nil {
		return &DirectionCost{Direction: direction, BestUsd: math.Inf(1), BothFailed: true}, nil
	}

	best := math.Inf(1)
	if wethErr == nil {
		best = math.Min(best, wethQuote.TotalUsd)
	}
	if usdcErr == nil {
		best = math.Min(best, usdcQuote.TotalUsd)
	}

	return &DirectionCost{
		Direction: direction,
		BestUsd:   best,
		WethQuote: wethQuote,
		UsdcQuote: usdcQuote,
	}, nil
}

// EvaluateAll evaluates both arbitrage directions concurrently, the four
// relayer queries of stage 2 in spec.md §4.8.
func (c *Client) EvaluateAll(ctx context.Context) (sellEthCost, buyEthCost *DirectionCost, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var e error
		sellEthCost, e = c.EvaluateDirection(gctx, venue.SellEthBuyUsdc)
		return e
	})
	g.Go(func() error {
		var e error
		buyEthCost, e = c.EvaluateDirection(gctx, venue.BuyEthSellUsdc)
		return e
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return sellEthCost, buyEthCost, nil
}
