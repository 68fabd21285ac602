package orchestrator

import (
	"context"
	"math"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/arbedge/quoteengine/internal/apierrors"
	"github.com/arbedge/quoteengine/internal/bridgefee"
	"github.com/arbedge/quoteengine/internal/chainclient"
	"github.com/arbedge/quoteengine/internal/gascost"
	"github.com/arbedge/quoteengine/internal/optimizer"
	"github.com/arbedge/quoteengine/internal/refprice"
	"github.com/arbedge/quoteengine/internal/venue"
	v2 "github.com/arbedge/quoteengine/internal/venue/v2"
	v4 "github.com/arbedge/quoteengine/internal/venue/v4"
)

const weiPerEth = 1e18

// Config carries the addresses and static parameters the orchestrator needs
// to know which pools to read and how much gas each venue's settlement
// costs, per spec.md §6.
type Config struct {
	V4PoolAddress   string
	V2PairAddress   string
	GasUnitsV4      uint64
	GasUnitsV2      uint64
	RequestDeadline time.Duration
}

// Orchestrator drives the per-request fan-out/fan-in described in spec.md
// §4.8: stage 1 loads pool snapshots, the reference price, and gas prices in
// parallel; stage 2 resolves bridge-fee costs per direction. It owns no
// mutable state across requests — every field here is a shared, read-only
// collaborator, matching "Chain adapters hold shared immutable RPC clients"
// from the data model's ownership rules.
type Orchestrator struct {
	chainA      chainclient.ChainClient // V4 venue chain
	chainB      chainclient.ChainClient // V2 venue chain
	refPrice    refprice.Client
	bridgeFee   *bridgefee.Client
	cfg         Config
	log         *logrus.Entry
}

// New builds an Orchestrator from its collaborators.
func New(chainA, chainB chainclient.ChainClient, refPrice refprice.Client, bridgeFee *bridgefee.Client, cfg Config, log *logrus.Entry) *Orchestrator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Orchestrator{chainA: chainA, chainB: chainB, refPrice: refPrice, bridgeFee: bridgeFee, cfg: cfg, log: log}
}

type stage1Result struct {
	v4Snap   *venue.V4Snapshot
	v2Snap   *venue.V2Snapshot
	ethUsd   float64
	gasPriceA *big.Int
	gasPriceB *big.Int
}

// Evaluate runs the full pipeline for one request: evaluate(trade_size_eth)
// -> ArbitrageReport, per spec.md §4.8's orchestrator contract. tradeSizeEth
// must already be validated/clamped by the caller (the HTTP layer, per
// spec.md §6's query-validation rule) — this method treats it as trusted.
func (o *Orchestrator) Evaluate(ctx context.Context, tradeSizeEth float64) (*ArbitrageReport, error) {
	deadline := o.cfg.RequestDeadline
	if deadline <= 0 {
		deadline = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	s1, err := o.runStage1(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apierrors.Wrap(apierrors.KindDeadlineExceeded, "stage 1 did not complete before the request deadline", err)
		}
		return nil, err
	}

	sellEthCost, buyEthCost, err := o.bridgeFee.EvaluateAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apierrors.Wrap(apierrors.KindDeadlineExceeded, "stage 2 did not complete before the request deadline", err)
		}
		return nil, err
	}

	return o.buildReport(tradeSizeEth, s1, sellEthCost, buyEthCost)
}

func (o *Orchestrator) runStage1(ctx context.Context) (*stage1Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	result := &stage1Result{}

	g.Go(func() error {
		snap, err := o.chainA.LoadV4Snapshot(gctx, o.cfg.V4PoolAddress)
		if err != nil {
			return err
		}
		result.v4Snap = snap
		return nil
	})
	g.Go(func() error {
		snap, err := o.chainB.LoadV2Snapshot(gctx, o.cfg.V2PairAddress)
		if err != nil {
			return err
		}
		result.v2Snap = snap
		return nil
	})
	g.Go(func() error {
		price, err := o.refPrice.SpotPriceUsd(gctx)
		if err != nil {
			return err
		}
		result.ethUsd = price
		return nil
	})
	g.Go(func() error {
		price, err := o.chainA.GasPriceWei(gctx)
		if err != nil {
			return err
		}
		result.gasPriceA = price
		return nil
	})
	g.Go(func() error {
		price, err := o.chainB.GasPriceWei(gctx)
		if err != nil {
			return err
		}
		result.gasPriceB = price
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func ethToWei(sizeEth float64) *big.Int {
	f := new(big.Float).SetFloat64(sizeEth)
	f.Mul(f, big.NewFloat(weiPerEth))
	out, _ := f.Int(nil)
	return out
}

func (o *Orchestrator) buildReport(tradeSizeEth float64, s1 *stage1Result, sellEthCost, buyEthCost *bridgefee.DirectionCost) (*ArbitrageReport, error) {
	gasA := gascost.Estimate(o.cfg.GasUnitsV4, s1.gasPriceA, s1.ethUsd)
	gasB := gascost.Estimate(o.cfg.GasUnitsV2, s1.gasPriceB, s1.ethUsd)
	totalGasUsd := gasA.TotalUsd + gasB.TotalUsd

	sizeWei := ethToWei(tradeSizeEth)

	v4Sell, err := v4.ExactIn(s1.v4Snap, venue.SellEthBuyUsdc, sizeWei)
	if err != nil {
		return nil, err
	}
	v4Buy, err := v4.ExactOut(s1.v4Snap, venue.BuyEthSellUsdc, sizeWei)
	if err != nil {
		return nil, err
	}
	v2Sell, err := v2.ExactIn(s1.v2Snap, venue.SellEthBuyUsdc, sizeWei)
	if err != nil {
		return nil, err
	}
	v2Buy, err := v2.ExactOut(s1.v2Snap, venue.BuyEthSellUsdc, sizeWei)
	if err != nil {
		return nil, err
	}

	uniDetails := VenueDetails{
		SellPriceUsdcPerEth: v4Sell.ExecutionPrice,
		BuyPriceUsdcPerEth:  v4Buy.ExecutionPrice,
		PriceImpactPercent:  v4Sell.PriceImpactPct,
		EstimatedGasCostUsd: gasA.TotalUsd,
	}
	aeroDetails := VenueDetails{
		SellPriceUsdcPerEth: v2Sell.ExecutionPrice,
		BuyPriceUsdcPerEth:  v2Buy.ExecutionPrice,
		PriceImpactPercent:  v2Sell.PriceImpactPct,
		EstimatedGasCostUsd: gasB.TotalUsd,
	}

	spreadUniToAero := uniDetails.SellPriceUsdcPerEth - aeroDetails.BuyPriceUsdcPerEth
	spreadAeroToUni := aeroDetails.SellPriceUsdcPerEth - uniDetails.BuyPriceUsdcPerEth

	grossUniToAero := spreadUniToAero * tradeSizeEth
	grossAeroToUni := spreadAeroToUni * tradeSizeEth

	// Stage 2's bridge-fee quotes are size-independent within ±10x of the
	// caller's requested size (documented approximation, spec.md §4.8).
	netProfitUniToAero := func(size float64) (float64, error) {
		q, err := v4.ExactIn(s1.v4Snap, venue.SellEthBuyUsdc, ethToWei(size))
		if err != nil {
			return 0, err
		}
		b, err := v2.ExactOut(s1.v2Snap, venue.BuyEthSellUsdc, ethToWei(size))
		if err != nil {
			return 0, err
		}
		gross := (q.ExecutionPrice - b.ExecutionPrice) * size
		return gross - totalGasUsd - sellEthCost.BestUsd, nil
	}
	netProfitAeroToUni := func(size float64) (float64, error) {
		q, err := v2.ExactIn(s1.v2Snap, venue.SellEthBuyUsdc, ethToWei(size))
		if err != nil {
			return 0, err
		}
		b, err := v4.ExactOut(s1.v4Snap, venue.BuyEthSellUsdc, ethToWei(size))
		if err != nil {
			return 0, err
		}
		gross := (q.ExecutionPrice - b.ExecutionPrice) * size
		return gross - totalGasUsd - buyEthCost.BestUsd, nil
	}

	uniResult, err := optimizer.Optimize(netProfitUniToAero)
	if err != nil {
		return nil, err
	}
	aeroResult, err := optimizer.Optimize(netProfitAeroToUni)
	if err != nil {
		return nil, err
	}

	action := ActionNoArbitrage
	netBest := 0.0
	bridgeUsd := 0.0

	switch {
	case uniResult.Found && (!aeroResult.Found || uniResult.NetProfitUsd >= aeroResult.NetProfitUsd):
		action = ActionArbitrageUniToAero
		netBest = uniResult.NetProfitUsd
		bridgeUsd = sellEthCost.BestUsd
	case aeroResult.Found:
		action = ActionArbitrageAeroToUni
		netBest = aeroResult.NetProfitUsd
		bridgeUsd = buyEthCost.BestUsd
	default:
		bridgeUsd = math.Min(sellEthCost.BestUsd, buyEthCost.BestUsd)
		if math.IsInf(bridgeUsd, 1) {
			bridgeUsd = 0
		}
	}

	if netBest < 0 {
		netBest = 0
		action = ActionNoArbitrage
	}

	return &ArbitrageReport{
		TimestampUtc:         time.Now().UTC().Format(time.RFC3339),
		TradeSizeEth:         tradeSizeEth,
		ReferenceCexPriceUsd: s1.ethUsd,
		UniswapV4Details:     uniDetails,
		AerodromeDetails:     aeroDetails,
		ArbitrageSummary: ArbitrageSummary{
			SpreadUniToAero:         spreadUniToAero,
			SpreadAeroToUni:         spreadAeroToUni,
			GrossProfitUniToAeroUsd: grossUniToAero,
			GrossProfitAeroToUniUsd: grossAeroToUni,
			TotalGasCostUsd:         totalGasUsd,
			BridgeCostUsd:           bridgeUsd,
			NetProfitBestUsd:        netBest,
			RecommendedAction:       action,
		},
	}, nil
}
