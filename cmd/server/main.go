// Command server runs the cross-venue arbitrage quote engine's single HTTP
// endpoint, wiring C1-C9 together the way the teacher's cmd/main.go dials a
// chain client once and hands it to the rest of the process.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arbedge/quoteengine/configs"
	"github.com/arbedge/quoteengine/internal/bridgefee"
	"github.com/arbedge/quoteengine/internal/chainclient"
	"github.com/arbedge/quoteengine/internal/logging"
	"github.com/arbedge/quoteengine/internal/orchestrator"
	"github.com/arbedge/quoteengine/internal/refprice"
	"github.com/arbedge/quoteengine/pkg/httpapi"
)

func main() {
	log := logging.New()
	startupLog := logging.Component(log, "startup")

	cfg, err := configs.Load()
	if err != nil {
		startupLog.WithError(err).Fatal("failed to load configuration")
	}

	chainA, err := chainclient.NewEthereumChainClient(chainclient.EthereumChainClientConfig{
		RPCURL:           cfg.EthereumRPCURL,
		StateViewAddr:    cfg.UniswapV4StateView,
		Multicall3Addr:   cfg.Multicall3Addr,
		WethAddr:         cfg.WethAddrEth,
		WethIsToken0:     true,
		V4PoolID:         cfg.V4PoolID(),
		TickSpacing:      cfg.V4TickSpacing,
		FeePips:          cfg.V4FeePips,
		Logger:           logging.Component(log, "chainclient.ethereum"),
	})
	if err != nil {
		startupLog.WithError(err).Fatal("failed to construct chain A client")
	}

	chainB, err := chainclient.NewEthereumChainClient(chainclient.EthereumChainClientConfig{
		RPCURL:               cfg.BaseRPCURL,
		Multicall3Addr:       cfg.Multicall3Addr,
		WethAddr:             cfg.WethAddrBase,
		V2PairAddr:           cfg.AerodromePool,
		AerodromeFactoryAddr: cfg.AerodromeFactory,
		V2FallbackFeeBps:     30,
		Logger:               logging.Component(log, "chainclient.base"),
	})
	if err != nil {
		startupLog.WithError(err).Fatal("failed to construct chain B client")
	}

	refPriceClient := refprice.NewHTTPClient(envOrDefault("REFERENCE_PRICE_URL", "https://api.example-cex.invalid/v1/spot/ETHUSD"), "price")

	bridgeQuoter := bridgefee.NewHTTPQuoter(envOrDefault("BRIDGE_RELAYER_URL", "https://relayer.example-bridge.invalid/v1/quote"), refPriceClient.SpotPriceUsd)
	bridgeClient := bridgefee.NewClient(bridgeQuoter, 30*time.Second, logging.Component(log, "bridgefee"))

	orch := orchestrator.New(chainA, chainB, refPriceClient, bridgeClient, orchestrator.Config{
		V4PoolAddress:   cfg.UniswapV4StateView,
		V2PairAddress:   cfg.AerodromePool,
		GasUnitsV4:      cfg.GasUnitsV4,
		GasUnitsV2:      cfg.GasUnitsV2,
		RequestDeadline: cfg.RequestDeadline,
	}, logging.Component(log, "orchestrator"))

	probes := []httpapi.ReadinessProbe{
		func(ctx context.Context) error { _, err := chainA.GasPriceWei(ctx); return err },
		func(ctx context.Context) error { _, err := chainB.GasPriceWei(ctx); return err },
	}
	server := httpapi.NewServer(orch, probes, logging.Component(log, "httpapi"))

	httpServer := &http.Server{
		Addr:         cfg.ServiceBindAddr,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		startupLog.WithField("addr", cfg.ServiceBindAddr).Info("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			startupLog.WithError(err).Fatal("server stopped unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		startupLog.WithError(err).Error("graceful shutdown failed")
		os.Exit(1)
	}
	startupLog.Info("shutdown complete")
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
