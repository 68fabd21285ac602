// Package httpapi exposes the single read-only HTTP surface described in
// spec.md §6: the arbitrage-opportunity endpoint, a health probe, and a
// Prometheus metrics endpoint. Grounded in the pack's own DEX HTTP server
// (orbas1-Synnergy/synnergy-network/cmd/dexserver/main.go), which wires a
// read-only JSON endpoint with plain net/http + logrus rather than a
// third-party router.
package httpapi

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/arbedge/quoteengine/internal/apierrors"
	"github.com/arbedge/quoteengine/internal/orchestrator"
)

const (
	minTradeSizeEth = 0.0
	maxTradeSizeEth = 10000.0
)

// Evaluator is the single orchestrator method this layer depends on,
// narrowed to a capability interface for handler testing without a live
// orchestrator.
type Evaluator interface {
	Evaluate(ctx context.Context, tradeSizeEth float64) (*orchestrator.ArbitrageReport, error)
}

// ReadinessProbe reports whether a backing chain is currently reachable,
// used by /readyz.
type ReadinessProbe func(ctx context.Context) error

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quoteengine_http_requests_total",
		Help: "Count of arbitrage-opportunity requests by outcome.",
	}, []string{"outcome"})
	requestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "quoteengine_evaluate_duration_seconds",
		Help:    "Latency of a full evaluate() call.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration)
}

// Server wires the HTTP handlers onto a *http.ServeMux. It holds no
// request-scoped state; Evaluator and readiness probes are the only
// collaborators.
type Server struct {
	mux       *http.ServeMux
	evaluator Evaluator
	probes    []ReadinessProbe
	log       *logrus.Entry
}

// NewServer builds a Server ready to be handed to http.ListenAndServe.
func NewServer(evaluator Evaluator, probes []ReadinessProbe, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{mux: http.NewServeMux(), evaluator: evaluator, probes: probes, log: log}
	s.mux.HandleFunc("/api/v1/arbitrage-opportunity", s.handleArbitrageOpportunity)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/readyz", s.handleReady)
	s.mux.Handle("/metrics", promhttp.Handler())
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	for _, probe := range s.probes {
		if err := probe(ctx); err != nil {
			s.log.WithError(err).Warn("readiness probe failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("NOT_READY"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}

func (s *Server) handleArbitrageOpportunity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { requestDuration.Observe(time.Since(start).Seconds()) }()

	tradeSize, err := parseTradeSizeEth(r.URL.Query().Get("trade_size_eth"))
	if err != nil {
		requestsTotal.WithLabelValues("input_invalid").Inc()
		writeError(w, s.log, err)
		return
	}

	report, err := s.evaluator.Evaluate(r.Context(), tradeSize)
	if err != nil {
		requestsTotal.WithLabelValues("error").Inc()
		writeError(w, s.log, err)
		return
	}

	requestsTotal.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.log.WithError(err).Error("failed to encode response body")
	}
}

// parseTradeSizeEth validates and clamps trade_size_eth per spec.md §6:
// finite, non-negative, clamped to [0, 10000]; non-finite or malformed
// values fail with InputInvalid (HTTP 400).
func parseTradeSizeEth(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apierrors.Wrap(apierrors.KindInputInvalid, "trade_size_eth must be a valid float", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apierrors.New(apierrors.KindInputInvalid, "trade_size_eth must be finite")
	}
	if v < minTradeSizeEth {
		return 0, apierrors.New(apierrors.KindInputInvalid, "trade_size_eth must be non-negative")
	}
	if v > maxTradeSizeEth {
		v = maxTradeSizeEth
	}
	return v, nil
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, log *logrus.Entry, err error) {
	status := apierrors.HTTPStatusFor(err)
	kind := "Internal"
	message := "internal error"
	if e, ok := apierrors.As(err); ok {
		kind = string(e.Kind)
		message = e.Message
		log.WithError(err).WithField("kind", kind).Warn("request failed")
	} else {
		log.WithError(err).Error("unclassified request failure")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Kind: kind, Message: message})
}
