package httpapi

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbedge/quoteengine/internal/apierrors"
	"github.com/arbedge/quoteengine/internal/orchestrator"
)

type fakeEvaluator struct {
	report *orchestrator.ArbitrageReport
	err    error
	lastSize float64
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, tradeSizeEth float64) (*orchestrator.ArbitrageReport, error) {
	f.lastSize = tradeSizeEth
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func TestHandleHealth(t *testing.T) {
	s := NewServer(&fakeEvaluator{}, nil, nil)
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestHandleArbitrageOpportunity_Success(t *testing.T) {
	eval := &fakeEvaluator{report: &orchestrator.ArbitrageReport{TradeSizeEth: 5}}
	s := NewServer(eval, nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/arbitrage-opportunity?trade_size_eth=5", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	assert.Equal(t, 5.0, eval.lastSize)

	var got orchestrator.ArbitrageReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 5.0, got.TradeSizeEth)
}

func TestHandleArbitrageOpportunity_MalformedSize(t *testing.T) {
	eval := &fakeEvaluator{}
	s := NewServer(eval, nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/arbitrage-opportunity?trade_size_eth=not-a-number", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestHandleArbitrageOpportunity_NegativeSize(t *testing.T) {
	eval := &fakeEvaluator{}
	s := NewServer(eval, nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/arbitrage-opportunity?trade_size_eth=-1", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestHandleArbitrageOpportunity_ClampsAboveMax(t *testing.T) {
	eval := &fakeEvaluator{report: &orchestrator.ArbitrageReport{}}
	s := NewServer(eval, nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/arbitrage-opportunity?trade_size_eth=999999", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	assert.Equal(t, 10000.0, eval.lastSize)
}

func TestHandleArbitrageOpportunity_EvaluatorErrorMapsStatus(t *testing.T) {
	eval := &fakeEvaluator{err: apierrors.New(apierrors.KindDeadlineExceeded, "too slow")}
	s := NewServer(eval, nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/arbitrage-opportunity?trade_size_eth=1", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, 504, w.Code)
}

func TestHandleReady_ProbeFailureIsServiceUnavailable(t *testing.T) {
	eval := &fakeEvaluator{}
	failing := func(ctx context.Context) error { return apierrors.New(apierrors.KindRpcFailure, "down") }
	s := NewServer(eval, []ReadinessProbe{failing}, nil)

	req := httptest.NewRequest("GET", "/readyz", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, 503, w.Code)
}
