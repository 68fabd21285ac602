// Package refprice implements the reference-price client (component C5): a
// single cache-free pull of ETH/USD from a named external spot source, used
// as the bridge-size anchor. A hard dependency — on failure the whole
// request fails with ReferencePriceUnavailable, per spec.md §4.5.
package refprice

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/arbedge/quoteengine/internal/apierrors"
)

// Client pulls a single ETH/USD spot price from a configured HTTP source.
type Client interface {
	SpotPriceUsd(ctx context.Context) (float64, error)
}

// HTTPClient is the production Client, hitting one named REST endpoint and
// parsing a JSON field from the response.
type HTTPClient struct {
	endpoint   string
	priceField string
	httpClient *http.Client
}

// NewHTTPClient builds a reference-price client against endpoint, reading
// priceField from the top-level JSON object in the response body.
func NewHTTPClient(endpoint, priceField string) *HTTPClient {
	return &HTTPClient{
		endpoint:   endpoint,
		priceField: priceField,
		httpClient: &http.Client{Timeout: 8 * time.Second},
	}
}

func (c *HTTPClient) SpotPriceUsd(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return 0, apierrors.Wrap(apierrors.KindReferencePriceUnavailable, "failed to build reference price request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, apierrors.Wrap(apierrors.KindReferencePriceUnavailable, "reference price request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, apierrors.New(apierrors.KindReferencePriceUnavailable, "reference price source returned a non-200 status")
	}

	var body map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, apierrors.Wrap(apierrors.KindReferencePriceUnavailable, "failed to decode reference price response", err)
	}

	price, ok := body[c.priceField]
	if !ok || price <= 0 {
		return 0, apierrors.New(apierrors.KindReferencePriceUnavailable, "reference price field missing or non-positive")
	}
	return price, nil
}

var _ Client = (*HTTPClient)(nil)

// FakeClient is an in-memory Client double for tests.
type FakeClient struct {
	Price float64
	Err   error
}

func (f *FakeClient) SpotPriceUsd(ctx context.Context) (float64, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return f.Price, nil
}

var _ Client = (*FakeClient)(nil)
