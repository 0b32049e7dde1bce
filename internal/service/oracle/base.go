package oracle

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"StockOracle/internal/domain/repository"
	"StockOracle/internal/service/ratelimit"
	xhttp "StockOracle/pkg/http"
)

const limiterKey = "oracle"

// httpBase centralises URL building, rate limiting and latency metrics for
// every backend call.
type httpBase struct {
	baseURL string
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	rate    float64
	burst   float64
	metrics repository.Metrics
}

func (b *httpBase) url(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return b.baseURL + "/" + strings.Join(escaped, "/")
}

func (b *httpBase) do(ctx context.Context, endpoint string, opts *xhttp.RequestOptions, dest interface{}) error {
	if b.limiter != nil && b.rate > 0 {
		if err := b.limiter.Wait(ctx, limiterKey, b.burst, b.rate); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	start := time.Now()
	err := b.client.SendAndParse(ctx, opts, dest)
	b.metrics.RecordFetch(endpoint, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s %s: %w", opts.Method, endpoint, err)
	}
	return nil
}

func (b *httpBase) getJSON(ctx context.Context, endpoint, u string, query map[string][]string, dest interface{}) error {
	return b.do(ctx, endpoint, &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: u, QueryParams: query}, dest)
}

func (b *httpBase) postJSON(ctx context.Context, endpoint, u string, payload, dest interface{}) error {
	return b.do(ctx, endpoint, &xhttp.RequestOptions{Method: xhttp.MethodPost, URL: u, Body: payload}, dest)
}

func (b *httpBase) delete(ctx context.Context, endpoint, u string) error {
	return b.do(ctx, endpoint, &xhttp.RequestOptions{Method: xhttp.MethodDelete, URL: u}, nil)
}
