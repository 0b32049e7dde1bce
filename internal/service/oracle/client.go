package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"StockOracle/internal/domain/models"
	"StockOracle/internal/domain/repository"
	"StockOracle/internal/service/ratelimit"
	"StockOracle/pkg/cache"
	xhttp "StockOracle/pkg/http"
	applogger "StockOracle/pkg/logger"
	"StockOracle/pkg/metrics"
	"StockOracle/pkg/util"
)

// Option configures Client.
type Option func(*Client)

// Client talks to the market backend. Reads of history, news and ticker
// validation go through the response cache; forecasts and alerts never do.
type Client struct {
	httpBase
	cache       cache.Service
	historyTTL  time.Duration
	newsTTL     time.Duration
	validateTTL time.Duration
	logger      *applogger.Logger
	now         func() time.Time
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpBase: httpBase{
			baseURL: strings.TrimRight(baseURL, "/"),
			client:  xhttp.NewClient(),
			metrics: metrics.Nop{},
		},
		logger: applogger.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithCache enables response caching with per-endpoint TTLs; a zero TTL
// disables caching for that endpoint.
func WithCache(svc cache.Service, history, news, validate time.Duration) Option {
	return func(c *Client) {
		c.cache = svc
		c.historyTTL = history
		c.newsTTL = news
		c.validateTTL = validate
	}
}

// WithRateLimit caps outgoing requests at rate per second with the given burst.
func WithRateLimit(l *ratelimit.Limiter, rate, burst float64) Option {
	return func(c *Client) {
		c.limiter = l
		c.rate = rate
		c.burst = burst
	}
}

func WithMetrics(m repository.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.logger = l.Component("oracle") }
}

func (c *Client) History(ctx context.Context, ticker string, period repository.Period) (*models.StockData, error) {
	ticker = util.NormalizeTicker(ticker)
	key := cache.Key("stock", ticker, string(period))

	resp, err := cache.GetOrLoad(ctx, c.cache, key, c.historyTTL, func(ctx context.Context) (*stockResponse, error) {
		var out stockResponse
		err := c.getJSON(ctx, "stock", c.url("stock", ticker), map[string][]string{"period": {string(period)}}, &out)
		return &out, err
	})
	if err != nil {
		c.logger.Warn("history fetch failed", applogger.Ticker(ticker), applogger.String("period", string(period)), applogger.Error(err))
		return nil, fmt.Errorf("%w: history %s: %w", models.ErrFetchFailure, ticker, err)
	}

	data, err := resp.toStockData(ticker)
	if err != nil {
		return nil, fmt.Errorf("%w: history %s: %w", models.ErrFetchFailure, ticker, err)
	}
	return data, nil
}

func (c *Client) Predict(ctx context.Context, ticker string, days int) (*models.Forecast, error) {
	ticker = util.NormalizeTicker(ticker)

	var resp predictResponse
	if err := c.postJSON(ctx, "predict", c.url("predict"), predictRequest{Ticker: ticker, Days: days}, &resp); err != nil {
		return nil, fmt.Errorf("%w: predict %s: %w", models.ErrFetchFailure, ticker, err)
	}

	f, err := resp.toForecast(ticker, c.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: predict %s: %w", models.ErrFetchFailure, ticker, err)
	}
	return f, nil
}

func (c *Client) News(ctx context.Context, ticker string) ([]models.NewsItem, error) {
	ticker = util.NormalizeTicker(ticker)
	key := cache.Key("news", ticker)

	items, err := cache.GetOrLoad(ctx, c.cache, key, c.newsTTL, func(ctx context.Context) ([]models.NewsItem, error) {
		var out []models.NewsItem
		err := c.getJSON(ctx, "news", c.url("news", ticker), nil, &out)
		return out, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: news %s: %w", models.ErrFetchFailure, ticker, err)
	}
	if items == nil {
		items = []models.NewsItem{}
	}
	return items, nil
}

// Accuracy reads the backend's own accuracy figure.
func (c *Client) Accuracy(ctx context.Context, ticker string) (*models.Accuracy, error) {
	ticker = util.NormalizeTicker(ticker)

	var resp accuracyResponse
	if err := c.getJSON(ctx, "accuracy", c.url("accuracy", ticker), nil, &resp); err != nil {
		return nil, fmt.Errorf("%w: accuracy %s: %w", models.ErrFetchFailure, ticker, err)
	}
	return resp.toAccuracy(ticker), nil
}

// Validate resolves a symbol. A 404 means the ticker does not exist and is
// reported as ErrValidationFailure; anything else is a fetch failure.
func (c *Client) Validate(ctx context.Context, ticker string) (*models.TickerInfo, error) {
	ticker = util.NormalizeTicker(ticker)
	key := cache.Key("validate", ticker)

	resp, err := cache.GetOrLoad(ctx, c.cache, key, c.validateTTL, func(ctx context.Context) (*validateResponse, error) {
		var out validateResponse
		err := c.getJSON(ctx, "validate", c.url("validate", ticker), nil, &out)
		return &out, err
	})
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: ticker %s not found", models.ErrValidationFailure, ticker)
		}
		return nil, fmt.Errorf("%w: validate %s: %w", models.ErrFetchFailure, ticker, err)
	}
	return resp.toTickerInfo(), nil
}

// Alerts returns an AlertStore backed by the same backend.
func (c *Client) Alerts() *AlertsClient {
	return &AlertsClient{base: &c.httpBase}
}

// AlertsClient implements repository.AlertStore over the backend's /alerts
// endpoints. Errors are returned unclassified; the alert engine decides
// whether a failure is a fetch or a persistence failure.
type AlertsClient struct {
	base *httpBase
}

func (a *AlertsClient) Get(ctx context.Context, ticker string) (*models.AlertConfig, error) {
	var resp alertPayload
	if err := a.base.getJSON(ctx, "alerts_get", a.base.url("alerts", util.NormalizeTicker(ticker)), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toAlertConfig(), nil
}

func (a *AlertsClient) Save(ctx context.Context, cfg models.AlertConfig) error {
	return a.base.postJSON(ctx, "alerts_save", a.base.url("alerts"), newAlertPayload(cfg), nil)
}

func (a *AlertsClient) Delete(ctx context.Context, ticker string) error {
	return a.base.delete(ctx, "alerts_delete", a.base.url("alerts", util.NormalizeTicker(ticker)))
}
