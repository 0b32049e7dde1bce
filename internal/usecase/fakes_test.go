package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"StockOracle/internal/domain/models"
	"StockOracle/internal/domain/repository"
	"StockOracle/pkg/metrics"

	"github.com/shopspring/decimal"
)

var errBackend = errors.New("backend unavailable")

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func history(closes ...string) []models.PricePoint {
	out := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		out[i] = models.PricePoint{Timestamp: day(i + 1), Close: dec(c)}
	}
	return out
}

// forecastAfter returns points on the days following a history of n bars.
func forecastAfter(n int, preds ...string) []models.ForecastPoint {
	out := make([]models.ForecastPoint, len(preds))
	for i, p := range preds {
		out[i] = models.ForecastPoint{Timestamp: day(n + i + 1), PredictedClose: dec(p)}
	}
	return out
}

type fakeMarket struct {
	mu        sync.Mutex
	history   map[string][]models.PricePoint
	forecast  map[string][]models.ForecastPoint
	news      map[string][]models.NewsItem
	valid     map[string]bool
	failHist  map[string]bool
	failPred  map[string]bool
	periods   []repository.Period
	newsCalls int
	gate      map[string]chan struct{} // blocks History until closed
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		history:  map[string][]models.PricePoint{},
		forecast: map[string][]models.ForecastPoint{},
		news:     map[string][]models.NewsItem{},
		valid:    map[string]bool{},
		failHist: map[string]bool{},
		failPred: map[string]bool{},
		gate:     map[string]chan struct{}{},
	}
}

func (m *fakeMarket) History(ctx context.Context, ticker string, period repository.Period) (*models.StockData, error) {
	m.mu.Lock()
	gate := m.gate[ticker]
	m.periods = append(m.periods, period)
	fail := m.failHist[ticker]
	h := m.history[ticker]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, fmt.Errorf("%w: %w", models.ErrFetchFailure, errBackend)
	}
	return &models.StockData{Ticker: ticker, History: h, LastRefreshed: "2024-01-31"}, nil
}

func (m *fakeMarket) Predict(_ context.Context, ticker string, days int) (*models.Forecast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPred[ticker] {
		return nil, fmt.Errorf("%w: %w", models.ErrFetchFailure, errBackend)
	}
	pts := m.forecast[ticker]
	if len(pts) > days {
		pts = pts[:days]
	}
	return &models.Forecast{Ticker: ticker, Model: "LinearRegression_Baseline", Points: pts, FetchedAt: day(28)}, nil
}

func (m *fakeMarket) News(_ context.Context, ticker string) ([]models.NewsItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.newsCalls++
	return m.news[ticker], nil
}

func (m *fakeMarket) Validate(_ context.Context, ticker string) (*models.TickerInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.valid[ticker] {
		return nil, fmt.Errorf("%w: ticker %s not found", models.ErrValidationFailure, ticker)
	}
	return &models.TickerInfo{Ticker: ticker, Name: ticker + " Inc."}, nil
}

func (m *fakeMarket) lastPeriod() repository.Period {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.periods) == 0 {
		return ""
	}
	return m.periods[len(m.periods)-1]
}

type memStore struct {
	mu        sync.Mutex
	records   map[string]models.AlertConfig
	failSave  error
	failGet   error
	getGate   map[string]chan struct{}
	saves     int
	deletions int
}

func newMemStore() *memStore {
	return &memStore{records: map[string]models.AlertConfig{}, getGate: map[string]chan struct{}{}}
}

func (s *memStore) Get(ctx context.Context, ticker string) (*models.AlertConfig, error) {
	s.mu.Lock()
	gate := s.getGate[ticker]
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return nil, s.failGet
	}
	cfg, ok := s.records[ticker]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (s *memStore) Save(_ context.Context, cfg models.AlertConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	s.saves++
	s.records[cfg.Ticker] = cfg
	return nil
}

func (s *memStore) Delete(_ context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	s.deletions++
	delete(s.records, ticker)
	return nil
}

type recordingObserver struct {
	mu     sync.Mutex
	events []models.AlertEvent
}

func (o *recordingObserver) OnAlert(_ context.Context, ev models.AlertEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

func (o *recordingObserver) snapshot() []models.AlertEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.AlertEvent, len(o.events))
	copy(out, o.events)
	return out
}

type countingMetrics struct {
	metrics.Nop
	mu          sync.Mutex
	persistFail map[string]int
	stale       map[string]int
	rendered    int
	omitted     int
	bands       map[string][3]float64
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{persistFail: map[string]int{}, stale: map[string]int{}, bands: map[string][3]float64{}}
}

func (m *countingMetrics) RecordPersistenceFailure(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistFail[op]++
}

func (m *countingMetrics) RecordStaleResponse(view string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stale[view]++
}

func (m *countingMetrics) RecordDashboardTiles(rendered, omitted int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rendered, m.omitted = rendered, omitted
}

func (m *countingMetrics) SetAlertBand(ticker string, buy, sell float64, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := 0.0
	if active {
		a = 1
	}
	m.bands[ticker] = [3]float64{buy, sell, a}
}

type memPredictionLog struct {
	mu      sync.Mutex
	records []*models.Forecast
	preds   []models.LoggedPrediction
	err     error
}

func (l *memPredictionLog) Record(_ context.Context, f *models.Forecast) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, f)
	return l.err
}

func (l *memPredictionLog) Predictions(_ context.Context, ticker string, from, to time.Time) ([]models.LoggedPrediction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	var out []models.LoggedPrediction
	for _, p := range l.preds {
		if p.Ticker == ticker && !p.TargetDate.Before(from) && !p.TargetDate.After(to) {
			out = append(out, p)
		}
	}
	return out, nil
}
