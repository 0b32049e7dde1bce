package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"StockOracle/internal/domain/models"
	"StockOracle/internal/domain/service"
	applogger "StockOracle/pkg/logger"
	"StockOracle/pkg/util"
)

// Session is the state of one dashboard: the tracked tickers in display
// order plus the detail chart and its alert engine.
type Session struct {
	md        service.MarketData
	dashboard *DashboardAggregator
	chart     *ChartView
	alerts    *AlertEngine
	l         *applogger.Logger

	mu      sync.Mutex
	tracked *models.TrackedSet
}

func NewSession(md service.MarketData, dashboard *DashboardAggregator, chart *ChartView, alerts *AlertEngine, l *applogger.Logger, tickers []string) *Session {
	return &Session{
		md:        md,
		dashboard: dashboard,
		chart:     chart,
		alerts:    alerts,
		l:         l.Component("session"),
		tracked:   models.NewTrackedSet(tickers...),
	}
}

func (s *Session) Chart() *ChartView    { return s.chart }
func (s *Session) Alerts() *AlertEngine { return s.alerts }

// Tracked returns the tickers in display order.
func (s *Session) Tracked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracked.Tickers()
}

// Overview renders the dashboard tiles for the tracked set.
func (s *Session) Overview(ctx context.Context) []models.Tile {
	return s.dashboard.Aggregate(ctx, s.Tracked())
}

// AddTicker validates ticker with the backend and appends it. Unknown
// tickers fail with ErrValidationFailure; tracked ones with
// ErrDuplicateTicker.
func (s *Session) AddTicker(ctx context.Context, ticker string) (*models.TickerInfo, error) {
	ticker = util.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: empty ticker", models.ErrValidationFailure)
	}

	s.mu.Lock()
	dup := s.tracked.Contains(ticker)
	s.mu.Unlock()
	if dup {
		return nil, models.ErrDuplicateTicker
	}

	info, err := s.md.Validate(ctx, ticker)
	if err != nil {
		if !errors.Is(err, models.ErrValidationFailure) {
			s.l.Warn("ticker validation failed", applogger.Ticker(ticker), applogger.Error(err))
		}
		return nil, err
	}
	if info.Ticker == "" {
		info.Ticker = ticker
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// The backend may canonicalise the symbol.
	if err := s.tracked.Add(info.Ticker); err != nil {
		return nil, err
	}
	s.l.Info("ticker added", applogger.Ticker(info.Ticker))
	return info, nil
}

func (s *Session) RemoveTicker(ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tracked.Remove(ticker) {
		return models.ErrUnknownTicker
	}
	return nil
}

// Reorder moves the tile at from to position to.
func (s *Session) Reorder(from, to int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.tracked.Move(from, to); err != nil {
		return nil, err
	}
	return s.tracked.Tickers(), nil
}
