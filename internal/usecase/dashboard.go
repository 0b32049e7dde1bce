package usecase

import (
	"context"

	"StockOracle/internal/domain/models"
	"StockOracle/internal/domain/repository"
	"StockOracle/internal/domain/service"
	"StockOracle/internal/services/series"
	applogger "StockOracle/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// DashboardAggregator renders one tile per tracked ticker from a short
// history and a short forecast.
type DashboardAggregator struct {
	md           service.MarketData
	metrics      repository.Metrics
	l            *applogger.Logger
	period       repository.Period
	forecastDays int
	concurrency  int
}

func NewDashboardAggregator(md service.MarketData, m repository.Metrics, l *applogger.Logger, period repository.Period, forecastDays, concurrency int) *DashboardAggregator {
	if !repository.IsValidPeriod(period) {
		period = repository.Period1mo
	}
	if forecastDays <= 0 {
		forecastDays = 5
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &DashboardAggregator{
		md:           md,
		metrics:      m,
		l:            l.Component("dashboard"),
		period:       period,
		forecastDays: forecastDays,
		concurrency:  concurrency,
	}
}

// Aggregate fetches every ticker concurrently and returns tiles in input
// order. Tickers that fail or lack data are left out.
func (a *DashboardAggregator) Aggregate(ctx context.Context, tickers []string) []models.Tile {
	slots := make([]*models.Tile, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, t := range tickers {
		g.Go(func() error {
			tile, ok := a.tile(gctx, t)
			if ok {
				slots[i] = &tile
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.Tile, 0, len(tickers))
	for _, t := range slots {
		if t != nil {
			out = append(out, *t)
		}
	}
	a.metrics.RecordDashboardTiles(len(out), len(tickers)-len(out))
	return out
}

func (a *DashboardAggregator) tile(ctx context.Context, ticker string) (models.Tile, bool) {
	stock, err := a.md.History(ctx, ticker, a.period)
	if err != nil {
		a.l.Warn("dashboard history failed", applogger.Ticker(ticker), applogger.Error(err))
		return models.Tile{}, false
	}
	forecast, err := a.md.Predict(ctx, ticker, a.forecastDays)
	if err != nil {
		a.l.Warn("dashboard forecast failed", applogger.Ticker(ticker), applogger.Error(err))
		return models.Tile{}, false
	}

	tile, ok := BuildTile(ticker, stock.History, forecast.Points)
	if !ok {
		a.l.Debug("dashboard tile skipped", applogger.Ticker(ticker),
			applogger.Int("history", len(stock.History)), applogger.Int("forecast", len(forecast.Points)))
	}
	return tile, ok
}

// BuildTile derives a tile. It reports false for empty history or forecast
// and for a zero first close.
func BuildTile(ticker string, history []models.PricePoint, forecast []models.ForecastPoint) (models.Tile, bool) {
	if len(history) == 0 || len(forecast) == 0 {
		return models.Tile{}, false
	}
	first := history[0].Close
	last := history[len(history)-1].Close
	change, ok := series.ChangePercent(first, last)
	if !ok {
		return models.Tile{}, false
	}

	return models.Tile{
		Ticker:    ticker,
		Price:     last,
		ChangePct: change,
		IsUp:      last.GreaterThanOrEqual(first),
		PredIsUp:  series.ForecastDirection(history, forecast).IsUp,
		Sparkline: series.Closes(history),
	}, true
}
