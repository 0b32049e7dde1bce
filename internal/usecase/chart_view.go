package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"StockOracle/internal/domain/models"
	"StockOracle/internal/domain/repository"
	"StockOracle/internal/domain/service"
	"StockOracle/internal/services/series"
	applogger "StockOracle/pkg/logger"
	"StockOracle/pkg/util"

	"golang.org/x/sync/errgroup"
)

// headerInfoKeys are the backend info fields passed through to the header.
var headerInfoKeys = []string{"shortName", "longName", "currency", "marketCap", "trailingPE", "fiftyTwoWeekHigh", "fiftyTwoWeekLow"}

type ChartOption func(*ChartView)

// WithAccuracySource overrides where accuracy figures come from.
func WithAccuracySource(src service.AccuracySource) ChartOption {
	return func(v *ChartView) { v.accuracy = src }
}

// WithPredictionLog records every fetched forecast.
func WithPredictionLog(log repository.PredictionLog) ChartOption {
	return func(v *ChartView) { v.predictions = log }
}

func WithDefaultRange(r repository.UIRange) ChartOption {
	return func(v *ChartView) { v.defaultRange = r }
}

func WithForecastDays(days int) ChartOption {
	return func(v *ChartView) {
		if days > 0 {
			v.forecastDays = days
		}
	}
}

// ChartView holds the detail view of the selected instrument. Every selection
// bumps gen; series results of a superseded selection are discarded. igen
// moves only with the instrument, so news and accuracy survive a range change
// that overtakes the instrument load.
type ChartView struct {
	md          service.MarketData
	accuracy    service.AccuracySource
	predictions repository.PredictionLog
	alerts      *AlertEngine
	metrics     repository.Metrics
	l           *applogger.Logger
	now         func() time.Time

	defaultRange repository.UIRange
	forecastDays int

	mu       sync.RWMutex
	gen      uint64
	igen     uint64
	ticker   string
	rng      repository.UIRange
	period   repository.Period
	stock    *models.StockData
	forecast *models.Forecast
	merged   models.MergedSeries
	aux      auxState
}

// auxState is news and accuracy, which only change with the instrument.
type auxState struct {
	ticker   string
	news     []models.NewsItem
	accuracy *models.Accuracy
}

type seriesResult struct {
	stock    *models.StockData
	forecast *models.Forecast
	merged   models.MergedSeries
}

// NewChartView builds a view over md. Accuracy defaults to md itself when it
// implements AccuracySource.
func NewChartView(md service.MarketData, alerts *AlertEngine, m repository.Metrics, l *applogger.Logger, opts ...ChartOption) *ChartView {
	v := &ChartView{
		md:           md,
		alerts:       alerts,
		metrics:      m,
		l:            l.Component("chart"),
		now:          time.Now,
		defaultRange: repository.Range1W,
		forecastDays: 30,
	}
	if src, ok := md.(service.AccuracySource); ok {
		v.accuracy = src
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SelectInstrument switches to ticker at the default range and loads series,
// news, accuracy and the alert together.
func (v *ChartView) SelectInstrument(ctx context.Context, ticker string) (*models.ChartState, error) {
	ticker = util.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("%w: empty ticker", models.ErrValidationFailure)
	}
	rng := v.defaultRange
	period := repository.SelectRange(string(rng))

	v.mu.Lock()
	v.gen++
	v.igen++
	gen, igen := v.gen, v.igen
	v.ticker, v.rng, v.period = ticker, rng, period
	v.stock, v.forecast, v.merged = nil, nil, nil
	v.aux = auxState{ticker: ticker}
	v.mu.Unlock()

	var (
		res       *seriesResult
		seriesErr error
		aux       = auxState{ticker: ticker}
		g         errgroup.Group
	)
	g.Go(func() error {
		res, seriesErr = v.loadSeries(ctx, ticker, period)
		return nil
	})
	g.Go(func() error {
		news, err := v.md.News(ctx, ticker)
		if err != nil {
			v.l.Warn("news unavailable", applogger.Ticker(ticker), applogger.Error(err))
			return nil
		}
		aux.news = news
		return nil
	})
	if v.accuracy != nil {
		g.Go(func() error {
			acc, err := v.accuracy.Accuracy(ctx, ticker)
			if err != nil {
				v.l.Warn("accuracy unavailable", applogger.Ticker(ticker), applogger.Error(err))
				return nil
			}
			aux.accuracy = acc
			return nil
		})
	}
	if v.alerts != nil {
		g.Go(func() error {
			// Failures leave the engine without an alert; stale loads are
			// superseded by the newer selection's own load.
			if err := v.alerts.LoadForInstrument(ctx, ticker); err != nil && !errors.Is(err, models.ErrStaleResponse) {
				v.l.Warn("alert unavailable", applogger.Ticker(ticker), applogger.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.igen == igen {
		v.aux = aux
	}
	if v.gen != gen {
		v.metrics.RecordStaleResponse("chart")
		return nil, models.ErrStaleResponse
	}
	if seriesErr != nil {
		return nil, seriesErr
	}
	v.applyLocked(res)
	return v.stateLocked(), nil
}

// SelectRange reloads history and forecast of the current instrument for the
// given range. Unknown ranges fall back to one year. News, accuracy and the
// alert are left alone.
func (v *ChartView) SelectRange(ctx context.Context, raw string) (*models.ChartState, error) {
	rng, ok := repository.NormalizeRange(raw)
	if !ok {
		rng = repository.Range1Y
	}
	period := repository.SelectRange(raw)

	v.mu.Lock()
	if v.ticker == "" {
		v.mu.Unlock()
		return nil, models.ErrNoInstrument
	}
	v.gen++
	gen := v.gen
	ticker := v.ticker
	v.rng, v.period = rng, period
	v.mu.Unlock()

	res, err := v.loadSeries(ctx, ticker, period)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen != gen {
		v.metrics.RecordStaleResponse("chart")
		return nil, models.ErrStaleResponse
	}
	if err != nil {
		return nil, err
	}
	v.applyLocked(res)
	return v.stateLocked(), nil
}

// State renders the current view. Alert targets are derived on every call.
func (v *ChartView) State() (*models.ChartState, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.ticker == "" {
		return nil, models.ErrNoInstrument
	}
	return v.stateLocked(), nil
}

// Ticker returns the selected instrument, empty before the first selection.
func (v *ChartView) Ticker() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.ticker
}

// LastClose is the most recent confirmed close of the selected instrument.
func (v *ChartView) LastClose() (models.PricePoint, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stock.Last()
}

// loadSeries fetches history and forecast concurrently and merges them on
// history's boundary. A failed forecast degrades to history alone.
func (v *ChartView) loadSeries(ctx context.Context, ticker string, period repository.Period) (*seriesResult, error) {
	var (
		stock       *models.StockData
		forecast    *models.Forecast
		forecastErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stock, err = v.md.History(gctx, ticker, period)
		return err
	})
	g.Go(func() error {
		forecast, forecastErr = v.md.Predict(gctx, ticker, v.forecastDays)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var points []models.ForecastPoint
	if forecastErr != nil {
		if !errors.Is(forecastErr, context.Canceled) {
			v.l.Warn("forecast unavailable", applogger.Ticker(ticker), applogger.Error(forecastErr))
		}
		forecast = nil
	} else if forecast != nil {
		points = forecast.Points
		v.record(ctx, forecast)
	}

	merged, err := series.Merge(stock.History, points)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", models.ErrFetchFailure, ticker, period, err)
	}
	return &seriesResult{stock: stock, forecast: forecast, merged: merged}, nil
}

func (v *ChartView) record(ctx context.Context, f *models.Forecast) {
	if v.predictions == nil {
		return
	}
	if err := v.predictions.Record(ctx, f); err != nil {
		v.l.Warn("prediction log write failed", applogger.Ticker(f.Ticker), applogger.Error(err))
	}
}

func (v *ChartView) applyLocked(res *seriesResult) {
	v.stock = res.stock
	v.forecast = res.forecast
	v.merged = res.merged
}

func (v *ChartView) stateLocked() *models.ChartState {
	st := &models.ChartState{
		Ticker:    v.ticker,
		Range:     string(v.rng),
		Period:    string(v.period),
		Series:    v.merged,
		Trend:     series.Classify(v.merged),
		News:      []models.NewsItem{},
		UpdatedAt: v.now().UTC(),
	}
	if st.Series == nil {
		st.Series = models.MergedSeries{}
	}

	var points []models.ForecastPoint
	if v.forecast != nil {
		points = v.forecast.Points
		st.Model = v.forecast.Model
	}
	if v.stock != nil {
		st.ForecastTrend = series.ForecastDirection(v.stock.History, points)
		st.LastRefreshed = v.stock.LastRefreshed
		st.Info = headerInfo(v.stock.Info)
		if last, ok := v.stock.Last(); ok {
			c := last.Close
			st.LastClose = &c
			st.LastVolume = last.Volume
		}
	} else {
		st.ForecastTrend = models.NewTrend(true)
	}

	if v.aux.ticker == v.ticker {
		if v.aux.news != nil {
			st.News = v.aux.news
		}
		st.Accuracy = v.aux.accuracy
	}

	if v.alerts != nil && v.alerts.Ticker() == v.ticker {
		st.Alert = v.alerts.Snapshot()
		if t, ok := v.alerts.Targets(); ok {
			st.Targets = &t
		}
	}
	return st
}

func headerInfo(info map[string]interface{}) map[string]interface{} {
	if len(info) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(headerInfoKeys))
	for _, k := range headerInfoKeys {
		if val, ok := info[k]; ok && val != nil {
			out[k] = val
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
