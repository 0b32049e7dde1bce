package usecase

import (
	"context"
	"testing"
	"time"

	"StockOracle/internal/domain/models"
	"StockOracle/internal/domain/repository"
	applogger "StockOracle/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedAccuracy struct{}

func (fixedAccuracy) Accuracy(_ context.Context, ticker string) (*models.Accuracy, error) {
	return &models.Accuracy{Ticker: ticker, MeanAbsoluteError: dec("1.25"), PredictionsCount: 12}, nil
}

func newTestChart(t *testing.T, opts ...ChartOption) (*ChartView, *fakeMarket, *memStore, *countingMetrics) {
	t.Helper()
	md := newFakeMarket()
	md.history["AAPL"] = history("100", "102", "101", "105")
	md.forecast["AAPL"] = forecastAfter(4, "106", "108")
	md.news["AAPL"] = []models.NewsItem{{Title: "Apple beats estimates", Publisher: "Wire"}}
	md.history["SPY"] = history("470", "468")
	md.forecast["SPY"] = forecastAfter(2, "466")

	store := newMemStore()
	m := newCountingMetrics()
	engine := NewAlertEngine(store, m, applogger.Nop())
	opts = append([]ChartOption{WithAccuracySource(fixedAccuracy{})}, opts...)
	return NewChartView(md, engine, m, applogger.Nop(), opts...), md, store, m
}

func TestChartSelectInstrument(t *testing.T) {
	v, md, store, _ := newTestChart(t)
	store.records["AAPL"] = models.AlertConfig{Ticker: "AAPL", ReferencePrice: dec("100"), Threshold: dec("15"), IsActive: true}

	st, err := v.SelectInstrument(context.Background(), "aapl")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", st.Ticker)
	assert.Equal(t, "1W", st.Range)
	assert.Equal(t, repository.Period5d, md.lastPeriod())
	require.Len(t, st.Series, 6)
	assert.NotNil(t, st.Series[3].Close)
	require.NotNil(t, st.Series[3].Predicted)
	assert.True(t, st.Series[3].Predicted.Equal(dec("105")))
	assert.True(t, st.Series[5].IsForecast())
	assert.True(t, st.Trend.IsUp)
	assert.Equal(t, models.ColorUp, st.Trend.ColorRole)
	assert.True(t, st.ForecastTrend.IsUp)
	assert.Equal(t, "LinearRegression_Baseline", st.Model)
	require.NotNil(t, st.LastClose)
	assert.True(t, st.LastClose.Equal(dec("105")))

	require.Len(t, st.News, 1)
	require.NotNil(t, st.Accuracy)
	assert.Equal(t, 12, st.Accuracy.PredictionsCount)

	require.NotNil(t, st.Alert)
	require.NotNil(t, st.Targets)
	assert.True(t, st.Targets.Sell.Equal(dec("115")))
	assert.True(t, st.Targets.Buy.Equal(dec("85")))
}

func TestChartSelectRangeReloadsSeriesOnly(t *testing.T) {
	v, md, _, _ := newTestChart(t)
	ctx := context.Background()

	_, err := v.SelectRange(ctx, "1M")
	assert.ErrorIs(t, err, models.ErrNoInstrument)

	_, err = v.SelectInstrument(ctx, "AAPL")
	require.NoError(t, err)

	st, err := v.SelectRange(ctx, "3m")
	require.NoError(t, err)
	assert.Equal(t, "3M", st.Range)
	assert.Equal(t, "3mo", st.Period)
	assert.Equal(t, repository.Period3mo, md.lastPeriod())
	assert.Len(t, st.News, 1)
	assert.Equal(t, 1, md.newsCalls)

	st, err = v.SelectRange(ctx, "5Y")
	require.NoError(t, err)
	assert.Equal(t, "1Y", st.Range)
	assert.Equal(t, repository.Period1y, md.lastPeriod())
}

func TestChartForecastFailureShowsHistoryOnly(t *testing.T) {
	v, md, _, _ := newTestChart(t)
	md.failPred["AAPL"] = true

	st, err := v.SelectInstrument(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, st.Series, 4)
	for _, e := range st.Series {
		assert.Nil(t, e.Predicted)
	}
	assert.True(t, st.ForecastTrend.IsUp)
}

func TestChartHistoryFailure(t *testing.T) {
	v, md, _, _ := newTestChart(t)
	md.failHist["AAPL"] = true

	_, err := v.SelectInstrument(context.Background(), "AAPL")
	assert.ErrorIs(t, err, models.ErrFetchFailure)

	_, err = v.SelectInstrument(context.Background(), "   ")
	assert.ErrorIs(t, err, models.ErrValidationFailure)
}

func TestChartDownTrend(t *testing.T) {
	v, _, _, _ := newTestChart(t)

	st, err := v.SelectInstrument(context.Background(), "SPY")
	require.NoError(t, err)
	assert.False(t, st.Trend.IsUp)
	assert.Equal(t, models.ColorDown, st.Trend.ColorRole)
	assert.False(t, st.ForecastTrend.IsUp)
	assert.Nil(t, st.Alert)
	assert.Nil(t, st.Targets)
}

func TestChartStaleSelectionIsDiscarded(t *testing.T) {
	v, md, _, m := newTestChart(t)
	ctx := context.Background()
	gate := make(chan struct{})
	md.gate["AAPL"] = gate

	done := make(chan error, 1)
	go func() {
		_, err := v.SelectInstrument(ctx, "AAPL")
		done <- err
	}()
	require.Eventually(t, func() bool { return v.Ticker() == "AAPL" }, time.Second, 5*time.Millisecond)

	st, err := v.SelectInstrument(ctx, "SPY")
	require.NoError(t, err)
	assert.Equal(t, "SPY", st.Ticker)
	close(gate)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, models.ErrStaleResponse)
	case <-time.After(time.Second):
		t.Fatal("stale selection did not return")
	}

	cur, err := v.State()
	require.NoError(t, err)
	assert.Equal(t, "SPY", cur.Ticker)
	assert.Len(t, cur.Series, 3)
	assert.Equal(t, 1, m.stale["chart"])
}

func TestChartRangeChangeDuringSelectionKeepsNewsAndAccuracy(t *testing.T) {
	v, md, _, m := newTestChart(t)
	ctx := context.Background()
	gate := make(chan struct{})
	md.gate["AAPL"] = gate

	done := make(chan error, 1)
	go func() {
		_, err := v.SelectInstrument(ctx, "AAPL")
		done <- err
	}()
	// wait until the selection's history request holds the gate, then let
	// later requests through
	require.Eventually(t, func() bool {
		md.mu.Lock()
		defer md.mu.Unlock()
		return len(md.periods) == 1
	}, time.Second, 5*time.Millisecond)
	md.mu.Lock()
	delete(md.gate, "AAPL")
	md.mu.Unlock()

	st, err := v.SelectRange(ctx, "1M")
	require.NoError(t, err)
	assert.Equal(t, "1M", st.Range)
	close(gate)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, models.ErrStaleResponse)
	case <-time.After(time.Second):
		t.Fatal("selection did not return")
	}

	cur, err := v.State()
	require.NoError(t, err)
	assert.Equal(t, "AAPL", cur.Ticker)
	assert.Equal(t, "1M", cur.Range)
	assert.Equal(t, "1mo", cur.Period)
	require.Len(t, cur.News, 1)
	require.NotNil(t, cur.Accuracy)
	assert.Equal(t, 12, cur.Accuracy.PredictionsCount)
	assert.Equal(t, 1, m.stale["chart"])
}

func TestChartRecordsForecasts(t *testing.T) {
	log := &memPredictionLog{}
	v, _, _, _ := newTestChart(t, WithPredictionLog(log))

	_, err := v.SelectInstrument(context.Background(), "AAPL")
	require.NoError(t, err)

	log.mu.Lock()
	defer log.mu.Unlock()
	require.Len(t, log.records, 1)
	assert.Equal(t, "AAPL", log.records[0].Ticker)
	assert.Len(t, log.records[0].Points, 2)
}
