package series

import (
	"math/rand"
	"testing"
	"time"

	"StockOracle/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func hist(closes ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		out[i] = models.PricePoint{Timestamp: day(i + 1), Close: decimal.NewFromFloat(c)}
	}
	return out
}

func fc(startDay int, preds ...float64) []models.ForecastPoint {
	out := make([]models.ForecastPoint, len(preds))
	for i, p := range preds {
		out[i] = models.ForecastPoint{Timestamp: day(startDay + i), PredictedClose: decimal.NewFromFloat(p)}
	}
	return out
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestMergeDropsForecastAtOrBeforeBoundary(t *testing.T) {
	history := hist(100, 105)        // d1, d2
	forecast := fc(1, 101, 106, 110) // d1, d2, d3

	merged, err := Merge(history, forecast)
	require.NoError(t, err)
	require.Len(t, merged, 3)

	assert.True(t, merged[0].Close.Equal(dec(100)))
	assert.Nil(t, merged[0].Predicted)

	assert.True(t, merged[1].Close.Equal(dec(105)))
	require.NotNil(t, merged[1].Predicted, "boundary joins the forecast line")
	assert.True(t, merged[1].Predicted.Equal(dec(105)))

	assert.True(t, merged[2].IsForecast())
	assert.Equal(t, day(3), merged[2].Timestamp)
	assert.True(t, merged[2].Predicted.Equal(dec(110)))
}

func TestMergeWithEmptyForecastEqualsHistory(t *testing.T) {
	vol := int64(42)
	history := hist(10, 11, 12)
	history[1].Volume = &vol

	merged, err := Merge(history, nil)
	require.NoError(t, err)
	require.Len(t, merged, len(history))
	for i, e := range merged {
		assert.Equal(t, history[i].Timestamp, e.Timestamp)
		assert.True(t, e.Close.Equal(history[i].Close))
		assert.Nil(t, e.Predicted)
	}
	assert.Equal(t, int64(42), *merged[1].Volume)
}

func TestMergeUnsortedForecastStaysChronological(t *testing.T) {
	history := hist(100, 105) // d1, d2
	forecast := []models.ForecastPoint{
		{Timestamp: day(4), PredictedClose: dec(108)},
		{Timestamp: day(3), PredictedClose: dec(107)}, // behind d4
		{Timestamp: day(4), PredictedClose: dec(109)}, // repeats d4
		{Timestamp: day(6), PredictedClose: dec(111)},
		{Timestamp: day(5), PredictedClose: dec(110)}, // behind d6
	}

	merged, err := Merge(history, forecast)
	require.NoError(t, err)
	require.Len(t, merged, 4)

	assert.Equal(t, day(4), merged[2].Timestamp)
	assert.True(t, merged[2].Predicted.Equal(dec(108)))
	assert.Equal(t, day(6), merged[3].Timestamp)
	assert.True(t, merged[3].Predicted.Equal(dec(111)))
	for i := 1; i < len(merged); i++ {
		assert.False(t, merged[i].Timestamp.Before(merged[i-1].Timestamp))
	}
	assert.Equal(t, day(4), forecast[0].Timestamp, "input untouched")
	assert.Equal(t, day(3), forecast[1].Timestamp, "input untouched")
}

func TestMergeEmptyHistory(t *testing.T) {
	_, err := Merge(nil, fc(1, 1))
	assert.ErrorIs(t, err, models.ErrEmptyHistory)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	history := hist(1, 2)
	forecast := fc(3, 5)

	merged, err := Merge(history, forecast)
	require.NoError(t, err)

	*merged[0].Close = dec(999)
	*merged[2].Predicted = dec(999)
	assert.True(t, history[0].Close.Equal(dec(1)))
	assert.True(t, forecast[0].PredictedClose.Equal(dec(5)))
}

func TestMergeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 200; iter++ {
		history := make([]models.PricePoint, 1+rng.Intn(20))
		for i := range history {
			history[i] = models.PricePoint{Timestamp: day(i), Close: decimal.NewFromInt(int64(rng.Intn(500) + 1))}
		}
		forecast := make([]models.ForecastPoint, rng.Intn(20))
		for i := range forecast {
			forecast[i] = models.ForecastPoint{Timestamp: day(rng.Intn(50) - 5), PredictedClose: decimal.NewFromInt(int64(rng.Intn(500)))}
		}

		merged, err := Merge(history, forecast)
		require.NoError(t, err)

		lastHist := history[len(history)-1].Timestamp
		require.GreaterOrEqual(t, len(merged), len(history))
		for i, e := range merged {
			if i > 0 {
				assert.False(t, e.Timestamp.Before(merged[i-1].Timestamp), "timestamps non-decreasing")
			}
			if i < len(history) {
				assert.True(t, e.Close.Equal(history[i].Close), "history prefix preserved")
				continue
			}
			assert.True(t, e.IsForecast())
			assert.True(t, e.Timestamp.After(lastHist), "forecast only after boundary")
		}
	}
}

func TestClassify(t *testing.T) {
	merged, err := Merge(hist(100, 105), fc(1, 101, 106, 110))
	require.NoError(t, err)

	trend := Classify(merged)
	assert.True(t, trend.IsUp)
	assert.Equal(t, models.ColorUp, trend.ColorRole)
}

func TestClassifyDown(t *testing.T) {
	merged, err := Merge(hist(100, 105), fc(3, 99))
	require.NoError(t, err)

	trend := Classify(merged)
	assert.False(t, trend.IsUp)
	assert.Equal(t, models.ColorDown, trend.ColorRole)
}

func TestClassifyTiesAndEmptyAreUp(t *testing.T) {
	merged, err := Merge(hist(100, 90, 100), nil)
	require.NoError(t, err)
	assert.True(t, Classify(merged).IsUp)

	assert.True(t, Classify(nil).IsUp)
}

func TestClassifyUsesPredictedOnLastEntry(t *testing.T) {
	// history alone is down; the forecast tail lifts it
	merged, err := Merge(hist(100, 80), fc(3, 120))
	require.NoError(t, err)
	assert.True(t, Classify(merged).IsUp)
}

func TestClassifyIsIdempotent(t *testing.T) {
	for _, merged := range []models.MergedSeries{
		mustMerge(t, hist(100, 105), fc(1, 101, 106, 110)),
		mustMerge(t, hist(100, 105), fc(3, 99)),
		mustMerge(t, hist(50), nil),
		nil,
	} {
		first := Classify(merged)
		assert.Equal(t, first, Classify(merged))
	}
}

func mustMerge(t *testing.T, history []models.PricePoint, forecast []models.ForecastPoint) models.MergedSeries {
	t.Helper()
	merged, err := Merge(history, forecast)
	require.NoError(t, err)
	return merged
}

func TestForecastDirection(t *testing.T) {
	history := hist(100, 105)

	assert.True(t, ForecastDirection(history, fc(1, 101, 106, 110)).IsUp)
	assert.False(t, ForecastDirection(history, fc(3, 104.99)).IsUp)
	assert.True(t, ForecastDirection(history, fc(3, 105)).IsUp, "tie is up")
	assert.True(t, ForecastDirection(history, nil).IsUp, "no forecast defaults to last close")
}

func TestChangePercent(t *testing.T) {
	pct, ok := ChangePercent(dec(200), dec(210))
	require.True(t, ok)
	assert.True(t, pct.Equal(dec(5)), pct.String())

	pct, ok = ChangePercent(dec(3), dec(2))
	require.True(t, ok)
	assert.True(t, pct.Equal(dec(-33.33)), pct.String())

	_, ok = ChangePercent(decimal.Zero, dec(1))
	assert.False(t, ok)
}

func TestCloses(t *testing.T) {
	got := Closes(hist(1, 2, 3))
	require.Len(t, got, 3)
	assert.True(t, got[2].Equal(dec(3)))
}
