package series

import (
	"StockOracle/internal/domain/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Classify compares the first entry's leading value with the last entry's
// trailing value. Ties and empty series are up.
func Classify(s models.MergedSeries) models.Trend {
	if len(s) == 0 {
		return models.NewTrend(true)
	}
	first, _ := s[0].Leading()
	last, _ := s[len(s)-1].Trailing()
	return models.NewTrend(last.GreaterThanOrEqual(first))
}

// ForecastDirection compares the last predicted close with the last
// confirmed close. Without a forecast the prediction defaults to the last
// close, which classifies as up.
func ForecastDirection(history []models.PricePoint, forecast []models.ForecastPoint) models.Trend {
	if len(history) == 0 {
		return models.NewTrend(true)
	}
	lastClose := history[len(history)-1].Close
	lastPred := lastClose
	if len(forecast) > 0 {
		lastPred = forecast[len(forecast)-1].PredictedClose
	}
	return models.NewTrend(lastPred.GreaterThanOrEqual(lastClose))
}

// ChangePercent returns (last-first)/first*100 rounded to two places. It is
// undefined for a zero first value.
func ChangePercent(first, last decimal.Decimal) (decimal.Decimal, bool) {
	if first.IsZero() {
		return decimal.Zero, false
	}
	return last.Sub(first).Div(first).Mul(hundred).Round(2), true
}
