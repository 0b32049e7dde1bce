// Package series combines confirmed history with a forecast and derives
// trend direction from the result.
package series

import (
	"StockOracle/internal/domain/models"

	"github.com/shopspring/decimal"
)

// Merge returns a copy of history followed by the forecast points dated
// strictly after the last history point, in forecast order. A forecast
// point dated at or before the one appended just ahead of it is dropped so the
// result stays chronological. When at least one forecast point is kept, the
// last history entry also carries its close as Predicted so the forecast
// line starts where history ends. Inputs are not modified.
func Merge(history []models.PricePoint, forecast []models.ForecastPoint) (models.MergedSeries, error) {
	if len(history) == 0 {
		return nil, models.ErrEmptyHistory
	}

	out := make(models.MergedSeries, 0, len(history)+len(forecast))
	for _, p := range history {
		out = append(out, historyEntry(p))
	}

	boundary := len(out) - 1
	last := out[boundary].Timestamp
	for _, f := range forecast {
		if !f.Timestamp.After(last) {
			continue
		}
		predicted := f.PredictedClose
		out = append(out, models.MergedEntry{Timestamp: f.Timestamp, Predicted: &predicted})
		last = f.Timestamp
	}

	if len(out) > len(history) {
		anchor := *out[boundary].Close
		out[boundary].Predicted = &anchor
	}

	return out, nil
}

func historyEntry(p models.PricePoint) models.MergedEntry {
	c := p.Close
	e := models.MergedEntry{Timestamp: p.Timestamp, Close: &c}
	if p.Volume != nil {
		v := *p.Volume
		e.Volume = &v
	}
	return e
}

// Closes extracts the confirmed closes, oldest first.
func Closes(history []models.PricePoint) []decimal.Decimal {
	out := make([]decimal.Decimal, len(history))
	for i, p := range history {
		out[i] = p.Close
	}
	return out
}
