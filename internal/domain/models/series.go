package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MergedEntry is one point of the combined chart series. History entries
// carry Close, forecast entries carry Predicted; the last history entry
// carries both when a forecast follows it, so the two lines join.
type MergedEntry struct {
	Timestamp time.Time        `json:"date"`
	Close     *decimal.Decimal `json:"close,omitempty"`
	Predicted *decimal.Decimal `json:"predicted,omitempty"`
	Volume    *int64           `json:"volume,omitempty"`
}

// IsForecast reports whether the entry is forecast-only.
func (e MergedEntry) IsForecast() bool {
	return e.Close == nil && e.Predicted != nil
}

// Leading is the value a trend starts from: close, else predicted.
func (e MergedEntry) Leading() (decimal.Decimal, bool) {
	if e.Close != nil {
		return *e.Close, true
	}
	if e.Predicted != nil {
		return *e.Predicted, true
	}
	return decimal.Zero, false
}

// Trailing is the value a trend ends at: predicted, else close.
func (e MergedEntry) Trailing() (decimal.Decimal, bool) {
	if e.Predicted != nil {
		return *e.Predicted, true
	}
	if e.Close != nil {
		return *e.Close, true
	}
	return decimal.Zero, false
}

type MergedSeries []MergedEntry

// ColorRole is the presentation role a trend maps to.
type ColorRole string

const (
	ColorUp   ColorRole = "up"
	ColorDown ColorRole = "down"
)

type Trend struct {
	IsUp      bool      `json:"is_up"`
	ColorRole ColorRole `json:"color_role"`
}

func NewTrend(up bool) Trend {
	if up {
		return Trend{IsUp: true, ColorRole: ColorUp}
	}
	return Trend{IsUp: false, ColorRole: ColorDown}
}
