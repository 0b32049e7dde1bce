package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one confirmed bar of an instrument's history.
type PricePoint struct {
	Timestamp time.Time       `json:"date"`
	Close     decimal.Decimal `json:"close"`
	Volume    *int64          `json:"volume,omitempty"`
}

// ForecastPoint is one model-predicted close.
type ForecastPoint struct {
	Timestamp      time.Time       `json:"date"`
	PredictedClose decimal.Decimal `json:"predicted_close"`
}

// StockData is the backend's answer to a history request.
type StockData struct {
	Ticker        string                 `json:"ticker"`
	History       []PricePoint           `json:"history"`
	Info          map[string]interface{} `json:"info,omitempty"`
	LastRefreshed string                 `json:"last_refreshed,omitempty"`
}

// Last returns the most recent bar.
func (s *StockData) Last() (PricePoint, bool) {
	if s == nil || len(s.History) == 0 {
		return PricePoint{}, false
	}
	return s.History[len(s.History)-1], true
}

// Forecast is the backend's answer to a predict request.
type Forecast struct {
	Ticker    string          `json:"ticker"`
	Model     string          `json:"model_type,omitempty"`
	Points    []ForecastPoint `json:"forecast"`
	FetchedAt time.Time       `json:"fetched_at"`
}

type NewsItem struct {
	Title       string `json:"title"`
	Publisher   string `json:"publisher"`
	Link        string `json:"link"`
	PublishedAt int64  `json:"providerPublishTime"`
	Type        string `json:"type,omitempty"`
}

// Accuracy summarises how far past forecasts landed from realised closes.
type Accuracy struct {
	Ticker            string          `json:"ticker"`
	MeanAbsoluteError decimal.Decimal `json:"mean_absolute_error"`
	PredictionsCount  int             `json:"predictions_count"`
	LastUpdated       string          `json:"last_updated,omitempty"`
}

// TickerInfo is returned by ticker validation.
type TickerInfo struct {
	Ticker   string          `json:"ticker"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Exchange string          `json:"exchange"`
	Currency string          `json:"currency"`
}

// LoggedPrediction is one forecast point as recorded at fetch time.
type LoggedPrediction struct {
	Ticker         string
	Model          string
	FetchedAt      time.Time
	TargetDate     time.Time
	PredictedClose decimal.Decimal
}
