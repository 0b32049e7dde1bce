package oracle

import (
	"fmt"
	"math"
	"time"

	"StockOracle/internal/domain/models"
	"StockOracle/pkg/util"

	"github.com/shopspring/decimal"
)

// Wire shapes of the market backend. Field names follow the backend's
// pandas-derived JSON.

type stockResponse struct {
	Ticker        string                 `json:"ticker"`
	History       []historyRow           `json:"history"`
	Info          map[string]interface{} `json:"info"`
	LastRefreshed string                 `json:"last_refreshed"`
}

type historyRow struct {
	Date   string   `json:"Date"`
	Close  *float64 `json:"Close"`
	Volume *float64 `json:"Volume"`
}

type predictRequest struct {
	Ticker string `json:"ticker"`
	Days   int    `json:"days"`
}

type predictResponse struct {
	Ticker    string        `json:"ticker"`
	Forecast  []forecastRow `json:"forecast"`
	ModelType string        `json:"model_type"`
}

type forecastRow struct {
	Date           string  `json:"Date"`
	PredictedClose float64 `json:"Predicted_Close"`
}

type accuracyResponse struct {
	Ticker            string  `json:"ticker"`
	MeanAbsoluteError float64 `json:"mean_absolute_error"`
	PredictionsCount  int     `json:"predictions_count"`
	LastUpdated       string  `json:"last_updated"`
}

type validateResponse struct {
	Ticker   string  `json:"ticker"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Exchange string  `json:"exchange"`
	Currency string  `json:"currency"`
}

type alertPayload struct {
	Ticker    string  `json:"ticker"`
	RefPrice  float64 `json:"reference_price"`
	Threshold float64 `json:"threshold"`
	IsActive  bool    `json:"is_active"`
}

// toStockData converts rows, skipping bars without a close (holidays and
// halted sessions come back as nulls).
func (r *stockResponse) toStockData(ticker string) (*models.StockData, error) {
	out := &models.StockData{
		Ticker:        r.Ticker,
		Info:          r.Info,
		LastRefreshed: r.LastRefreshed,
		History:       make([]models.PricePoint, 0, len(r.History)),
	}
	if out.Ticker == "" {
		out.Ticker = ticker
	}

	for i, row := range r.History {
		if row.Close == nil || math.IsNaN(*row.Close) {
			continue
		}
		ts, err := util.ParseMarketDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("history row %d: %w", i, err)
		}
		p := models.PricePoint{Timestamp: ts, Close: decimal.NewFromFloat(*row.Close)}
		if row.Volume != nil && !math.IsNaN(*row.Volume) {
			v := int64(*row.Volume)
			p.Volume = &v
		}
		out.History = append(out.History, p)
	}
	return out, nil
}

func (r *predictResponse) toForecast(ticker string, fetchedAt time.Time) (*models.Forecast, error) {
	out := &models.Forecast{
		Ticker:    ticker,
		Model:     r.ModelType,
		FetchedAt: fetchedAt,
		Points:    make([]models.ForecastPoint, 0, len(r.Forecast)),
	}
	for i, row := range r.Forecast {
		ts, err := util.ParseMarketDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("forecast row %d: %w", i, err)
		}
		out.Points = append(out.Points, models.ForecastPoint{
			Timestamp:      ts,
			PredictedClose: decimal.NewFromFloat(row.PredictedClose),
		})
	}
	return out, nil
}

func (r *accuracyResponse) toAccuracy(ticker string) *models.Accuracy {
	a := &models.Accuracy{
		Ticker:            r.Ticker,
		MeanAbsoluteError: decimal.NewFromFloat(r.MeanAbsoluteError),
		PredictionsCount:  r.PredictionsCount,
		LastUpdated:       r.LastUpdated,
	}
	if a.Ticker == "" {
		a.Ticker = ticker
	}
	return a
}

func (r *validateResponse) toTickerInfo() *models.TickerInfo {
	return &models.TickerInfo{
		Ticker:   util.NormalizeTicker(r.Ticker),
		Name:     r.Name,
		Price:    decimal.NewFromFloat(r.Price),
		Exchange: r.Exchange,
		Currency: r.Currency,
	}
}

// toAlertConfig maps the backend record; an empty object means no alert.
func (p *alertPayload) toAlertConfig() *models.AlertConfig {
	if p.Ticker == "" {
		return nil
	}
	return &models.AlertConfig{
		Ticker:         util.NormalizeTicker(p.Ticker),
		ReferencePrice: decimal.NewFromFloat(p.RefPrice),
		Threshold:      decimal.NewFromFloat(p.Threshold),
		IsActive:       p.IsActive,
	}
}

func newAlertPayload(cfg models.AlertConfig) alertPayload {
	return alertPayload{
		Ticker:    cfg.Ticker,
		RefPrice:  cfg.ReferencePrice.InexactFloat64(),
		Threshold: cfg.Threshold.InexactFloat64(),
		IsActive:  cfg.IsActive,
	}
}
