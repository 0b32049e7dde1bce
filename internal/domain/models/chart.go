package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChartState is the detail view of one instrument as rendered to clients.
type ChartState struct {
	Ticker        string                 `json:"ticker"`
	Range         string                 `json:"range"`
	Period        string                 `json:"period"`
	Series        MergedSeries           `json:"series"`
	Trend         Trend                  `json:"trend"`
	ForecastTrend Trend                  `json:"forecast_trend"`
	Model         string                 `json:"model_type,omitempty"`
	LastClose     *decimal.Decimal       `json:"last_close,omitempty"`
	LastVolume    *int64                 `json:"last_volume,omitempty"`
	LastRefreshed string                 `json:"last_refreshed,omitempty"`
	Info          map[string]interface{} `json:"info,omitempty"`
	News          []NewsItem             `json:"news"`
	Accuracy      *Accuracy              `json:"accuracy,omitempty"`
	Alert         *AlertSnapshot         `json:"alert"`
	Targets       *Targets               `json:"targets,omitempty"`
	UpdatedAt     time.Time              `json:"updated_at"`
}
