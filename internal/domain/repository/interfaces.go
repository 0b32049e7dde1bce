package repository

import (
	"context"
	"time"

	"StockOracle/internal/domain/models"
)

// AlertStore persists one alert record per ticker. Get returns (nil, nil)
// when no record exists. Save upserts.
type AlertStore interface {
	Get(ctx context.Context, ticker string) (*models.AlertConfig, error)
	Save(ctx context.Context, cfg models.AlertConfig) error
	Delete(ctx context.Context, ticker string) error
}

// PredictionLog records every forecast fetched so accuracy can be computed
// once the predicted dates have closed.
type PredictionLog interface {
	Record(ctx context.Context, f *models.Forecast) error
	Predictions(ctx context.Context, ticker string, from, to time.Time) ([]models.LoggedPrediction, error)
}

// AlertObserver receives alert events after they are applied. Implementations
// must not block.
type AlertObserver interface {
	OnAlert(ctx context.Context, ev models.AlertEvent)
}

type Metrics interface {
	RecordFetch(endpoint string, d time.Duration, err error)
	RecordAlertTransition(op string)
	RecordPersistenceFailure(op string)
	RecordStaleResponse(view string)
	RecordDashboardTiles(rendered, omitted int)
	SetAlertBand(ticker string, buy, sell float64, active bool)
}
