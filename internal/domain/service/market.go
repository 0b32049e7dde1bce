package service

import (
	"context"

	"StockOracle/internal/domain/models"
	"StockOracle/internal/domain/repository"
)

// MarketData is the remote market backend: history, forecasts, news and
// ticker validation.
type MarketData interface {
	History(ctx context.Context, ticker string, period repository.Period) (*models.StockData, error)
	Predict(ctx context.Context, ticker string, days int) (*models.Forecast, error)
	News(ctx context.Context, ticker string) ([]models.NewsItem, error)
	// Validate returns an error wrapping models.ErrValidationFailure for
	// unknown tickers.
	Validate(ctx context.Context, ticker string) (*models.TickerInfo, error)
}

// AccuracySource reports forecast accuracy for an instrument.
type AccuracySource interface {
	Accuracy(ctx context.Context, ticker string) (*models.Accuracy, error)
}
