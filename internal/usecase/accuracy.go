package usecase

import (
	"context"
	"fmt"
	"time"

	"StockOracle/internal/domain/models"
	"StockOracle/internal/domain/repository"
	"StockOracle/internal/domain/service"
	"StockOracle/pkg/util"

	"github.com/shopspring/decimal"
)

// AccuracyTracker scores logged forecasts against the closes that later
// materialised: the mean absolute error over every logged point whose
// target day has a confirmed close.
type AccuracyTracker struct {
	log      repository.PredictionLog
	md       service.MarketData
	lookback time.Duration
	now      func() time.Time
}

func NewAccuracyTracker(log repository.PredictionLog, md service.MarketData) *AccuracyTracker {
	return &AccuracyTracker{log: log, md: md, lookback: 365 * 24 * time.Hour, now: time.Now}
}

func (t *AccuracyTracker) Accuracy(ctx context.Context, ticker string) (*models.Accuracy, error) {
	ticker = util.NormalizeTicker(ticker)
	now := t.now().UTC()

	preds, err := t.log.Predictions(ctx, ticker, now.Add(-t.lookback), now)
	if err != nil {
		return nil, fmt.Errorf("%w: prediction log %s: %w", models.ErrFetchFailure, ticker, err)
	}

	out := &models.Accuracy{Ticker: ticker, MeanAbsoluteError: decimal.Zero, LastUpdated: util.FormatMarketDate(now)}
	if len(preds) == 0 {
		return out, nil
	}

	stock, err := t.md.History(ctx, ticker, repository.Period1y)
	if err != nil {
		return nil, err
	}
	mae, n := MeanAbsoluteError(preds, stock.History)
	out.MeanAbsoluteError = mae
	out.PredictionsCount = n
	return out, nil
}

// MeanAbsoluteError matches predictions to closes by calendar day and
// returns the MAE rounded to four places with the number of matched points.
func MeanAbsoluteError(preds []models.LoggedPrediction, history []models.PricePoint) (decimal.Decimal, int) {
	closes := make(map[string]decimal.Decimal, len(history))
	for _, p := range history {
		closes[util.DayKey(p.Timestamp)] = p.Close
	}

	sum := decimal.Zero
	n := 0
	for _, p := range preds {
		actual, ok := closes[util.DayKey(p.TargetDate)]
		if !ok {
			continue
		}
		sum = sum.Add(p.PredictedClose.Sub(actual).Abs())
		n++
	}
	if n == 0 {
		return decimal.Zero, 0
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(4), n
}
