package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"StockOracle/internal/domain/models"
	pkgch "StockOracle/pkg/clickhouse"
	applogger "StockOracle/pkg/logger"
)

const predictionsTable = "predictions"

// PredictionSchema creates the prediction log table. ReplacingMergeTree keeps
// one row per (ticker, target_date, fetched_at) when a forecast is recorded
// twice.
func PredictionSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
            ticker          LowCardinality(String),
            model           LowCardinality(String),
            fetched_at      DateTime64(3, 'UTC'),
            target_date     Date,
            predicted_close Decimal(18, 4)
        ) ENGINE = ReplacingMergeTree(fetched_at)
        ORDER BY (ticker, target_date, fetched_at)`, database, predictionsTable),
	}
}

// CHPredictionLog implements PredictionLog backed by ClickHouse.
type CHPredictionLog struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHPredictionLog(ch *pkgch.Client, l *applogger.Logger) *CHPredictionLog {
	return &CHPredictionLog{
		db:    ch.DB(),
		table: ch.Database() + "." + predictionsTable,
		l:     l.Component("prediction_log"),
	}
}

// Record inserts every point of f in one batch.
func (s *CHPredictionLog) Record(ctx context.Context, f *models.Forecast) error {
	if f == nil || len(f.Points) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (ticker, model, fetched_at, target_date, predicted_close)", s.table))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, p := range f.Points {
		if _, err := stmt.ExecContext(ctx, f.Ticker, f.Model, f.FetchedAt, p.Timestamp, p.PredictedClose); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append prediction: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		s.l.Error("clickhouse record predictions failed", applogger.Ticker(f.Ticker), applogger.Error(err))
		return fmt.Errorf("send batch: %w", err)
	}

	s.l.Debug("predictions recorded",
		applogger.Ticker(f.Ticker),
		applogger.Int("rows", len(f.Points)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// Predictions returns logged points whose target date lies in [from, to],
// oldest target first.
func (s *CHPredictionLog) Predictions(ctx context.Context, ticker string, from, to time.Time) ([]models.LoggedPrediction, error) {
	const qtpl = `
        SELECT ticker, model, fetched_at, target_date, predicted_close
        FROM %s FINAL
        WHERE ticker = ? AND target_date >= ? AND target_date <= ?
        ORDER BY target_date ASC, fetched_at ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.table), ticker, from, to)
	if err != nil {
		s.l.Error("clickhouse predictions query error", applogger.Ticker(ticker), applogger.Error(err))
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	out := make([]models.LoggedPrediction, 0, 64)
	for rows.Next() {
		var p models.LoggedPrediction
		if err := rows.Scan(&p.Ticker, &p.Model, &p.FetchedAt, &p.TargetDate, &p.PredictedClose); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
