package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"StockOracle/internal/domain/models"
	"StockOracle/internal/domain/repository"
	applogger "StockOracle/pkg/logger"
)

// AlertBandProjector consumes the alert event feed and exposes the current
// band of every ticker as gauges.
type AlertBandProjector struct {
	topic   string
	metrics repository.Metrics
	l       *applogger.Logger
}

func NewAlertBandProjector(topic string, m repository.Metrics, l *applogger.Logger) *AlertBandProjector {
	return &AlertBandProjector{topic: topic, metrics: m, l: l.Component("alert_bands")}
}

func (p *AlertBandProjector) Topic() string { return p.topic }

func (p *AlertBandProjector) Handle(_ context.Context, payload []byte) error {
	var ev models.AlertEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("decode alert event: %w", err)
	}
	if ev.Ticker == "" {
		return fmt.Errorf("alert event without ticker")
	}

	if ev.Snapshot == nil || !ev.Snapshot.Active {
		p.metrics.SetAlertBand(ev.Ticker, 0, 0, false)
		return nil
	}
	t := models.BandTargets(ev.Snapshot.ReferencePrice, ev.Snapshot.Threshold)
	p.metrics.SetAlertBand(ev.Ticker, t.Buy.InexactFloat64(), t.Sell.InexactFloat64(), true)
	p.l.Debug("alert band projected", applogger.Ticker(ev.Ticker), applogger.String("op", string(ev.Op)))
	return nil
}
