package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockOracle/internal/domain/models"
	"StockOracle/internal/domain/repository"
	applogger "StockOracle/pkg/logger"
	"StockOracle/pkg/util"

	"github.com/shopspring/decimal"
)

// AlertEngine tracks the alert of the selected instrument. It is in one of
// two states: no alert, or active with a reference price and threshold from
// which the buy/sell band is derived.
//
// Persisting operations write first and apply on success only, so a failed
// write never leaves memory ahead of the store.
type AlertEngine struct {
	store   repository.AlertStore
	metrics repository.Metrics
	l       *applogger.Logger
	now     func() time.Time

	opMu sync.Mutex // serialises persisting operations

	mu     sync.RWMutex
	ticker string
	cfg    *models.AlertConfig
	gen    uint64

	emitMu    sync.Mutex // keeps notifications in application order
	observers []repository.AlertObserver
}

func NewAlertEngine(store repository.AlertStore, m repository.Metrics, l *applogger.Logger) *AlertEngine {
	return &AlertEngine{
		store:   store,
		metrics: m,
		l:       l.Component("alert_engine"),
		now:     time.Now,
	}
}

// Subscribe registers an observer for every applied change. Observers run
// synchronously and must not call back into the engine.
func (e *AlertEngine) Subscribe(o repository.AlertObserver) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	e.observers = append(e.observers, o)
}

// Ticker is the instrument the engine currently follows.
func (e *AlertEngine) Ticker() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ticker
}

func (e *AlertEngine) State() models.AlertState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.cfg != nil && e.cfg.IsActive {
		return models.AlertStateActive
	}
	return models.AlertStateNone
}

// Config returns a copy of the loaded record, including an inactive one.
func (e *AlertEngine) Config() (models.AlertConfig, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.cfg == nil {
		return models.AlertConfig{}, false
	}
	return *e.cfg, true
}

// Snapshot is the loaded record, nil when there is none. Only an active
// snapshot carries a band.
func (e *AlertEngine) Snapshot() *models.AlertSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return snapshotOf(e.cfg)
}

// Targets derives the band. ok is false unless the alert is active.
func (e *AlertEngine) Targets() (models.Targets, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.cfg == nil || !e.cfg.IsActive {
		return models.Targets{}, false
	}
	return models.BandTargets(e.cfg.ReferencePrice, e.cfg.Threshold), true
}

// StartTracking persists an active alert for the current instrument.
func (e *AlertEngine) StartTracking(ctx context.Context, ref, threshold decimal.Decimal) error {
	if err := validateAlert(ref, threshold); err != nil {
		return err
	}
	return e.persist(ctx, models.AlertOpStart, func(_ *models.AlertConfig, ticker string) (*models.AlertConfig, error) {
		return &models.AlertConfig{Ticker: ticker, ReferencePrice: ref, Threshold: threshold, IsActive: true}, nil
	})
}

// RecordTrade re-centres the band on the traded price, keeping the threshold.
func (e *AlertEngine) RecordTrade(ctx context.Context, price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("%w: trade price must be positive", models.ErrInvalidAlert)
	}
	return e.persist(ctx, models.AlertOpTrade, func(cur *models.AlertConfig, _ string) (*models.AlertConfig, error) {
		if cur == nil || !cur.IsActive {
			return nil, models.ErrAlertInactive
		}
		next := *cur
		next.ReferencePrice = price
		return &next, nil
	})
}

// Update replaces reference and threshold of an active alert.
func (e *AlertEngine) Update(ctx context.Context, ref, threshold decimal.Decimal) error {
	if err := validateAlert(ref, threshold); err != nil {
		return err
	}
	return e.persist(ctx, models.AlertOpUpdate, func(cur *models.AlertConfig, _ string) (*models.AlertConfig, error) {
		if cur == nil || !cur.IsActive {
			return nil, models.ErrAlertInactive
		}
		next := *cur
		next.ReferencePrice = ref
		next.Threshold = threshold
		return &next, nil
	})
}

// DeleteAlert removes the record of the current instrument.
func (e *AlertEngine) DeleteAlert(ctx context.Context) error {
	return e.persist(ctx, models.AlertOpDelete, func(*models.AlertConfig, string) (*models.AlertConfig, error) {
		return nil, nil
	})
}

// LoadForInstrument switches to ticker. Prior state is dropped immediately;
// the persisted record, if any, is adopted once fetched. A failed load leaves
// the engine with no alert. A load superseded by a later one returns
// ErrStaleResponse and changes nothing.
func (e *AlertEngine) LoadForInstrument(ctx context.Context, ticker string) error {
	ticker = util.NormalizeTicker(ticker)
	if ticker == "" {
		return fmt.Errorf("%w: empty ticker", models.ErrValidationFailure)
	}

	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.ticker = ticker
	e.cfg = nil
	e.mu.Unlock()

	cfg, err := e.store.Get(ctx, ticker)
	if err == nil && cfg != nil {
		c := *cfg
		c.Ticker = ticker
		cfg = &c
	}

	e.mu.Lock()
	if e.gen != gen {
		e.mu.Unlock()
		e.metrics.RecordStaleResponse("alert")
		return models.ErrStaleResponse
	}
	if err != nil {
		cfg = nil
	}
	e.cfg = cfg
	ev := e.eventLocked(models.AlertOpLoad)
	e.emitMu.Lock()
	e.mu.Unlock()
	e.notify(ctx, ev)

	if err != nil {
		e.l.Warn("alert load failed", applogger.Ticker(ticker), applogger.Error(err))
		return fmt.Errorf("%w: load alert %s: %w", models.ErrFetchFailure, ticker, err)
	}
	e.metrics.RecordAlertTransition(string(models.AlertOpLoad))
	return nil
}

// persist computes the next record from the current one, writes it, and
// applies it only when the write succeeded and no instrument switch happened
// meanwhile. A nil next record means delete.
func (e *AlertEngine) persist(ctx context.Context, op models.AlertOp, next func(cur *models.AlertConfig, ticker string) (*models.AlertConfig, error)) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.RLock()
	ticker, gen := e.ticker, e.gen
	var cur *models.AlertConfig
	if e.cfg != nil {
		c := *e.cfg
		cur = &c
	}
	e.mu.RUnlock()

	if ticker == "" {
		return models.ErrNoInstrument
	}
	cfg, err := next(cur, ticker)
	if err != nil {
		return err
	}

	if cfg == nil {
		err = e.store.Delete(ctx, ticker)
	} else {
		err = e.store.Save(ctx, *cfg)
	}
	if err != nil {
		e.metrics.RecordPersistenceFailure(string(op))
		e.l.Error("alert persistence failed",
			applogger.Ticker(ticker),
			applogger.String("op", string(op)),
			applogger.Error(err),
		)
		return fmt.Errorf("%w: %s %s: %w", models.ErrPersistenceFailure, op, ticker, err)
	}

	e.mu.Lock()
	if e.gen != gen {
		e.mu.Unlock()
		e.l.Debug("alert change outlived its instrument", applogger.Ticker(ticker), applogger.String("op", string(op)))
		return models.ErrStaleResponse
	}
	e.cfg = cfg
	ev := e.eventLocked(op)
	e.emitMu.Lock()
	e.mu.Unlock()
	e.notify(ctx, ev)

	e.metrics.RecordAlertTransition(string(op))
	e.l.Info("alert updated", applogger.Ticker(ticker), applogger.String("op", string(op)))
	return nil
}

func (e *AlertEngine) eventLocked(op models.AlertOp) models.AlertEvent {
	return models.AlertEvent{Ticker: e.ticker, Op: op, Snapshot: snapshotOf(e.cfg), At: e.now().UTC()}
}

// notify must be called with emitMu held; it releases it.
func (e *AlertEngine) notify(ctx context.Context, ev models.AlertEvent) {
	defer e.emitMu.Unlock()
	ctx = context.WithoutCancel(ctx)
	for _, o := range e.observers {
		o.OnAlert(ctx, ev)
	}
}

func snapshotOf(cfg *models.AlertConfig) *models.AlertSnapshot {
	if cfg == nil {
		return nil
	}
	return &models.AlertSnapshot{
		Ticker:         cfg.Ticker,
		ReferencePrice: cfg.ReferencePrice,
		Threshold:      cfg.Threshold,
		Active:         cfg.IsActive,
	}
}

func validateAlert(ref, threshold decimal.Decimal) error {
	switch {
	case !ref.IsPositive():
		return fmt.Errorf("%w: reference price must be positive", models.ErrInvalidAlert)
	case threshold.IsNegative():
		return fmt.Errorf("%w: threshold cannot be negative", models.ErrInvalidAlert)
	}
	return nil
}
