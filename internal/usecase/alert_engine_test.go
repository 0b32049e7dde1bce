package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"StockOracle/internal/domain/models"
	applogger "StockOracle/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*AlertEngine, *memStore, *recordingObserver, *countingMetrics) {
	t.Helper()
	store := newMemStore()
	m := newCountingMetrics()
	e := NewAlertEngine(store, m, applogger.Nop())
	obs := &recordingObserver{}
	e.Subscribe(obs)
	return e, store, obs, m
}

func TestAlertEngineLifecycle(t *testing.T) {
	e, store, obs, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.LoadForInstrument(ctx, "aapl"))
	assert.Equal(t, models.AlertStateNone, e.State())
	_, ok := e.Targets()
	assert.False(t, ok)

	require.NoError(t, e.StartTracking(ctx, dec("100"), dec("15")))
	assert.Equal(t, models.AlertStateActive, e.State())
	targets, ok := e.Targets()
	require.True(t, ok)
	assert.True(t, targets.Sell.Equal(dec("115")))
	assert.True(t, targets.Buy.Equal(dec("85")))
	assert.True(t, store.records["AAPL"].IsActive)

	require.NoError(t, e.RecordTrade(ctx, dec("120")))
	targets, _ = e.Targets()
	assert.True(t, targets.Sell.Equal(dec("135")))
	assert.True(t, targets.Buy.Equal(dec("105")))
	assert.True(t, store.records["AAPL"].Threshold.Equal(dec("15")))

	require.NoError(t, e.Update(ctx, dec("110"), dec("5")))
	targets, _ = e.Targets()
	assert.True(t, targets.Sell.Equal(dec("115")))
	assert.True(t, targets.Buy.Equal(dec("105")))

	require.NoError(t, e.DeleteAlert(ctx))
	assert.Equal(t, models.AlertStateNone, e.State())
	assert.Empty(t, store.records)

	events := obs.snapshot()
	ops := make([]models.AlertOp, len(events))
	for i, ev := range events {
		ops[i] = ev.Op
	}
	assert.Equal(t, []models.AlertOp{
		models.AlertOpLoad, models.AlertOpStart, models.AlertOpTrade, models.AlertOpUpdate, models.AlertOpDelete,
	}, ops)
	assert.Nil(t, events[0].Snapshot)
	require.NotNil(t, events[2].Snapshot)
	assert.True(t, events[2].Snapshot.ReferencePrice.Equal(dec("120")))
	assert.Nil(t, events[4].Snapshot)
}

func TestAlertEngineZeroThresholdCollapsesBand(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, e.LoadForInstrument(ctx, "SPY"))
	require.NoError(t, e.StartTracking(ctx, dec("470.5"), dec("0")))

	targets, ok := e.Targets()
	require.True(t, ok)
	assert.True(t, targets.Sell.Equal(targets.Buy))
	assert.True(t, targets.Sell.Equal(dec("470.5")))
}

func TestAlertEngineRejectsInvalidInput(t *testing.T) {
	e, store, obs, _ := newTestEngine(t)
	ctx := context.Background()

	assert.ErrorIs(t, e.StartTracking(ctx, dec("100"), dec("5")), models.ErrNoInstrument)

	require.NoError(t, e.LoadForInstrument(ctx, "NVDA"))
	assert.ErrorIs(t, e.StartTracking(ctx, dec("0"), dec("5")), models.ErrInvalidAlert)
	assert.ErrorIs(t, e.StartTracking(ctx, dec("100"), dec("-1")), models.ErrInvalidAlert)
	assert.ErrorIs(t, e.RecordTrade(ctx, dec("100")), models.ErrAlertInactive)
	assert.ErrorIs(t, e.Update(ctx, dec("100"), dec("1")), models.ErrAlertInactive)

	assert.Equal(t, 0, store.saves)
	assert.Len(t, obs.snapshot(), 1) // the load
}

func TestAlertEngineFailedSaveKeepsState(t *testing.T) {
	e, store, obs, m := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, e.LoadForInstrument(ctx, "TQQQ"))
	require.NoError(t, e.StartTracking(ctx, dec("60"), dec("5")))
	before := len(obs.snapshot())

	store.failSave = fmt.Errorf("%w", errBackend)

	err := e.RecordTrade(ctx, dec("70"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrPersistenceFailure)
	assert.ErrorIs(t, err, errBackend)

	err = e.DeleteAlert(ctx)
	assert.ErrorIs(t, err, models.ErrPersistenceFailure)

	cfg, ok := e.Config()
	require.True(t, ok)
	assert.True(t, cfg.ReferencePrice.Equal(dec("60")))
	assert.Equal(t, models.AlertStateActive, e.State())
	assert.Len(t, obs.snapshot(), before)
	assert.Equal(t, 1, m.persistFail["trade"])
	assert.Equal(t, 1, m.persistFail["delete"])
}

func TestAlertEngineLoadAdoptsInactiveRecord(t *testing.T) {
	e, store, obs, _ := newTestEngine(t)
	store.records["GOOG"] = models.AlertConfig{Ticker: "GOOG", ReferencePrice: dec("140"), Threshold: dec("10"), IsActive: false}

	require.NoError(t, e.LoadForInstrument(context.Background(), "goog"))
	assert.Equal(t, models.AlertStateNone, e.State())
	cfg, ok := e.Config()
	require.True(t, ok)
	assert.True(t, cfg.ReferencePrice.Equal(dec("140")))
	snap := e.Snapshot()
	require.NotNil(t, snap)
	assert.False(t, snap.Active)
	_, ok = e.Targets()
	assert.False(t, ok)

	// observers can tell an inactive record from no record
	ev := obs.snapshot()[0]
	assert.Equal(t, models.AlertOpLoad, ev.Op)
	require.NotNil(t, ev.Snapshot)
	assert.False(t, ev.Snapshot.Active)
	assert.Equal(t, "GOOG", ev.Snapshot.Ticker)
	assert.True(t, ev.Snapshot.ReferencePrice.Equal(dec("140")))
	assert.True(t, ev.Snapshot.Threshold.Equal(dec("10")))
}

func TestAlertEngineFailedLoadDropsPreviousInstrument(t *testing.T) {
	e, store, obs, _ := newTestEngine(t)
	ctx := context.Background()
	store.records["AAPL"] = models.AlertConfig{Ticker: "AAPL", ReferencePrice: dec("100"), Threshold: dec("10"), IsActive: true}

	require.NoError(t, e.LoadForInstrument(ctx, "AAPL"))
	require.Equal(t, models.AlertStateActive, e.State())

	store.failGet = errBackend
	err := e.LoadForInstrument(ctx, "NVDA")
	assert.ErrorIs(t, err, models.ErrFetchFailure)
	assert.Equal(t, "NVDA", e.Ticker())
	assert.Equal(t, models.AlertStateNone, e.State())

	events := obs.snapshot()
	last := events[len(events)-1]
	assert.Equal(t, "NVDA", last.Ticker)
	assert.Nil(t, last.Snapshot)
}

func TestAlertEngineStaleLoadIsDiscarded(t *testing.T) {
	e, store, _, m := newTestEngine(t)
	ctx := context.Background()
	store.records["AAPL"] = models.AlertConfig{Ticker: "AAPL", ReferencePrice: dec("100"), Threshold: dec("10"), IsActive: true}
	gate := make(chan struct{})
	store.getGate["AAPL"] = gate

	done := make(chan error, 1)
	go func() { done <- e.LoadForInstrument(ctx, "AAPL") }()
	require.Eventually(t, func() bool { return e.Ticker() == "AAPL" }, time.Second, 5*time.Millisecond)

	require.NoError(t, e.LoadForInstrument(ctx, "SPY"))
	close(gate)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, models.ErrStaleResponse)
	case <-time.After(time.Second):
		t.Fatal("stale load did not return")
	}
	assert.Equal(t, "SPY", e.Ticker())
	assert.Equal(t, models.AlertStateNone, e.State())
	assert.Equal(t, 1, m.stale["alert"])
}
