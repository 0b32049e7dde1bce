package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stockoracle"

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	fetchTotal          *prometheus.CounterVec
	fetchLatency        *prometheus.HistogramVec
	alertTransitions    *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	staleResponses      *prometheus.CounterVec
	dashboardTiles      *prometheus.GaugeVec
	bandBuy             *prometheus.GaugeVec
	bandSell            *prometheus.GaugeVec
	bandActive          *prometheus.GaugeVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_requests_total",
				Help:      "Requests to the market backend by endpoint and result",
			},
			[]string{"endpoint", "result"},
		),
		fetchLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_request_duration_seconds",
				Help:      "Latency of market backend requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		alertTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alert_transitions_total",
				Help:      "Applied alert state changes by operation",
			},
			[]string{"op"},
		),
		persistenceFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alert_persistence_failures_total",
				Help:      "Alert writes rejected by the store",
			},
			[]string{"op"},
		),
		staleResponses: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_responses_total",
				Help:      "Responses discarded because a newer selection superseded them",
			},
			[]string{"view"},
		),
		dashboardTiles: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dashboard_tiles",
				Help:      "Tiles in the last dashboard aggregation",
			},
			[]string{"state"},
		),
		bandBuy: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "alert_band_buy",
				Help:      "Buy target of the alert band",
			},
			[]string{"ticker"},
		),
		bandSell: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "alert_band_sell",
				Help:      "Sell target of the alert band",
			},
			[]string{"ticker"},
		),
		bandActive: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "alert_band_active",
				Help:      "1 while an alert band is active",
			},
			[]string{"ticker"},
		),
	}
}

func (r *Recorder) RecordFetch(endpoint string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.fetchTotal.WithLabelValues(endpoint, result).Inc()
	r.fetchLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (r *Recorder) RecordAlertTransition(op string) {
	r.alertTransitions.WithLabelValues(op).Inc()
}

func (r *Recorder) RecordPersistenceFailure(op string) {
	r.persistenceFailures.WithLabelValues(op).Inc()
}

func (r *Recorder) RecordStaleResponse(view string) {
	r.staleResponses.WithLabelValues(view).Inc()
}

func (r *Recorder) RecordDashboardTiles(rendered, omitted int) {
	r.dashboardTiles.WithLabelValues("rendered").Set(float64(rendered))
	r.dashboardTiles.WithLabelValues("omitted").Set(float64(omitted))
}

// SetAlertBand publishes the band; an inactive band zeroes the targets.
func (r *Recorder) SetAlertBand(ticker string, buy, sell float64, active bool) {
	if !active {
		buy, sell = 0, 0
	}
	r.bandBuy.WithLabelValues(ticker).Set(buy)
	r.bandSell.WithLabelValues(ticker).Set(sell)
	v := 0.0
	if active {
		v = 1
	}
	r.bandActive.WithLabelValues(ticker).Set(v)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordFetch(string, time.Duration, error) {}
func (Nop) RecordAlertTransition(string) {}
func (Nop) RecordPersistenceFailure(string) {}
func (Nop) RecordStaleResponse(string) {}
func (Nop) RecordDashboardTiles(int, int) {}
func (Nop) SetAlertBand(string, float64, float64, bool) {}
