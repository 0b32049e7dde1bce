package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertConfig is the persisted alert record, one per ticker.
type AlertConfig struct {
	Ticker         string          `json:"ticker"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	Threshold      decimal.Decimal `json:"threshold"`
	IsActive       bool            `json:"is_active"`
}

type AlertState string

const (
	AlertStateNone   AlertState = "no_alert"
	AlertStateActive AlertState = "active"
)

// AlertSnapshot is what observers receive. A nil snapshot means no record.
type AlertSnapshot struct {
	Ticker         string          `json:"ticker"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	Threshold      decimal.Decimal `json:"threshold"`
	Active         bool            `json:"active"`
}

// Targets is the derived band around the reference price.
type Targets struct {
	Sell decimal.Decimal `json:"sell"`
	Buy  decimal.Decimal `json:"buy"`
}

// BandTargets derives sell = ref + threshold and buy = ref - threshold.
func BandTargets(ref, threshold decimal.Decimal) Targets {
	return Targets{Sell: ref.Add(threshold), Buy: ref.Sub(threshold)}
}

type AlertOp string

const (
	AlertOpStart  AlertOp = "start"
	AlertOpTrade  AlertOp = "trade"
	AlertOpUpdate AlertOp = "update"
	AlertOpDelete AlertOp = "delete"
	AlertOpLoad   AlertOp = "load"
)

// AlertEvent is emitted after every applied alert change.
type AlertEvent struct {
	Ticker   string         `json:"ticker"`
	Op       AlertOp        `json:"op"`
	Snapshot *AlertSnapshot `json:"alert"`
	At       time.Time      `json:"at"`
}
