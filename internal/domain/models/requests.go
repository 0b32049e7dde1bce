package models

// Requests for the dashboard HTTP API.

type SelectInstrumentRequest struct {
	Ticker string `json:"ticker" validate:"required,ticker"`
}

type SelectRangeRequest struct {
	Range string `query:"range" json:"range" default:"1Y" validate:"max=8"`
}

type AddTickerRequest struct {
	Ticker string `json:"ticker" validate:"required,ticker"`
}

type ReorderRequest struct {
	From *int `json:"from" validate:"required,gte=0"`
	To   *int `json:"to" validate:"required,gte=0"`
}

type TickerParam struct {
	Ticker string `param:"ticker" validate:"required,ticker"`
}

// AlertRequest carries a manual reference/threshold pair. Both must be present.
type AlertRequest struct {
	ReferencePrice *float64 `json:"reference_price" validate:"required,gt=0"`
	Threshold      *float64 `json:"threshold" validate:"required,gte=0"`
}

// TradeRequest records a trade at Price, or at the last close when omitted.
type TradeRequest struct {
	Price *float64 `json:"price" validate:"omitempty,gt=0"`
}
