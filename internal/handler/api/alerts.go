package api

import (
	"StockOracle/internal/domain/models"
	"StockOracle/internal/usecase"
	xhttp "StockOracle/pkg/http"
	xlogger "StockOracle/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type AlertHandler struct {
	logger           *xlogger.Logger
	alerts           *usecase.AlertEngine
	chart            *usecase.ChartView
	defaultThreshold decimal.Decimal
}

func NewAlertHandler(logger *xlogger.Logger, alerts *usecase.AlertEngine, chart *usecase.ChartView, defaultThreshold float64) *AlertHandler {
	return &AlertHandler{
		logger:           logger.Component("api.alert"),
		alerts:           alerts,
		chart:            chart,
		defaultThreshold: decimal.NewFromFloat(defaultThreshold),
	}
}

func (h *AlertHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/alert")
	g.GET("", h.Get)
	g.POST("/start", h.Start)
	g.POST("/trade", h.Trade)
	g.PUT("", h.Update)
	g.DELETE("", h.Delete)
}

type alertResponse struct {
	Ticker           string              `json:"ticker"`
	State            models.AlertState   `json:"state"`
	Alert            *models.AlertConfig `json:"alert"`
	Targets          *models.Targets     `json:"targets"`
	DefaultThreshold decimal.Decimal     `json:"default_threshold"`
}

func (h *AlertHandler) view() alertResponse {
	resp := alertResponse{
		Ticker:           h.alerts.Ticker(),
		State:            h.alerts.State(),
		DefaultThreshold: h.defaultThreshold,
	}
	if cfg, ok := h.alerts.Config(); ok {
		resp.Alert = &cfg
	}
	if t, ok := h.alerts.Targets(); ok {
		resp.Targets = &t
	}
	return resp
}

func (h *AlertHandler) Get(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.view())
}

func (h *AlertHandler) Start(c echo.Context) error {
	req := &models.AlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	err := h.alerts.StartTracking(c.Request().Context(),
		decimal.NewFromFloat(*req.ReferencePrice), decimal.NewFromFloat(*req.Threshold))
	if err != nil {
		return errorResponse(c, h.logger, "start tracking failed", err)
	}
	return xhttp.SuccessResponse(c, h.view())
}

// Trade re-centres the band on the given price, or on the last close of the
// charted instrument when no price is sent.
func (h *AlertHandler) Trade(c echo.Context) error {
	req := &models.TradeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var price decimal.Decimal
	if req.Price != nil {
		price = decimal.NewFromFloat(*req.Price)
	} else {
		last, ok := h.chart.LastClose()
		if !ok || h.chart.Ticker() != h.alerts.Ticker() {
			return xhttp.AppErrorResponse(c, xhttp.ConflictError("no price available for trade").WithParam("ticker", h.alerts.Ticker()))
		}
		price = last.Close
	}

	if err := h.alerts.RecordTrade(c.Request().Context(), price); err != nil {
		return errorResponse(c, h.logger, "record trade failed", err)
	}
	return xhttp.SuccessResponse(c, h.view())
}

func (h *AlertHandler) Update(c echo.Context) error {
	req := &models.AlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	err := h.alerts.Update(c.Request().Context(),
		decimal.NewFromFloat(*req.ReferencePrice), decimal.NewFromFloat(*req.Threshold))
	if err != nil {
		return errorResponse(c, h.logger, "update alert failed", err)
	}
	return xhttp.SuccessResponse(c, h.view())
}

func (h *AlertHandler) Delete(c echo.Context) error {
	if err := h.alerts.DeleteAlert(c.Request().Context()); err != nil {
		return errorResponse(c, h.logger, "delete alert failed", err)
	}
	return xhttp.SuccessResponse(c, h.view())
}
