package api

import (
	"StockOracle/internal/domain/models"
	"StockOracle/internal/usecase"
	xhttp "StockOracle/pkg/http"
	xlogger "StockOracle/pkg/logger"

	"github.com/labstack/echo/v4"
)

type ChartHandler struct {
	logger *xlogger.Logger
	chart  *usecase.ChartView
}

func NewChartHandler(logger *xlogger.Logger, chart *usecase.ChartView) *ChartHandler {
	return &ChartHandler{logger: logger.Component("api.chart"), chart: chart}
}

func (h *ChartHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/chart")
	g.GET("", h.State)
	g.POST("/select", h.SelectInstrument)
	g.POST("/range", h.SelectRange)
}

func (h *ChartHandler) State(c echo.Context) error {
	st, err := h.chart.State()
	if err != nil {
		return errorResponse(c, h.logger, "chart state", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, st)
}

func (h *ChartHandler) SelectInstrument(c echo.Context) error {
	req := &models.SelectInstrumentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	st, err := h.chart.SelectInstrument(c.Request().Context(), req.Ticker)
	if err != nil {
		return errorResponse(c, h.logger, "select instrument failed", err)
	}
	return xhttp.SuccessResponse(c, st)
}

func (h *ChartHandler) SelectRange(c echo.Context) error {
	req := &models.SelectRangeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	st, err := h.chart.SelectRange(c.Request().Context(), req.Range)
	if err != nil {
		return errorResponse(c, h.logger, "select range failed", err)
	}
	return xhttp.SuccessResponse(c, st)
}
