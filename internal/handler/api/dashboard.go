package api

import (
	"StockOracle/internal/domain/models"
	"StockOracle/internal/domain/repository"
	"StockOracle/internal/usecase"
	xhttp "StockOracle/pkg/http"
	xlogger "StockOracle/pkg/logger"

	"github.com/labstack/echo/v4"
)

type DashboardHandler struct {
	logger  *xlogger.Logger
	session *usecase.Session
}

func NewDashboardHandler(logger *xlogger.Logger, session *usecase.Session) *DashboardHandler {
	return &DashboardHandler{logger: logger.Component("api.dashboard"), session: session}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/dashboard", h.Overview)
	g.POST("/dashboard/tickers", h.AddTicker)
	g.DELETE("/dashboard/tickers/:ticker", h.RemoveTicker)
	g.POST("/dashboard/reorder", h.Reorder)
	g.GET("/ranges", h.Ranges)
}

type dashboardResponse struct {
	Tickers []string      `json:"tickers"`
	Tiles   []models.Tile `json:"tiles"`
}

// Overview renders tiles for the tracked tickers. Failed instruments are
// omitted, so len(tiles) may be less than len(tickers).
func (h *DashboardHandler) Overview(c echo.Context) error {
	tiles := h.session.Overview(c.Request().Context())
	return xhttp.SuccessResponse(c, dashboardResponse{Tickers: h.session.Tracked(), Tiles: tiles})
}

func (h *DashboardHandler) AddTicker(c echo.Context) error {
	req := &models.AddTickerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	info, err := h.session.AddTicker(c.Request().Context(), req.Ticker)
	if err != nil {
		return errorResponse(c, h.logger, "add ticker failed", err)
	}
	return xhttp.CreatedResponse(c, info)
}

func (h *DashboardHandler) RemoveTicker(c echo.Context) error {
	req := &models.TickerParam{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.session.RemoveTicker(req.Ticker); err != nil {
		return errorResponse(c, h.logger, "remove ticker failed", err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *DashboardHandler) Reorder(c echo.Context) error {
	req := &models.ReorderRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	order, err := h.session.Reorder(*req.From, *req.To)
	if err != nil {
		return errorResponse(c, h.logger, "reorder failed", err)
	}
	return xhttp.SuccessResponse(c, order)
}

func (h *DashboardHandler) Ranges(c echo.Context) error {
	return xhttp.SuccessResponse(c, repository.Ranges())
}
