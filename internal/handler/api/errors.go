package api

import (
	"errors"

	"StockOracle/internal/domain/models"
	xhttp "StockOracle/pkg/http"
	xlogger "StockOracle/pkg/logger"

	"github.com/labstack/echo/v4"
)

// toAppError classifies a usecase error for the client.
func toAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrStaleResponse):
		return xhttp.StaleError("superseded by a newer selection").WithError(err)
	case errors.Is(err, models.ErrInvalidAlert):
		return xhttp.ValidationFailedError("alert", err.Error()).WithError(err)
	case errors.Is(err, models.ErrValidationFailure):
		return xhttp.ValidationFailedError("ticker", err.Error()).WithError(err)
	case errors.Is(err, models.ErrPersistenceFailure):
		return xhttp.PersistenceError("alert could not be saved").WithError(err)
	case errors.Is(err, models.ErrFetchFailure):
		return xhttp.FetchError("market data unavailable").WithError(err)
	case errors.Is(err, models.ErrNoInstrument):
		return xhttp.ConflictError("no instrument selected").WithError(err)
	case errors.Is(err, models.ErrAlertInactive):
		return xhttp.ConflictError("alert is not active").WithError(err)
	case errors.Is(err, models.ErrDuplicateTicker):
		return xhttp.ConflictError("ticker already tracked").WithError(err)
	case errors.Is(err, models.ErrUnknownTicker):
		return xhttp.NotFoundError("ticker not tracked").WithError(err)
	case errors.Is(err, models.ErrIndexOutOfRange):
		return xhttp.BadRequestError("index out of range").WithError(err)
	default:
		return xhttp.InternalError("unexpected error").WithError(err)
	}
}

func errorResponse(c echo.Context, l *xlogger.Logger, msg string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		l.Error(msg, xlogger.String("code", appErr.Code), xlogger.Error(err))
	} else {
		l.Debug(msg, xlogger.String("code", appErr.Code), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
