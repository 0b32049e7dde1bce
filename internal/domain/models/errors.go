package models

import "errors"

var (
	// ErrFetchFailure marks a failed read from the market backend.
	ErrFetchFailure = errors.New("fetch failure")
	// ErrValidationFailure marks input the backend rejected, such as an unknown ticker.
	ErrValidationFailure = errors.New("validation failure")
	// ErrPersistenceFailure marks a rejected alert write or delete.
	ErrPersistenceFailure = errors.New("persistence failure")
	// ErrStaleResponse is returned when a newer selection superseded the request.
	ErrStaleResponse = errors.New("stale response")

	ErrEmptyHistory    = errors.New("history is empty")
	ErrAlertInactive   = errors.New("alert is not active")
	ErrInvalidAlert    = errors.New("invalid alert parameters")
	ErrNoInstrument    = errors.New("no instrument selected")
	ErrDuplicateTicker = errors.New("ticker already tracked")
	ErrUnknownTicker   = errors.New("ticker not tracked")
	ErrIndexOutOfRange = errors.New("index out of range")
)
