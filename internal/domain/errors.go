package domain

import "errors"

// Error kinds shared by the stores, the planner and the HTTP layer. Callers
// wrap them with context and classify with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("database unavailable")
)
