package vexiter

import "errors"

var (
	// ErrInvalidK is returned when the requested result count is not
	// positive. An iterator is never constructed for k < 1.
	ErrInvalidK = errors.New("k must be positive")

	// ErrNilIndex is returned when no vector index is supplied.
	ErrNilIndex = errors.New("vector index must not be nil")

	// ErrEmptyVector is returned when the query vector is empty.
	ErrEmptyVector = errors.New("query vector must not be empty")

	// ErrModeNotImplemented is returned by Read when the iterator was
	// constructed with a strategy whose preparation is not implemented
	// (currently ModeAdhocBruteForce).
	ErrModeNotImplemented = errors.New("query strategy not implemented")
)
