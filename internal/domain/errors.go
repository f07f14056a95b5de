package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input data")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("too many requests")

	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", ErrInvalidInput)
	ErrSlotNotAvailable  = fmt.Errorf("%w: the selected time slot is not available", ErrConflict)
	ErrDuplicateEmail    = fmt.Errorf("%w: email already exists", ErrConflict)
)

// IsExpected reports whether err belongs to the caller-facing taxonomy.
// Anything else is an unexpected lower-layer failure.
func IsExpected(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrRateLimited)
}
