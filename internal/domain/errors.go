package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientHistory is returned by the indicator engine when the
	// candle window is shorter than the minimum required length. Callers
	// skip the instrument for the cycle.
	ErrInsufficientHistory = errors.New("insufficient candle history")

	// ErrPositionExists is returned by the ledger when an insert would
	// create a second position for the same instrument.
	ErrPositionExists = errors.New("position already open for instrument")

	// ErrPositionLimit is returned by the ledger when an insert would exceed
	// the configured maximum number of open positions.
	ErrPositionLimit = errors.New("max open positions reached")

	// ErrNotFound is returned when a looked-up entity does not exist.
	ErrNotFound = errors.New("not found")
)

// VenueError wraps any failure reported by the venue client. Read failures
// are recoverable (skip the instrument this cycle); order-submission
// failures are handled by the execution gateway's retry policy.
type VenueError struct {
	Op  string // the venue call that failed, e.g. "fetch candles"
	Err error
}

func (e *VenueError) Error() string {
	return fmt.Sprintf("venue: %s: %v", e.Op, e.Err)
}

func (e *VenueError) Unwrap() error { return e.Err }

// NewVenueError wraps err as a VenueError for the given operation.
func NewVenueError(op string, err error) *VenueError {
	return &VenueError{Op: op, Err: err}
}
