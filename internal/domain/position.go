package domain

import "time"

// Position is an open spot holding protected by a trailing stop. It is
// created by the entry controller on a confirmed buy and from then on owned
// and mutated exclusively by the risk engine until it is removed from the
// ledger together with a confirmed sell.
//
// Invariants:
//   - HighestPriceSeen is monotonically non-decreasing,
//   - StopPrice is monotonically non-decreasing once set,
//   - Closing transitions false -> true exactly once and gates the exit
//     order against double submission,
//   - Quantity never changes after entry.
type Position struct {
	ID         string // UUID, for logs and notifications
	Instrument Instrument
	EntryPrice float64
	Quantity   float64
	// HighestPriceSeen is the highest bid observed since entry.
	HighestPriceSeen float64
	// StopPrice is the current trailing-stop level. The position is sold
	// when the bid falls to or below it.
	StopPrice float64
	// VolatilityAtEntry is the volatility range captured when the position
	// was opened; the stop distance is VolatilityAtEntry * multiplier for
	// the life of the position.
	VolatilityAtEntry float64
	// Closing is set when an exit has been submitted. A position with
	// Closing=true that is still in the ledger failed its exit order and
	// needs operator attention; it is never retried automatically.
	Closing  bool
	OpenedAt time.Time
}
