package domain

import "time"

// CycleReport is the transient status snapshot produced at the end of every
// scan cycle and handed to the status publishers. It is not persisted by the
// core.
type CycleReport struct {
	Time      time.Time `json:"time"`
	OpenCount int       `json:"open_count"`
	// RealizedProfitDelta is the profit realized since the previous report,
	// in the quote currency.
	RealizedProfitDelta float64 `json:"realized_profit_delta"`
	// RealizedProfitTotal is the running total since process start.
	RealizedProfitTotal float64 `json:"realized_profit_total"`
}
