// Package signal decides entry eligibility for one instrument from its
// indicator snapshot and the current state of the position ledger.
package signal

import "github.com/youssefbn/spotbot/internal/domain"

// Evaluator holds the entry thresholds. It is a pure decision component:
// no side effects, no state beyond configuration.
type Evaluator struct {
	oversold     float64
	maxPositions int
}

// NewEvaluator creates an Evaluator with the given oscillator oversold
// threshold and open-position limit.
func NewEvaluator(oversold float64, maxPositions int) *Evaluator {
	return &Evaluator{oversold: oversold, maxPositions: maxPositions}
}

// ShouldEnter reports whether a new position should be opened. All four
// conditions are conjunctive; there is no partial or weighted scoring:
//
//  1. the instrument has no open position,
//  2. the open-position count is below the limit,
//  3. the oscillator is below the oversold threshold,
//  4. the fast trend average is above the slow one (uptrend confirmation).
func (e *Evaluator) ShouldEnter(snap domain.IndicatorSnapshot, openCount int, alreadyOpen bool) bool {
	if alreadyOpen {
		return false
	}
	if openCount >= e.maxPositions {
		return false
	}
	if snap.Oscillator >= e.oversold {
		return false
	}
	return snap.FastAvg > snap.SlowAvg
}
