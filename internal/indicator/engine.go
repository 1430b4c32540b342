// Package indicator computes the derived signals for one instrument from a
// window of candles: fast/slow exponential moving averages of the close,
// a bounded relative-strength oscillator, and a mean-true-range volatility
// reading.
package indicator

import (
	"fmt"
	"math"

	"github.com/youssefbn/spotbot/internal/domain"
)

// Params holds the indicator lookbacks. Use config.StrategyConfig values;
// Validate in the config package guarantees fast < slow and positive
// lookbacks before an Engine is ever constructed.
type Params struct {
	FastSpan    int
	SlowSpan    int
	OscLookback int
	VolLookback int
}

// Engine turns candle windows into IndicatorSnapshots. It is stateless and
// safe for concurrent use; every computation reads only its input window.
type Engine struct {
	params    Params
	minWindow int
}

// NewEngine creates an Engine for the given parameters.
func NewEngine(p Params) *Engine {
	// The slow EMA needs SlowSpan closes to settle; the oscillator and the
	// true range both consume one extra candle for the previous close.
	min := p.SlowSpan
	if n := p.OscLookback + 1; n > min {
		min = n
	}
	if n := p.VolLookback + 1; n > min {
		min = n
	}
	return &Engine{params: p, minWindow: min}
}

// MinWindow returns the minimum candle count Compute accepts. Callers use it
// as the fetch limit.
func (e *Engine) MinWindow() int { return e.minWindow }

// Compute produces the snapshot for the most recent candle of the window.
// The window must be time-ascending. It returns ErrInsufficientHistory when
// fewer than MinWindow candles are supplied; callers skip the instrument for
// the cycle rather than acting on a partial snapshot.
func (e *Engine) Compute(candles []domain.Candle) (domain.IndicatorSnapshot, error) {
	if len(candles) < e.minWindow {
		return domain.IndicatorSnapshot{}, fmt.Errorf("%w: got %d candles, need %d",
			domain.ErrInsufficientHistory, len(candles), e.minWindow)
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	return domain.IndicatorSnapshot{
		FastAvg:         ema(closes, e.params.FastSpan),
		SlowAvg:         ema(closes, e.params.SlowSpan),
		Oscillator:      oscillator(closes, e.params.OscLookback),
		VolatilityRange: meanTrueRange(candles, e.params.VolLookback),
	}, nil
}

// ema returns the exponentially weighted moving average of values with the
// standard smoothing factor 2/(span+1), seeded with the first value.
func ema(values []float64, span int) float64 {
	k := 2.0 / float64(span+1)
	avg := values[0]
	for _, v := range values[1:] {
		avg = v*k + avg*(1-k)
	}
	return avg
}

// oscillator returns a 0-100 relative-strength reading over the last
// lookback close-to-close moves. When there is no downward movement in the
// window the oscillator saturates at 100 instead of dividing by zero.
func oscillator(closes []float64, lookback int) float64 {
	start := len(closes) - lookback - 1
	var gain, loss float64
	for i := start + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	avgGain := gain / float64(lookback)
	avgLoss := loss / float64(lookback)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// meanTrueRange returns the average true range over the last lookback
// candles. The true range of a candle is the largest of high-low,
// |high-prevClose|, and |low-prevClose|.
func meanTrueRange(candles []domain.Candle, lookback int) float64 {
	start := len(candles) - lookback
	var sum float64
	for i := start; i < len(candles); i++ {
		prevClose := candles[i-1].Close
		tr := candles[i].High - candles[i].Low
		if d := math.Abs(candles[i].High - prevClose); d > tr {
			tr = d
		}
		if d := math.Abs(candles[i].Low - prevClose); d > tr {
			tr = d
		}
		sum += tr
	}
	return sum / float64(lookback)
}
