package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssefbn/spotbot/internal/domain"
)

func flatCandles(n int, close float64) []domain.Candle {
	candles := make([]domain.Candle, n)
	for i := range candles {
		candles[i] = domain.Candle{Open: close, High: close, Low: close, Close: close}
	}
	return candles
}

func TestNewEngineMinWindow(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want int
	}{
		{"slow span dominates", Params{FastSpan: 9, SlowSpan: 21, OscLookback: 14, VolLookback: 14}, 21},
		{"oscillator dominates", Params{FastSpan: 5, SlowSpan: 10, OscLookback: 14, VolLookback: 7}, 15},
		{"volatility dominates", Params{FastSpan: 5, SlowSpan: 10, OscLookback: 7, VolLookback: 14}, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewEngine(tt.p).MinWindow())
		})
	}
}

func TestComputeInsufficientHistory(t *testing.T) {
	e := NewEngine(Params{FastSpan: 9, SlowSpan: 21, OscLookback: 14, VolLookback: 14})

	_, err := e.Compute(flatCandles(20, 100))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)

	_, err = e.Compute(flatCandles(21, 100))
	assert.NoError(t, err)
}

func TestComputeFlatSeries(t *testing.T) {
	e := NewEngine(Params{FastSpan: 3, SlowSpan: 5, OscLookback: 4, VolLookback: 4})

	snap, err := e.Compute(flatCandles(10, 50))
	require.NoError(t, err)

	// A constant series has equal averages, no range, and no losses, so the
	// oscillator saturates at its upper bound.
	assert.InDelta(t, 50, snap.FastAvg, 1e-9)
	assert.InDelta(t, 50, snap.SlowAvg, 1e-9)
	assert.Equal(t, 100.0, snap.Oscillator)
	assert.Equal(t, 0.0, snap.VolatilityRange)
}

func TestComputeOscillatorSaturatesOnPureGains(t *testing.T) {
	e := NewEngine(Params{FastSpan: 3, SlowSpan: 5, OscLookback: 4, VolLookback: 4})

	candles := make([]domain.Candle, 10)
	for i := range candles {
		px := 100 + float64(i)
		candles[i] = domain.Candle{Open: px, High: px, Low: px, Close: px}
	}

	snap, err := e.Compute(candles)
	require.NoError(t, err)
	assert.Equal(t, 100.0, snap.Oscillator)
	assert.Greater(t, snap.FastAvg, snap.SlowAvg, "fast average should track a rising series more closely")
}

func TestComputeOscillatorBalancedMoves(t *testing.T) {
	e := NewEngine(Params{FastSpan: 2, SlowSpan: 3, OscLookback: 4, VolLookback: 4})

	// Closes alternate +1/-1 over the lookback: equal gain and loss sums give
	// a midpoint oscillator reading.
	closes := []float64{100, 100, 101, 100, 101, 100}
	candles := make([]domain.Candle, len(closes))
	for i, c := range closes {
		candles[i] = domain.Candle{Open: c, High: c, Low: c, Close: c}
	}

	snap, err := e.Compute(candles)
	require.NoError(t, err)
	assert.InDelta(t, 50, snap.Oscillator, 1e-9)
}

func TestComputeMeanTrueRange(t *testing.T) {
	e := NewEngine(Params{FastSpan: 2, SlowSpan: 3, OscLookback: 2, VolLookback: 2})

	// Last two candles: plain high-low ranges of 4 and 2 with no gaps against
	// the previous close.
	candles := []domain.Candle{
		{Open: 100, High: 100, Low: 100, Close: 100},
		{Open: 100, High: 102, Low: 98, Close: 100},
		{Open: 100, High: 101, Low: 99, Close: 100},
	}

	snap, err := e.Compute(candles)
	require.NoError(t, err)
	assert.InDelta(t, 3, snap.VolatilityRange, 1e-9)
}

func TestComputeTrueRangeUsesGaps(t *testing.T) {
	e := NewEngine(Params{FastSpan: 2, SlowSpan: 3, OscLookback: 2, VolLookback: 1})

	// The last candle gaps down: |low - prevClose| = 100-90 = 10 exceeds the
	// candle's own high-low range of 2.
	candles := []domain.Candle{
		{Close: 100},
		{High: 100, Low: 100, Close: 100},
		{High: 92, Low: 90, Close: 91},
	}

	snap, err := e.Compute(candles)
	require.NoError(t, err)
	assert.InDelta(t, 10, snap.VolatilityRange, 1e-9)
}

func TestEMASeedsWithFirstValue(t *testing.T) {
	// span 1 gives k = 1, so the EMA equals the latest value.
	assert.InDelta(t, 7, ema([]float64{3, 5, 7}, 1), 1e-9)

	// A single value is its own average for any span.
	assert.InDelta(t, 42, ema([]float64{42}, 9), 1e-9)
}
