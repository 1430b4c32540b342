package domain

import "time"

// Candle is one OHLCV bar. Candles are produced by the venue and consumed as
// an ordered, time-ascending window; the most recent bar is last.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// IndicatorSnapshot holds the derived signals for one instrument at one
// evaluation instant. Snapshots are recomputed every cycle and never cached.
type IndicatorSnapshot struct {
	// FastAvg and SlowAvg are exponentially weighted moving averages of the
	// close price (fast span < slow span).
	FastAvg float64
	SlowAvg float64
	// Oscillator is a bounded 0-100 relative-strength momentum reading.
	Oscillator float64
	// VolatilityRange is the mean true range over the volatility lookback.
	VolatilityRange float64
}
