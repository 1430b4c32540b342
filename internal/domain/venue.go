package domain

import (
	"context"
	"time"
)

// Venue is the contract the core consumes for all exchange interaction.
// Implementations must wrap their failures in *VenueError. Every method is
// blocking; callers bound each call with a context deadline.
type Venue interface {
	// ListInstruments returns the tradable spot instruments for the given
	// quote currency.
	ListInstruments(ctx context.Context, quoteCcy string) ([]Instrument, error)

	// FetchCandles returns up to limit candles for the instrument at the
	// given timeframe (e.g. "15m"), ordered time-ascending.
	FetchCandles(ctx context.Context, inst Instrument, timeframe string, limit int) ([]Candle, error)

	// FetchReferencePrice returns the conservative reference price for the
	// given side: best ask for buys, best bid for sells.
	FetchReferencePrice(ctx context.Context, inst Instrument, side OrderSide) (float64, error)

	// FetchAvailableBalance returns the free balance of the given asset.
	FetchAvailableBalance(ctx context.Context, ccy string) (float64, error)

	// SubmitMarketOrder places a market order for quantity of the base
	// asset and returns the confirmed fill.
	SubmitMarketOrder(ctx context.Context, inst Instrument, side OrderSide, quantity float64) (OrderResult, error)

	// CancelOpenOrders cancels any resting orders for the instrument.
	CancelOpenOrders(ctx context.Context, inst Instrument) error
}

// StatusPublisher pushes a cycle report to a dashboard. Publishing is
// best-effort: implementations return errors for logging only and the core
// never acts on them.
type StatusPublisher interface {
	Publish(ctx context.Context, report CycleReport) error
	Name() string
}

// Quote is a best bid/ask observation for one instrument.
type Quote struct {
	InstrumentID string
	Bid          float64
	Ask          float64
	Time         time.Time
}
