package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssefbn/spotbot/internal/domain"
	"github.com/youssefbn/spotbot/internal/executor"
	"github.com/youssefbn/spotbot/internal/ledger"
	"github.com/youssefbn/spotbot/internal/notify"
)

type fakeVenue struct {
	domain.Venue

	mu        sync.Mutex
	refPrice  float64
	refErr    error
	fillPrice float64
	submitErr error
	submits   int
	lastSide  domain.OrderSide
	lastQty   float64
}

func (f *fakeVenue) FetchReferencePrice(_ context.Context, _ domain.Instrument, _ domain.OrderSide) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refPrice, f.refErr
}

func (f *fakeVenue) SubmitMarketOrder(_ context.Context, _ domain.Instrument, side domain.OrderSide, quantity float64) (domain.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	f.lastSide = side
	f.lastQty = quantity
	if f.submitErr != nil {
		return domain.OrderResult{}, f.submitErr
	}
	return domain.OrderResult{OrderID: "ord-1", FilledPrice: f.fillPrice, Quantity: quantity}, nil
}

func (f *fakeVenue) CancelOpenOrders(_ context.Context, _ domain.Instrument) error { return nil }

type recordingSender struct {
	mu     sync.Mutex
	titles []string
}

func (r *recordingSender) Send(_ context.Context, title, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	return nil
}

func (r *recordingSender) Name() string { return "recording" }

func (r *recordingSender) has(title string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.titles {
		if t == title {
			return true
		}
	}
	return false
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

var btc = domain.Instrument{ID: "BTC-USDT", BaseCcy: "BTC", QuoteCcy: "USDT", LotStep: "0.0001"}

func newFixture(venue *fakeVenue, maxPositions int) (*EntryController, *RiskEngine, *ledger.Ledger, *recordingSender) {
	logger := quietLogger()
	sender := &recordingSender{}
	notifier := notify.NewNotifier([]notify.Sender{sender}, logger)
	led := ledger.New(maxPositions)
	gateway := executor.NewGateway(venue, notifier, 1, time.Millisecond, logger)
	entries := NewEntryController(EntryConfig{Notional: 100, StopMultiplier: 2}, venue, gateway, led, notifier, logger)
	risk := NewRiskEngine(2, venue, gateway, led, notifier, logger)
	return entries, risk, led, sender
}

func TestOpenRecordsPosition(t *testing.T) {
	venue := &fakeVenue{refPrice: 50, fillPrice: 50}
	entries, _, led, sender := newFixture(venue, 5)

	require.NoError(t, entries.Open(context.Background(), btc, 1.5))

	pos, err := led.Get("BTC-USDT")
	require.NoError(t, err)
	assert.Equal(t, 50.0, pos.EntryPrice)
	assert.Equal(t, 2.0, pos.Quantity)
	assert.Equal(t, 50.0, pos.HighestPriceSeen)
	assert.Equal(t, 47.0, pos.StopPrice, "stop = entry - volatility*multiplier")
	assert.Equal(t, 1.5, pos.VolatilityAtEntry)
	assert.False(t, pos.Closing)
	assert.NotEmpty(t, pos.ID)
	assert.Equal(t, domain.OrderSideBuy, venue.lastSide)
	assert.True(t, sender.has("Position opened"))
}

func TestOpenFailedBuyCreatesNoPosition(t *testing.T) {
	venue := &fakeVenue{refPrice: 50, submitErr: errors.New("rejected")}
	entries, _, led, sender := newFixture(venue, 5)

	err := entries.Open(context.Background(), btc, 1.5)
	require.Error(t, err)
	assert.Equal(t, 0, led.Len())
	assert.False(t, sender.has("Position opened"))
	assert.True(t, sender.has("Order failed"))
}

func TestOpenReferencePriceErrorSubmitsNothing(t *testing.T) {
	venue := &fakeVenue{refErr: errors.New("ticker down")}
	entries, _, led, _ := newFixture(venue, 5)

	err := entries.Open(context.Background(), btc, 1.5)
	require.Error(t, err)
	assert.Equal(t, 0, venue.submits)
	assert.Equal(t, 0, led.Len())
}

func TestOpenFallsBackToReferencePriceWhenFillUnknown(t *testing.T) {
	venue := &fakeVenue{refPrice: 50, fillPrice: 0}
	entries, _, led, _ := newFixture(venue, 5)

	require.NoError(t, entries.Open(context.Background(), btc, 1))

	pos, err := led.Get("BTC-USDT")
	require.NoError(t, err)
	assert.Equal(t, 50.0, pos.EntryPrice)
}

func TestSizeOrderRoundsDownToLotStep(t *testing.T) {
	tests := []struct {
		name     string
		notional float64
		price    float64
		lotStep  string
		want     float64
		wantErr  bool
	}{
		{"exact multiple", 100, 50, "0.0001", 2, false},
		{"rounds down", 100, 30, "0.01", 3.33, false},
		{"no lot step", 100, 30, "", 100.0 / 30.0, false},
		{"below one step", 1, 50000, "0.001", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sizeOrder(tt.notional, tt.price, tt.lotStep)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func openTestPosition(t *testing.T, led *ledger.Ledger) *domain.Position {
	t.Helper()
	pos := &domain.Position{
		ID:                "pos-1",
		Instrument:        btc,
		EntryPrice:        100,
		Quantity:          2,
		HighestPriceSeen:  100,
		StopPrice:         97,
		VolatilityAtEntry: 1.5,
	}
	require.NoError(t, led.Insert(pos))
	return pos
}

func TestCheckRatchetsStopUpward(t *testing.T) {
	venue := &fakeVenue{refPrice: 110}
	_, risk, led, _ := newFixture(venue, 5)
	pos := openTestPosition(t, led)

	require.NoError(t, risk.Check(context.Background(), pos))

	assert.Equal(t, 110.0, pos.HighestPriceSeen)
	assert.Equal(t, 107.0, pos.StopPrice, "stop follows the high at a fixed volatility distance")
	assert.False(t, pos.Closing)
	assert.Equal(t, 0, venue.submits)
}

func TestCheckStopNeverLoosens(t *testing.T) {
	venue := &fakeVenue{refPrice: 110}
	_, risk, led, _ := newFixture(venue, 5)
	pos := openTestPosition(t, led)

	require.NoError(t, risk.Check(context.Background(), pos))
	require.Equal(t, 107.0, pos.StopPrice)

	// Price eases back above the stop: the high and the stop both hold.
	venue.refPrice = 108
	require.NoError(t, risk.Check(context.Background(), pos))
	assert.Equal(t, 110.0, pos.HighestPriceSeen)
	assert.Equal(t, 107.0, pos.StopPrice)
	assert.Equal(t, 2.0, pos.Quantity, "quantity never changes after entry")
}

func TestCheckExitsAtRatchetedStop(t *testing.T) {
	venue := &fakeVenue{refPrice: 110, fillPrice: 106}
	_, risk, led, sender := newFixture(venue, 5)
	pos := openTestPosition(t, led)

	require.NoError(t, risk.Check(context.Background(), pos))
	require.Equal(t, 107.0, pos.StopPrice)

	venue.refPrice = 106
	require.NoError(t, risk.Check(context.Background(), pos))

	assert.Equal(t, domain.OrderSideSell, venue.lastSide)
	assert.Equal(t, 2.0, venue.lastQty)
	assert.Equal(t, 0, led.Len(), "closed position leaves the ledger")
	assert.True(t, sender.has("Position closed"))
	assert.InDelta(t, 12, risk.RealizedProfit(), 1e-9, "(106-100)*2")
}

func TestCheckPriceExactlyAtStopExits(t *testing.T) {
	venue := &fakeVenue{refPrice: 97, fillPrice: 97}
	_, risk, led, _ := newFixture(venue, 5)
	pos := openTestPosition(t, led)

	require.NoError(t, risk.Check(context.Background(), pos))
	assert.Equal(t, 1, venue.submits)
	assert.Equal(t, 0, led.Len())
}

func TestCheckFailedExitMarksPositionStuck(t *testing.T) {
	venue := &fakeVenue{refPrice: 90, submitErr: errors.New("venue down")}
	_, risk, led, sender := newFixture(venue, 5)
	pos := openTestPosition(t, led)

	err := risk.Check(context.Background(), pos)
	require.Error(t, err)

	assert.True(t, pos.Closing)
	assert.Equal(t, 1, led.Len(), "a stuck position stays visible in the ledger")
	assert.True(t, sender.has("Position stuck"))
	assert.Equal(t, 0.0, risk.RealizedProfit())
}

func TestCheckSkipsStuckPosition(t *testing.T) {
	venue := &fakeVenue{refPrice: 90}
	_, risk, led, _ := newFixture(venue, 5)
	pos := openTestPosition(t, led)
	pos.Closing = true

	require.NoError(t, risk.Check(context.Background(), pos))
	assert.Equal(t, 0, venue.submits, "a stuck exit is never retried automatically")
	assert.Equal(t, 1, led.Len())
}

func TestCheckReferencePriceErrorLeavesPositionUntouched(t *testing.T) {
	venue := &fakeVenue{refErr: errors.New("ticker down")}
	_, risk, led, _ := newFixture(venue, 5)
	pos := openTestPosition(t, led)

	err := risk.Check(context.Background(), pos)
	require.Error(t, err)
	assert.Equal(t, 97.0, pos.StopPrice)
	assert.False(t, pos.Closing)
	assert.Equal(t, 1, led.Len())
}
