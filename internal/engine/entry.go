// Package engine contains the two components that own the position ledger:
// the entry controller, which opens positions, and the risk engine, which
// ratchets trailing stops and closes them.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/youssefbn/spotbot/internal/domain"
	"github.com/youssefbn/spotbot/internal/executor"
	"github.com/youssefbn/spotbot/internal/ledger"
	"github.com/youssefbn/spotbot/internal/notify"
)

// EntryConfig holds the sizing and stop parameters for new positions.
type EntryConfig struct {
	// Notional is the quote-currency budget per position.
	Notional float64
	// StopMultiplier scales the volatility range into the initial stop
	// distance below the entry price.
	StopMultiplier float64
}

// EntryController opens positions. A buy order and the ledger insert are one
// logical unit: if the order fails, no position is created, and the ledger
// insert happens only after the venue confirms the fill.
type EntryController struct {
	cfg      EntryConfig
	venue    domain.Venue
	gateway  *executor.Gateway
	ledger   *ledger.Ledger
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewEntryController creates an EntryController.
func NewEntryController(cfg EntryConfig, venue domain.Venue, gateway *executor.Gateway, led *ledger.Ledger, notifier *notify.Notifier, logger *slog.Logger) *EntryController {
	return &EntryController{
		cfg:      cfg,
		venue:    venue,
		gateway:  gateway,
		ledger:   led,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "entry")),
	}
}

// Open buys the instrument at market for the configured notional and records
// the resulting position in the ledger. volatilityRange is the current
// indicator reading; it is frozen on the position as VolatilityAtEntry. The
// entry price used for sizing is the best ask, since entries are buys.
func (c *EntryController) Open(ctx context.Context, inst domain.Instrument, volatilityRange float64) error {
	price, err := c.venue.FetchReferencePrice(ctx, inst, domain.OrderSideBuy)
	if err != nil {
		return fmt.Errorf("entry %s: %w", inst.ID, err)
	}
	if price <= 0 {
		return fmt.Errorf("entry %s: non-positive reference price %v", inst.ID, price)
	}

	quantity, err := sizeOrder(c.cfg.Notional, price, inst.LotStep)
	if err != nil {
		return fmt.Errorf("entry %s: %w", inst.ID, err)
	}

	result, err := c.gateway.Submit(ctx, inst, domain.OrderSideBuy, quantity)
	if err != nil {
		// The gateway has already notified the terminal failure; no
		// position is created.
		return fmt.Errorf("entry %s: %w", inst.ID, err)
	}

	entryPrice := result.FilledPrice
	if entryPrice <= 0 {
		entryPrice = price
	}

	pos := &domain.Position{
		ID:                uuid.New().String(),
		Instrument:        inst,
		EntryPrice:        entryPrice,
		Quantity:          quantity,
		HighestPriceSeen:  entryPrice,
		StopPrice:         entryPrice - volatilityRange*c.cfg.StopMultiplier,
		VolatilityAtEntry: volatilityRange,
		OpenedAt:          time.Now().UTC(),
	}

	if err := c.ledger.Insert(pos); err != nil {
		// The evaluator checked capacity and uniqueness before the buy, so
		// this indicates a logic error; the exposure is real either way and
		// must be visible to the operator.
		c.logger.Error("ledger insert failed after confirmed buy",
			slog.String("instrument", inst.ID),
			slog.String("error", err.Error()),
		)
		c.notifier.Notify(ctx, "Untracked fill",
			fmt.Sprintf("bought %.8f %s at %.4f but could not record the position: %v", quantity, inst.ID, entryPrice, err))
		return fmt.Errorf("entry %s: %w", inst.ID, err)
	}

	c.logger.Info("position opened",
		slog.String("instrument", inst.ID),
		slog.String("position_id", pos.ID),
		slog.Float64("entry_price", entryPrice),
		slog.Float64("quantity", quantity),
		slog.Float64("stop_price", pos.StopPrice),
	)
	c.notifier.Notify(ctx, "Position opened",
		fmt.Sprintf("%s: bought %.8f at %.4f, stop %.4f", inst.ID, quantity, entryPrice, pos.StopPrice))

	return nil
}

// sizeOrder converts the notional budget into a base-asset quantity at the
// given price, rounded down to the instrument's lot step so the venue never
// rejects the order for size granularity.
func sizeOrder(notional, price float64, lotStep string) (float64, error) {
	qty := decimal.NewFromFloat(notional).Div(decimal.NewFromFloat(price))

	if lotStep != "" {
		step, err := decimal.NewFromString(lotStep)
		if err != nil {
			return 0, fmt.Errorf("parse lot step %q: %w", lotStep, err)
		}
		if step.IsPositive() {
			qty = qty.Div(step).Floor().Mul(step)
		}
	}

	f, _ := qty.Float64()
	if f <= 0 {
		return 0, fmt.Errorf("order size %s below lot step %q at price %v", qty, lotStep, price)
	}
	return f, nil
}
