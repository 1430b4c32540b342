// Package executor wraps order submission with bounded retry. Every entry
// and exit order in the system goes through the Gateway.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/youssefbn/spotbot/internal/domain"
	"github.com/youssefbn/spotbot/internal/notify"
)

// Gateway submits market orders to the venue with a fixed number of attempts
// and a fixed backoff between them. It emits exactly one notification per
// terminal failure; individual attempt outcomes are logged, not notified, to
// avoid alert storms.
type Gateway struct {
	venue    domain.Venue
	notifier *notify.Notifier
	retries  int
	backoff  time.Duration
	logger   *slog.Logger
}

// NewGateway creates a Gateway performing up to retries attempts per order.
func NewGateway(venue domain.Venue, notifier *notify.Notifier, retries int, backoff time.Duration, logger *slog.Logger) *Gateway {
	return &Gateway{
		venue:    venue,
		notifier: notifier,
		retries:  retries,
		backoff:  backoff,
		logger:   logger.With(slog.String("component", "gateway")),
	}
}

// Submit places a market order for quantity of the instrument's base asset.
// Before each sell attempt it cancels any resting orders for the instrument
// so a partial fill cannot leave the recorded quantity ambiguous. On success
// it returns the confirmed fill; after exhausting all attempts it notifies
// once and returns the last error.
func (g *Gateway) Submit(ctx context.Context, inst domain.Instrument, side domain.OrderSide, quantity float64) (domain.OrderResult, error) {
	log := g.logger.With(
		slog.String("instrument", inst.ID),
		slog.String("side", string(side)),
		slog.Float64("quantity", quantity),
	)

	var lastErr error
	for attempt := 1; attempt <= g.retries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return domain.OrderResult{}, fmt.Errorf("submit %s %s: %w (last error: %v)", side, inst.ID, ctx.Err(), lastErr)
			case <-time.After(g.backoff):
			}
		}

		if side == domain.OrderSideSell {
			if err := g.venue.CancelOpenOrders(ctx, inst); err != nil {
				log.Warn("cancel open orders failed",
					slog.Int("attempt", attempt),
					slog.String("error", err.Error()),
				)
				lastErr = err
				continue
			}
		}

		result, err := g.venue.SubmitMarketOrder(ctx, inst, side, quantity)
		if err == nil {
			log.Info("order filled",
				slog.Int("attempt", attempt),
				slog.String("order_id", result.OrderID),
				slog.Float64("filled_price", result.FilledPrice),
			)
			return result, nil
		}

		log.Warn("order attempt failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		lastErr = err
	}

	log.Error("order failed terminally",
		slog.Int("attempts", g.retries),
		slog.String("error", lastErr.Error()),
	)
	g.notifier.Notify(ctx, "Order failed",
		fmt.Sprintf("%s %s %.8f failed after %d attempts: %v", side, inst.ID, quantity, g.retries, lastErr))

	return domain.OrderResult{}, fmt.Errorf("submit %s %s after %d attempts: %w", side, inst.ID, g.retries, lastErr)
}
