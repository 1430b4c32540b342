package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/youssefbn/spotbot/internal/domain"
	"github.com/youssefbn/spotbot/internal/executor"
	"github.com/youssefbn/spotbot/internal/ledger"
	"github.com/youssefbn/spotbot/internal/notify"
)

// RiskEngine protects open positions with a volatility-adaptive trailing
// stop. Once a position is in the ledger the risk engine is its only writer:
// each cycle it ratchets the stop upward with the price and submits the exit
// when the bid falls to the stop.
type RiskEngine struct {
	stopMultiplier float64
	venue          domain.Venue
	gateway        *executor.Gateway
	ledger         *ledger.Ledger
	notifier       *notify.Notifier
	logger         *slog.Logger

	mu             sync.Mutex
	realizedProfit float64
}

// NewRiskEngine creates a RiskEngine.
func NewRiskEngine(stopMultiplier float64, venue domain.Venue, gateway *executor.Gateway, led *ledger.Ledger, notifier *notify.Notifier, logger *slog.Logger) *RiskEngine {
	return &RiskEngine{
		stopMultiplier: stopMultiplier,
		venue:          venue,
		gateway:        gateway,
		ledger:         led,
		notifier:       notifier,
		logger:         logger.With(slog.String("component", "risk")),
	}
}

// Check runs one risk evaluation for a single open position: ratchet the
// stop with the current bid, then exit if the stop is breached. Errors are
// returned for per-position logging; they never carry across positions.
func (r *RiskEngine) Check(ctx context.Context, pos *domain.Position) error {
	if pos.Closing {
		// A previous exit failed terminally. The position stays visible in
		// the ledger until an operator intervenes; it is never re-submitted
		// automatically.
		r.logger.Warn("position stuck closing, skipping",
			slog.String("instrument", pos.Instrument.ID),
			slog.String("position_id", pos.ID),
		)
		return nil
	}

	price, err := r.venue.FetchReferencePrice(ctx, pos.Instrument, domain.OrderSideSell)
	if err != nil {
		return fmt.Errorf("risk %s: %w", pos.Instrument.ID, err)
	}

	// Ratchet: the stop follows the highest bid seen, never loosens.
	if price > pos.HighestPriceSeen {
		pos.HighestPriceSeen = price
		if stop := price - pos.VolatilityAtEntry*r.stopMultiplier; stop > pos.StopPrice {
			pos.StopPrice = stop
			r.logger.Debug("stop ratcheted",
				slog.String("instrument", pos.Instrument.ID),
				slog.Float64("price", price),
				slog.Float64("stop_price", stop),
			)
		}
	}

	if price > pos.StopPrice {
		return nil
	}

	pos.Closing = true
	result, err := r.gateway.Submit(ctx, pos.Instrument, domain.OrderSideSell, pos.Quantity)
	if err != nil {
		// The gateway already notified the order failure; this one flags
		// the open exposure left behind so the operator can act on it.
		r.notifier.Notify(ctx, "Position stuck",
			fmt.Sprintf("%s: exit failed, %.8f still held with stop %.4f, manual close required",
				pos.Instrument.ID, pos.Quantity, pos.StopPrice))
		return fmt.Errorf("risk %s: %w", pos.Instrument.ID, err)
	}

	exitPrice := result.FilledPrice
	if exitPrice <= 0 {
		exitPrice = price
	}
	profit := (exitPrice - pos.EntryPrice) * pos.Quantity

	r.mu.Lock()
	r.realizedProfit += profit
	r.mu.Unlock()

	if err := r.ledger.Remove(pos.Instrument.ID); err != nil {
		r.logger.Error("ledger remove failed after confirmed sell",
			slog.String("instrument", pos.Instrument.ID),
			slog.String("error", err.Error()),
		)
	}

	r.logger.Info("position closed",
		slog.String("instrument", pos.Instrument.ID),
		slog.String("position_id", pos.ID),
		slog.Float64("exit_price", exitPrice),
		slog.Float64("profit", profit),
	)
	r.notifier.Notify(ctx, "Position closed",
		fmt.Sprintf("%s: sold %.8f at %.4f, profit %.4f", pos.Instrument.ID, pos.Quantity, exitPrice, profit))

	return nil
}

// RealizedProfit returns the running total of realized profit since start.
func (r *RiskEngine) RealizedProfit() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.realizedProfit
}
