// Package scanner drives the evaluation cycle: an entry pass across the
// instrument universe, a risk pass across the open positions, a best-effort
// status publish, then a sleep. The loop runs until the context is
// cancelled; no steady-state error is ever allowed to terminate it.
package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/youssefbn/spotbot/internal/domain"
	"github.com/youssefbn/spotbot/internal/engine"
	"github.com/youssefbn/spotbot/internal/indicator"
	"github.com/youssefbn/spotbot/internal/ledger"
	"github.com/youssefbn/spotbot/internal/signal"
)

// Config holds the scan-loop tunables.
type Config struct {
	// Interval is the sleep between cycles.
	Interval time.Duration
	// CallTimeout bounds every outbound call made during a cycle.
	CallTimeout time.Duration
	// FetchConcurrency caps the parallel candle fetches in the entry pass.
	FetchConcurrency int
	// Timeframe is the candle bar size requested from the venue.
	Timeframe string
	// QuoteCcy is the balance asset checked before entries.
	QuoteCcy string
	// Notional is the per-trade budget; entries are skipped when the free
	// quote balance is below it.
	Notional float64
}

// Scanner owns one evaluation cycle. Candle fetches fan out across
// goroutines; every decision that touches the ledger fans back in to the
// single loop goroutine.
type Scanner struct {
	cfg        Config
	universe   []domain.Instrument
	venue      domain.Venue
	indicators *indicator.Engine
	evaluator  *signal.Evaluator
	entries    *engine.EntryController
	risk       *engine.RiskEngine
	ledger     *ledger.Ledger
	publishers []domain.StatusPublisher
	logger     *slog.Logger

	// lastPublished tracks the realized total at the previous status
	// publish so each report carries a delta.
	lastPublished float64
}

// New creates a Scanner over the given instrument universe.
func New(
	cfg Config,
	universe []domain.Instrument,
	venue domain.Venue,
	indicators *indicator.Engine,
	evaluator *signal.Evaluator,
	entries *engine.EntryController,
	risk *engine.RiskEngine,
	led *ledger.Ledger,
	publishers []domain.StatusPublisher,
	logger *slog.Logger,
) *Scanner {
	return &Scanner{
		cfg:        cfg,
		universe:   universe,
		venue:      venue,
		indicators: indicators,
		evaluator:  evaluator,
		entries:    entries,
		risk:       risk,
		ledger:     led,
		publishers: publishers,
		logger:     logger.With(slog.String("component", "scanner")),
	}
}

// Run executes cycles until ctx is cancelled. The inter-cycle sleep is
// interruptible by shutdown.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info("scanner started",
		slog.Int("universe", len(s.universe)),
		slog.Duration("interval", s.cfg.Interval),
	)
	defer s.logger.Info("scanner stopped")

	for {
		s.Cycle(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.Interval):
		}
	}
}

// Cycle runs one full evaluation: entry pass, risk pass, status publish.
// It never returns an error; all failures are isolated and logged.
func (s *Scanner) Cycle(ctx context.Context) {
	started := time.Now()

	s.entryPass(ctx)
	s.riskPass(ctx)
	s.publishStatus(ctx)

	s.logger.Debug("cycle complete",
		slog.Duration("elapsed", time.Since(started)),
		slog.Int("open_positions", s.ledger.Len()),
	)
}

// snapshotResult carries one instrument's indicator computation from the
// fetch fan-out back to the decision loop.
type snapshotResult struct {
	inst domain.Instrument
	snap domain.IndicatorSnapshot
}

// entryPass evaluates every unowned instrument in the universe and opens
// positions where the entry signal fires. A failure on one instrument never
// aborts the pass for the rest.
func (s *Scanner) entryPass(ctx context.Context) {
	free, err := s.fetchBalance(ctx)
	if err != nil {
		s.logger.Warn("balance check failed, skipping entry pass",
			slog.String("error", err.Error()),
		)
		return
	}
	if free < s.cfg.Notional {
		s.logger.Debug("insufficient balance for new entries",
			slog.Float64("free", free),
			slog.Float64("notional", s.cfg.Notional),
		)
		return
	}

	// Fan out: fetch candles and compute snapshots concurrently. Workers
	// only read; nothing here touches the ledger.
	var (
		mu      sync.Mutex
		results []snapshotResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.FetchConcurrency)

	for _, inst := range s.universe {
		if s.ledger.Has(inst.ID) {
			continue // owned instruments are handled by the risk pass
		}
		inst := inst
		g.Go(func() error {
			snap, err := s.computeSnapshot(gctx, inst)
			if err != nil {
				// Recoverable per instrument: insufficient history and venue
				// read errors both mean "skip this cycle".
				if errors.Is(err, domain.ErrInsufficientHistory) {
					s.logger.Debug("skipping instrument",
						slog.String("instrument", inst.ID),
						slog.String("reason", err.Error()),
					)
				} else {
					s.logger.Warn("instrument evaluation failed",
						slog.String("instrument", inst.ID),
						slog.String("error", err.Error()),
					)
				}
				return nil
			}
			mu.Lock()
			results = append(results, snapshotResult{inst: inst, snap: snap})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures are isolated above

	// Fan in: decisions and ledger mutations happen sequentially.
	for _, res := range results {
		if ctx.Err() != nil {
			return
		}
		if !s.evaluator.ShouldEnter(res.snap, s.ledger.Len(), s.ledger.Has(res.inst.ID)) {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
		err := s.entries.Open(callCtx, res.inst, res.snap.VolatilityRange)
		cancel()
		if err != nil {
			s.logger.Warn("entry failed",
				slog.String("instrument", res.inst.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// riskPass runs the stop ratchet and exit decision for every open position.
// Failures are isolated per position.
func (s *Scanner) riskPass(ctx context.Context) {
	for _, pos := range s.ledger.Open() {
		if ctx.Err() != nil {
			return
		}
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
		err := s.risk.Check(callCtx, pos)
		cancel()
		if err != nil {
			s.logger.Warn("risk check failed",
				slog.String("instrument", pos.Instrument.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// publishStatus pushes the cycle report to every configured publisher.
// Publishing is best-effort; failures are logged and swallowed.
func (s *Scanner) publishStatus(ctx context.Context) {
	total := s.risk.RealizedProfit()
	report := domain.CycleReport{
		Time:                time.Now().UTC(),
		OpenCount:           s.ledger.Len(),
		RealizedProfitDelta: total - s.lastPublished,
		RealizedProfitTotal: total,
	}
	s.lastPublished = total

	for _, pub := range s.publishers {
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
		err := pub.Publish(callCtx, report)
		cancel()
		if err != nil {
			s.logger.Warn("status publish failed",
				slog.String("publisher", pub.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// computeSnapshot fetches the candle window for one instrument and runs the
// indicator engine on it. The venue call is bounded by the call timeout.
func (s *Scanner) computeSnapshot(ctx context.Context, inst domain.Instrument) (domain.IndicatorSnapshot, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	candles, err := s.venue.FetchCandles(callCtx, inst, s.cfg.Timeframe, s.indicators.MinWindow())
	if err != nil {
		return domain.IndicatorSnapshot{}, err
	}
	return s.indicators.Compute(candles)
}

func (s *Scanner) fetchBalance(ctx context.Context) (float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.venue.FetchAvailableBalance(callCtx, s.cfg.QuoteCcy)
}
