package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/youssefbn/spotbot/internal/config"
	"github.com/youssefbn/spotbot/internal/domain"
	"github.com/youssefbn/spotbot/internal/engine"
	"github.com/youssefbn/spotbot/internal/executor"
	"github.com/youssefbn/spotbot/internal/feed"
	"github.com/youssefbn/spotbot/internal/indicator"
	"github.com/youssefbn/spotbot/internal/ledger"
	"github.com/youssefbn/spotbot/internal/notify"
	"github.com/youssefbn/spotbot/internal/scanner"
	"github.com/youssefbn/spotbot/internal/signal"
	"github.com/youssefbn/spotbot/internal/status"
	"github.com/youssefbn/spotbot/internal/venue/okx"
)

// Dependencies bundles everything the running application needs. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Scanner  *scanner.Scanner
	Feed     *feed.OKXTickerFeed
	Notifier *notify.Notifier
	Universe []domain.Instrument
}

// Wire constructs all concrete dependencies from the configuration and
// returns a cleanup function to be called on shutdown.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// --- Venue ---
	var venue domain.Venue = okx.NewClient(cfg.Venue, logger)

	// --- Universe ---
	universe, err := resolveUniverse(ctx, venue, cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: universe: %w", err)
	}

	// --- Quote feed (optional) ---
	var tickerFeed *feed.OKXTickerFeed
	if cfg.Feed.Enabled {
		book := feed.NewQuoteBook()
		instIDs := make([]string, 0, len(universe))
		for _, inst := range universe {
			instIDs = append(instIDs, inst.ID)
		}
		tickerFeed = feed.NewOKXTickerFeed(cfg.Feed.WsURL, instIDs, book, logger)
		venue = feed.NewQuotedVenue(venue, book, cfg.Feed.MaxQuoteAge.Duration)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	notifier := notify.NewNotifier(senders, logger)

	// --- Status publishers ---
	var publishers []domain.StatusPublisher
	if cfg.Status.DashboardURL != "" {
		publishers = append(publishers, status.NewHTTPPublisher(cfg.Status.DashboardURL))
	}
	if cfg.Status.RedisAddr != "" {
		redisPub, err := status.NewRedisPublisher(ctx, cfg.Status.RedisAddr, cfg.Status.RedisPassword, cfg.Status.RedisDB, cfg.Status.RedisTTL.Duration)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisPub.Close() })
		publishers = append(publishers, redisPub)
	}

	// --- Trading core ---
	led := ledger.New(cfg.Strategy.MaxPositions)
	indicators := indicator.NewEngine(indicator.Params{
		FastSpan:    cfg.Strategy.FastSpan,
		SlowSpan:    cfg.Strategy.SlowSpan,
		OscLookback: cfg.Strategy.OscLookback,
		VolLookback: cfg.Strategy.VolLookback,
	})
	evaluator := signal.NewEvaluator(cfg.Strategy.Oversold, cfg.Strategy.MaxPositions)
	gateway := executor.NewGateway(venue, notifier, cfg.Execution.Retries, cfg.Execution.Backoff.Duration, logger)
	entries := engine.NewEntryController(engine.EntryConfig{
		Notional:       cfg.Strategy.Notional,
		StopMultiplier: cfg.Strategy.StopMultiplier,
	}, venue, gateway, led, notifier, logger)
	risk := engine.NewRiskEngine(cfg.Strategy.StopMultiplier, venue, gateway, led, notifier, logger)

	scan := scanner.New(scanner.Config{
		Interval:         cfg.Scanner.Interval.Duration,
		CallTimeout:      cfg.Scanner.CallTimeout.Duration,
		FetchConcurrency: cfg.Scanner.FetchConcurrency,
		Timeframe:        cfg.Strategy.Timeframe,
		QuoteCcy:         cfg.Strategy.QuoteCcy,
		Notional:         cfg.Strategy.Notional,
	}, universe, venue, indicators, evaluator, entries, risk, led, publishers, logger)

	return &Dependencies{
		Scanner:  scan,
		Feed:     tickerFeed,
		Notifier: notifier,
		Universe: universe,
	}, cleanup, nil
}

// resolveUniverse intersects the configured instrument list with what the
// venue actually lists as live spot pairs in the quote currency. Configured
// pairs the venue does not list are skipped with a warning.
func resolveUniverse(ctx context.Context, venue domain.Venue, cfg *config.Config, logger *slog.Logger) ([]domain.Instrument, error) {
	listed, err := venue.ListInstruments(ctx, cfg.Strategy.QuoteCcy)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Instrument, len(listed))
	for _, inst := range listed {
		byID[inst.ID] = inst
	}

	universe := make([]domain.Instrument, 0, len(cfg.Strategy.Universe))
	for _, id := range cfg.Strategy.Universe {
		inst, ok := byID[id]
		if !ok {
			logger.Warn("configured instrument not listed on venue, skipping", slog.String("instrument", id))
			continue
		}
		universe = append(universe, inst)
	}
	if len(universe) == 0 {
		return nil, fmt.Errorf("none of the %d configured instruments are listed", len(cfg.Strategy.Universe))
	}
	return universe, nil
}
