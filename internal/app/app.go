// Package app provides the top-level application lifecycle for the spot bot.
// It wires together the venue client, quote feed, trading core, notifiers,
// and status publishers, and supervises the long-running goroutines.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/youssefbn/spotbot/internal/config"
)

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, announces startup, starts the scan loop and the
// optional quote feed, and blocks until the context is cancelled or a
// supervised goroutine fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	deps.Notifier.Notify(ctx, "Bot started",
		fmt.Sprintf("watching %d instruments, max %d positions, %.2f %s per entry",
			len(deps.Universe), a.cfg.Strategy.MaxPositions,
			a.cfg.Strategy.Notional, a.cfg.Strategy.QuoteCcy))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return deps.Scanner.Run(gctx)
	})
	if deps.Feed != nil {
		g.Go(func() error {
			return deps.Feed.Run(gctx)
		})
	}
	return g.Wait()
}

// Close tears down all resources in reverse registration order. Safe to call
// multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
