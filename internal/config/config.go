// Package config defines the top-level configuration for spotbot and
// provides loading and validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by SPOTBOT_* environment
// variables.
type Config struct {
	Venue     VenueConfig     `toml:"venue"`
	Strategy  StrategyConfig  `toml:"strategy"`
	Execution ExecutionConfig `toml:"execution"`
	Scanner   ScannerConfig   `toml:"scanner"`
	Feed      FeedConfig      `toml:"feed"`
	Notify    NotifyConfig    `toml:"notify"`
	Status    StatusConfig    `toml:"status"`
	LogLevel  string          `toml:"log_level"`
}

// VenueConfig holds OKX API endpoints and credentials.
type VenueConfig struct {
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	APISecret  string `toml:"api_secret"`
	Passphrase string `toml:"passphrase"`
	// Simulated enables the venue's paper-trading header.
	Simulated bool `toml:"simulated"`
}

// StrategyConfig holds the entry-signal and risk parameters.
type StrategyConfig struct {
	// Universe is the fixed list of instrument IDs to scan, e.g. "BTC-USDT".
	Universe []string `toml:"universe"`
	// QuoteCcy is the quote currency shared by the universe.
	QuoteCcy string `toml:"quote_ccy"`
	// Notional is the quote-currency budget allocated per new position.
	Notional float64 `toml:"notional"`
	// MaxPositions bounds the number of concurrently open positions.
	MaxPositions int `toml:"max_positions"`
	// Timeframe is the candle bar size used for evaluation, e.g. "15m".
	Timeframe string `toml:"timeframe"`
	// FastSpan and SlowSpan are the EMA smoothing spans (fast < slow).
	FastSpan int `toml:"fast_span"`
	SlowSpan int `toml:"slow_span"`
	// OscLookback is the oscillator's close-to-close lookback.
	OscLookback int `toml:"osc_lookback"`
	// Oversold is the oscillator threshold below which entries fire.
	Oversold float64 `toml:"oversold"`
	// VolLookback is the true-range averaging window.
	VolLookback int `toml:"vol_lookback"`
	// StopMultiplier scales the volatility range into the stop distance.
	StopMultiplier float64 `toml:"stop_multiplier"`
}

// ExecutionConfig holds order-submission retry parameters.
type ExecutionConfig struct {
	// Retries is the total number of submission attempts per order.
	Retries int `toml:"retries"`
	// Backoff is the pause between attempts.
	Backoff duration `toml:"backoff"`
}

// ScannerConfig holds the scan-loop cadence parameters.
type ScannerConfig struct {
	// Interval is the sleep between cycles.
	Interval duration `toml:"interval"`
	// CallTimeout bounds every outbound venue/notifier call.
	CallTimeout duration `toml:"call_timeout"`
	// FetchConcurrency caps the parallel candle fetches in the entry pass.
	FetchConcurrency int `toml:"fetch_concurrency"`
}

// FeedConfig holds the optional websocket ticker feed parameters.
type FeedConfig struct {
	Enabled bool   `toml:"enabled"`
	WsURL   string `toml:"ws_url"`
	// MaxQuoteAge is how old a streamed quote may be before the scanner
	// falls back to a REST reference price.
	MaxQuoteAge duration `toml:"max_quote_age"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
}

// StatusConfig holds the best-effort status-publishing targets.
type StatusConfig struct {
	// DashboardURL receives the cycle report as an HTTP POST. Empty disables.
	DashboardURL string `toml:"dashboard_url"`
	// RedisAddr enables publishing the report to a Redis key. Empty disables.
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	// RedisTTL expires stale reports so dashboards can detect a dead bot.
	RedisTTL duration `toml:"redis_ttl"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for invalid or missing values and returns a
// combined error describing every problem found. Any error here is fatal at
// startup; the loop never starts with a bad configuration.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Venue credentials.
	if c.Venue.BaseURL == "" {
		errs = append(errs, "venue: base_url must not be empty")
	}
	if c.Venue.APIKey == "" || c.Venue.APISecret == "" || c.Venue.Passphrase == "" {
		errs = append(errs, "venue: api_key, api_secret, and passphrase must all be set")
	}

	// Strategy.
	if len(c.Strategy.Universe) == 0 {
		errs = append(errs, "strategy: universe must list at least one instrument")
	}
	if c.Strategy.QuoteCcy == "" {
		errs = append(errs, "strategy: quote_ccy must not be empty")
	}
	if c.Strategy.Notional <= 0 {
		errs = append(errs, fmt.Sprintf("strategy: notional must be positive, got %v", c.Strategy.Notional))
	}
	if c.Strategy.MaxPositions <= 0 {
		errs = append(errs, fmt.Sprintf("strategy: max_positions must be positive, got %d", c.Strategy.MaxPositions))
	}
	if c.Strategy.Timeframe == "" {
		errs = append(errs, "strategy: timeframe must not be empty")
	}
	if c.Strategy.FastSpan <= 0 || c.Strategy.SlowSpan <= 0 {
		errs = append(errs, "strategy: fast_span and slow_span must be positive")
	} else if c.Strategy.FastSpan >= c.Strategy.SlowSpan {
		errs = append(errs, fmt.Sprintf("strategy: fast_span (%d) must be less than slow_span (%d)", c.Strategy.FastSpan, c.Strategy.SlowSpan))
	}
	if c.Strategy.OscLookback <= 0 {
		errs = append(errs, "strategy: osc_lookback must be positive")
	}
	if c.Strategy.Oversold <= 0 || c.Strategy.Oversold >= 100 {
		errs = append(errs, fmt.Sprintf("strategy: oversold must be between 0 and 100, got %v", c.Strategy.Oversold))
	}
	if c.Strategy.VolLookback <= 0 {
		errs = append(errs, "strategy: vol_lookback must be positive")
	}
	if c.Strategy.StopMultiplier <= 0 {
		errs = append(errs, fmt.Sprintf("strategy: stop_multiplier must be positive, got %v", c.Strategy.StopMultiplier))
	}

	// Execution.
	if c.Execution.Retries < 1 {
		errs = append(errs, fmt.Sprintf("execution: retries must be at least 1, got %d", c.Execution.Retries))
	}
	if c.Execution.Backoff.Duration < 0 {
		errs = append(errs, "execution: backoff must not be negative")
	}

	// Scanner.
	if c.Scanner.Interval.Duration <= 0 {
		errs = append(errs, "scanner: interval must be positive")
	}
	if c.Scanner.CallTimeout.Duration <= 0 {
		errs = append(errs, "scanner: call_timeout must be positive")
	}
	if c.Scanner.FetchConcurrency < 1 {
		errs = append(errs, fmt.Sprintf("scanner: fetch_concurrency must be at least 1, got %d", c.Scanner.FetchConcurrency))
	}

	// Feed.
	if c.Feed.Enabled {
		if c.Feed.WsURL == "" {
			errs = append(errs, "feed: ws_url must not be empty when the feed is enabled")
		}
		if c.Feed.MaxQuoteAge.Duration <= 0 {
			errs = append(errs, "feed: max_quote_age must be positive when the feed is enabled")
		}
	}

	// Notify: token and chat id must be set together.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
