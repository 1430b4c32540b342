package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SPOTBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// Defaults returns a Config pre-populated with sensible defaults. Credentials
// and the instrument universe have no defaults and must come from the TOML
// file or the environment.
func Defaults() Config {
	return Config{
		Venue: VenueConfig{
			BaseURL: "https://www.okx.com",
		},
		Strategy: StrategyConfig{
			QuoteCcy:       "USDT",
			Notional:       50,
			MaxPositions:   5,
			Timeframe:      "15m",
			FastSpan:       9,
			SlowSpan:       21,
			OscLookback:    14,
			Oversold:       30,
			VolLookback:    14,
			StopMultiplier: 1.5,
		},
		Execution: ExecutionConfig{
			Retries: 3,
			Backoff: duration{2 * time.Second},
		},
		Scanner: ScannerConfig{
			Interval:         duration{time.Minute},
			CallTimeout:      duration{10 * time.Second},
			FetchConcurrency: 4,
		},
		Feed: FeedConfig{
			WsURL:       "wss://ws.okx.com:8443/ws/v5/public",
			MaxQuoteAge: duration{5 * time.Second},
		},
		Status: StatusConfig{
			RedisTTL: duration{5 * time.Minute},
		},
		LogLevel: "info",
	}
}

// applyEnvOverrides reads well-known SPOTBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// --- Venue ---
	setStr(&cfg.Venue.BaseURL, "SPOTBOT_VENUE_BASE_URL")
	setStr(&cfg.Venue.APIKey, "SPOTBOT_VENUE_API_KEY")
	setStr(&cfg.Venue.APISecret, "SPOTBOT_VENUE_API_SECRET")
	setStr(&cfg.Venue.Passphrase, "SPOTBOT_VENUE_PASSPHRASE")
	setBool(&cfg.Venue.Simulated, "SPOTBOT_VENUE_SIMULATED")

	// --- Strategy ---
	setStringSlice(&cfg.Strategy.Universe, "SPOTBOT_STRATEGY_UNIVERSE")
	setStr(&cfg.Strategy.QuoteCcy, "SPOTBOT_STRATEGY_QUOTE_CCY")
	setFloat64(&cfg.Strategy.Notional, "SPOTBOT_STRATEGY_NOTIONAL")
	setInt(&cfg.Strategy.MaxPositions, "SPOTBOT_STRATEGY_MAX_POSITIONS")
	setStr(&cfg.Strategy.Timeframe, "SPOTBOT_STRATEGY_TIMEFRAME")
	setInt(&cfg.Strategy.FastSpan, "SPOTBOT_STRATEGY_FAST_SPAN")
	setInt(&cfg.Strategy.SlowSpan, "SPOTBOT_STRATEGY_SLOW_SPAN")
	setInt(&cfg.Strategy.OscLookback, "SPOTBOT_STRATEGY_OSC_LOOKBACK")
	setFloat64(&cfg.Strategy.Oversold, "SPOTBOT_STRATEGY_OVERSOLD")
	setInt(&cfg.Strategy.VolLookback, "SPOTBOT_STRATEGY_VOL_LOOKBACK")
	setFloat64(&cfg.Strategy.StopMultiplier, "SPOTBOT_STRATEGY_STOP_MULTIPLIER")

	// --- Execution ---
	setInt(&cfg.Execution.Retries, "SPOTBOT_EXECUTION_RETRIES")
	setDuration(&cfg.Execution.Backoff, "SPOTBOT_EXECUTION_BACKOFF")

	// --- Scanner ---
	setDuration(&cfg.Scanner.Interval, "SPOTBOT_SCANNER_INTERVAL")
	setDuration(&cfg.Scanner.CallTimeout, "SPOTBOT_SCANNER_CALL_TIMEOUT")
	setInt(&cfg.Scanner.FetchConcurrency, "SPOTBOT_SCANNER_FETCH_CONCURRENCY")

	// --- Feed ---
	setBool(&cfg.Feed.Enabled, "SPOTBOT_FEED_ENABLED")
	setStr(&cfg.Feed.WsURL, "SPOTBOT_FEED_WS_URL")
	setDuration(&cfg.Feed.MaxQuoteAge, "SPOTBOT_FEED_MAX_QUOTE_AGE")

	// --- Notify ---
	setStr(&cfg.Notify.TelegramToken, "SPOTBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SPOTBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SPOTBOT_NOTIFY_DISCORD_WEBHOOK_URL")

	// --- Status ---
	setStr(&cfg.Status.DashboardURL, "SPOTBOT_STATUS_DASHBOARD_URL")
	setStr(&cfg.Status.RedisAddr, "SPOTBOT_STATUS_REDIS_ADDR")
	setStr(&cfg.Status.RedisPassword, "SPOTBOT_STATUS_REDIS_PASSWORD")
	setInt(&cfg.Status.RedisDB, "SPOTBOT_STATUS_REDIS_DB")
	setDuration(&cfg.Status.RedisTTL, "SPOTBOT_STATUS_REDIS_TTL")

	// --- Top-level ---
	setStr(&cfg.LogLevel, "SPOTBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			*dst = out
		}
	}
}
