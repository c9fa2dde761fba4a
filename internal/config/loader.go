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
// built-in defaults, applies BIDROOM_* environment variable overrides, and
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

// applyEnvOverrides reads well-known BIDROOM_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject the session token and alert credentials
// at deploy time without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── API ──
	setStr(&cfg.API.BaseURL, "BIDROOM_API_BASE_URL")

	// ── Push ──
	setStr(&cfg.Push.URL, "BIDROOM_PUSH_URL")
	setDuration(&cfg.Push.ReconnectBase, "BIDROOM_PUSH_RECONNECT_BASE")
	setDuration(&cfg.Push.ReconnectMax, "BIDROOM_PUSH_RECONNECT_MAX")
	setInt(&cfg.Push.MaxAttempts, "BIDROOM_PUSH_MAX_ATTEMPTS")

	// ── Session ──
	setStr(&cfg.Session.UserID, "BIDROOM_SESSION_USER_ID")
	setStr(&cfg.Session.Label, "BIDROOM_SESSION_LABEL")
	setStr(&cfg.Session.Token, "BIDROOM_SESSION_TOKEN")
	setStr(&cfg.Session.Tier, "BIDROOM_SESSION_TIER")

	// ── Auction ──
	setStr(&cfg.Auction.ID, "BIDROOM_AUCTION_ID")
	setDuration(&cfg.Auction.EchoWindow, "BIDROOM_AUCTION_ECHO_WINDOW")
	setInt(&cfg.Auction.DepositChecks, "BIDROOM_AUCTION_DEPOSIT_CHECKS")
	setDuration(&cfg.Auction.DepositCheckDelay, "BIDROOM_AUCTION_DEPOSIT_CHECK_DELAY")
	setInt(&cfg.Auction.BidsPerMinute, "BIDROOM_AUCTION_BIDS_PER_MINUTE")
	setInt(&cfg.Auction.BidBurst, "BIDROOM_AUCTION_BID_BURST")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "BIDROOM_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "BIDROOM_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BIDROOM_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BIDROOM_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BIDROOM_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "BIDROOM_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "BIDROOM_REDIS_TLS_ENABLED")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "BIDROOM_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "BIDROOM_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "BIDROOM_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "BIDROOM_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "BIDROOM_MODE")
	setStr(&cfg.LogLevel, "BIDROOM_LOG_LEVEL")
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
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
