// Package config defines the top-level configuration for the bidroom client
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by BIDROOM_* environment variables.
type Config struct {
	API      APIConfig     `toml:"api"`
	Push     PushConfig    `toml:"push"`
	Session  SessionConfig `toml:"session"`
	Auction  AuctionConfig `toml:"auction"`
	Redis    RedisConfig   `toml:"redis"`
	Notify   NotifyConfig  `toml:"notify"`
	Mode     string        `toml:"mode"`
	LogLevel string        `toml:"log_level"`
}

// APIConfig holds marketplace REST API parameters.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
}

// PushConfig holds push-channel connection and reconnect parameters.
type PushConfig struct {
	URL           string   `toml:"url"`
	ReconnectBase duration `toml:"reconnect_base"`
	ReconnectMax  duration `toml:"reconnect_max"`
	MaxAttempts   int      `toml:"max_attempts"`
}

// SessionConfig holds the fixed session identity. All fields empty is a
// valid anonymous viewer.
type SessionConfig struct {
	UserID string `toml:"user_id"`
	Label  string `toml:"label"`
	Token  string `toml:"token"`
	Tier   string `toml:"tier"` // none, pending, verified
}

// AuctionConfig holds parameters of the mounted auction view.
type AuctionConfig struct {
	ID                string   `toml:"id"`
	EchoWindow        duration `toml:"echo_window"`
	DepositChecks     int      `toml:"deposit_checks"`
	DepositCheckDelay duration `toml:"deposit_check_delay"`
	BidsPerMinute     int      `toml:"bids_per_minute"`
	BidBurst          int      `toml:"bid_burst"`
}

// RedisConfig holds Redis connection parameters. Redis is optional; when
// disabled the client runs without snapshot priming.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// NotifyConfig holds alert channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
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

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080/api/v1",
		},
		Push: PushConfig{
			URL:           "ws://localhost:8080/ws",
			ReconnectBase: duration{2 * time.Second},
			ReconnectMax:  duration{60 * time.Second},
			MaxAttempts:   8,
		},
		Session: SessionConfig{
			Tier: "none",
		},
		Auction: AuctionConfig{
			EchoWindow:        duration{15 * time.Second},
			DepositChecks:     5,
			DepositCheckDelay: duration{2 * time.Second},
			BidsPerMinute:     30,
			BidBurst:          3,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   10,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Notify: NotifyConfig{
			Events: []string{"bid_placed", "outbid", "auction_ended", "auction_won", "no_winner", "connection_lost"},
		},
		Mode:     "watch",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"watch": true,
	"bid":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validTiers enumerates the accepted values for SessionConfig.Tier.
var validTiers = map[string]bool{
	"":         true,
	"none":     true,
	"pending":  true,
	"verified": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: watch, bid)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.API.BaseURL == "" {
		errs = append(errs, "api: base_url must not be empty")
	}

	if c.Push.URL == "" {
		errs = append(errs, "push: url must not be empty")
	}
	if c.Push.ReconnectBase.Duration <= 0 {
		errs = append(errs, "push: reconnect_base must be > 0")
	}
	if c.Push.ReconnectMax.Duration < c.Push.ReconnectBase.Duration {
		errs = append(errs, "push: reconnect_max must be >= reconnect_base")
	}
	if c.Push.MaxAttempts < 1 {
		errs = append(errs, "push: max_attempts must be >= 1")
	}

	// Bid mode needs an authenticated identity; watch mode is fine anonymous.
	if !validTiers[strings.ToLower(c.Session.Tier)] {
		errs = append(errs, fmt.Sprintf("session: unknown tier %q (valid: none, pending, verified)", c.Session.Tier))
	}
	if strings.ToLower(c.Mode) == "bid" {
		if c.Session.UserID == "" {
			errs = append(errs, "session: user_id is required for bid mode")
		}
		if c.Session.Token == "" {
			errs = append(errs, "session: token is required for bid mode")
		}
	}

	if c.Auction.ID == "" {
		errs = append(errs, "auction: id must not be empty")
	}
	if c.Auction.EchoWindow.Duration <= 0 {
		errs = append(errs, "auction: echo_window must be > 0")
	}
	if c.Auction.DepositChecks < 1 {
		errs = append(errs, "auction: deposit_checks must be >= 1")
	}
	if c.Auction.DepositCheckDelay.Duration <= 0 {
		errs = append(errs, "auction: deposit_check_delay must be > 0")
	}
	if c.Auction.BidsPerMinute < 1 {
		errs = append(errs, "auction: bids_per_minute must be >= 1")
	}
	if c.Auction.BidBurst < 1 {
		errs = append(errs, "auction: bid_burst must be >= 1")
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Telegram needs both fields or neither.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
