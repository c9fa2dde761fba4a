package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/alanyoungcy/bidroom/internal/cache/redis"
	"github.com/alanyoungcy/bidroom/internal/config"
	"github.com/alanyoungcy/bidroom/internal/domain"
	"github.com/alanyoungcy/bidroom/internal/notify"
	"github.com/alanyoungcy/bidroom/internal/payment"
	"github.com/alanyoungcy/bidroom/internal/platform/market"
	"github.com/alanyoungcy/bidroom/internal/push"
	"github.com/alanyoungcy/bidroom/internal/session"
)

// Dependencies bundles everything the application modes need to mount an
// auction view. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	API       domain.MarketAPI
	Push      *push.Client
	Session   domain.SessionStore
	Payments  domain.PaymentLauncher
	Snapshots domain.SnapshotCache
	Similar   domain.SimilarCache
	Notifier  *notify.Notifier
	Clock     clockwork.Clock
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Clock: clockwork.NewRealClock()}

	// --- Session ---
	store := session.NewStaticStore(
		cfg.Session.UserID,
		cfg.Session.Label,
		cfg.Session.Token,
		domain.VerificationTier(cfg.Session.Tier),
	)
	deps.Session = store
	identity := store.Identity()

	// --- Marketplace API ---
	deps.API = market.NewClient(cfg.API.BaseURL, identity.Token)

	// --- Push channel ---
	deps.Push = push.NewClient(push.Config{
		URL:           cfg.Push.URL,
		Token:         identity.Token,
		ReconnectBase: cfg.Push.ReconnectBase.Duration,
		ReconnectMax:  cfg.Push.ReconnectMax.Duration,
		MaxAttempts:   cfg.Push.MaxAttempts,
	}, logger)

	// --- Redis caches (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Snapshots = redis.NewSnapshotCache(redisClient)
		deps.Similar = redis.NewSimilarCache(redisClient)
	}

	// --- Payment hand-off ---
	deps.Payments = payment.NewRedirectLauncher(os.Stdout, logger)

	// --- Alerts ---
	senders := []notify.Sender{notify.NewTerminalSender(os.Stdout)}
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
