package bootstrap

import (
	"context"
	"log/slog"

	"booking-engine/internal/infra/lock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/shared"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var LockModule = fx.Module("lock",
	fx.Provide(
		NewResourceLocker,
	),
)

// NewResourceLocker returns nil for the advisory backend; the postgres unit of
// work then takes pg_advisory_xact_lock inside its own transaction.
func NewResourceLocker(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (shared.ResourceLocker, error) {
	if cfg.Lock.Backend != config.LockRedis {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Lock.RedisAddr,
		Password: cfg.Lock.RedisPassword,
		DB:       cfg.Lock.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return err
			}
			logger.Info("redis lock backend ready", "addr", cfg.Lock.RedisAddr)
			return nil
		},
		OnStop: func(_ context.Context) error {
			return client.Close()
		},
	})

	return lock.NewRedisLocker(client, cfg.Lock.KeyPrefix, cfg.Lock.TTL), nil
}
