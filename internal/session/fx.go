package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/promosync/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("session",
	fx.Provide(NewStore),
)

// NewStore picks the backend from configuration: Redis when REDIS_ADDR is
// set, otherwise in process memory.
func NewStore(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Store {
	ttl := time.Duration(cfg.SessionTTLSec) * time.Second

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
		log.Named("session").Info("using redis session store", zap.String("addr", cfg.RedisAddr))
		return NewRedisStore(client, ttl)
	}

	store := NewMemoryStore(ttl)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store
}
