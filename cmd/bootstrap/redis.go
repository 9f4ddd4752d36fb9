package bootstrap

import (
	"context"
	"log/slog"

	"digital-store/internal/infra/redisx"
	"digital-store/internal/pkg/config"
	"digital-store/internal/usecase/shared"

	"go.uber.org/fx"
)

var RedisModule = fx.Module("redis",
	fx.Provide(
		NewOutcomeCache,
	),
)

// NewOutcomeCache falls back to a no-op cache when REDIS_ADDR is unset; the
// payment event table stays the source of truth either way.
func NewOutcomeCache(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (shared.OutcomeCache, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("REDIS_ADDR未設定のためWebhook結果キャッシュを無効化します")
		return redisx.NopCache{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	rdb, err := redisx.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return rdb.Close()
		},
	})
	return redisx.NewOutcomeCache(rdb), nil
}
