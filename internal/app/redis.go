package app

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dreamjorge/StockStreamDB/config"
	"github.com/dreamjorge/StockStreamDB/internal/logger"
)

// InitRedis connects the response cache. It returns nil when REDIS_ADDR is empty
// or the server does not answer a ping; the API then serves every read uncached.
func InitRedis(ctx context.Context, cfg config.CacheConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.L().Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unavailable, response cache disabled")
		_ = client.Close()
		return nil
	}

	logger.L().Info().Str("addr", cfg.Addr).Dur("ttl", cfg.TTL).Msg("response cache enabled")
	return client
}
