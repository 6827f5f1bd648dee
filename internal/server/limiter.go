package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iudanet/authapi/internal/config"
	"github.com/iudanet/authapi/internal/server/limiter"
)

// NewLimiter создает limiter для sign-in/sign-up.
// С REDIS_ADDR лимит общий для всех экземпляров, иначе в памяти процесса.
// Возвращаемую функцию нужно вызвать при остановке.
func NewLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (limiter.Limiter, func(), error) {
	if cfg.RedisAddr == "" {
		mem := limiter.NewMemory(cfg.RateLimitRequests, cfg.RateLimitWindow)
		logger.Info("rate limiter: in-memory",
			slog.Int("requests", cfg.RateLimitRequests),
			slog.Duration("window", cfg.RateLimitWindow))
		return mem, mem.Stop, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to redis %s: %w", cfg.RedisAddr, err)
	}

	logger.Info("rate limiter: redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("requests", cfg.RateLimitRequests),
		slog.Duration("window", cfg.RateLimitWindow))

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis client", slog.Any("error", err))
		}
	}
	return limiter.NewRedis(client, limiter.DefaultRedisPrefix, cfg.RateLimitRequests, cfg.RateLimitWindow), closeFn, nil
}
