package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix префикс ключей счетчиков в Redis
const DefaultRedisPrefix = "authapi:rl:"

// Redis fixed-window limiter, общий для всех экземпляров сервиса.
// Счетчик ключа создается первым INCR и живет window.
type Redis struct {
	client *redis.Client
	prefix string
	rate   int
	window time.Duration
}

// NewRedis создает limiter поверх готового клиента.
// Пустой prefix заменяется на DefaultRedisPrefix.
func NewRedis(client *redis.Client, prefix string, rate int, window time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{
		client: client,
		prefix: prefix,
		rate:   rate,
		window: window,
	}
}

// Allow увеличивает счетчик ключа и сравнивает его с лимитом.
// INCR и EXPIRE NX уходят одной транзакцией на каждый запрос: если TTL
// однажды не выставился, следующий запрос его выставит, и ключ не живет вечно.
// Отмена запроса клиентом не прерывает транзакцию посередине.
func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.prefix + key
	ctx = context.WithoutCancel(ctx)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis incr/expire: %w", err)
	}

	return incr.Val() <= int64(l.rate), nil
}
