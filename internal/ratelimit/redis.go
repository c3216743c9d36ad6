package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

// NewRedisLimiter counts with INCR and arms the window expiry on the
// first hit of each window.
func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) Limiter {
	return &redisLimiter{rdb: rdb, limit: limit, window: window}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) error {
	redisKey := "rate_limit:" + key

	count, err := l.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return err
	}

	ttl, err := l.rdb.TTL(ctx, redisKey).Result()
	if err != nil {
		return err
	}
	if needsExpire(count, ttl) {
		if err := l.rdb.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return err
		}
	}

	if count > int64(l.limit) {
		return &LimitError{Key: key, Limit: l.limit, Window: l.window}
	}
	return nil
}

// needsExpire arms the window on the first hit of a key and re-arms it
// whenever the key carries no TTL (a crash between INCR and EXPIRE leaves
// one behind); a counter must never lock an identity out forever.
func needsExpire(count int64, ttl time.Duration) bool {
	return count == 1 || ttl < 0
}
