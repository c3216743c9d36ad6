package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	rdb *redis.Client
}

// NewRedisStore backs the session store with Redis; expiry is handled
// by key TTL, no explicit cleanup.
func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func (s *redisStore) Get(ctx context.Context, threadID string) ([]byte, error) {
	val, err := s.rdb.Get(ctx, "session:"+threadID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *redisStore) Put(ctx context.Context, threadID string, val []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, "session:"+threadID, val, ttl).Err()
}
