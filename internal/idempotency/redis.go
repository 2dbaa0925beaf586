package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore is the multi-instance idempotency backend. It relies on
// SETNX's atomicity to make "first successful put wins" hold across
// concurrent replicas, the same guarantee the cache package's SetNX helper
// gave the original gift-card redemption flow.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Error("idempotency: get failed", zap.String("key", key), zap.Error(err))
		return nil, false, err
	}
	return raw, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, []byte, error) {
	set, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		s.logger.Error("idempotency: setnx failed", zap.String("key", key), zap.Error(err))
		return false, nil, err
	}
	if set {
		return true, nil, nil
	}

	existing, _, err := s.Get(ctx, key)
	if err != nil {
		return false, nil, err
	}
	return false, existing, nil
}
