package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache is the distributed-deployment Cache backend: every replica of
// the SDK observes the same entries, so stale-while-revalidate doesn't
// trigger a refresh storm per-process.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// Config describes how to reach the Redis cache backend.
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisCache(client *redis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

// storedValue wraps the raw payload with the TTL it was written with, since
// Redis forgets the original TTL once it starts counting down.
type storedValue struct {
	Payload  []byte `json:"payload"`
	StoredAt int64  `json:"storedAt"`
	TTLNanos int64  `json:"ttlNanos"`
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	sv, ok, err := c.fetch(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	return sv.Payload, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	sv := storedValue{Payload: value, StoredAt: time.Now().UnixNano(), TTLNanos: int64(ttl)}
	encoded, err := encodeStoredValue(sv)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, encoded, ttl).Err(); err != nil {
		c.logger.Error("cache: failed to set key", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (c *RedisCache) GetWithRevalidate(ctx context.Context, key string) ([]byte, bool, bool, error) {
	sv, ok, err := c.fetch(ctx, key)
	if err != nil || !ok {
		return nil, false, false, err
	}
	age := time.Duration(time.Now().UnixNano() - sv.StoredAt)
	shouldRevalidate := age > time.Duration(sv.TTLNanos)/2
	return sv.Payload, true, shouldRevalidate, nil
}

func (c *RedisCache) fetch(ctx context.Context, key string) (storedValue, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return storedValue{}, false, nil
	}
	if err != nil {
		c.logger.Error("cache: failed to get key", zap.String("key", key), zap.Error(err))
		return storedValue{}, false, err
	}
	sv, err := decodeStoredValue(raw)
	if err != nil {
		return storedValue{}, false, err
	}
	return sv, true, nil
}
