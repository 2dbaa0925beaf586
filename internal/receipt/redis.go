package receipt

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// receiptTTL bounds how long a consumed-receipt marker is retained; it only
// needs to outlive the window in which a retried request could plausibly
// replay the same receipt.
const receiptTTL = 24 * time.Hour

// RedisStore uses SETNX the same way idempotency.RedisStore does: the
// atomic "set if absent" is what makes ConsumeOnce linearizable across
// replicas.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func (s *RedisStore) ConsumeOnce(ctx context.Context, namespace, id string) (bool, error) {
	key := "receipt:" + namespace + ":" + id
	set, err := s.client.SetNX(ctx, key, 1, receiptTTL).Result()
	if err != nil {
		s.logger.Error("receipt: setnx failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return set, nil
}
