// Package quoting locks an FX rate for a currency pair and amount ahead
// of dispatch, caching locks for 5 minutes with stale-while-revalidate
// semantics (§4.2).
package quoting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"visadirect-sdk-go/pkg/cache"
)

const lockTTL = 5 * time.Minute

type Poster interface {
	Post(ctx context.Context, path string, payload any) (map[string]any, int, error)
}

type Service struct {
	http   Poster
	cache  cache.Cache
	logger *zap.Logger
}

func New(http Poster, c cache.Cache, logger *zap.Logger) *Service {
	return &Service{http: http, cache: c, logger: logger}
}

func (s *Service) Lock(ctx context.Context, srcCurrency, dstCurrency string, amountMinor int64) (map[string]any, error) {
	key := fmt.Sprintf("quote:%s:%s:%d", srcCurrency, dstCurrency, amountMinor)

	raw, found, shouldRevalidate, err := s.cache.GetWithRevalidate(ctx, key)
	if err != nil {
		return nil, err
	}
	if found {
		if shouldRevalidate {
			go s.revalidate(key, srcCurrency, dstCurrency, amountMinor)
		}
		return decode(raw)
	}
	return s.fetchAndCache(ctx, key, srcCurrency, dstCurrency, amountMinor)
}

func (s *Service) fetchAndCache(ctx context.Context, key, srcCurrency, dstCurrency string, amountMinor int64) (map[string]any, error) {
	data, err := s.request(ctx, srcCurrency, dstCurrency, amountMinor)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(data); err == nil {
		_ = s.cache.Set(ctx, key, encoded, lockTTL)
	}
	return data, nil
}

func (s *Service) revalidate(key, srcCurrency, dstCurrency string, amountMinor int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data, err := s.request(ctx, srcCurrency, dstCurrency, amountMinor)
	if err != nil {
		s.logger.Warn("quoting: background revalidate failed", zap.String("key", key), zap.Error(err))
		return
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, key, encoded, lockTTL)
}

func (s *Service) request(ctx context.Context, srcCurrency, dstCurrency string, amountMinor int64) (map[string]any, error) {
	payload := map[string]any{
		"src": srcCurrency,
		"dst": dstCurrency,
		"amount": map[string]any{"minor": amountMinor},
	}
	data, _, err := s.http.Post(ctx, "/forexrates/v1/lock", payload)
	return data, err
}

func decode(raw []byte) (map[string]any, error) {
	var out map[string]any
	err := json.Unmarshal(raw, &out)
	return out, err
}
