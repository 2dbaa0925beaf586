// Package recipient wraps the alias-resolution, card-validation, and
// funds-transfer-attribute-inquiry lookups the preflight pipeline needs
// before a payout can dispatch, caching each with stale-while-revalidate
// semantics so a slow upstream doesn't block every request (§4.2).
package recipient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"visadirect-sdk-go/pkg/cache"
)

// defaultTTL matches the original SDK's 60-second cache window for
// recipient lookups.
const defaultTTL = 60 * time.Second

// Poster is the subset of the secure transport client these lookups need.
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

func (s *Service) ResolveAlias(ctx context.Context, alias, aliasType string) (map[string]any, error) {
	key := fmt.Sprintf("alias:%s:%s", aliasType, alias)
	payload := map[string]any{"alias": alias, "aliasType": aliasType}
	return s.lookup(ctx, key, "/visaaliasdirectory/v1/resolve", payload)
}

func (s *Service) PAV(ctx context.Context, panToken string) (map[string]any, error) {
	key := "pav:" + panToken
	payload := map[string]any{"panToken": panToken}
	return s.lookup(ctx, key, "/pav/v1/card/validation", payload)
}

func (s *Service) FTAI(ctx context.Context, panToken string) (map[string]any, error) {
	key := "ftai:" + panToken
	payload := map[string]any{"panToken": panToken}
	return s.lookup(ctx, key, "/paai/v1/fundstransfer/attributes/inquiry", payload)
}

func (s *Service) Validate(ctx context.Context, destinationHash string, payload map[string]any) (map[string]any, error) {
	key := "validate:" + destinationHash
	return s.lookup(ctx, key, "/visapayouts/v3/payouts/validate", payload)
}

func (s *Service) lookup(ctx context.Context, key, path string, payload map[string]any) (map[string]any, error) {
	raw, found, shouldRevalidate, err := s.cache.GetWithRevalidate(ctx, key)
	if err != nil {
		return nil, err
	}
	if found {
		if shouldRevalidate {
			go s.revalidate(key, path, payload)
		}
		return decode(raw)
	}
	return s.fetchAndCache(ctx, key, path, payload)
}

func (s *Service) fetchAndCache(ctx context.Context, key, path string, payload map[string]any) (map[string]any, error) {
	data, _, err := s.http.Post(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(data); err == nil {
		_ = s.cache.Set(ctx, key, encoded, defaultTTL)
	}
	return data, nil
}

// revalidate runs a best-effort background refresh; failures are logged
// and swallowed so a transient upstream error never surfaces to the
// caller that already got a usable (if stale) value.
func (s *Service) revalidate(key, path string, payload map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data, _, err := s.http.Post(ctx, path, payload)
	if err != nil {
		s.logger.Warn("recipient: background revalidate failed", zap.String("key", key), zap.Error(err))
		return
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, key, encoded, defaultTTL)
}

func decode(raw []byte) (map[string]any, error) {
	var out map[string]any
	err := json.Unmarshal(raw, &out)
	return out, err
}
