// Package cache provides a small TTL cache abstraction with a
// stale-while-revalidate mode used by the recipient and quoting services to
// avoid blocking a payout on a slow upstream lookup that was recently cold.
package cache

import (
	"context"
	"time"
)

// Cache stores arbitrary JSON-able values under a string key with a TTL.
type Cache interface {
	// Get returns the cached value and whether it was present and unexpired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// GetWithRevalidate returns the cached value if present (even if past
	// half its TTL) along with shouldRevalidate=true once the entry is
	// older than half its original TTL, so a caller can serve the stale
	// value immediately and kick off a background refresh.
	GetWithRevalidate(ctx context.Context, key string) (value []byte, found bool, shouldRevalidate bool, err error)
}
