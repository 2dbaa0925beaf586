// Package idempotency stores the outcome of a payout under its
// idempotency key so a retried request observes the first attempt's
// result instead of dispatching twice (§4.1, §4.6).
package idempotency

import (
	"context"
	"time"
)

// Store is a put-once-wins TTL map. Put must not overwrite an existing,
// unexpired value for the same key; the caller relies on this to detect
// "this idempotency key was already used" and return the prior result.
type Store interface {
	// Get returns the stored value for key, or ok=false if absent/expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Put stores value under key with the given ttl if, and only if, no
	// unexpired value is already present. It returns stored=false (with
	// the pre-existing value) when another writer won the race.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) (stored bool, existing []byte, err error)
}
