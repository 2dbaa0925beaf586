// Package keyset maintains the cached mapping from a JWKS "kid" to the RSA
// key material used to seal outbound envelopes and open inbound ones,
// refreshing from the configured JWKS URL on a TTL and on an
// unknown-kid cache miss (§4.4).
package keyset

import (
	"context"
	"crypto/rsa"
	"sync"
	"time"

	"go.uber.org/zap"

	"visadirect-sdk-go/internal/payout"
)

// DefaultTTL is how long a fetched key set is trusted before the next
// lookup forces a refresh.
const DefaultTTL = 300 * time.Second

// Entry is one key in a fetched JWKS. The sandbox JWKS the transport
// layer talks to publishes full key pairs so the same SDK instance can
// both seal outbound requests with Public and open inbound responses
// with Private; Private is nil for entries that only ever encrypt.
type Entry struct {
	Kid     string
	Public  *rsa.PublicKey
	Private *rsa.PrivateKey
}

// Fetcher retrieves the current key set from the network.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Entry, error)
}

// Cache is the TTL-bounded kid->key lookup the secure transport client
// consults before sealing a request and on a kid it doesn't recognize.
type Cache struct {
	fetcher    Fetcher
	ttl        time.Duration
	production bool
	logger     *zap.Logger

	mu        sync.Mutex
	entries   map[string]Entry
	fetchedAt time.Time
}

// New builds a key-set cache. production gates what happens when a fetch
// fails and nothing is cached yet: production fails closed, anything else
// falls back to an empty, cached-until-next-refresh set so local/dev
// environments can run without a reachable JWKS endpoint.
func New(fetcher Fetcher, ttl time.Duration, production bool, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{fetcher: fetcher, ttl: ttl, production: production, logger: logger, entries: map[string]Entry{}}
}

// Current returns one cached entry, refreshing first if stale. The
// secure transport client uses this to pick an encryption key when it
// hasn't been told a specific kid to target. Entries are held in a map,
// so when several keys are cached which one is returned is not defined;
// it is not necessarily the first key of the fetched document.
func (c *Cache) Current(ctx context.Context) (Entry, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return Entry{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		return e, nil
	}
	return Entry{}, payout.New(payout.KindKeySetUnavailable, "key set is empty")
}

// Lookup resolves kid to its cached entry, refreshing the cache if it's
// stale. Callers that already tried Lookup with a kid that came back
// unknown should call ForceRefresh once before giving up.
func (c *Cache) Lookup(ctx context.Context, kid string) (Entry, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return Entry{}, err
	}
	return c.find(kid)
}

// ForceRefresh bypasses the TTL and refetches immediately. The secure
// transport client calls this exactly once per request on a kid-unknown
// error before giving up (§4.3).
func (c *Cache) ForceRefresh(ctx context.Context, kid string) (Entry, error) {
	if err := c.refresh(ctx); err != nil {
		return Entry{}, err
	}
	return c.find(kid)
}

func (c *Cache) find(kid string) (Entry, error) {
	c.mu.Lock()
	e, ok := c.entries[kid]
	c.mu.Unlock()
	if !ok {
		return Entry{}, payout.New(payout.KindKeyIDUnknown, "kid not present in cached key set: "+kid)
	}
	return e, nil
}

func (c *Cache) ensureFresh(ctx context.Context) error {
	c.mu.Lock()
	stale := time.Since(c.fetchedAt) > c.ttl
	c.mu.Unlock()
	if !stale {
		return nil
	}
	return c.refresh(ctx)
}

func (c *Cache) refresh(ctx context.Context) error {
	entries, err := c.fetcher.Fetch(ctx)
	if err != nil {
		c.mu.Lock()
		hasCached := len(c.entries) > 0
		c.mu.Unlock()

		if hasCached {
			c.logger.Warn("keyset: refresh failed, serving stale cache", zap.Error(err))
			return nil
		}
		if c.production {
			return payout.Wrap(payout.KindKeySetUnavailable, "no key set cached and refresh failed in production", err)
		}
		c.logger.Warn("keyset: refresh failed in non-production with no cached keys, continuing with empty set", zap.Error(err))
		c.mu.Lock()
		c.fetchedAt = time.Now()
		c.mu.Unlock()
		return nil
	}

	byKid := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byKid[e.Kid] = e
	}

	c.mu.Lock()
	c.entries = byKid
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return nil
}
