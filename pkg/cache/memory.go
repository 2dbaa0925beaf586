package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value   []byte
	storedAt time.Time
	ttl      time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

func (e entry) halfLifeElapsed(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl/2
}

// MemoryCache is an in-process TTL cache guarded by a mutex. It backs the
// single-instance demo configuration; a distributed deployment should use
// RedisCache instead so peers observe the same entries.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]entry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.expired(time.Now()) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, storedAt: time.Now(), ttl: ttl}
	return nil
}

func (c *MemoryCache) GetWithRevalidate(_ context.Context, key string) ([]byte, bool, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, false, nil
	}
	now := time.Now()
	if e.expired(now) {
		return nil, false, false, nil
	}
	return e.value, true, e.halfLifeElapsed(now), nil
}
