package recipient

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"visadirect-sdk-go/pkg/cache"
)

type fakePoster struct {
	calls    int32
	response map[string]any
}

func (f *fakePoster) Post(context.Context, string, any) (map[string]any, int, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.response, 200, nil
}

func TestResolveAlias_CachesAcrossCalls(t *testing.T) {
	poster := &fakePoster{response: map[string]any{"panToken": "tok-1"}}
	s := New(poster, cache.NewMemoryCache(), zap.NewNop())

	first, err := s.ResolveAlias(context.Background(), "alice@example.com", "EMAIL")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", first["panToken"])

	_, err = s.ResolveAlias(context.Background(), "alice@example.com", "EMAIL")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&poster.calls), "second lookup within the TTL should be served from cache")
}

func TestResolveAlias_DifferentAliasesAreIndependent(t *testing.T) {
	poster := &fakePoster{response: map[string]any{"panToken": "tok-1"}}
	s := New(poster, cache.NewMemoryCache(), zap.NewNop())
	ctx := context.Background()

	_, err := s.ResolveAlias(ctx, "alice@example.com", "EMAIL")
	require.NoError(t, err)
	_, err = s.ResolveAlias(ctx, "bob@example.com", "EMAIL")
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&poster.calls))
}

func TestPAV_ExpiredEntryIsRefetched(t *testing.T) {
	poster := &fakePoster{response: map[string]any{"valid": true}}
	c := cache.NewMemoryCache()
	s := New(poster, c, zap.NewNop())
	ctx := context.Background()

	_, err := s.PAV(ctx, "pan-token-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&poster.calls))

	// Overwrite the cached entry with a TTL so short it is already past
	// expiry by the time we look it up again.
	require.NoError(t, c.Set(ctx, "pav:pan-token-1", []byte(`{"valid":true}`), time.Millisecond))
	time.Sleep(2 * time.Millisecond)

	_, err = s.PAV(ctx, "pan-token-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&poster.calls), "entry past its TTL is treated as a miss and refetched synchronously")
}
