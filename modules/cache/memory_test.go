package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func memoryConfig() *CacheConfig {
	return &CacheConfig{
		Engine:          EngineMemory,
		DefaultTTL:      time.Minute,
		CleanupInterval: 10 * time.Millisecond,
		MaxItems:        3,
	}
}

type removals struct {
	mu   sync.Mutex
	keys map[string]RemovalReason
}

func (r *removals) record(key string, reason RemovalReason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.keys == nil {
		r.keys = make(map[string]RemovalReason)
	}
	r.keys[key] = reason
}

func (r *removals) get(key string) (RemovalReason, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reason, ok := r.keys[key]
	return reason, ok
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(memoryConfig(), nil)

	require.NoError(t, c.Set(ctx, "page:/seo", map[string]any{"title": "SEO"}, 0))
	value, found := c.Get(ctx, "page:/seo")
	require.True(t, found)
	assert.Equal(t, map[string]any{"title": "SEO"}, value)

	require.NoError(t, c.Delete(ctx, "page:/seo"))
	_, found = c.Get(ctx, "page:/seo")
	assert.False(t, found)

	assert.ErrorIs(t, c.Set(ctx, "", "x", 0), ErrInvalidKey)
}

func TestMemoryCache_ExpiredEntriesAreInvisible(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(memoryConfig(), nil)

	require.NoError(t, c.Set(ctx, "short", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, found := c.Get(ctx, "short")
	assert.False(t, found)
}

func TestMemoryCache_EvictsClosestToExpiry(t *testing.T) {
	ctx := context.Background()
	rec := &removals{}
	c := NewMemoryCache(memoryConfig(), rec.record)

	require.NoError(t, c.Set(ctx, "forever", 1, 0))
	require.NoError(t, c.Set(ctx, "soon", 2, time.Minute))
	require.NoError(t, c.Set(ctx, "later", 3, time.Hour))
	require.NoError(t, c.Set(ctx, "new", 4, time.Hour))

	_, found := c.Get(ctx, "soon")
	assert.False(t, found)
	for _, key := range []string{"forever", "later", "new"} {
		_, found := c.Get(ctx, key)
		assert.True(t, found, key)
	}

	reason, ok := rec.get("soon")
	require.True(t, ok)
	assert.Equal(t, RemovedEvicted, reason)
}

func TestMemoryCache_OverwriteDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(memoryConfig(), nil)

	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, c.Set(ctx, key, key, time.Minute))
	}
	require.NoError(t, c.Set(ctx, "b", "updated", time.Minute))

	values, err := c.GetMulti(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "a", "b": "updated", "c": "c"}, values)
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()
	cfg.MaxItems = 10
	c := NewMemoryCache(cfg, nil)

	require.NoError(t, c.SetMulti(ctx, map[string]any{
		"page:/seo/local-seo":          1,
		"page:/seo/local-seo/auckland": 2,
		"page:/paid-ads/google-ads":    3,
		"locations:all":                4,
	}, time.Minute))

	n, err := c.DeletePrefix(ctx, "page:/seo/")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	values, err := c.GetMulti(ctx, []string{"page:/seo/local-seo", "page:/paid-ads/google-ads", "locations:all"})
	require.NoError(t, err)
	assert.Len(t, values, 2)

	require.NoError(t, c.Flush(ctx))
	values, err = c.GetMulti(ctx, []string{"page:/paid-ads/google-ads", "locations:all"})
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestMemoryCache_SweeperReportsExpiry(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	rec := &removals{}
	c := NewMemoryCache(memoryConfig(), rec.record)
	require.NoError(t, c.Connect(ctx))

	require.NoError(t, c.Set(ctx, "k", "v", 5*time.Millisecond))
	assert.Eventually(t, func() bool {
		reason, ok := rec.get("k")
		return ok && reason == RemovedExpired
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, c.Close(ctx))
}

func TestDecodeInvalidation(t *testing.T) {
	want := Invalidation{Prefixes: []string{"page:/seo"}, Source: "revalidate"}

	got, err := DecodeInvalidation(want)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = DecodeInvalidation(&want)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = DecodeInvalidation(map[string]any{"prefixes": []any{"page:/seo"}, "source": "revalidate"})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = DecodeInvalidation("not an object")
	assert.ErrorIs(t, err, ErrInvalidValue)
}
