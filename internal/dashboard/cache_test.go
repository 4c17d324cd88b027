package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheBumpChangesKeys(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	key, err := cache.Key(ctx, "stats", "all", "20260101-20260130")
	require.NoError(t, err)
	assert.Equal(t, "dashboard:stats:all:20260101-20260130:v1", key)

	require.NoError(t, cache.Bump(ctx))
	key, err = cache.Key(ctx, "stats", "all", "20260101-20260130")
	require.NoError(t, err)
	assert.Equal(t, "dashboard:stats:all:20260101-20260130:v2", key)
}

func TestCacheFetchJSONStoresLoaderResult(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return []MethodTotal{{Method: "cash", Count: 2}}, nil
	}

	var first, second []MethodTotal
	require.NoError(t, cache.FetchJSON(ctx, "dashboard:methods", &first, loader))
	require.NoError(t, cache.FetchJSON(ctx, "dashboard:methods", &second, loader))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("dashboard:methods"))
	assert.Equal(t, time.Minute, mr.TTL("dashboard:methods"))
}

func TestNilCacheLoadsDirectly(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	key, err := cache.Key(ctx, "recent", "3")
	require.NoError(t, err)
	assert.Equal(t, "dashboard:recent:3", key)

	var out int
	require.NoError(t, cache.FetchJSON(ctx, key, &out, func(context.Context) (any, error) { return 42, nil }))
	assert.Equal(t, 42, out)
	assert.NoError(t, cache.Bump(ctx))
}

func TestCacheSubscribeReceivesBumps(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan int64, 1)
	require.NoError(t, cache.Subscribe(ctx, func(v int64) { got <- v }))
	require.NoError(t, cache.Bump(ctx))

	select {
	case v := <-got:
		assert.Equal(t, int64(1), v)
	case <-time.After(2 * time.Second):
		t.Fatal("no bump received")
	}
}
