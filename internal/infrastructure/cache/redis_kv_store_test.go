package cache

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedisStore connects to ESTIMATE_TEST_REDIS_ADDR or skips the test
func newTestRedisStore(t *testing.T) *RedisKeyValueStore {
	t.Helper()
	addr := os.Getenv("ESTIMATE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ESTIMATE_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis unavailable at %s: %v", addr, err)
	}
	store := NewRedisKeyValueStoreWithClient(client, "estimate-test:"+t.Name()+":")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRedisKeyValueStore(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "supplierInfo")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "supplierInfo", `{"company":"Co"}`))
	v, ok, err := store.Get(ctx, "supplierInfo")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"company":"Co"}`, v)

	raw, err := store.client.Get(ctx, "estimate-test:"+t.Name()+":supplierInfo").Result()
	require.NoError(t, err)
	assert.Equal(t, v, raw)

	require.NoError(t, store.Delete(ctx, "supplierInfo"))
	_, ok, err = store.Get(ctx, "supplierInfo")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisKeyValueStoreWithClient_DefaultPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	store := NewRedisKeyValueStoreWithClient(client, "")
	assert.Equal(t, "estimate:", store.keyPrefix)
}
