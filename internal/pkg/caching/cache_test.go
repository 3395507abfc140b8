package caching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, *CacheRedis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c, err := NewCacheRedis(client, false)
	require.NoError(t, err)
	return mr, c
}

func TestUseCache(t *testing.T) {
	ctx := context.Background()
	_, c := newTestCache(t)

	calls := 0
	callback := func() (int64, error) {
		calls++
		return 1000, nil
	}

	v, err := UseCache(ctx, c, "balance:1", time.Minute, callback)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), v)

	v, err = UseCache(ctx, c, "balance:1", time.Minute, callback)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), v)
	assert.Equal(t, 1, calls, "second read is served from redis")

	require.NoError(t, c.Delete(ctx, "balance:1"))
	_, err = UseCache(ctx, c, "balance:1", time.Minute, callback)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestUseCacheDoesNotStoreErrors(t *testing.T) {
	ctx := context.Background()
	_, c := newTestCache(t)

	_, err := UseCache(ctx, c, "patron:1", time.Minute, func() (string, error) {
		return "", errors.New("db down")
	})
	assert.Error(t, err)

	v, err := UseCache(ctx, c, "patron:1", time.Minute, func() (string, error) {
		return "basic", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "basic", v)
}

func TestUseCacheExpires(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestCache(t)

	calls := 0
	callback := func() (int, error) {
		calls++
		return calls, nil
	}

	_, err := UseCache(ctx, c, "invites:1", time.Minute, callback)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	v, err := UseCache(ctx, c, "invites:1", time.Minute, callback)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestUseCacheWithBrokenRedis(t *testing.T) {
	ctx := context.Background()
	mr, c := newTestCache(t)
	mr.Close()

	v, err := UseCache(ctx, c, "balance:1", time.Minute, func() (int64, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}
