package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisStore(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisWithClient(client, "", ttl)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisGetSet(t *testing.T) {
	store, _ := newMiniredisStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	_, ok, err := store.Get(ctx, "How would you improve onboarding?")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "How would you improve onboarding?", "Summary: ..."))
	v, ok, err := store.Get(ctx, "How would you improve onboarding?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Summary: ...", v)

	require.NoError(t, store.Set(ctx, "How would you improve onboarding?", "Summary: v2"))
	v, _, _ = store.Get(ctx, "How would you improve onboarding?")
	assert.Equal(t, "Summary: v2", v)
}

func TestRedisTTL(t *testing.T) {
	store, mr := newMiniredisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "q", "a"))
	mr.FastForward(2 * time.Hour)

	_, ok, err := store.Get(ctx, "q")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisKeysArePrefixed(t *testing.T) {
	store, mr := newMiniredisStore(t, 0)

	require.NoError(t, store.Set(context.Background(), "q", "a"))
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], defaultPrefix)
}

func TestRedisUnreachable(t *testing.T) {
	store, mr := newMiniredisStore(t, 0)
	mr.Close()

	_, _, err := store.Get(context.Background(), "q")
	assert.Error(t, err)
}
