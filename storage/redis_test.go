package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: s.Addr()}))
	t.Cleanup(func() { store.Close() })
	return store, s
}

func TestNewRedisStore(t *testing.T) {
	s := miniredis.RunT(t)

	store, err := NewRedisStore(s.Addr(), "", 0)
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store.Client())
}

func TestNewRedisStoreUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err := NewRedisStore(addr, "", 0)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestRedisStoreSetGet(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "ann:ann-1", []byte("payload"), 0))

	value, err := store.Get(ctx, "ann:ann-1")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(value))
}

func TestRedisStoreSetWithTTL(t *testing.T) {
	store, s := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "all:ann", []byte("list"), time.Minute))
	assert.Equal(t, time.Minute, s.TTL("all:ann"))

	s.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "all:ann")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreGetNotFound(t *testing.T) {
	store, _ := newTestRedisStore(t)

	_, err := store.Get(context.Background(), "ann:missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreDeleteIsIdempotent(t *testing.T) {
	store, s := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "ann:ann-1", []byte("v"), 0))
	require.NoError(t, store.Delete(ctx, "ann:ann-1"))
	require.NoError(t, store.Delete(ctx, "ann:ann-1"))

	assert.False(t, s.Exists("ann:ann-1"))
}

func TestRedisStoreDeleteByPrefix(t *testing.T) {
	store, s := newTestRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("ann:ann-%d", i), "v"))
	}
	require.NoError(t, s.Set("all:ann", "v"))
	require.NoError(t, s.Set("user:1", "v"))

	n, err := store.DeleteByPrefix(ctx, "ann:")
	require.NoError(t, err)
	assert.Equal(t, 250, n)

	assert.True(t, s.Exists("all:ann"))
	assert.True(t, s.Exists("user:1"))
	assert.False(t, s.Exists("ann:ann-0"))
}

func TestRedisStoreDeleteFailsWhenServerDown(t *testing.T) {
	store, s := newTestRedisStore(t)
	s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.Error(t, store.Delete(ctx, "ann:ann-1"))
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, "ann:", EscapeGlob("ann:"))
	assert.Equal(t, `a\*b\?\[c\]\\`, EscapeGlob(`a*b?[c]\`))
}
