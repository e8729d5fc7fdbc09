package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huykn/cache-coherence/storage"
)

func newTestTieredStore(t *testing.T) (*TieredStore, *LRUCache, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	remote := storage.NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: s.Addr()}))
	local, err := NewLRUCache(100, time.Minute)
	require.NoError(t, err)

	ts := NewTieredStore(local, remote, nil, true)
	t.Cleanup(func() { ts.Close() })
	return ts, local, s
}

func TestTieredStoreReadThrough(t *testing.T) {
	ts, local, s := newTestTieredStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set("ann:ann-1", "v1"))

	data, err := ts.Get(ctx, "ann:ann-1")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	_, found := local.Get("ann:ann-1")
	assert.True(t, found, "remote hit should populate the local tier")

	data, err = ts.Get(ctx, "ann:ann-1")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	stats := ts.Stats()
	assert.Equal(t, int64(1), stats.LocalHits)
	assert.Equal(t, int64(1), stats.LocalMisses)
	assert.Equal(t, int64(1), stats.RemoteHits)
}

func TestTieredStoreGetMiss(t *testing.T) {
	ts, _, _ := newTestTieredStore(t)

	_, err := ts.Get(context.Background(), "ann:missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, int64(1), ts.Stats().RemoteMisses)
}

func TestTieredStoreSetWritesBothTiers(t *testing.T) {
	ts, local, s := newTestTieredStore(t)

	require.NoError(t, ts.Set(context.Background(), "all:ann", []byte("list"), time.Minute))

	got, err := s.Get("all:ann")
	require.NoError(t, err)
	assert.Equal(t, "list", got)
	assert.Equal(t, time.Minute, s.TTL("all:ann"))

	_, found := local.Get("all:ann")
	assert.True(t, found)
}

func TestTieredStoreDeleteClearsBothTiers(t *testing.T) {
	ts, local, s := newTestTieredStore(t)
	ctx := context.Background()

	require.NoError(t, ts.Set(ctx, "ann:ann-1", []byte("v"), 0))
	require.NoError(t, ts.Delete(ctx, "ann:ann-1"))
	require.NoError(t, ts.Delete(ctx, "ann:ann-1"))

	assert.False(t, s.Exists("ann:ann-1"))
	_, found := local.Get("ann:ann-1")
	assert.False(t, found)
	assert.Equal(t, int64(2), ts.Stats().Invalidations)
}

func TestTieredStoreDeleteRemoteFailureStillClearsLocal(t *testing.T) {
	ts, local, s := newTestTieredStore(t)
	local.Set("ann:ann-1", []byte("stale"), 0)
	s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.Error(t, ts.Delete(ctx, "ann:ann-1"))
	_, found := local.Get("ann:ann-1")
	assert.False(t, found)
}

func TestTieredStoreDeleteByPrefix(t *testing.T) {
	ts, local, s := newTestTieredStore(t)
	ctx := context.Background()

	require.NoError(t, ts.Set(ctx, "ann:1", []byte("v"), 0))
	require.NoError(t, ts.Set(ctx, "ann:parent:assoc-9", []byte("v"), 0))
	require.NoError(t, ts.Set(ctx, "all:ann", []byte("v"), 0))

	n, err := ts.DeleteByPrefix(ctx, "ann:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.True(t, s.Exists("all:ann"))
	assert.Equal(t, 1, local.Len())
}

type deleteOnlyStore struct{}

func (deleteOnlyStore) Get(context.Context, string) ([]byte, error) {
	return nil, storage.ErrNotFound
}
func (deleteOnlyStore) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (deleteOnlyStore) Delete(context.Context, string) error                     { return nil }
func (deleteOnlyStore) Close() error                                             { return nil }

func TestTieredStoreDeleteByPrefixUnsupported(t *testing.T) {
	local, err := NewLFUCache(DefaultLocalCacheConfig())
	require.NoError(t, err)
	ts := NewTieredStore(local, deleteOnlyStore{}, nil, false)
	defer ts.Close()

	local.Set("ann:1", []byte("v"), 0)
	local.Wait()

	_, err = ts.DeleteByPrefix(context.Background(), "ann:")
	assert.True(t, errors.Is(err, ErrPrefixUnsupported))

	_, found := local.Get("ann:1")
	assert.False(t, found, "a local tier without key enumeration is cleared")
}
