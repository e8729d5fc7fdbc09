package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/huykn/cache-coherence/storage"
)

// TieredStore is a two-level store: an in-process LocalCache in front of a
// remote Store. Invalidation deletes from both tiers.
type TieredStore struct {
	local  LocalCache
	remote Store
	logger Logger
	debug  bool

	localHits     atomic.Int64
	localMisses   atomic.Int64
	remoteHits    atomic.Int64
	remoteMisses  atomic.Int64
	invalidations atomic.Int64
}

// NewTieredStore creates a TieredStore. A nil logger disables logging.
func NewTieredStore(local LocalCache, remote Store, logger Logger, debug bool) *TieredStore {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &TieredStore{
		local:  local,
		remote: remote,
		logger: logger,
		debug:  debug,
	}
}

// Get reads through the local tier into the remote store. A remote hit
// populates the local tier.
func (ts *TieredStore) Get(ctx context.Context, key string) ([]byte, error) {
	if value, found := ts.local.Get(key); found {
		if data, ok := value.([]byte); ok {
			ts.localHits.Add(1)
			return data, nil
		}
	}
	ts.localMisses.Add(1)

	data, err := ts.remote.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ts.remoteMisses.Add(1)
		}
		return nil, err
	}
	ts.remoteHits.Add(1)

	ts.local.Set(key, data, 0)
	if ts.debug {
		ts.logger.Debug("Get: populated local tier", "key", key)
	}
	return data, nil
}

// Set writes the remote store first, then the local tier.
func (ts *TieredStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ts.remote.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	ts.local.Set(key, value, ttl)
	return nil
}

// Delete removes key from the local tier and then from the remote store.
// The local delete cannot fail, so a remote error still leaves this process
// coherent.
func (ts *TieredStore) Delete(ctx context.Context, key string) error {
	ts.local.Delete(key)
	ts.invalidations.Add(1)

	if err := ts.remote.Delete(ctx, key); err != nil {
		if ts.debug {
			ts.logger.Debug("Delete: remote tier failed", "key", key, "error", err)
		}
		return err
	}
	return nil
}

// DeleteByPrefix removes matching keys from both tiers. A local tier that
// cannot enumerate keys is cleared entirely.
func (ts *TieredStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	if pe, ok := ts.local.(PrefixEvictor); ok {
		pe.DeletePrefix(prefix)
	} else {
		ts.local.Clear()
	}
	ts.invalidations.Add(1)

	pd, ok := ts.remote.(PrefixDeleter)
	if !ok {
		return 0, ErrPrefixUnsupported
	}
	return pd.DeleteByPrefix(ctx, prefix)
}

// Close closes both tiers.
func (ts *TieredStore) Close() error {
	ts.local.Close()
	return ts.remote.Close()
}

// Stats returns a snapshot of tier statistics.
func (ts *TieredStore) Stats() Stats {
	return Stats{
		LocalHits:     ts.localHits.Load(),
		LocalMisses:   ts.localMisses.Load(),
		RemoteHits:    ts.remoteHits.Load(),
		RemoteMisses:  ts.remoteMisses.Load(),
		Invalidations: ts.invalidations.Load(),
	}
}

// ErrPrefixUnsupported is returned when the remote store cannot delete by prefix.
var ErrPrefixUnsupported = NewError("store does not support prefix deletion")
