package cache

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUCacheFactory creates LRU cache instances.
type LRUCacheFactory struct {
	maxSize int
	ttl     time.Duration
}

// NewLRUCacheFactory creates a new LRU cache factory.
func NewLRUCacheFactory(maxSize int, ttl time.Duration) LocalCacheFactory {
	return &LRUCacheFactory{maxSize: maxSize, ttl: ttl}
}

// Create creates a new LRU cache instance.
func (lcf *LRUCacheFactory) Create() (LocalCache, error) {
	return NewLRUCache(lcf.maxSize, lcf.ttl)
}

// LRUCache is a size-bounded LRU with a cache-wide TTL.
type LRUCache struct {
	cache     *expirable.LRU[string, any]
	hits      int64
	misses    int64
	evictions int64
	maxSize   int64
}

// NewLRUCache creates a new LRU-based local cache.
func NewLRUCache(maxSize int, ttl time.Duration) (*LRUCache, error) {
	if maxSize <= 0 || ttl <= 0 {
		return nil, ErrInvalidConfig
	}

	lc := &LRUCache{maxSize: int64(maxSize)}
	lc.cache = expirable.NewLRU[string, any](maxSize, func(string, any) {
		atomic.AddInt64(&lc.evictions, 1)
	}, ttl)

	return lc, nil
}

// Get retrieves a value from the local cache.
func (lc *LRUCache) Get(key string) (any, bool) {
	value, found := lc.cache.Get(key)
	if found {
		atomic.AddInt64(&lc.hits, 1)
	} else {
		atomic.AddInt64(&lc.misses, 1)
	}
	return value, found
}

// Set stores a value in the local cache. The cache-wide TTL applies.
func (lc *LRUCache) Set(key string, value any, _ time.Duration) bool {
	lc.cache.Add(key, value)
	return true
}

// Delete removes a value from the local cache.
func (lc *LRUCache) Delete(key string) {
	lc.cache.Remove(key)
}

// DeletePrefix removes every key starting with prefix.
func (lc *LRUCache) DeletePrefix(prefix string) int {
	n := 0
	for _, key := range lc.cache.Keys() {
		if strings.HasPrefix(key, prefix) && lc.cache.Remove(key) {
			n++
		}
	}
	return n
}

// Len returns the number of live entries.
func (lc *LRUCache) Len() int {
	return lc.cache.Len()
}

// Clear removes all values from the local cache.
func (lc *LRUCache) Clear() {
	lc.cache.Purge()
}

// Close closes the local cache.
func (lc *LRUCache) Close() {
	lc.cache.Purge()
}

// Metrics returns cache metrics. Evictions include explicit removals.
func (lc *LRUCache) Metrics() LocalCacheMetrics {
	return LocalCacheMetrics{
		Hits:      atomic.LoadInt64(&lc.hits),
		Misses:    atomic.LoadInt64(&lc.misses),
		Evictions: atomic.LoadInt64(&lc.evictions),
		Size:      lc.maxSize,
	}
}
