package coherence

import (
	"github.com/huykn/cache-coherence/cache"
	"github.com/huykn/cache-coherence/notifier"
	"github.com/huykn/cache-coherence/types"
)

// Logger is an alias for cache.Logger.
type Logger = cache.Logger

// Store is an alias for cache.Store.
type Store = cache.Store

// LocalCache is an alias for cache.LocalCache.
type LocalCache = cache.LocalCache

// LocalCacheFactory is an alias for cache.LocalCacheFactory.
type LocalCacheFactory = cache.LocalCacheFactory

// LocalCacheConfig is an alias for cache.LocalCacheConfig.
type LocalCacheConfig = cache.LocalCacheConfig

// EventKind is an alias for types.EventKind.
type EventKind = types.EventKind

// Payload is an alias for types.Payload.
type Payload = types.Payload

// Stats combines subscriber and local tier statistics.
type Stats struct {
	Subscriber notifier.Stats
	Cache      cache.Stats
}

// DefaultLocalCacheConfig returns default local cache configuration for Ristretto.
func DefaultLocalCacheConfig() LocalCacheConfig {
	return cache.DefaultLocalCacheConfig()
}
