package cache

import (
	"context"
	"time"
)

// Logger defines the interface for logging.
type Logger interface {
	// Debug logs a debug message.
	Debug(msg string, args ...any)

	// Info logs an info message.
	Info(msg string, args ...any)

	// Warn logs a warning message.
	Warn(msg string, args ...any)

	// Error logs an error message.
	Error(msg string, args ...any)
}

// LocalCache defines the interface for local in-process caching.
type LocalCache interface {
	// Get retrieves a value from the local cache.
	Get(key string) (any, bool)

	// Set stores a value in the local cache. Implementations that only
	// support a cache-wide TTL ignore ttl.
	Set(key string, value any, ttl time.Duration) bool

	// Delete removes a value from the local cache.
	Delete(key string)

	// Clear removes all values from the local cache.
	Clear()

	// Close closes the local cache.
	Close()

	// Metrics returns cache metrics.
	Metrics() LocalCacheMetrics
}

// PrefixEvictor is implemented by local caches that can enumerate their keys.
type PrefixEvictor interface {
	// DeletePrefix removes every key starting with prefix and returns the count.
	DeletePrefix(prefix string) int
}

// LocalCacheMetrics represents local cache metrics.
type LocalCacheMetrics struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int64
}

// LocalCacheFactory defines the interface for creating local cache implementations.
type LocalCacheFactory interface {
	// Create creates a new local cache instance.
	Create() (LocalCache, error)
}

// Deleter is the only capability invalidation needs from a cache store.
type Deleter interface {
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// PrefixDeleter is implemented by stores that support bulk invalidation.
type PrefixDeleter interface {
	// DeleteByPrefix removes every key starting with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

// Store defines the interface for remote storage backends (e.g., Redis).
type Store interface {
	Deleter

	// Get retrieves a value from the store.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given time-to-live.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close closes the store connection.
	Close() error
}

// Stats represents tiered store statistics.
type Stats struct {
	LocalHits     int64
	LocalMisses   int64
	RemoteHits    int64
	RemoteMisses  int64
	Invalidations int64
}
