package cache

import (
	"time"
)

// LocalCacheConfig configures the local cache.
type LocalCacheConfig struct {
	// NumCounters is the number of counters for the cache (Ristretto only).
	// Recommended: 10 * MaxItems
	NumCounters int64

	// MaxCost is the maximum cost of items in the cache (Ristretto only).
	MaxCost int64

	// BufferItems is the number of items to buffer before eviction (Ristretto only).
	BufferItems int64

	// IgnoreInternalCost ignores the internal cost of items (Ristretto only).
	IgnoreInternalCost bool

	// MaxSize is the maximum number of items in the cache (LRU only).
	MaxSize int

	// TTL bounds how long a local entry may outlive a missed invalidation.
	// It is the per-entry default for LFU and the cache-wide TTL for LRU.
	TTL time.Duration
}

// DefaultLocalCacheConfig returns default local cache configuration.
func DefaultLocalCacheConfig() LocalCacheConfig {
	return LocalCacheConfig{
		NumCounters:        1e6,
		MaxCost:            1 << 26, // 64MB
		BufferItems:        64,
		IgnoreInternalCost: false,
		MaxSize:            10000,
		TTL:                30 * time.Second,
	}
}

// Validate validates the local cache configuration.
func (c LocalCacheConfig) Validate() error {
	if c.NumCounters <= 0 || c.MaxCost <= 0 {
		return ErrInvalidConfig
	}
	if c.MaxSize <= 0 {
		return ErrInvalidConfig
	}
	if c.TTL <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ErrInvalidConfig is returned when options are invalid.
var ErrInvalidConfig = NewError("invalid cache configuration")

// NewError creates a new error with the given message.
func NewError(msg string) error {
	return &cacheError{msg: msg}
}

type cacheError struct {
	msg string
}

func (e *cacheError) Error() string {
	return e.msg
}
