package coherence

import (
	"errors"

	"github.com/huykn/cache-coherence/bus"
	"github.com/huykn/cache-coherence/notifier"
	"github.com/huykn/cache-coherence/storage"
)

// ErrInvalidConfig is returned when the notifier configuration is invalid.
var ErrInvalidConfig = errors.New("invalid notifier configuration")

// ErrNotFound is returned when a key is not found in the cache.
var ErrNotFound = storage.ErrNotFound

// ErrRedisConnection is returned when Redis connection fails.
var ErrRedisConnection = storage.ErrConnection

// ErrBusStart is returned when the event bus subscription cannot be established.
var ErrBusStart = errors.New("event bus start failed")

// ErrBusClosed is returned when events are published on a closed bus.
var ErrBusClosed = bus.ErrBusClosed

// ErrAlreadyRegistered is returned when a subscriber is registered twice.
var ErrAlreadyRegistered = notifier.ErrAlreadyRegistered
