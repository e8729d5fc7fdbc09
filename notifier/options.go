package notifier

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/huykn/cache-coherence/cache"
	"github.com/huykn/cache-coherence/storage"
)

// Options configures a Subscriber.
type Options struct {
	// EntityType namespaces every derived key (e.g. "ann").
	EntityType string

	// TopicPrefix namespaces bus topics; events arrive on <prefix>.<kind>.
	TopicPrefix string

	// Codec decodes event payloads. If nil, defaults to JSON.
	Codec storage.Codec

	// Logger is the logger for invalidation failures and debug output.
	// If nil, defaults to no-op logger.
	Logger cache.Logger

	// DebugMode enables debug logging.
	DebugMode bool

	// ContextTimeout bounds every single delete attempt.
	ContextTimeout time.Duration

	// Concurrency bounds in-flight deletes for one event.
	Concurrency int

	// MaxAttempts is the number of tries per key. 1 disables retry.
	MaxAttempts int

	// RetryBackoff is the wait before the second attempt; it doubles after each.
	RetryBackoff time.Duration

	// PrefixOnDelete additionally deletes the keys derived from the deleted
	// entity (<type>:<id>:*) when the store supports prefix deletion.
	PrefixOnDelete bool

	// OnError is called for every failed delete and malformed payload.
	// It may be called from several goroutines at once.
	OnError func(error)

	// Registerer receives the Prometheus collectors. Nil skips registration.
	Registerer prometheus.Registerer
}

// DefaultOptions returns default subscriber options.
func DefaultOptions() Options {
	return Options{
		EntityType:     "ann",
		ContextTimeout: 5 * time.Second,
		Concurrency:    4,
		MaxAttempts:    1,
		RetryBackoff:   50 * time.Millisecond,
	}
}

// Validate validates the options.
func (o *Options) Validate() error {
	if _, err := NewKeyScheme(o.EntityType); err != nil {
		return err
	}
	if o.ContextTimeout <= 0 {
		return fmt.Errorf("%w: ContextTimeout must be positive", ErrConfiguration)
	}
	if o.Concurrency <= 0 {
		return fmt.Errorf("%w: Concurrency must be positive", ErrConfiguration)
	}
	if o.MaxAttempts < 1 {
		return fmt.Errorf("%w: MaxAttempts must be at least 1", ErrConfiguration)
	}
	if o.MaxAttempts > 1 && o.RetryBackoff <= 0 {
		return fmt.Errorf("%w: RetryBackoff must be positive when retrying", ErrConfiguration)
	}
	return nil
}
