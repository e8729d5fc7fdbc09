package coherence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/huykn/cache-coherence/bus"
	"github.com/huykn/cache-coherence/cache"
	"github.com/huykn/cache-coherence/notifier"
	"github.com/huykn/cache-coherence/storage"
	"github.com/huykn/cache-coherence/types"
)

// Config configures a Notifier.
type Config struct {
	// PodID identifies this instance in logs. Defaults to a random UUID.
	PodID string

	// RedisAddr is the Redis server address (e.g., "localhost:6379").
	RedisAddr string

	// RedisPassword is the optional Redis password.
	RedisPassword string

	// RedisDB is the Redis database number.
	RedisDB int

	// ChannelPrefix namespaces the Redis pub/sub channels carrying events.
	ChannelPrefix string

	// TopicPrefix namespaces event topics; events travel on <prefix>.<kind>.
	TopicPrefix string

	// EntityType namespaces the invalidated cache keys.
	EntityType string

	// SerializationFormat is the payload encoding ("json" or "msgpack").
	SerializationFormat string

	// EnableLocalCache puts an in-process tier in front of Redis.
	EnableLocalCache bool

	// LocalCacheConfig configures the local tier.
	LocalCacheConfig LocalCacheConfig

	// LocalCacheFactory creates the local tier.
	// If nil, defaults to Ristretto factory.
	LocalCacheFactory LocalCacheFactory

	// Logger is the logger for invalidation failures and debug output.
	// If nil, defaults to no-op logger.
	Logger Logger

	// DebugMode enables debug logging.
	DebugMode bool

	// ContextTimeout bounds each cache delete.
	ContextTimeout time.Duration

	// Concurrency bounds in-flight deletes for one event.
	Concurrency int

	// MaxAttempts is the number of delete attempts per key. 1 disables retry.
	MaxAttempts int

	// RetryBackoff is the initial wait between delete attempts.
	RetryBackoff time.Duration

	// PrefixOnDelete also drops the keys derived from a deleted entity.
	PrefixOnDelete bool

	// EnableMetrics registers Prometheus collectors on Registerer.
	EnableMetrics bool

	// Registerer receives the collectors when EnableMetrics is set.
	// If nil, defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer

	// OnError is called when an invalidation fails in the background.
	OnError func(error)
}

// DefaultConfig returns default notifier configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:           "localhost:6379",
		RedisDB:             0,
		ChannelPrefix:       "coherence:",
		TopicPrefix:         types.DefaultTopicPrefix,
		EntityType:          "ann",
		SerializationFormat: "json",
		LocalCacheConfig:    DefaultLocalCacheConfig(),
		ContextTimeout:      5 * time.Second,
		Concurrency:         4,
		MaxAttempts:         1,
		RetryBackoff:        50 * time.Millisecond,
		EnableMetrics:       true,
		LocalCacheFactory:   nil, // Will default to Ristretto in New()
		Logger:              nil, // Will default to no-op in New()
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.RedisAddr == "" {
		return fmt.Errorf("%w: RedisAddr is required", ErrInvalidConfig)
	}
	if c.ChannelPrefix == "" {
		return fmt.Errorf("%w: ChannelPrefix is required", ErrInvalidConfig)
	}
	if _, err := storage.GetCodec(c.SerializationFormat); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	if c.EnableLocalCache && c.LocalCacheFactory == nil {
		if err := c.LocalCacheConfig.Validate(); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
	}
	opts := c.subscriberOptions(nil)
	if err := opts.Validate(); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) subscriberOptions(codec storage.Codec) notifier.Options {
	opts := notifier.Options{
		EntityType:     c.EntityType,
		TopicPrefix:    c.TopicPrefix,
		Codec:          codec,
		Logger:         c.Logger,
		DebugMode:      c.DebugMode,
		ContextTimeout: c.ContextTimeout,
		Concurrency:    c.Concurrency,
		MaxAttempts:    c.MaxAttempts,
		RetryBackoff:   c.RetryBackoff,
		PrefixOnDelete: c.PrefixOnDelete,
		OnError:        c.OnError,
	}
	if c.EnableMetrics {
		opts.Registerer = c.Registerer
		if opts.Registerer == nil {
			opts.Registerer = prometheus.DefaultRegisterer
		}
	}
	return opts
}

// Notifier wires a cache store, a Redis event bus and an invalidation
// subscriber for one entity type.
type Notifier struct {
	podID      string
	store      Store
	tiered     *cache.TieredStore
	bus        *bus.RedisBus
	publisher  *bus.EventPublisher
	subscriber *notifier.Subscriber
	logger     Logger
}

// New connects to Redis, registers the invalidation handlers and starts
// consuming events.
func New(cfg Config) (*Notifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.PodID == "" {
		cfg.PodID = uuid.NewString()
	}
	if cfg.Logger == nil {
		cfg.Logger = cache.NewNoOpLogger()
	}

	codec, err := storage.GetCodec(cfg.SerializationFormat)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	remote, err := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}

	n := &Notifier{
		podID:  cfg.PodID,
		store:  remote,
		logger: cfg.Logger,
	}

	if cfg.EnableLocalCache {
		factory := cfg.LocalCacheFactory
		if factory == nil {
			factory = cache.NewLFUCacheFactory(cfg.LocalCacheConfig)
		}
		local, err := factory.Create()
		if err != nil {
			remote.Close()
			return nil, fmt.Errorf("create local cache: %w", err)
		}
		n.tiered = cache.NewTieredStore(local, remote, cfg.Logger, cfg.DebugMode)
		n.store = n.tiered
	}

	sub, err := notifier.New(n.store, cfg.subscriberOptions(codec))
	if err != nil {
		n.store.Close()
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	n.subscriber = sub

	n.bus = bus.NewRedisBus(remote.Client(), cfg.ChannelPrefix, 0, cfg.Logger)
	if err := sub.Register(n.bus); err != nil {
		n.store.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ContextTimeout)
	defer cancel()
	if err := n.bus.Start(ctx); err != nil {
		n.bus.Close()
		n.store.Close()
		return nil, errors.Join(ErrBusStart, err)
	}

	n.publisher = bus.NewEventPublisher(n.bus, codec, cfg.TopicPrefix)

	cfg.Logger.Info("coherence notifier started",
		"pod", cfg.PodID, "entity", cfg.EntityType, "channelPrefix", cfg.ChannelPrefix)

	return n, nil
}

// PodID returns the instance identifier.
func (n *Notifier) PodID() string {
	return n.podID
}

// Store returns the cache store kept coherent by the notifier.
func (n *Notifier) Store() Store {
	return n.store
}

// Publisher returns a publisher for mutation events on the notifier's bus.
func (n *Notifier) Publisher() *bus.EventPublisher {
	return n.publisher
}

// Subscriber returns the invalidation subscriber.
func (n *Notifier) Subscriber() *notifier.Subscriber {
	return n.subscriber
}

// Stats returns subscriber statistics and, with a local tier, cache statistics.
func (n *Notifier) Stats() Stats {
	st := Stats{Subscriber: n.subscriber.Stats()}
	if n.tiered != nil {
		st.Cache = n.tiered.Stats()
	}
	return st
}

// Close stops event delivery and closes the store.
func (n *Notifier) Close() error {
	busErr := n.bus.Close()
	storeErr := n.store.Close()
	if busErr != nil || storeErr != nil {
		n.logger.Warn("coherence notifier closed with errors", "bus", busErr, "store", storeErr)
	}
	return errors.Join(busErr, storeErr)
}
