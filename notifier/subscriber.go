// Package notifier keeps a cache coherent with its source of truth by
// deleting the keys a mutation may have made stale.
//
// A Subscriber registers one handler per event kind on an event bus. For each
// event it computes an InvalidationSet with its Policy and deletes every key
// from the cache store. Failures stay inside the subscriber: a missed delete
// degrades to staleness bounded by the store's TTL and never fails the write
// path that emitted the event.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/huykn/cache-coherence/bus"
	"github.com/huykn/cache-coherence/cache"
	"github.com/huykn/cache-coherence/storage"
	"github.com/huykn/cache-coherence/types"
)

const tracerName = "github.com/huykn/cache-coherence/notifier"

// Stats is a snapshot of subscriber counters.
type Stats struct {
	Events        int64
	Malformed     int64
	KeysDeleted   int64
	DeleteErrors  int64
	PrefixDeletes int64
}

// Subscriber binds a Policy to an event bus and a cache store.
type Subscriber struct {
	store    cache.Deleter
	keys     KeyScheme
	policy   Policy
	handlers *HandlerTable
	codec    storage.Codec
	logger   cache.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	options  Options

	regMu      sync.Mutex
	subscribed map[types.EventKind]struct{}
	registered atomic.Bool

	events        atomic.Int64
	malformed     atomic.Int64
	keysDeleted   atomic.Int64
	deleteErrors  atomic.Int64
	prefixDeletes atomic.Int64
}

// New creates a Subscriber that deletes from store.
func New(store cache.Deleter, opts Options) (*Subscriber, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil cache store", ErrConfiguration)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if opts.Codec == nil {
		opts.Codec = storage.JSONCodec{}
	}
	if opts.Logger == nil {
		opts.Logger = cache.NewNoOpLogger()
	}

	keys, err := NewKeyScheme(opts.EntityType)
	if err != nil {
		return nil, err
	}

	metrics, err := NewMetrics(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("%w: metrics: %v", ErrConfiguration, err)
	}

	s := &Subscriber{
		store:   store,
		keys:    keys,
		policy:  NewPolicy(keys),
		codec:   opts.Codec,
		logger:  opts.Logger,
		metrics: metrics,
		tracer:  otel.Tracer(tracerName),
		options: opts,

		subscribed: make(map[types.EventKind]struct{}),
	}

	table := NewHandlerTable()
	for _, kind := range types.AllKinds() {
		if err := table.Add(kind, s.handlerFor(kind)); err != nil {
			return nil, err
		}
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	s.handlers = table

	return s, nil
}

func (s *Subscriber) handlerFor(kind types.EventKind) types.Handler {
	return func(ctx context.Context, payload []byte) {
		s.Handle(ctx, kind, payload)
	}
}

// Register subscribes one handler per event kind. It may succeed only once
// per Subscriber; a failure here is a startup error. After a failure the
// Subscriber stays unregistered and Register may be called again with the
// same bus; kinds already subscribed are not subscribed twice.
func (s *Subscriber) Register(b bus.EventBus) error {
	s.regMu.Lock()
	defer s.regMu.Unlock()

	if s.registered.Load() {
		return ErrAlreadyRegistered
	}

	for _, kind := range types.AllKinds() {
		if _, done := s.subscribed[kind]; done {
			continue
		}
		h, _ := s.handlers.Handler(kind)
		topic := types.Topic(s.options.TopicPrefix, kind)
		if err := b.Subscribe(topic, h); err != nil {
			return fmt.Errorf("%w: subscribe %s: %v", ErrConfiguration, topic, err)
		}
		s.subscribed[kind] = struct{}{}
		if s.options.DebugMode {
			s.logger.Debug("Register: subscribed", "topic", topic)
		}
	}

	s.registered.Store(true)
	return nil
}

// Registered reports whether Register has completed successfully.
func (s *Subscriber) Registered() bool {
	return s.registered.Load()
}

// Keys returns the key scheme in use.
func (s *Subscriber) Keys() KeyScheme {
	return s.keys
}

// Policy returns the invalidation policy in use.
func (s *Subscriber) Policy() Policy {
	return s.policy
}

// Handle invalidates the keys affected by one event. It never returns an
// error: failures are logged, counted and passed to OnError.
func (s *Subscriber) Handle(ctx context.Context, kind types.EventKind, payload []byte) {
	start := time.Now()
	label := string(kind)

	ctx, span := s.tracer.Start(ctx, "notifier.Handle",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.String("coherence.kind", label)))
	defer span.End()

	s.events.Add(1)
	s.metrics.Events.WithLabelValues(label).Inc()

	ev, perr := s.decode(kind, payload)
	if perr != nil {
		s.malformed.Add(1)
		s.metrics.Malformed.WithLabelValues(label).Inc()
		s.logger.Warn("Handle: malformed payload, invalidating best-effort set", "kind", label, "error", perr)
		s.reportError(perr)
		span.RecordError(perr)
	}

	span.SetAttributes(
		attribute.String("coherence.entity_id", ev.EntityID),
		attribute.String("coherence.parent_id", ev.ParentID),
	)

	set := s.policy.Compute(ev)
	failed := s.invalidate(ctx, kind, set)

	if s.options.PrefixOnDelete && kind == types.Deleted && ev.HasEntity() {
		if !s.deletePrefix(ctx, kind, ev.EntityID) {
			failed++
		}
	}

	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d cache delete(s) failed", failed))
	}
	s.metrics.Duration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if s.options.DebugMode {
		s.logger.Debug("Handle: invalidated", "kind", label, "keys", set.Keys(), "failed", failed)
	}
}

// decode always returns the best event it can build from payload.
func (s *Subscriber) decode(kind types.EventKind, payload []byte) (types.DomainEvent, error) {
	if len(payload) == 0 {
		return types.DomainEvent{Kind: kind}, &PayloadError{Kind: kind, Reason: "empty payload"}
	}

	var p types.Payload
	if err := s.codec.Unmarshal(payload, &p); err != nil {
		return types.DomainEvent{Kind: kind}, &PayloadError{Kind: kind, Reason: "decode", Err: err}
	}

	ev := p.Event(kind)
	if !ev.HasEntity() {
		return ev, &PayloadError{Kind: kind, Reason: "missing id"}
	}
	return ev, nil
}

// invalidate deletes every key of set concurrently and returns the number
// of keys that could not be deleted.
func (s *Subscriber) invalidate(ctx context.Context, kind types.EventKind, set InvalidationSet) int {
	var failed atomic.Int64
	label := string(kind)

	var g errgroup.Group
	g.SetLimit(s.options.Concurrency)

	for _, key := range set.Keys() {
		key := key
		g.Go(func() error {
			attempts, err := s.deleteKey(ctx, key)
			if err != nil {
				failed.Add(1)
				s.deleteErrors.Add(1)
				s.metrics.DeleteErrors.WithLabelValues(label).Inc()

				derr := &DeleteError{Kind: kind, Key: key, Attempts: attempts, Err: err}
				s.logger.Error("Handle: cache delete failed", "kind", label, "key", key, "attempts", attempts, "error", err)
				s.reportError(derr)
				trace.SpanFromContext(ctx).RecordError(derr)
				return nil
			}

			s.keysDeleted.Add(1)
			s.metrics.KeysInvalidated.WithLabelValues(label).Inc()
			return nil
		})
	}

	// Workers never return errors; failures are accounted above.
	_ = g.Wait()
	return int(failed.Load())
}

// deleteKey tries up to MaxAttempts times with exponential backoff.
func (s *Subscriber) deleteKey(ctx context.Context, key string) (int, error) {
	backoff := s.options.RetryBackoff

	for attempt := 1; ; attempt++ {
		dctx, cancel := context.WithTimeout(ctx, s.options.ContextTimeout)
		err := s.store.Delete(dctx, key)
		cancel()

		if err == nil {
			return attempt, nil
		}
		if attempt >= s.options.MaxAttempts {
			return attempt, err
		}

		if s.options.DebugMode {
			s.logger.Debug("Handle: retrying delete", "key", key, "attempt", attempt, "error", err)
		}

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return attempt, errors.Join(err, ctx.Err())
		}
	}
}

// deletePrefix drops the keys derived from entityID. It reports false only
// when a supported prefix delete failed.
func (s *Subscriber) deletePrefix(ctx context.Context, kind types.EventKind, entityID string) bool {
	pd, ok := s.store.(cache.PrefixDeleter)
	if !ok {
		return true
	}
	prefix, ok := s.keys.EntityPrefix(entityID)
	if !ok {
		return true
	}

	dctx, cancel := context.WithTimeout(ctx, s.options.ContextTimeout)
	defer cancel()

	n, err := pd.DeleteByPrefix(dctx, prefix)
	if err != nil {
		s.deleteErrors.Add(1)
		s.metrics.DeleteErrors.WithLabelValues(string(kind)).Inc()
		s.logger.Error("Handle: prefix delete failed", "kind", string(kind), "prefix", prefix, "error", err)
		s.reportError(&DeleteError{Kind: kind, Key: prefix + "*", Attempts: 1, Err: err})
		return false
	}

	s.prefixDeletes.Add(1)
	if s.options.DebugMode {
		s.logger.Debug("Handle: prefix delete", "prefix", prefix, "keys", n)
	}
	return true
}

func (s *Subscriber) reportError(err error) {
	if s.options.OnError != nil {
		s.options.OnError(err)
	}
}

// Stats returns subscriber statistics.
func (s *Subscriber) Stats() Stats {
	return Stats{
		Events:        s.events.Load(),
		Malformed:     s.malformed.Load(),
		KeysDeleted:   s.keysDeleted.Load(),
		DeleteErrors:  s.deleteErrors.Load(),
		PrefixDeletes: s.prefixDeletes.Load(),
	}
}

// Metrics returns the Prometheus collectors of the subscriber.
func (s *Subscriber) Metrics() *Metrics {
	return s.metrics
}
