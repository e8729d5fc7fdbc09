// Package bus delivers named domain events to subscribers.
//
// Every implementation guarantees FIFO delivery per topic: a handler runs to
// completion before the next event on the same topic is dispatched to it.
// Distinct topics are dispatched concurrently.
package bus

import (
	"context"
	"errors"
	"sync"

	"github.com/huykn/cache-coherence/cache"
	"github.com/huykn/cache-coherence/types"
)

// EventBus is the subscribe side consumed by the invalidation subscriber.
type EventBus interface {
	// Subscribe registers handler for topic.
	Subscribe(topic string, handler types.Handler) error
}

// Publisher is the publish side used by upstream mutation paths.
type Publisher interface {
	// Publish delivers payload to every subscriber of topic.
	Publish(ctx context.Context, topic string, payload []byte) error
}

// ErrBusClosed is returned when a closed bus is used.
var ErrBusClosed = errors.New("event bus is closed")

const defaultBufferSize = 256

// dispatcher serializes delivery for one topic.
type dispatcher struct {
	topic    string
	queue    chan []byte
	mu       sync.RWMutex
	handlers []types.Handler
}

func (d *dispatcher) run(ctx context.Context, logger cache.Logger) {
	for payload := range d.queue {
		d.mu.RLock()
		handlers := d.handlers
		d.mu.RUnlock()

		for _, h := range handlers {
			invoke(ctx, logger, d.topic, h, payload)
		}
	}
}

// invoke shields the delivery goroutine from a panicking handler.
func invoke(ctx context.Context, logger cache.Logger, topic string, h types.Handler, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("bus: handler panicked", "topic", topic, "panic", r)
		}
	}()
	h(ctx, payload)
}

// router fans payloads out to per-topic dispatchers.
type router struct {
	mu         sync.RWMutex
	topics     map[string]*dispatcher
	closed     bool
	bufferSize int
	logger     cache.Logger
	wg         sync.WaitGroup
}

func newRouter(bufferSize int, logger cache.Logger) *router {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if logger == nil {
		logger = cache.NewNoOpLogger()
	}
	return &router{
		topics:     make(map[string]*dispatcher),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

func (r *router) subscribe(topic string, handler types.Handler) error {
	if handler == nil {
		return errors.New("bus: nil handler")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrBusClosed
	}

	d, ok := r.topics[topic]
	if !ok {
		d = &dispatcher{
			topic: topic,
			queue: make(chan []byte, r.bufferSize),
		}
		r.topics[topic] = d
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			d.run(context.Background(), r.logger)
		}()
	}

	d.mu.Lock()
	d.handlers = append(d.handlers, handler)
	d.mu.Unlock()
	return nil
}

// deliver enqueues payload for topic. Topics without subscribers drop it.
func (r *router) deliver(ctx context.Context, topic string, payload []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrBusClosed
	}

	d, ok := r.topics[topic]
	if !ok {
		return nil
	}

	select {
	case d.queue <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops intake and waits for queued payloads to be handled.
func (r *router) close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for _, d := range r.topics {
		close(d.queue)
	}
	r.mu.Unlock()

	r.wg.Wait()
}
