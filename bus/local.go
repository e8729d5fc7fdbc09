package bus

import (
	"context"

	"github.com/huykn/cache-coherence/cache"
	"github.com/huykn/cache-coherence/types"
)

// LocalBus is an in-process event bus.
type LocalBus struct {
	router *router
}

// NewLocalBus creates a LocalBus. bufferSize bounds the per-topic queue; a
// full queue makes Publish block until the dispatcher catches up or ctx ends.
func NewLocalBus(bufferSize int, logger cache.Logger) *LocalBus {
	return &LocalBus{router: newRouter(bufferSize, logger)}
}

// Subscribe registers handler for topic.
func (b *LocalBus) Subscribe(topic string, handler types.Handler) error {
	return b.router.subscribe(topic, handler)
}

// Publish enqueues payload for every subscriber of topic.
func (b *LocalBus) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.router.deliver(ctx, topic, payload)
}

// Close drains queued events and stops the dispatchers.
func (b *LocalBus) Close() error {
	b.router.close()
	return nil
}
