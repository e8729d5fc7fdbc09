package bus

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/huykn/cache-coherence/cache"
	"github.com/huykn/cache-coherence/storage"
	"github.com/huykn/cache-coherence/types"
)

const (
	minReconnectBackoff = 100 * time.Millisecond
	maxReconnectBackoff = 10 * time.Second
)

// RedisBus implements the event bus on Redis Pub/Sub. Each topic maps to
// the channel <channelPrefix><topic>; a single pattern subscription feeds
// per-topic dispatchers.
type RedisBus struct {
	client        *redis.Client
	channelPrefix string
	router        *router
	logger        cache.Logger

	mu      sync.Mutex
	pubsub  *redis.PubSub
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewRedisBus creates a Redis Pub/Sub bus. The client is not closed by Close.
func NewRedisBus(client *redis.Client, channelPrefix string, bufferSize int, logger cache.Logger) *RedisBus {
	if logger == nil {
		logger = cache.NewNoOpLogger()
	}
	return &RedisBus{
		client:        client,
		channelPrefix: channelPrefix,
		router:        newRouter(bufferSize, logger),
		logger:        logger,
	}
}

// Subscribe registers handler for topic. It may be called before or after Start.
func (b *RedisBus) Subscribe(topic string, handler types.Handler) error {
	return b.router.subscribe(topic, handler)
}

// Start subscribes to the channel pattern and begins delivery. It returns
// once Redis has confirmed the subscription.
func (b *RedisBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return nil
	}

	pubsub := b.client.PSubscribe(ctx, storage.EscapeGlob(b.channelPrefix)+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return err
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	b.pubsub = pubsub
	b.cancel = cancel
	b.started = true

	b.wg.Add(1)
	go b.listen(listenCtx, pubsub)

	return nil
}

// Publish publishes payload on the channel for topic.
func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.client.Publish(ctx, b.channelPrefix+topic, payload).Err()
}

// Close stops the listener, drains queued events and releases the subscription.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	var err error
	if b.started {
		b.cancel()
		err = b.pubsub.Close()
		b.started = false
	}
	b.mu.Unlock()

	b.wg.Wait()
	b.router.close()
	return err
}

// listen reads messages until ctx is cancelled. go-redis reconnects the
// PubSub connection itself; receive errors only back off.
func (b *RedisBus) listen(ctx context.Context, pubsub *redis.PubSub) {
	defer b.wg.Done()

	backoff := minReconnectBackoff
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Warn("bus: redis receive failed, retrying", "error", err, "backoff", backoff)

			select {
			case <-time.After(backoff):
				backoff = min(backoff*2, maxReconnectBackoff)
			case <-ctx.Done():
				return
			}
			continue
		}

		backoff = minReconnectBackoff

		topic := strings.TrimPrefix(msg.Channel, b.channelPrefix)
		if err := b.router.deliver(ctx, topic, []byte(msg.Payload)); err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("bus: dropping event", "topic", topic, "error", err)
		}
	}
}
