package bus

import (
	"context"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/huykn/cache-coherence/cache"
	"github.com/huykn/cache-coherence/types"
)

// NATSBus implements the event bus on NATS subjects. NATS runs the callbacks
// of one subscription serially, which gives FIFO delivery per topic.
type NATSBus struct {
	conn          *nats.Conn
	subjectPrefix string
	logger        cache.Logger

	mu     sync.Mutex
	subs   []*nats.Subscription
	closed bool
}

// NewNATSBus creates a bus on an established connection. The connection is
// not closed by Close.
func NewNATSBus(conn *nats.Conn, subjectPrefix string, logger cache.Logger) *NATSBus {
	if logger == nil {
		logger = cache.NewNoOpLogger()
	}
	return &NATSBus{
		conn:          conn,
		subjectPrefix: subjectPrefix,
		logger:        logger,
	}
}

// Subscribe registers handler for topic.
func (b *NATSBus) Subscribe(topic string, handler types.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}

	sub, err := b.conn.Subscribe(b.subjectPrefix+topic, func(msg *nats.Msg) {
		invoke(context.Background(), b.logger, topic, handler, msg.Data)
	})
	if err != nil {
		return err
	}

	b.subs = append(b.subs, sub)
	return nil
}

// Publish publishes payload on the subject for topic.
func (b *NATSBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.conn.Publish(b.subjectPrefix+topic, payload)
}

// Flush waits until the server has processed every published message.
func (b *NATSBus) Flush(ctx context.Context) error {
	return b.conn.FlushWithContext(ctx)
}

// Close drains every subscription registered through this bus.
func (b *NATSBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var firstErr error
	for _, sub := range b.subs {
		if err := sub.Drain(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
