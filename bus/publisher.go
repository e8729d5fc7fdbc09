package bus

import (
	"context"
	"fmt"

	"github.com/huykn/cache-coherence/storage"
	"github.com/huykn/cache-coherence/types"
)

// EventPublisher encodes mutation payloads and publishes them on the topic
// for their kind. Upstream write paths call it after a mutation commits.
type EventPublisher struct {
	pub         Publisher
	codec       storage.Codec
	topicPrefix string
}

// NewEventPublisher creates an EventPublisher. A nil codec defaults to JSON.
func NewEventPublisher(pub Publisher, codec storage.Codec, topicPrefix string) *EventPublisher {
	if codec == nil {
		codec = storage.JSONCodec{}
	}
	return &EventPublisher{
		pub:         pub,
		codec:       codec,
		topicPrefix: topicPrefix,
	}
}

// Publish emits a mutation notification for kind.
func (p *EventPublisher) Publish(ctx context.Context, kind types.EventKind, payload types.Payload) error {
	if !kind.Valid() {
		return fmt.Errorf("bus: cannot publish unknown event kind %q", kind)
	}

	data, err := p.codec.Marshal(payload)
	if err != nil {
		return fmt.Errorf("bus: encode %s payload: %w", kind, err)
	}

	return p.pub.Publish(ctx, types.Topic(p.topicPrefix, kind), data)
}
