package types

import (
	"context"
	"fmt"
)

// EventKind identifies a domain mutation.
type EventKind string

// The closed set of mutation kinds emitted by upstream writers.
const (
	Created      EventKind = "created"
	Updated      EventKind = "updated"
	Deleted      EventKind = "deleted"
	ChildAdded   EventKind = "child.added"
	ChildRemoved EventKind = "child.removed"
)

// DefaultTopicPrefix is the topic namespace used when none is configured.
const DefaultTopicPrefix = "entity"

// AllKinds returns every event kind in declaration order.
func AllKinds() []EventKind {
	return []EventKind{Created, Updated, Deleted, ChildAdded, ChildRemoved}
}

// Valid reports whether k belongs to the closed set.
func (k EventKind) Valid() bool {
	switch k {
	case Created, Updated, Deleted, ChildAdded, ChildRemoved:
		return true
	}
	return false
}

func (k EventKind) String() string {
	return string(k)
}

// ParseEventKind converts s to an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	k := EventKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown event kind %q", s)
	}
	return k, nil
}

// Topic returns the bus topic for kind, e.g. "entity.child.added".
func Topic(prefix string, kind EventKind) string {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return prefix + "." + string(kind)
}

// DomainEvent is a single mutation notification. EntityID and ParentID are
// empty when the payload did not carry them.
type DomainEvent struct {
	Kind     EventKind
	EntityID string
	ParentID string
}

// HasEntity reports whether the event names an entity.
func (e DomainEvent) HasEntity() bool { return e.EntityID != "" }

// HasParent reports whether the event is scoped to a parent grouping.
func (e DomainEvent) HasParent() bool { return e.ParentID != "" }

// Payload is the body carried on the bus for every event kind.
type Payload struct {
	ID            string `json:"id" msgpack:"id"`
	AssociationID string `json:"associationId,omitempty" msgpack:"associationId,omitempty"`
}

// Event builds the DomainEvent for kind from the payload.
func (p Payload) Event(kind EventKind) DomainEvent {
	return DomainEvent{
		Kind:     kind,
		EntityID: p.ID,
		ParentID: p.AssociationID,
	}
}

// Handler receives raw payloads delivered by an event bus.
type Handler func(ctx context.Context, payload []byte)
