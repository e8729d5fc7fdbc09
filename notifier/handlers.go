package notifier

import (
	"fmt"

	"github.com/huykn/cache-coherence/types"
)

// HandlerTable maps every event kind to exactly one handler. It is built
// once at startup and checked for completeness before registration.
type HandlerTable struct {
	handlers map[types.EventKind]types.Handler
}

// NewHandlerTable returns an empty table.
func NewHandlerTable() *HandlerTable {
	return &HandlerTable{handlers: make(map[types.EventKind]types.Handler, len(types.AllKinds()))}
}

// Add binds h to kind.
func (t *HandlerTable) Add(kind types.EventKind, h types.Handler) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown event kind %q", ErrConfiguration, kind)
	}
	if h == nil {
		return fmt.Errorf("%w: nil handler for %s", ErrConfiguration, kind)
	}
	if _, ok := t.handlers[kind]; ok {
		return fmt.Errorf("%w for %s", ErrDuplicateHandler, kind)
	}
	t.handlers[kind] = h
	return nil
}

// Validate fails unless every kind has a handler.
func (t *HandlerTable) Validate() error {
	for _, kind := range types.AllKinds() {
		if _, ok := t.handlers[kind]; !ok {
			return fmt.Errorf("%w for %s", ErrMissingHandler, kind)
		}
	}
	return nil
}

// Handler returns the handler bound to kind.
func (t *HandlerTable) Handler(kind types.EventKind) (types.Handler, bool) {
	h, ok := t.handlers[kind]
	return h, ok
}
