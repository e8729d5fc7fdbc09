package notifier

import (
	"errors"
	"fmt"

	"github.com/huykn/cache-coherence/types"
)

// ErrConfiguration marks startup wiring errors. They are never produced
// while handling events.
var ErrConfiguration = errors.New("invalidation configuration error")

// ErrAlreadyRegistered is returned by a second Register call.
var ErrAlreadyRegistered = fmt.Errorf("%w: subscriber already registered", ErrConfiguration)

// ErrDuplicateHandler is returned when a kind gets a second handler.
var ErrDuplicateHandler = fmt.Errorf("%w: duplicate handler", ErrConfiguration)

// ErrMissingHandler is returned when a kind has no handler.
var ErrMissingHandler = fmt.Errorf("%w: missing handler", ErrConfiguration)

// ErrMalformedPayload classifies events whose correlation fields are missing
// or undecodable.
var ErrMalformedPayload = errors.New("malformed event payload")

// DeleteError reports a cache delete that failed after all attempts. It is
// passed to OnError and never returned to the event bus.
type DeleteError struct {
	Kind     types.EventKind
	Key      string
	Attempts int
	Err      error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("invalidate %s key %q after %d attempt(s): %v", e.Kind, e.Key, e.Attempts, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

// PayloadError reports a malformed event payload.
type PayloadError struct {
	Kind   types.EventKind
	Reason string
	Err    error
}

func (e *PayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s event: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s event: %s", e.Kind, e.Reason)
}

func (e *PayloadError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedPayload, e.Err}
	}
	return []error{ErrMalformedPayload}
}
