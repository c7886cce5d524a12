// Package registry provides the listener tables that route interactive
// events to handler callbacks. Each table maps an event id (a caller-chosen
// string such as "demo.modal.button1") to exactly one callback.
package registry

import "sync"

// Table is a listener table for one interaction category. Registration is
// last-write-wins: re-registering an event id replaces the previous callback.
// Modal lifecycles rely on this, re-asserting the same callback id on every
// view turn so the next submission routes to the next handler.
type Table[F any] struct {
	mu        sync.RWMutex
	name      string
	listeners map[string]F
}

// NewTable returns an empty table. The name identifies the interaction
// category in log output.
func NewTable[F any](name string) *Table[F] {
	return &Table[F]{
		name:      name,
		listeners: make(map[string]F),
	}
}

// Name returns the interaction category this table serves.
func (t *Table[F]) Name() string { return t.name }

// On registers fn under the given event id, replacing any prior registration.
func (t *Table[F]) On(eventID string, fn F) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners[eventID] = fn
}

// Off removes the registration for the given event id, if any.
func (t *Table[F]) Off(eventID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.listeners, eventID)
}

// Lookup returns the callback registered for the event id.
func (t *Table[F]) Lookup(eventID string) (F, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.listeners[eventID]
	return fn, ok
}

// Len returns the number of registered listeners.
func (t *Table[F]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.listeners)
}
