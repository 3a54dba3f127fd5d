package session

import (
	"errors"
	"sync"
)

var (
	// ErrNoWaiter is returned by Push when no sink is registered for the
	// order id. The outcome is dropped; this is a loggable event, not a
	// failure of the reconciliation.
	ErrNoWaiter = errors.New("no waiter registered")

	// ErrSinkClosed is returned when a push hits a sink whose owner has
	// already disconnected.
	ErrSinkClosed = errors.New("sink closed")
)

// Sink is the push-capable end of a waiter connection. The registry holds
// a non-owning reference; the waiter owns the underlying resource.
type Sink interface {
	// Send delivers one message, or returns ErrSinkClosed if the sink
	// can no longer accept deliveries. Must not block.
	Send(message string) error
	// Close releases the sink. Safe to call more than once.
	Close()
}

// Registry is a concurrency-safe mapping from order id to the sink of the
// currently waiting client. At most one sink is live per order id; a new
// registration for the same id supersedes the previous one.
//
// All operations on the same order id are linearized by a single mutex, so
// a Push racing a Register yields exactly one of delivered-to-new-sink or
// dropped, never a delivery to a superseded sink.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]Sink
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Sink)}
}

// Register installs sink as the current waiter for orderID, replacing any
// prior waiter. The superseded sink receives no notice.
func (r *Registry) Register(orderID string, sink Sink) {
	r.mu.Lock()
	r.sessions[orderID] = sink
	r.mu.Unlock()
}

// Deregister removes the mapping for orderID if it still points at sink.
// A sink that has been superseded by a newer registration cannot evict
// its replacement. No-op when nothing matches.
func (r *Registry) Deregister(orderID string, sink Sink) {
	r.mu.Lock()
	if r.sessions[orderID] == sink {
		delete(r.sessions, orderID)
	}
	r.mu.Unlock()
}

// Push delivers outcome message to the sink registered for orderID and
// consumes the session on success. Returns ErrNoWaiter when no sink is
// registered. A sink that rejects the delivery is treated as dead and
// removed, so a later push for the same id is a clean miss.
func (r *Registry) Push(orderID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sink, ok := r.sessions[orderID]
	if !ok {
		return ErrNoWaiter
	}
	delete(r.sessions, orderID)
	return sink.Send(message)
}

// Active reports whether a waiter is currently registered for orderID
func (r *Registry) Active(orderID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[orderID]
	return ok
}
