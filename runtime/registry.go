package runtime

import (
	"sync"

	"chat-relay/contract"
)

// Registry tracks the sink of every currently connected session.
// Membership is a flat set keyed by session ID; all access goes through
// the methods so the mutex can never be bypassed, and fan-out works from
// a point-in-time copy so a mutating set is never iterated.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.EventSink),
	}
}

// Subscribe registers a session's sink. Subscribing an already known
// session replaces its sink; there is never more than one entry per ID.
func (r *Registry) Subscribe(sessionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = sink
}

// Unsubscribe removes a session. Unknown IDs are a no-op so disconnect
// races stay harmless.
func (r *Registry) Unsubscribe(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// ActiveSinks returns a copy of the currently registered sinks.
// No ordering is guaranteed.
func (r *Registry) ActiveSinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.sessions) == 0 {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for _, sink := range r.sessions {
		sinks = append(sinks, sink)
	}
	return sinks
}

// Get resolves one session's sink.
func (r *Registry) Get(sessionID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[sessionID]
	return sink, ok
}
