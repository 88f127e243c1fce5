package sink

import (
	"context"

	"chat-relay/domain/event"
)

// SessionSink buffers events for one connected session.
// The transport handler owns the other end of the channel.
type SessionSink struct {
	Events chan event.DomainEvent
}

func NewSessionSink(bufferSize int) *SessionSink {
	return &SessionSink{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by fanout.
// Redirects the event through the channel owned by this session;
// the transport write pump takes it from there.
// A full buffer means the session is too slow: the event is dropped for
// this session rather than stalling delivery to everyone else.
func (s *SessionSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
