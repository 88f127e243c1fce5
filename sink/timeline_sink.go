package sink

import (
	"context"
	"sync"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

// Timeline builds a local ordered view of the chat from observed events.
// It mirrors what a connected client renders: the snapshot on connect,
// then every broadcast message, emptied again on a clear.
type Timeline struct {
	mu       sync.Mutex
	messages []domain.Message
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch evt := e.(type) {
	case event.HistoryLoaded:
		t.messages = append([]domain.Message(nil), evt.Messages...)
	case event.MessagePosted:
		t.messages = append(t.messages, domain.Message{
			ID:        evt.ID,
			Author:    evt.Author,
			Body:      evt.Body,
			CreatedAt: evt.At,
		})
	case event.HistoryCleared:
		t.messages = nil
	}
	return nil
}

// Messages returns a copy of the current view.
func (t *Timeline) Messages() []domain.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Message(nil), t.messages...)
}
