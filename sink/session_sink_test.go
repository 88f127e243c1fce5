package sink

import (
	"context"
	"testing"

	"chat-relay/domain/event"

	"github.com/stretchr/testify/require"
)

func TestSessionSink_BuffersEvents(t *testing.T) {
	req := require.New(t)
	s := NewSessionSink(2)
	ctx := context.Background()

	req.NoError(s.Consume(ctx, event.MessagePosted{ID: 1}))
	req.NoError(s.Consume(ctx, event.MessagePosted{ID: 2}))

	first := <-s.Events
	second := <-s.Events
	req.Equal(event.MessagePosted{ID: 1}, first)
	req.Equal(event.MessagePosted{ID: 2}, second)
}

func TestSessionSink_FullBuffer_DropsInsteadOfBlocking(t *testing.T) {
	req := require.New(t)
	s := NewSessionSink(1)
	ctx := context.Background()

	// Given a full buffer
	req.NoError(s.Consume(ctx, event.MessagePosted{ID: 1}))

	// When another event arrives, Consume returns without blocking
	req.NoError(s.Consume(ctx, event.MessagePosted{ID: 2}))

	// Then only the first event is retained
	req.Equal(event.MessagePosted{ID: 1}, <-s.Events)
	req.Empty(s.Events)
}

func TestSessionSink_CanceledContext(t *testing.T) {
	req := require.New(t)
	s := NewSessionSink(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// An unbuffered sink with a dead context reports the cancellation
	err := s.Consume(ctx, event.HistoryCleared{})
	req.ErrorIs(err, context.Canceled)
}
