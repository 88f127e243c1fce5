package workers

import (
	"context"
	"log/slog"

	"chat-relay/contract"
)

// EventFanout delivers queued broadcasts to connected sessions.
//
// It provides best-effort fan-out with no guarantees regarding delivery
// or retries. EventFanout is not a message broker: a sink that cannot
// keep up misses events, it is never waited on.
//
// The recipient set of each delivery was captured by the coordinator at
// sequencing time; the worker only delivers. Resolving membership here
// instead would let a session that connected after the triggering
// mutation receive an event it already holds in its snapshot.
type EventFanout struct {
	Log        *slog.Logger
	Deliveries chan contract.Delivery
}

func NewEventFanout(log *slog.Logger, deliveries chan contract.Delivery) *EventFanout {
	return &EventFanout{Log: log, Deliveries: deliveries}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case delivery := <-w.Deliveries:
			w.Fanout(ctx, delivery)
		case <-ctx.Done():
			w.Log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

// Fanout delivers one event to its captured recipients. Failure to
// deliver to one sink never prevents delivery to the others.
func (w *EventFanout) Fanout(ctx context.Context, delivery contract.Delivery) {
	for _, sink := range delivery.Sinks {
		if err := sink.Consume(ctx, delivery.Event); err != nil {
			w.Log.Debug("Sink refused event", "err", err)
		}
	}
}
