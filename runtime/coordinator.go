package runtime

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/observability"
)

// Coordinator drives the broadcast protocol. A connection is active as soon
// as it is registered and has received the snapshot; there is no handshake.
//
// Connect and dispatch share one mutex: the recipient set of a broadcast is
// captured under the same critical section as the ledger mutation, and a
// snapshot is taken and delivered under that same section. A session whose
// snapshot contains message N is therefore never in N's recipient set, and
// a session in N's recipient set never holds N in its snapshot.
//
// Actual delivery stays asynchronous: captured deliveries go through a
// bounded channel drained by the fanout worker, so a submission never
// blocks on slow sessions.
type Coordinator struct {
	mu         sync.Mutex
	log        *slog.Logger
	ledger     *Ledger
	registry   contract.IRegistry
	monitoring *observability.MonitoringManager
	events     chan contract.Delivery
}

func NewCoordinator(log *slog.Logger, ledger *Ledger, registry contract.IRegistry,
	monitoring *observability.MonitoringManager, bufferSize int) *Coordinator {
	return &Coordinator{
		log:        log,
		ledger:     ledger,
		registry:   registry,
		monitoring: monitoring,
		events:     make(chan contract.Delivery, bufferSize),
	}
}

// Events exposes the broadcast queue to the fanout worker.
func (c *Coordinator) Events() chan contract.Delivery {
	return c.events
}

// Connect registers a new session and delivers the full history to that
// session only. Nothing is broadcast. Subscribe and snapshot happen under
// the sequencing lock so no broadcast can slip between them.
func (c *Coordinator) Connect(ctx context.Context, sessionID string, sink contract.EventSink) {
	c.mu.Lock()
	c.registry.Subscribe(sessionID, sink)
	err := sink.Consume(ctx, event.HistoryLoaded{Messages: c.ledger.Snapshot()})
	c.mu.Unlock()

	c.monitoring.SessionConnected()
	if err != nil {
		c.log.Warn("Failed to deliver history snapshot", "session_id", sessionID, "err", err)
	}
	c.log.Info("Session connected", "session_id", sessionID)
}

// Submit runs a raw candidate through validation and, when admitted,
// appends it to the ledger and queues the finalized message for broadcast
// to every session connected at that instant, sender included. A rejected
// candidate is reported to the originating session only and mutates nothing.
func (c *Coordinator) Submit(ctx context.Context, sessionID string, candidate domain.Candidate) (domain.Message, error) {
	normalized := candidate.Normalize()
	if err := normalized.Validate(); err != nil {
		c.monitoring.ValidationRejected()
		c.rejectSubmission(ctx, sessionID, err)
		return domain.Message{}, err
	}

	c.mu.Lock()
	message := c.ledger.Append(normalized.Author, normalized.Body)
	c.dispatchLocked(event.FromMessage(message))
	c.mu.Unlock()

	c.monitoring.MessageBroadcast()
	return message, nil
}

// Reset clears the full history for every participant and notifies all
// connected sessions.
func (c *Coordinator) Reset(_ context.Context, sessionID string) {
	c.mu.Lock()
	c.ledger.Clear()
	c.dispatchLocked(event.HistoryCleared{})
	c.mu.Unlock()

	c.monitoring.Reset()
	c.log.Info("History cleared", "session_id", sessionID)
}

// Disconnect removes a session from the registry. Nothing is broadcast.
// A delivery captured before the disconnect may still reach the session's
// sink; that write lands in a buffer nobody reads anymore and is harmless.
func (c *Coordinator) Disconnect(sessionID string) {
	c.registry.Unsubscribe(sessionID)
	c.monitoring.SessionDisconnected()
	c.log.Info("Session disconnected", "session_id", sessionID)
}

func (c *Coordinator) rejectSubmission(ctx context.Context, sessionID string, cause error) {
	sink, ok := c.registry.Get(sessionID)
	if !ok {
		return
	}
	rejection := event.SubmissionRejected{Detail: cause.Error()}
	var validation errors.ValidationError
	if goerrors.As(cause, &validation) {
		rejection.Reason = validation.Reason
	}
	if err := sink.Consume(ctx, rejection); err != nil {
		c.log.Warn("Failed to deliver rejection", "session_id", sessionID, "err", err)
	}
}

// dispatchLocked captures the current membership and queues the delivery.
// Callers hold c.mu. A full queue drops the event with a warning rather
// than stalling the submit path.
func (c *Coordinator) dispatchLocked(e event.DomainEvent) {
	delivery := contract.Delivery{Event: e, Sinks: c.registry.ActiveSinks()}
	select {
	case c.events <- delivery:
	default:
		c.log.Warn(fmt.Sprintf("Broadcast queue full, dropping %T", e))
	}
}
