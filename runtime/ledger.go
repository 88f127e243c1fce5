// Package runtime handles sequencing, session tracking, and fan-out.
// It orchestrates the system without containing transport or UI logic.
package runtime

import (
	goerrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/repositories"
)

// Ledger is the single source of truth for message history during the
// process lifetime. All mutation goes through Append and Clear, which
// serialize on one mutex so concurrent submissions can never share an ID
// or tear a persisted snapshot.
type Ledger struct {
	mu         sync.Mutex
	log        *slog.Logger
	repository repositories.ISnapshotRepository
	monitoring *observability.MonitoringManager
	messages   []domain.Message
	nextID     int64
	now        func() time.Time
}

func NewLedger(repository repositories.ISnapshotRepository, log *slog.Logger,
	monitoring *observability.MonitoringManager) *Ledger {
	return &Ledger{
		log:        log,
		repository: repository,
		monitoring: monitoring,
		nextID:     1,
		now:        time.Now,
	}
}

// Load restores the last persisted state. A missing snapshot starts fresh;
// a corrupt one is discarded with a warning. Neither is fatal: the process
// must come up even when the store has nothing usable.
func (l *Ledger) Load() {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages, nextID, err := l.repository.Load()
	switch {
	case err == nil:
		l.messages = messages
		l.nextID = nextID
		l.log.Info(fmt.Sprintf("Loaded %d messages from snapshot", len(messages)))
	case goerrors.Is(err, errors.ErrNoSnapshot):
		l.messages = nil
		l.nextID = 1
		l.log.Info("No snapshot found; starting fresh")
	default:
		l.messages = nil
		l.nextID = 1
		l.log.Warn("Discarding unreadable snapshot", "err", err)
	}
}

// Snapshot returns a copy of the full ordered history.
func (l *Ledger) Snapshot() []domain.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Message(nil), l.messages...)
}

// Size returns the current number of messages.
func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// Append finalizes a validated candidate: it assigns the next ID and the
// server timestamp, stores the message at the tail, and persists the new
// state. The in-memory append always wins; a failed save is logged and
// counted but never rolled back or surfaced to the submitting session.
func (l *Ledger) Append(author, body string) domain.Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	message := domain.Message{
		ID:        l.nextID,
		Author:    author,
		Body:      body,
		CreatedAt: l.now().UTC(),
	}
	l.nextID++
	l.messages = append(l.messages, message)
	l.persistLocked()
	return message
}

// Clear irreversibly empties the history and resets the ID counter to 1.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = nil
	l.nextID = 1
	l.persistLocked()
}

// persistLocked attempts exactly one save of the current state.
// Best effort: no retry, no propagation, so the append path never waits
// on a struggling store.
func (l *Ledger) persistLocked() {
	if err := l.repository.Save(l.messages, l.nextID); err != nil {
		l.monitoring.SaveFailed()
		l.log.Error("Failed to persist ledger snapshot", "err", err)
	}
}
