// Package event defines the domain events fanned out to connected sessions.
package event

import (
	"time"

	"chat-relay/domain"
	"chat-relay/errors"
)

type DomainEvent interface {
	isDomainEvent()
}

// MessagePosted is broadcast to every session, sender included,
// after a candidate passed validation and was appended to the ledger.
type MessagePosted struct {
	ID     int64
	Author string
	Body   string
	At     time.Time
}

// HistoryLoaded delivers the full ledger snapshot to one newly
// connected session. It is never broadcast.
type HistoryLoaded struct {
	Messages []domain.Message
}

// HistoryCleared is broadcast to every session after a reset.
type HistoryCleared struct{}

// SubmissionRejected is delivered only to the session whose
// candidate violated an admission rule.
type SubmissionRejected struct {
	Reason errors.Reason
	Detail string
}

func (MessagePosted) isDomainEvent()      {}
func (HistoryLoaded) isDomainEvent()      {}
func (HistoryCleared) isDomainEvent()     {}
func (SubmissionRejected) isDomainEvent() {}

// FromMessage builds the broadcast event for a finalized ledger entry.
func FromMessage(m domain.Message) MessagePosted {
	return MessagePosted{
		ID:     m.ID,
		Author: m.Author,
		Body:   m.Body,
		At:     m.CreatedAt,
	}
}
