// Package ws is the thin websocket wrapper around the broadcast engine.
// It translates between wire envelopes and domain events; no engine
// logic lives here.
package ws

import (
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"

	"github.com/samber/lo"
)

// Envelope type tags. Deployed clients match on these strings, so
// renaming one is a wire protocol break.
const (
	TypeLoadMessages = "load-messages"
	TypeNewMessage   = "new-message"
	TypeClearChat    = "clear-chat"
	TypeError        = "error"
)

// ServerEnvelope is the single frame shape pushed to clients.
type ServerEnvelope struct {
	Type     string        `json:"type"`
	Messages []WireMessage `json:"messages,omitempty"`
	Message  *WireMessage  `json:"message,omitempty"`
	Error    *WireError    `json:"error,omitempty"`
}

type WireError struct {
	Message string `json:"message"`
}

// ClientEnvelope is the single frame shape read from clients.
// IDs and timestamps are assigned server-side; any a client sends are ignored.
type ClientEnvelope struct {
	Type   string `json:"type"`
	Author string `json:"author"`
	Text   string `json:"text"`
}

type WireMessage struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func toWireMessage(m domain.Message) WireMessage {
	return WireMessage{
		ID:        m.ID,
		Author:    m.Author,
		Text:      m.Body,
		Timestamp: m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// FromWireMessage rebuilds a domain message from a server frame.
// Used by the client library; a bad timestamp falls back to zero time
// rather than dropping the message.
func FromWireMessage(wm WireMessage) domain.Message {
	at, _ := time.Parse(time.RFC3339Nano, wm.Timestamp)
	return domain.Message{
		ID:        wm.ID,
		Author:    wm.Author,
		Body:      wm.Text,
		CreatedAt: at,
	}
}

// ToEnvelope maps a domain event to its wire frame.
func ToEnvelope(e event.DomainEvent) (ServerEnvelope, bool) {
	switch evt := e.(type) {
	case event.HistoryLoaded:
		return ServerEnvelope{
			Type: TypeLoadMessages,
			Messages: lo.Map(evt.Messages, func(m domain.Message, _ int) WireMessage {
				return toWireMessage(m)
			}),
		}, true
	case event.MessagePosted:
		return ServerEnvelope{
			Type: TypeNewMessage,
			Message: lo.ToPtr(toWireMessage(domain.Message{
				ID:        evt.ID,
				Author:    evt.Author,
				Body:      evt.Body,
				CreatedAt: evt.At,
			})),
		}, true
	case event.HistoryCleared:
		return ServerEnvelope{Type: TypeClearChat}, true
	case event.SubmissionRejected:
		return ServerEnvelope{Type: TypeError, Error: &WireError{Message: evt.Detail}}, true
	default:
		return ServerEnvelope{}, false
	}
}
