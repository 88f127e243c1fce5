// Package client is a small websocket client for the broadcast service.
// It is what the viewer command and the end-to-end tests speak through.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/infrastructure/ws"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type Client struct {
	mu     sync.Mutex // guards writes to the socket
	conn   *websocket.Conn
	log    *slog.Logger
	events chan event.DomainEvent
}

// Dial connects to a running server, e.g. "ws://localhost:8080/ws".
// The returned client delivers decoded server events on Events() once
// Listen is running.
func Dial(ctx context.Context, url string, log *slog.Logger, bufferSize int) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not connect to server at %s: %w", url, err)
	}
	return &Client{
		conn:   conn,
		log:    log,
		events: make(chan event.DomainEvent, bufferSize),
	}, nil
}

func (c *Client) Events() <-chan event.DomainEvent {
	return c.events
}

// Listen reads server frames until the socket or the context dies, then
// closes the events channel. Run it in its own goroutine.
func (c *Client) Listen(ctx context.Context) {
	defer close(c.events)
	for {
		var envelope ws.ServerEnvelope
		if err := c.conn.ReadJSON(&envelope); err != nil {
			c.log.Debug("Connection closed", "err", err)
			return
		}
		evt, ok := toEvent(envelope)
		if !ok {
			c.log.Debug("Ignoring unknown frame", "type", envelope.Type)
			continue
		}
		select {
		case c.events <- evt:
		case <-ctx.Done():
			return
		}
	}
}

// Send submits a message candidate. Validation happens server-side; a
// rejection comes back as a SubmissionRejected event.
func (c *Client) Send(author, text string) error {
	return c.write(ws.ClientEnvelope{Type: ws.TypeNewMessage, Author: author, Text: text})
}

// Reset asks the server to clear the full history for every participant.
func (c *Client) Reset() error {
	return c.write(ws.ClientEnvelope{Type: ws.TypeClearChat})
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) write(envelope ws.ClientEnvelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(envelope)
}

func toEvent(envelope ws.ServerEnvelope) (event.DomainEvent, bool) {
	switch envelope.Type {
	case ws.TypeLoadMessages:
		return event.HistoryLoaded{
			Messages: lo.Map(envelope.Messages, func(wm ws.WireMessage, _ int) domain.Message {
				return ws.FromWireMessage(wm)
			}),
		}, true
	case ws.TypeNewMessage:
		if envelope.Message == nil {
			return nil, false
		}
		message := ws.FromWireMessage(*envelope.Message)
		return event.FromMessage(message), true
	case ws.TypeClearChat:
		return event.HistoryCleared{}, true
	case ws.TypeError:
		detail := ""
		if envelope.Error != nil {
			detail = envelope.Error.Message
		}
		return event.SubmissionRejected{Detail: detail}, true
	default:
		return nil, false
	}
}
