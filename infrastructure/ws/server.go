package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"chat-relay/domain"
	"chat-relay/runtime"
	"chat-relay/sink"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server upgrades HTTP requests to websocket sessions and bridges them to
// the coordinator. One goroutine per session pumps events from the session
// sink to the socket; the handler goroutine reads client frames.
// Only the write pump writes to the connection.
type Server struct {
	log                  *slog.Logger
	coordinator          *runtime.Coordinator
	connectionBufferSize int
	upgrader             websocket.Upgrader
}

func NewServer(log *slog.Logger, coordinator *runtime.Coordinator, connectionBufferSize int) *Server {
	return &Server{
		log:                  log,
		coordinator:          coordinator,
		connectionBufferSize: connectionBufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Usernames are unverified labels and sessions carry no
			// credentials, so cross-origin dialing is allowed.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle is the websocket endpoint. The session is active as soon as it is
// registered and has received the history snapshot; it ends when either
// side closes the socket.
func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	sessionSink := sink.NewSessionSink(s.connectionBufferSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.coordinator.Connect(ctx, sessionID, sessionSink)
	defer s.coordinator.Disconnect(sessionID)

	go s.writePump(ctx, cancel, conn, sessionID, sessionSink)
	s.readLoop(ctx, conn, sessionID)
}

// writePump drains the session sink into the socket. A write failure ends
// the session: it cancels the context and closes the socket so the read
// loop unblocks.
func (s *Server) writePump(ctx context.Context, cancel context.CancelFunc,
	conn *websocket.Conn, sessionID string, sessionSink *sink.SessionSink) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-sessionSink.Events:
			envelope, ok := ToEnvelope(evt)
			if !ok {
				s.log.Debug(fmt.Sprintf("Not implemented event : %v", evt))
				continue
			}
			if err := conn.WriteJSON(envelope); err != nil {
				s.log.Warn("Failed to push event to session",
					"session_id", sessionID, "err", err)
				_ = conn.Close()
				return
			}
		}
	}
}

// readLoop decodes client frames until the socket dies. Unknown frame
// types are ignored; a malformed frame is not worth killing the session
// over either.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, sessionID string) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			s.log.Info(fmt.Sprintf("Client %s disconnected", sessionID))
			return
		}
		var envelope ClientEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			s.log.Debug("Dropping malformed frame", "session_id", sessionID, "err", err)
			continue
		}
		switch envelope.Type {
		case TypeNewMessage:
			_, _ = s.coordinator.Submit(ctx, sessionID, domain.Candidate{
				Author: envelope.Author,
				Body:   envelope.Text,
			})
		case TypeClearChat:
			s.coordinator.Reset(ctx, sessionID)
		default:
			s.log.Debug("Ignoring unknown frame type",
				"session_id", sessionID, "type", envelope.Type)
		}
	}
}
