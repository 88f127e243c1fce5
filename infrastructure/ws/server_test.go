package ws_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-relay/infrastructure/ws"
	"chat-relay/mocks"
	"chat-relay/observability"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// startServer boots the full engine behind a test HTTP server and returns
// the websocket URL.
func startServer(t *testing.T) string {
	t.Helper()
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockISnapshotRepository(ctrl)
	repository.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	log := slog.Default()
	monitoring := observability.NewMonitoringManager()
	ledger := runtime.NewLedger(repository, log, monitoring)
	registry := runtime.NewRegistry()
	coordinator := runtime.NewCoordinator(log, ledger, registry, monitoring, 64)

	wsServer := ws.NewServer(log, coordinator, 64)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.Handle)
	httpServer := httptest.NewServer(mux)
	t.Cleanup(httpServer.Close)

	ctx := t.Context()
	fanout := workers.NewEventFanout(log, coordinator.Events())
	go func() { _ = fanout.Run(ctx) }()

	return "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) ws.ServerEnvelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var envelope ws.ServerEnvelope
	require.NoError(t, conn.ReadJSON(&envelope))
	return envelope
}

func TestServer_ConnectDeliversSnapshotThenBroadcasts(t *testing.T) {
	req := require.New(t)
	url := startServer(t)

	// Given two connected clients, each greeted with the (empty) history
	a := dial(t, url)
	b := dial(t, url)
	req.Equal(ws.TypeLoadMessages, readEnvelope(t, a).Type)
	req.Equal(ws.TypeLoadMessages, readEnvelope(t, b).Type)

	// When A submits a message
	req.NoError(a.WriteJSON(ws.ClientEnvelope{Type: ws.TypeNewMessage, Author: "alice", Text: "hi"}))

	// Then both clients receive the same broadcast, sender included
	for _, conn := range []*websocket.Conn{a, b} {
		envelope := readEnvelope(t, conn)
		req.Equal(ws.TypeNewMessage, envelope.Type)
		req.NotNil(envelope.Message)
		req.Equal(int64(1), envelope.Message.ID)
		req.Equal("alice", envelope.Message.Author)
		req.Equal("hi", envelope.Message.Text)
	}

	// And a client connecting afterwards gets the history, not a broadcast
	c := dial(t, url)
	envelope := readEnvelope(t, c)
	req.Equal(ws.TypeLoadMessages, envelope.Type)
	req.Len(envelope.Messages, 1)
	req.Equal("hi", envelope.Messages[0].Text)
}

func TestServer_InvalidSubmission_ErrorToSenderOnly(t *testing.T) {
	req := require.New(t)
	url := startServer(t)

	a := dial(t, url)
	b := dial(t, url)
	readEnvelope(t, a)
	readEnvelope(t, b)

	// When A submits a whitespace-only body
	req.NoError(a.WriteJSON(ws.ClientEnvelope{Type: ws.TypeNewMessage, Author: "alice", Text: "   "}))

	// Then A gets the validation error
	envelope := readEnvelope(t, a)
	req.Equal(ws.TypeError, envelope.Type)
	req.NotNil(envelope.Error)
	req.Contains(envelope.Error.Message, "empty")

	// And B gets nothing
	req.NoError(b.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	var discarded ws.ServerEnvelope
	req.Error(b.ReadJSON(&discarded))
}

func TestServer_Reset_BroadcastsClear(t *testing.T) {
	req := require.New(t)
	url := startServer(t)

	a := dial(t, url)
	b := dial(t, url)
	readEnvelope(t, a)
	readEnvelope(t, b)

	req.NoError(a.WriteJSON(ws.ClientEnvelope{Type: ws.TypeNewMessage, Author: "alice", Text: "hi"}))
	readEnvelope(t, a)
	readEnvelope(t, b)

	// When A clears the chat
	req.NoError(a.WriteJSON(ws.ClientEnvelope{Type: ws.TypeClearChat}))

	// Then both clients receive the clear signal
	req.Equal(ws.TypeClearChat, readEnvelope(t, a).Type)
	req.Equal(ws.TypeClearChat, readEnvelope(t, b).Type)
}
