package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(":0", zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func dialWs(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) *Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return &msg
}

func TestServer_HealthEndpoint(t *testing.T) {
	srv := startTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	srv := startTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_SignalingExchange(t *testing.T) {
	srv := startTestServer(t)

	sender := dialWs(t, srv)
	require.NoError(t, sender.WriteJSON(&Message{Type: TypeCreate}))

	created := readMessage(t, sender)
	require.Equal(t, TypeCreated, created.Type)
	require.NotEmpty(t, created.RoomID)

	receiver := dialWs(t, srv)
	require.NoError(t, receiver.WriteJSON(&Message{Type: TypeJoin, RoomID: created.RoomID}))

	joined := readMessage(t, receiver)
	assert.Equal(t, TypeJoined, joined.Type)
	assert.Equal(t, created.RoomID, joined.RoomID)

	peerJoined := readMessage(t, sender)
	assert.Equal(t, TypePeerJoined, peerJoined.Type)

	// Signals pass through verbatim.
	payload := json.RawMessage(`{"sdp":{"type":"offer","sdp":"v=0"}}`)
	require.NoError(t, sender.WriteJSON(&Message{Type: TypeSignal, RoomID: created.RoomID, Payload: payload}))

	signal := readMessage(t, receiver)
	assert.Equal(t, TypeSignal, signal.Type)
	assert.JSONEq(t, string(payload), string(signal.Payload))

	// Closing one side notifies the other.
	sender.Close()
	peerLeft := readMessage(t, receiver)
	assert.Equal(t, TypePeerLeft, peerLeft.Type)
}

func TestServer_MalformedFrameKeepsConnectionOpen(t *testing.T) {
	srv := startTestServer(t)

	conn := dialWs(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("this is not json")))

	// The connection survives the garbage and still serves requests.
	require.NoError(t, conn.WriteJSON(&Message{Type: TypeCreate}))
	created := readMessage(t, conn)
	assert.Equal(t, TypeCreated, created.Type)
}
