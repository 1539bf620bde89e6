package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu          sync.Mutex
	connects    int
	disconnects int
	events      []Envelope
}

func (h *recordingHandler) HandleConnect(string) {
	h.mu.Lock()
	h.connects++
	h.mu.Unlock()
}

func (h *recordingHandler) HandleDisconnect(string) {
	h.mu.Lock()
	h.disconnects++
	h.mu.Unlock()
}

func (h *recordingHandler) HandleEvent(_, event string, data json.RawMessage) {
	h.mu.Lock()
	h.events = append(h.events, Envelope{Event: event, Data: data})
	h.mu.Unlock()
}

func TestRoundTrip(t *testing.T) {
	handler := &recordingHandler{}
	srv := httptest.NewServer(NewHub(handler, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, err := Dial(context.Background(), url)
	require.NoError(t, err)

	require.NoError(t, client.Send("bike_speed", map[string]any{"speed": 18.0, "timestamp": 1}))
	require.NoError(t, client.Send("bike_torch", map[string]any{"torchOn": true, "timestamp": 2}))

	require.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return len(handler.events) == 2
	}, time.Second, 5*time.Millisecond)

	handler.mu.Lock()
	assert.Equal(t, 1, handler.connects)
	assert.Equal(t, "bike_speed", handler.events[0].Event)
	assert.JSONEq(t, `{"speed":18,"timestamp":1}`, string(handler.events[0].Data))
	handler.mu.Unlock()

	require.NoError(t, client.Close())
	require.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return handler.disconnects == 1
	}, time.Second, 5*time.Millisecond, "close must tear the connection down")
}

func TestBadFrameIsSkipped(t *testing.T) {
	handler := &recordingHandler{}
	srv := httptest.NewServer(NewHub(handler, nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, err := Dial(context.Background(), url)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	client.mu.Lock()
	require.NoError(t, client.conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	client.mu.Unlock()
	require.NoError(t, client.Send("bike_speed", map[string]any{"speed": 20.0}))

	require.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return len(handler.events) == 1
	}, time.Second, 5*time.Millisecond, "a malformed frame must not kill the connection")
}
