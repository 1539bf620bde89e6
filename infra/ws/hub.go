// Package ws carries named telemetry and lifecycle events between the
// simulator host and the relay over a websocket per connection.
package ws

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/DevBash1/trackpadal/infra/logger"
)

// Envelope is the wire frame: a named event and its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Handler receives connection lifecycle and event callbacks. Events for
// one connection are delivered sequentially from that connection's read
// loop.
type Handler interface {
	HandleConnect(connID string)
	HandleDisconnect(connID string)
	HandleEvent(connID, event string, data json.RawMessage)
}

// Hub upgrades HTTP requests to websocket connections and pumps their
// frames into the Handler.
type Hub struct {
	handler  Handler
	upgrader websocket.Upgrader
	log      logger.Logger
}

// NewHub creates a Hub for the given handler.
func NewHub(handler Handler, log logger.Logger) *Hub {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Hub{
		handler: handler,
		upgrader: websocket.Upgrader{
			// Telemetry producers are not browser-origin checked.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// ServeHTTP upgrades the request and runs the connection's read loop
// until the peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorf("upgrade: %v", err)
		return
	}
	connID := uuid.NewString()
	h.handler.HandleConnect(connID)
	defer func() {
		h.handler.HandleDisconnect(connID)
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warnf("%s: read: %v", connID, err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			h.log.Warnf("%s: bad frame: %v", connID, err)
			continue
		}
		h.handler.HandleEvent(connID, env.Event, env.Data)
	}
}
