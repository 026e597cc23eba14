package status

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oshokin/room-monitor/internal/logger"
)

// writeTimeout bounds a single WebSocket write.
const writeTimeout = 5 * time.Second

// client wraps a connection with a mutex for safe concurrent writes.
type client struct {
	// conn is the WebSocket connection.
	conn *websocket.Conn
	// mu serialises writes.
	mu sync.Mutex
}

// Hub pushes detail updates to connected WebSocket clients.
type Hub struct {
	// upgrader upgrades HTTP requests.
	upgrader websocket.Upgrader
	// board supplies the detail sent on connect.
	board *Board
	// mu guards clients.
	mu sync.RWMutex
	// clients are the live connections.
	clients map[*client]struct{}
}

// NewHub creates a hub that greets new clients with the board detail.
func NewHub(board *Board) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		board:   board,
		clients: make(map[*client]struct{}),
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Broadcast sends the detail to every client, dropping clients that fail.
func (h *Hub) Broadcast(ctx context.Context, detail Detail) {
	payload, err := json.Marshal(detail)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to encode detail", "error", err)

		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err = c.write(payload); err != nil {
			logger.DebugKV(ctx, "Dropping WebSocket client", "error", err)
			h.remove(c)
		}
	}
}

// ServeHTTP upgrades the request and keeps the connection until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithName(r.Context(), "status-ws")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.DebugKV(ctx, "WebSocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)

		return
	}

	c := &client{conn: conn}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer h.remove(c)

	if payload, marshalErr := json.Marshal(h.board.Detail()); marshalErr == nil {
		if err = c.write(payload); err != nil {
			return
		}
	}

	// Incoming messages are ignored; reading detects the close.
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				logger.DebugKV(ctx, "Unexpected WebSocket close", "error", err)
			}

			return
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		_ = c.conn.Close()
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		_ = c.conn.Close()
	}
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}

	return c.conn.WriteMessage(websocket.TextMessage, payload)
}
