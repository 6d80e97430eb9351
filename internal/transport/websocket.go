package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/synheart/consciousness-bridge/internal/models"
	"go.uber.org/zap"
)

// writeWait bounds each frame write so one stalled client cannot hold the hub
const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local visualization clients connect from any origin
	},
}

// WebSocketHub broadcasts states to WebSocket clients as JSON text frames
type WebSocketHub struct {
	clients   map[*websocket.Conn]bool
	closed    bool
	writeWait time.Duration
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewWebSocketHub creates a new WebSocket hub
func NewWebSocketHub(logger *zap.Logger) *WebSocketHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHub{
		clients:   make(map[*websocket.Conn]bool),
		writeWait: writeWait,
		logger:    logger,
	}
}

// ServeHTTP upgrades the connection and holds it until the client leaves
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("failed to upgrade connection", zap.Error(err))
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = true
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("WebSocket client connected", zap.String("remote", r.RemoteAddr), zap.Int("total", clientCount))

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		clientCount := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug("WebSocket client disconnected", zap.Int("total", clientCount))
	}()

	// Clients never send anything meaningful; reading detects disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast sends a state to all connected clients
func (h *WebSocketHub) Broadcast(state models.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// gorilla connections allow a single concurrent writer
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			// closing ends the read loop, which removes the client
			h.logger.Debug("failed to send to client", zap.Error(err))
			client.Close()
		}
	}

	return nil
}

// BroadcastFromChannel reads states from a channel and broadcasts them
func (h *WebSocketHub) BroadcastFromChannel(ctx context.Context, states <-chan models.State) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state, ok := <-states:
			if !ok {
				return nil
			}
			if err := h.Broadcast(state); err != nil {
				h.logger.Warn("WebSocket broadcast failed", zap.Error(err))
			}
		}
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *WebSocketHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.Close()
	}
	h.clients = make(map[*websocket.Conn]bool)
	h.closed = true
	return nil
}
