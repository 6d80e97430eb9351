package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/synheart/consciousness-bridge/internal/encoding"
	"github.com/synheart/consciousness-bridge/internal/models"
	"go.uber.org/zap"
)

// SSEHub broadcasts states to Server-Sent Events clients. It is mounted on
// the bridge router rather than owning a listener.
type SSEHub struct {
	encoder encoding.Encoder
	clients map[chan []byte]bool
	closed  bool
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewSSEHub creates a new SSE hub
func NewSSEHub(encoder encoding.Encoder, logger *zap.Logger) *SSEHub {
	if encoder == nil {
		encoder = encoding.NewJSONEncoder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SSEHub{
		encoder: encoder,
		clients: make(map[chan []byte]bool),
		logger:  logger,
	}
}

// ServeHTTP streams states to the client until it disconnects or the hub closes
func (h *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	clientChan := make(chan []byte, 100)
	if !h.addClient(clientChan) {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	defer h.removeClient(clientChan)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Debug("SSE client connected", zap.String("remote", r.RemoteAddr), zap.Int("total", h.ClientCount()))

	for {
		select {
		case <-r.Context().Done():
			return
		case data, ok := <-clientChan:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (h *SSEHub) addClient(ch chan []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[ch] = true
	return true
}

func (h *SSEHub) removeClient(ch chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.clients[ch]; exists {
		delete(h.clients, ch)
		close(ch)
		h.logger.Debug("SSE client disconnected", zap.Int("total", len(h.clients)))
	}
}

// Broadcast sends a state to all connected clients, skipping clients whose
// buffers are full
func (h *SSEHub) Broadcast(state models.State) error {
	if h.ClientCount() == 0 {
		return nil
	}

	data, err := h.encoder.Encode(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- data:
		default:
		}
	}
	return nil
}

// BroadcastFromChannel reads states and broadcasts them
func (h *SSEHub) BroadcastFromChannel(ctx context.Context, states <-chan models.State) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state, ok := <-states:
			if !ok {
				return nil
			}
			if err := h.Broadcast(state); err != nil {
				h.logger.Warn("SSE broadcast failed", zap.Error(err))
			}
		}
	}
}

// ClientCount returns connected client count
func (h *SSEHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *SSEHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		close(ch)
	}
	h.clients = make(map[chan []byte]bool)
	h.closed = true
	return nil
}
