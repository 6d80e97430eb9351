package transport

import (
	"context"
	"sync"

	"github.com/synheart/consciousness-bridge/internal/encoding"
	"github.com/synheart/consciousness-bridge/internal/models"
	"go.uber.org/zap"
)

// Streams fans a single state channel out to the SSE and WebSocket hubs
type Streams struct {
	SSE       *SSEHub
	WebSocket *WebSocketHub

	bufferSize int
	logger     *zap.Logger

	mu         sync.Mutex
	dispatcher *Dispatcher
}

// NewStreams creates both hubs; bufferSize bounds each hub's backlog
func NewStreams(bufferSize int, logger *zap.Logger) *Streams {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Streams{
		SSE:        NewSSEHub(encoding.NewJSONEncoder(), logger),
		WebSocket:  NewWebSocketHub(logger),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Run broadcasts every state from source until ctx is cancelled or source closes
func (s *Streams) Run(ctx context.Context, source <-chan models.State) {
	d := NewDispatcher(source, s.bufferSize, s.logger)
	sseStates := d.Subscribe()
	wsStates := d.Subscribe()

	s.mu.Lock()
	s.dispatcher = d
	s.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.SSE.BroadcastFromChannel(ctx, sseStates)
	}()
	go func() {
		defer wg.Done()
		s.WebSocket.BroadcastFromChannel(ctx, wsStates)
	}()

	d.Run(ctx)
	wg.Wait()
}

// Dropped returns how many states were dropped for slow hubs
func (s *Streams) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatcher == nil {
		return 0
	}
	return s.dispatcher.Dropped()
}

// ClientCount returns the number of connected stream clients
func (s *Streams) ClientCount() int {
	return s.SSE.ClientCount() + s.WebSocket.ClientCount()
}

// Close disconnects all stream clients
func (s *Streams) Close() error {
	s.SSE.Close()
	return s.WebSocket.Close()
}
