package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/synheart/consciousness-bridge/internal/encoding"
	"github.com/synheart/consciousness-bridge/internal/generator"
	"go.uber.org/zap"
)

const (
	// StatePath serves the current state as JSON
	StatePath = "/consciousness/state"
	// StreamPath serves states over Server-Sent Events
	StreamPath = "/consciousness/stream"
	// WebSocketPath serves states over WebSocket
	WebSocketPath = "/consciousness/ws"
)

// Config holds the bridge server configuration
type Config struct {
	Host              string
	Port              int
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
}

// DefaultConfig returns the configuration the particle renderer expects
func DefaultConfig() Config {
	return Config{
		Host:              "localhost",
		Port:              8765,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Server is the HTTP bridge in front of a generator
type Server struct {
	config   Config
	gen      *generator.Generator
	encoder  encoding.Encoder
	protobuf encoding.Encoder
	router   chi.Router
	logger   *zap.Logger
	closers  []io.Closer

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// NewServer creates a bridge server serving states from gen
func NewServer(config Config, gen *generator.Generator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		config:   config,
		gen:      gen,
		encoder:  encoding.NewIndentedJSONEncoder(),
		protobuf: encoding.NewEncoder(encoding.FormatProtobuf),
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/", s.handleStatus)

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get(StatePath, s.handleState)
		// preflights are answered by the cors middleware; bare OPTIONS stays a 404
		r.Options(StatePath, notFound)
	})

	return r
}

// Handle mounts an extra GET handler. Handlers that implement io.Closer are
// closed when the server shuts down; call Handle before Listen.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.router.Method(http.MethodGet, pattern, h)
	if c, ok := h.(io.Closer); ok {
		s.closers = append(s.closers, c)
	}
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Listen binds the listening socket. Port 0 picks a free port.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}
	for _, c := range s.closers {
		c := c
		s.server.RegisterOnShutdown(func() { c.Close() })
	}
	return nil
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// GetAddress returns the server base URL
func (s *Server) GetAddress() string {
	return "http://" + s.Addr()
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	srv, ln := s.server, s.listener
	s.mu.Unlock()

	s.logger.Info("bridge listening",
		zap.String("address", s.GetAddress()),
		zap.String("tier", string(s.gen.Tier())),
		zap.String("run_id", s.gen.RunID()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		err := s.Shutdown()
		s.logger.Info("bridge stopped", zap.Int64("updates", s.gen.Updates()))
		return err
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state := s.gen.Update()

	enc := s.encoder
	if encoding.FormatForAccept(r.Header.Get("Accept")) == encoding.FormatProtobuf {
		enc = s.protobuf
	}

	data, err := enc.Encode(state)
	if err != nil {
		s.logger.Error("failed to encode state", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", enc.ContentType())
	w.Header().Set("Vary", "Accept")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.renderStatus(&buf); err != nil {
		s.logger.Error("failed to render status page", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
}
