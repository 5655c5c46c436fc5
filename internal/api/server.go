// Package api exposes the synthesis service over HTTP: a chunked streaming
// endpoint, a buffered endpoint for clients that need an exact
// Content-Length, a WebSocket variant of the stream, and a health check.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/EmZod/Speak-Turbo/internal/config"
	"github.com/EmZod/Speak-Turbo/internal/engine"
)

// Server handles HTTP API requests.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	handle *engine.Handle
	states *engine.StateCache
	server *http.Server
}

// New creates a new API server.
func New(cfg *config.Config, logger *slog.Logger, handle *engine.Handle, states *engine.StateCache) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		handle: handle,
		states: states,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /tts", s.withRequestID(s.withAuth(s.handleTTS)))
	mux.HandleFunc("POST /tts/buffered", s.withRequestID(s.withAuth(s.handleTTSBuffered)))
	mux.HandleFunc("GET /tts/ws", s.withRequestID(s.withAuth(s.handleTTSWebSocket)))

	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		// Streaming responses last as long as the utterance takes to
		// generate; a write deadline would cut them off mid-stream.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler. Exposed for tests that need a live
// server to observe per-frame flushing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
