// Package api provides the HTTP surface of Content Studio.
//
// It exposes RESTful endpoints for sessions, conversation turns, image
// uploads and the generated-content log, delegating all conversation logic
// to the flow engine.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Praveenbabu5991/ContentStudio/internal/flow"
	"github.com/Praveenbabu5991/ContentStudio/internal/memory"
	"github.com/Praveenbabu5991/ContentStudio/internal/session"
)

// Server defaults.
const (
	DefaultAddr            = ":8080"
	DefaultUploadDir       = "uploads"
	DefaultRequestTimeout  = 6 * time.Minute // a turn may wait on video polling
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxUploadBytes  = 10 << 20

	// Generated-content listing bounds. The log grows without bound, so a
	// request never returns the whole thing.
	DefaultRecentContentLimit = 10
	MaxRecentContentLimit     = 100
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr      string
	UploadDir string
}

// Option configures the server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithUploadDir sets the directory uploaded images are stored in.
func WithUploadDir(dir string) Option {
	return func(o *Opts) { o.UploadDir = dir }
}

// Server routes HTTP requests to the flow engine and the memory store.
type Server struct {
	addr      string
	uploadDir string
	engine    *flow.Engine
	sessions  *session.Manager
	store     memory.Store
}

// NewServer creates an API server. The upload directory is created on
// first use, not here.
func NewServer(engine *flow.Engine, sessions *session.Manager, store memory.Store, opts ...Option) *Server {
	options := Opts{Addr: DefaultAddr, UploadDir: DefaultUploadDir}
	for _, opt := range opts {
		opt(&options)
	}
	if env := os.Getenv("CONTENTSTUDIO_ADDR"); env != "" && options.Addr == DefaultAddr {
		options.Addr = env
	}
	slog.Debug("Server config", "addr", options.Addr, "uploadDir", options.UploadDir)
	return &Server{
		addr:      options.Addr,
		uploadDir: options.UploadDir,
		engine:    engine,
		sessions:  sessions,
		store:     store,
	}
}

// Handler returns the routed handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.chatHandler)
	mux.HandleFunc("/sessions", s.sessionsHandler)
	mux.HandleFunc("/sessions/", s.sessionsHandler)
	mux.HandleFunc("/uploads", s.uploadHandler)
	mux.HandleFunc("/content/recent", s.recentContentHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: DefaultRequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Content Studio API listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	slog.Info("Content Studio API stopped")
	return nil
}
