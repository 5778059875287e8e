// Package server exposes the toast store over HTTP: a REST producer API,
// a websocket display surface, health and metrics endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jmylchreest/toasty/internal/metrics"
	"github.com/jmylchreest/toasty/internal/model"
	"github.com/jmylchreest/toasty/internal/store"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Store is the part of the toast store the server uses.
type Store interface {
	Create(message string, kind model.Kind) (string, error)
	Remove(id string) bool
	Clear()
	Snapshot() model.Snapshot
	Subscribe(fn store.Observer) func()
}

// Options configures a Server.
type Options struct {
	Listen         string
	AllowedOrigins []string // websocket origin patterns, e.g. "localhost:*"
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
}

// Server serves the toast API.
type Server struct {
	store   Store
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics
	hub     *hub
	mux     *http.ServeMux

	mu         sync.Mutex
	httpServer *http.Server
}

// New creates a Server backed by st.
func New(st Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:   st,
		opts:    opts,
		logger:  logger,
		metrics: opts.Metrics,
		hub:     newHub(),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/toasts", s.handleCreate)
	s.mux.HandleFunc("GET /api/toasts", s.handleList)
	s.mux.HandleFunc("DELETE /api/toasts", s.handleClear)
	s.mux.HandleFunc("DELETE /api/toasts/{id}", s.handleDismiss)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Clients returns the number of connected websocket surfaces.
func (s *Server) Clients() int {
	return s.hub.count()
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	s.hub.closeAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// logRequests logs each request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
