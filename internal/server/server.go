package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/player"
	"github.com/desertthunder/ytstream/internal/services"
	"github.com/desertthunder/ytstream/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// refreshRecorder is implemented by services that persist refreshed URLs.
type refreshRecorder interface {
	Refreshed(ctx context.Context, ev models.AssetRefreshed)
}

// Opts configures [New].
type Opts struct {
	Service        services.Service
	Session        *player.Session
	AllowedOrigins []string
	Logger         *log.Logger
	// RequestTimeout bounds every /api request. Zero means 30s.
	RequestTimeout time.Duration
}

// Server is the HTTP bridge between a UI and a playback session.
type Server struct {
	svc     services.Service
	session *player.Session
	hub     *Hub
	router  chi.Router
	origins map[string]bool
	timeout time.Duration
	logger  *log.Logger
}

// New wires the routes and subscribes the websocket hub, and the service
// when it records refreshes, to the session.
func New(opts Opts) *Server {
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	s := &Server{
		svc:     opts.Service,
		session: opts.Session,
		hub:     NewHub(opts.Logger),
		origins: make(map[string]bool, len(opts.AllowedOrigins)),
		timeout: opts.RequestTimeout,
		logger:  opts.Logger,
	}
	for _, o := range opts.AllowedOrigins {
		s.origins[o] = true
	}

	s.session.Subscribe(s.hub.AssetRefreshed)
	if rec, ok := opts.Service.(refreshRecorder); ok {
		s.session.Subscribe(rec.Refreshed)
	}

	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
// The hub and the session event loop run for the same lifetime.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.hub.Run(ctx)
	go s.session.Run(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
