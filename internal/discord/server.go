package discord

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPServer exposes the bot's internal health endpoint
type HTTPServer struct {
	server *http.Server
	bot    *Bot
	feed   *SSEClient
}

// NewHTTPServer creates a new HTTP server. feed may be nil.
func NewHTTPServer(port string, bot *Bot, feed *SSEClient) *HTTPServer {
	r := chi.NewRouter()

	srv := &HTTPServer{
		server: &http.Server{
			Addr:              ":" + port,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		bot:  bot,
		feed: feed,
	}

	r.Get("/healthz", srv.HandleHealth)
	return srv
}

// Handler returns the server's router
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server in the background
func (s *HTTPServer) Start() {
	go func() {
		slog.Info("Starting Discord internal HTTP server", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Discord internal HTTP server failed", "error", err)
		}
	}()
}

// Stop stops the HTTP server
func (s *HTTPServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		slog.Error("Discord internal HTTP server shutdown failed", "error", err)
	}
}
