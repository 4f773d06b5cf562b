// Package server provides the HTTP API for tansaku.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hyperjump/tansaku/internal/app"
	"github.com/hyperjump/tansaku/internal/config"
	"github.com/hyperjump/tansaku/pkg/utils"
)

// Server is the HTTP server for the tansaku API.
type Server struct {
	app    *app.App
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
	now    func() time.Time
}

// NewServer creates a server over the wired components.
func NewServer(a *app.App, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		app:    a,
		config: cfg,
		logger: utils.OrNop(logger),
		now:    time.Now,
	}
}

// Handler returns the router with middleware and every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-Id"},
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/content", s.handleAddContent)
		r.Get("/content/{id}", s.handleGetContent)
		r.Get("/content/{id}/similar", s.handleSimilar)
		r.Get("/stats", s.handleStats)
		r.Get("/suggestions/{query}", s.handleSuggestions)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
