// Package server provides the HTTP API for osintrat.
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

	"github.com/hyperjump/osintrat/internal/backend"
	"github.com/hyperjump/osintrat/internal/config"
	"github.com/hyperjump/osintrat/internal/lookup"
	"github.com/hyperjump/osintrat/internal/models"
	"github.com/hyperjump/osintrat/internal/storage"
)

// LookupService handles user lookup requests.
type LookupService interface {
	Handle(ctx context.Context, req lookup.Request) (*lookup.Response, error)
	FreeSearches() int
}

// QueueService exposes the deferred query queue.
type QueueService interface {
	Pending(ctx context.Context) ([]*models.QueuedQuery, error)
	Drain(ctx context.Context) (int, bool)
}

// IndexRegistry exposes the index snapshot used by the engine.
type IndexRegistry interface {
	Names() []string
	Refresh(ctx context.Context) error
	RefreshedAt() time.Time
}

// AvailabilityChecker reports whether the search backend can serve lookups.
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context) bool
}

// Deps are the components the API serves.
type Deps struct {
	Lookup   LookupService
	Queue    QueueService
	Registry IndexRegistry
	Probe    AvailabilityChecker
	Backend  backend.Backend
	Storage  storage.Storage
}

// Server is the HTTP server for the osintrat API.
type Server struct {
	deps   Deps
	config *config.Config
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Deps, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		deps:   deps,
		config: cfg,
		logger: logger,
	}
}

// Router builds the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	origins := s.config.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/queue", s.handleQueueList)
		r.Post("/queue/drain", s.handleQueueDrain)
		r.Get("/indexes", s.handleIndexesList)
		r.Post("/indexes/reload", s.handleIndexesReload)
		r.Get("/status", s.handleStatus)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
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
