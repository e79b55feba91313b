// Package server implements the Switchyard HTTP API server.
package server

import (
	"context"
	"expvar"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/switchyard-systems/switchyard/internal/diagnostics"
	"github.com/switchyard-systems/switchyard/internal/registry"
	"github.com/switchyard-systems/switchyard/internal/resolver"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

const defaultMaxBody = 1 << 20 // 1 MiB

// Server is the Switchyard HTTP API server.
type Server struct {
	registry    *registry.Registry
	resolver    *resolver.Resolver
	diagnostics *diagnostics.Service
	router      chi.Router
	addr        string
	srv         *http.Server
}

// New creates a new HTTP server.
func New(cfg types.ServerConfig, reg *registry.Registry, res *resolver.Resolver, diag *diagnostics.Service) *Server {
	s := &Server{
		registry:    reg,
		resolver:    res,
		diagnostics: diag,
		addr:        cfg.Addr,
	}

	maxBody := cfg.MaxRequestBody
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(APIKeyMiddleware(cfg.APIKey))
	r.Use(ActorMiddleware)
	r.Use(MaxBodyMiddleware(maxBody))
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	s.router = r
	s.registerRoutes(r)
	r.Method(http.MethodGet, "/debug/vars", expvar.Handler())
	return s
}

// Handler returns the underlying router (useful for testing).
func (s *Server) Handler() http.Handler { return s.router }

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s.srv.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}
