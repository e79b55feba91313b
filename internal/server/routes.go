package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/switchyard-systems/switchyard/internal/server/handlers"
)

func (s *Server) registerRoutes(r chi.Router) {
	h := handlers.New(s.registry, s.resolver, s.diagnostics, handlers.ActorFunc(ActorFromContext))

	r.Route("/api", func(r chi.Router) {
		// Health
		r.Get("/health", h.Health)

		// Routes
		r.Get("/routes", h.ListRoutes)
		r.Post("/routes", h.UpsertRoute)
		r.Get("/routes/{kind}/{tenant}/{env}", h.GetRoute)
		r.Delete("/routes/{kind}/{tenant}/{env}", h.DeleteRoute)

		// Resolution
		r.Get("/routes/{kind}/{tenant}/{env}/resolve", h.Resolve)

		// Switch protocol and audit trail
		r.Put("/routes/{kind}/{tenant}/{env}/switch", h.SwitchBackend)
		r.Get("/routes/{kind}/{tenant}/{env}/audit", h.GetAuditTrail)

		// Diagnostics
		r.Get("/diagnostics", h.ListDiagnostics)
		r.Get("/diagnostics/{kind}/{tenant}/{env}", h.GetDiagnostics)
	})
}
