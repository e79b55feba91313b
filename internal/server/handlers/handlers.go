// Package handlers implements HTTP request handlers for the Switchyard API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/switchyard-systems/switchyard/internal/diagnostics"
	"github.com/switchyard-systems/switchyard/internal/registry"
	"github.com/switchyard-systems/switchyard/internal/resolver"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

// ActorFunc extracts the acting identity from a request context.
type ActorFunc func(ctx context.Context) string

// Handlers contains all HTTP handler dependencies.
type Handlers struct {
	registry    *registry.Registry
	resolver    *resolver.Resolver
	diagnostics *diagnostics.Service
	actor       ActorFunc
	logger      *slog.Logger
}

// New creates a new Handlers instance.
func New(reg *registry.Registry, res *resolver.Resolver, diag *diagnostics.Service, actor ActorFunc) *Handlers {
	if actor == nil {
		actor = func(context.Context) string { return "anonymous" }
	}
	return &Handlers{
		registry:    reg,
		resolver:    res,
		diagnostics: diag,
		actor:       actor,
		logger:      slog.Default(),
	}
}

// SetLogger overrides the default logger.
func (h *Handlers) SetLogger(l *slog.Logger) {
	if l != nil {
		h.logger = l
	}
}

// Health reports whether the registry's store is reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Ping(r.Context()); err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "store unreachable", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// routeKeyFromRequest builds the identity tuple from URL params plus the
// optional project and surface query parameters.
func routeKeyFromRequest(r *http.Request) types.RouteKey {
	q := r.URL.Query()
	return types.RouteKey{
		Kind:    chi.URLParam(r, "kind"),
		Tenant:  chi.URLParam(r, "tenant"),
		Env:     chi.URLParam(r, "env"),
		Project: q.Get("project"),
		Surface: q.Get("surface"),
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError logs the internal error and returns a sanitized JSON error to the client.
func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		h.logger.Error(msg, "error", err, "status", status)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeDomainError maps domain errors onto HTTP statuses. The body carries
// the error kind so clients can distinguish a missing route from a guard
// denial without parsing messages.
func (h *Handlers) writeDomainError(w http.ResponseWriter, err error) {
	var (
		missing     *types.MissingRouteError
		forbidden   *types.ForbiddenBackendClassError
		denied      *types.SwitchDeniedError
		invalid     *types.InvalidSwitchRequestError
		validation  *types.ValidationError
		unavailable *types.RegistryUnavailableError
	)
	switch {
	case errors.As(err, &missing):
		h.writeJSON(w, http.StatusNotFound, map[string]string{
			"error": missing.Error(),
			"kind":  "missing_route",
			"route": missing.Key.String(),
		})
	case errors.As(err, &forbidden):
		h.writeJSON(w, http.StatusForbidden, map[string]string{
			"error": forbidden.Error(),
			"kind":  "forbidden_backend_class",
		})
	case errors.As(err, &denied):
		h.writeJSON(w, http.StatusForbidden, map[string]string{
			"error": denied.Error(),
			"kind":  "switch_denied",
		})
	case errors.As(err, &invalid):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": invalid.Error(),
			"kind":  "invalid_switch_request",
		})
	case errors.As(err, &validation):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": validation.Error(),
			"kind":  "validation",
		})
	case errors.As(err, &unavailable):
		h.logger.Error("registry unavailable", "error", err)
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "route registry unavailable",
			"kind":  "registry_unavailable",
		})
	default:
		h.writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}
