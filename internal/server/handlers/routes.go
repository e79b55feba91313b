package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/switchyard-systems/switchyard/internal/registry"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

// UpsertRoute creates or replaces a route. Responds 201 on create and 200 on
// update with the stored record.
func (h *Handlers) UpsertRoute(w http.ResponseWriter, r *http.Request) {
	var route types.ResourceRoute
	if err := json.NewDecoder(r.Body).Decode(&route); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	saved, created, err := h.registry.UpsertRoute(r.Context(), route, registry.ChangeMeta{
		Actor: h.actor(r.Context()),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, saved)
}

// GetRoute returns the stored route for the identity tuple.
func (h *Handlers) GetRoute(w http.ResponseWriter, r *http.Request) {
	route, err := h.registry.GetRoute(r.Context(), routeKeyFromRequest(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, route)
}

// ListRoutes returns routes matching the query filters, oldest first.
func (h *Handlers) ListRoutes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	routes, err := h.registry.ListRoutes(r.Context(), registry.Filter{
		Kind:    q.Get("kind"),
		Tenant:  q.Get("tenant"),
		Env:     q.Get("env"),
		Project: q.Get("project"),
		Surface: q.Get("surface"),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"routes": routes,
		"count":  len(routes),
	})
}

// DeleteRoute removes the route. Responds 204 when removed, 404 when no
// route existed.
func (h *Handlers) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	key := routeKeyFromRequest(r)
	deleted, err := h.registry.DeleteRoute(r.Context(), key, registry.ChangeMeta{
		Actor: h.actor(r.Context()),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if !deleted {
		h.writeDomainError(w, &types.MissingRouteError{Key: key})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Resolve returns the backend descriptor for the identity tuple under the
// deployment mode given in the mode query parameter.
func (h *Handlers) Resolve(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		h.writeError(w, http.StatusBadRequest, "mode query parameter is required", nil)
		return
	}

	desc, err := h.resolver.Resolve(r.Context(), routeKeyFromRequest(r), types.DeploymentMode(mode))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, desc)
}
