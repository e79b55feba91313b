package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/switchyard-systems/switchyard/internal/diagnostics"
	"github.com/switchyard-systems/switchyard/internal/registry"
)

// GetDiagnostics returns the redacted operator view of a route.
func (h *Handlers) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	view, err := h.diagnostics.View(r.Context(), routeKeyFromRequest(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// ListDiagnostics returns redacted views of all routes matching the query
// filters.
func (h *Handlers) ListDiagnostics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	views, err := h.diagnostics.List(r.Context(), registry.Filter{
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
		"routes": views,
		"count":  len(views),
	})
}

// SwitchBackend changes a route's backend. Rationale is mandatory; the
// approval token is consulted when an approver is configured.
func (h *Handlers) SwitchBackend(w http.ResponseWriter, r *http.Request) {
	var req diagnostics.SwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	req.Key = routeKeyFromRequest(r)
	req.Actor = h.actor(r.Context())

	view, err := h.diagnostics.SwitchBackend(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// GetAuditTrail returns the change records for a route in chronological
// order. The limit query parameter caps the result to the most recent N.
func (h *Handlers) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}

	events, err := h.diagnostics.AuditTrail(r.Context(), routeKeyFromRequest(r), limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}
