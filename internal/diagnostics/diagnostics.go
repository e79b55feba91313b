// Package diagnostics exposes the operator-facing view of routes and the
// backend switch protocol.
package diagnostics

import (
	"context"
	"log/slog"
	"strings"

	"github.com/switchyard-systems/switchyard/internal/approval"
	"github.com/switchyard-systems/switchyard/internal/registry"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

// Redacted replaces secret-looking config values in diagnostics views.
const Redacted = "[REDACTED]"

var secretKeyMarkers = []string{"password", "secret", "token", "credential", "key"}

// SwitchRequest asks for a route's backend to be changed. Rationale is
// mandatory; the approval token is consulted only when an approver is
// configured.
type SwitchRequest struct {
	Key           types.RouteKey    `json:"-"`
	BackendType   string            `json:"backendType"`
	Config        map[string]string `json:"config,omitempty"`
	Tier          string            `json:"tier,omitempty"`
	CostNotes     string            `json:"costNotes,omitempty"`
	Rationale     string            `json:"rationale"`
	ApprovalToken string            `json:"approvalToken,omitempty"`
	Actor         string            `json:"-"`
}

// Service answers diagnostics queries and executes backend switches. All
// mutations go through the registry; the service never writes to the store.
type Service struct {
	registry *registry.Registry

	// approver, when set, gates every switch: a request whose token fails
	// (or is absent) is denied, never waved through. Installations that
	// want rationale-only switches leave it unconfigured.
	approver approval.Approver

	logger *slog.Logger
}

// New creates a diagnostics service. approver may be nil, in which case
// switches need rationale only.
func New(reg *registry.Registry, approver approval.Approver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{registry: reg, approver: approver, logger: logger}
}

// View returns the redacted operator view of a route. Switch history is
// reported verbatim; only config values under secret-looking keys are
// replaced.
func (s *Service) View(ctx context.Context, key types.RouteKey) (types.DiagnosticsView, error) {
	route, err := s.registry.GetRoute(ctx, key)
	if err != nil {
		return types.DiagnosticsView{}, err
	}
	return viewOf(route), nil
}

// List returns redacted views of all routes matching the filter.
func (s *Service) List(ctx context.Context, f registry.Filter) ([]types.DiagnosticsView, error) {
	routes, err := s.registry.ListRoutes(ctx, f)
	if err != nil {
		return nil, err
	}
	views := make([]types.DiagnosticsView, 0, len(routes))
	for _, route := range routes {
		views = append(views, viewOf(route))
	}
	return views, nil
}

// SwitchBackend changes the backend of an existing route. The route must
// already exist, the rationale must be non-empty, and when an approver is
// configured the token must be approved. Nothing is written until every
// check passes.
func (s *Service) SwitchBackend(ctx context.Context, req SwitchRequest) (types.DiagnosticsView, error) {
	if strings.TrimSpace(req.Rationale) == "" {
		return types.DiagnosticsView{}, &types.InvalidSwitchRequestError{
			Key: req.Key, Reason: "rationale is required",
		}
	}
	if req.BackendType == "" {
		return types.DiagnosticsView{}, &types.InvalidSwitchRequestError{
			Key: req.Key, Reason: "new backend type is required",
		}
	}

	route, err := s.registry.GetRoute(ctx, req.Key)
	if err != nil {
		return types.DiagnosticsView{}, err
	}

	approvalID := ""
	if s.approver != nil {
		decision, err := s.approver.Approve(ctx, approval.Request{
			Token:     req.ApprovalToken,
			Action:    string(types.RouteSwitched),
			RouteKey:  route.RouteKey,
			Rationale: req.Rationale,
			Actor:     req.Actor,
		})
		if err != nil {
			return types.DiagnosticsView{}, &types.SwitchDeniedError{
				Key: req.Key, Reason: "approver unavailable: " + err.Error(),
			}
		}
		if !decision.Approved {
			return types.DiagnosticsView{}, &types.SwitchDeniedError{
				Key: req.Key, Reason: decision.Reason,
			}
		}
		approvalID = decision.ApprovalID
	}

	route.BackendType = req.BackendType
	if req.Config != nil {
		route.Config = req.Config
	}
	if req.Tier != "" {
		route.Tier = req.Tier
	}
	if req.CostNotes != "" {
		route.CostNotes = req.CostNotes
	}

	saved, _, err := s.registry.UpsertRoute(ctx, route, registry.ChangeMeta{
		Actor:      req.Actor,
		Rationale:  req.Rationale,
		ApprovalID: approvalID,
	})
	if err != nil {
		return types.DiagnosticsView{}, err
	}

	s.logger.Info("backend switched",
		"route", saved.RouteKey.String(),
		"from", saved.PreviousBackendType,
		"to", saved.BackendType,
		"actor", req.Actor)
	return viewOf(saved), nil
}

// AuditTrail returns the change records for the identity tuple.
func (s *Service) AuditTrail(ctx context.Context, key types.RouteKey, limit int) ([]types.RouteChangeEvent, error) {
	return s.registry.AuditTrail(ctx, key, limit)
}

func viewOf(route types.ResourceRoute) types.DiagnosticsView {
	return types.DiagnosticsView{
		RouteKey:            route.RouteKey,
		BackendType:         route.BackendType,
		Config:              redactConfig(route.Config),
		Required:            route.Required,
		Tier:                route.Tier,
		CostNotes:           route.CostNotes,
		HealthStatus:        route.HealthStatus,
		PreviousBackendType: route.PreviousBackendType,
		SwitchRationale:     route.SwitchRationale,
		LastSwitchTime:      route.LastSwitchTime,
		CreatedAt:           route.CreatedAt,
		UpdatedAt:           route.UpdatedAt,
	}
}

func redactConfig(config map[string]string) map[string]string {
	if config == nil {
		return nil
	}
	out := make(map[string]string, len(config))
	for k, v := range config {
		if isSecretKey(k) {
			out[k] = Redacted
		} else {
			out[k] = v
		}
	}
	return out
}

func isSecretKey(k string) bool {
	lower := strings.ToLower(k)
	for _, marker := range secretKeyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
