// Package registry implements the authoritative route registry: the single
// writer for resource routes and the emitter of their audit and change-stream
// records.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/switchyard-systems/switchyard/internal/audit"
	"github.com/switchyard-systems/switchyard/internal/metrics"
	"github.com/switchyard-systems/switchyard/internal/normalize"
	"github.com/switchyard-systems/switchyard/internal/store"
	"github.com/switchyard-systems/switchyard/internal/stream"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

// ChangeMeta carries the provenance of a mutation into its audit and stream
// records.
type ChangeMeta struct {
	Actor      string
	Rationale  string
	ApprovalID string
}

// Filter narrows ListRoutes output. Empty fields match everything; Surface
// is normalized before matching.
type Filter struct {
	Kind    string
	Tenant  string
	Env     string
	Project string
	Surface string
}

// Registry is the single writer for resource routes. All mutations are
// serialized per identity tuple, persisted through the store, and then
// recorded to the audit trail and change stream best-effort.
type Registry struct {
	store    store.Store
	audit    *audit.Recorder
	stream   *stream.Dispatcher
	surfaces normalize.Table
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*keyLock
}

// keyLock serializes mutations for one identity tuple. Refcounted so the
// lock map stays proportional to in-flight mutations, not to every tuple
// ever touched.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Registry.
type Option func(*Registry)

// WithSurfaceTable sets the surface normalization table.
func WithSurfaceTable(t normalize.Table) Option {
	return func(r *Registry) { r.surfaces = t }
}

// WithStream sets the change-stream dispatcher.
func WithStream(d *stream.Dispatcher) Option {
	return func(r *Registry) { r.stream = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithClock overrides the timestamp source (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New creates a Registry over the given store. The store is verified with a
// full load before any lookup is served; a registry that cannot read its
// store refuses to start rather than serving defaults.
func New(ctx context.Context, s store.Store, opts ...Option) (*Registry, error) {
	r := &Registry{
		store:    s,
		surfaces: normalize.Default,
		logger:   slog.Default(),
		now:      time.Now,
		locks:    make(map[string]*keyLock),
	}
	for _, o := range opts {
		o(r)
	}
	r.audit = audit.NewRecorder(s, r.logger)

	routes, err := s.LoadAll(ctx)
	if err != nil {
		return nil, &types.RegistryUnavailableError{Op: "load", Err: err}
	}
	r.logger.Info("route registry opened", "routes", len(routes))
	return r, nil
}

// GetRoute returns the stored route for the identity tuple. An unset project
// matches only the wildcard entry; a named project never falls back to it.
func (r *Registry) GetRoute(ctx context.Context, key types.RouteKey) (types.ResourceRoute, error) {
	if err := key.Validate(); err != nil {
		return types.ResourceRoute{}, err
	}
	key = r.normalizeKey(key)

	route, err := r.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		metrics.RoutesMissing.Add(1)
		return types.ResourceRoute{}, &types.MissingRouteError{Key: key}
	}
	if err != nil {
		metrics.RegistryUnavailable.Add(1)
		return types.ResourceRoute{}, &types.RegistryUnavailableError{Op: "get", Err: err}
	}
	return *route, nil
}

// ListRoutes returns routes matching the filter, oldest first.
func (r *Registry) ListRoutes(ctx context.Context, f Filter) ([]types.ResourceRoute, error) {
	routes, err := r.store.LoadAll(ctx)
	if err != nil {
		metrics.RegistryUnavailable.Add(1)
		return nil, &types.RegistryUnavailableError{Op: "list", Err: err}
	}

	surface := r.surfaces.Normalize(f.Surface)
	out := routes[:0]
	for _, route := range routes {
		if f.Kind != "" && route.Kind != f.Kind {
			continue
		}
		if f.Tenant != "" && route.Tenant != f.Tenant {
			continue
		}
		if f.Env != "" && route.Env != f.Env {
			continue
		}
		if f.Project != "" && route.Project != f.Project {
			continue
		}
		if surface != "" && route.Surface != surface {
			continue
		}
		out = append(out, route)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].RouteKey.String() < out[j].RouteKey.String()
	})
	return out, nil
}

// UpsertRoute creates or replaces the route for its identity tuple. Identity
// fields and CreatedAt are preserved across updates; switch history is
// stamped only when the backend type actually changes. Returns the stored
// route and whether it was newly created.
func (r *Registry) UpsertRoute(ctx context.Context, route types.ResourceRoute, meta ChangeMeta) (types.ResourceRoute, bool, error) {
	if err := route.RouteKey.Validate(); err != nil {
		return types.ResourceRoute{}, false, err
	}
	if route.BackendType == "" {
		return types.ResourceRoute{}, false, &types.ValidationError{Field: "backendType", Reason: "backend type is required"}
	}
	route.RouteKey = r.normalizeKey(route.RouteKey)

	unlock := r.lock(route.RouteKey)
	defer unlock()

	now := r.now().UTC()
	action := types.RouteCreated
	created := true
	oldBackend := ""

	prev, err := r.store.Get(ctx, route.RouteKey)
	switch {
	case err == nil:
		created = false
		oldBackend = prev.BackendType
		route.CreatedAt = prev.CreatedAt
		if prev.BackendType != route.BackendType {
			action = types.RouteSwitched
			route.PreviousBackendType = prev.BackendType
			route.SwitchRationale = meta.Rationale
			route.LastSwitchTime = &now
		} else {
			action = types.RouteUpdated
			route.PreviousBackendType = prev.PreviousBackendType
			route.SwitchRationale = prev.SwitchRationale
			route.LastSwitchTime = prev.LastSwitchTime
		}
	case errors.Is(err, store.ErrNotFound):
		route.CreatedAt = now
		route.PreviousBackendType = ""
		route.SwitchRationale = ""
		route.LastSwitchTime = nil
	default:
		metrics.RegistryUnavailable.Add(1)
		return types.ResourceRoute{}, false, &types.RegistryUnavailableError{Op: "get", Err: err}
	}
	route.UpdatedAt = now

	if err := r.store.Save(ctx, route); err != nil {
		metrics.RegistryUnavailable.Add(1)
		return types.ResourceRoute{}, false, &types.RegistryUnavailableError{Op: "save", Err: err}
	}

	if action == types.RouteSwitched {
		metrics.SwitchesTotal.Add(1)
	}
	metrics.UpsertsTotal.Add(1)
	r.emit(ctx, action, route.RouteKey, oldBackend, route.BackendType, meta)
	return route, created, nil
}

// DeleteRoute removes the route for the identity tuple. Returns false when
// no route exists; deleting a missing route is not an error.
func (r *Registry) DeleteRoute(ctx context.Context, key types.RouteKey, meta ChangeMeta) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}
	key = r.normalizeKey(key)

	unlock := r.lock(key)
	defer unlock()

	prev, err := r.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		metrics.RegistryUnavailable.Add(1)
		return false, &types.RegistryUnavailableError{Op: "get", Err: err}
	}

	if err := r.store.Delete(ctx, key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		metrics.RegistryUnavailable.Add(1)
		return false, &types.RegistryUnavailableError{Op: "delete", Err: err}
	}

	metrics.DeletesTotal.Add(1)
	r.emit(ctx, types.RouteDeleted, key, prev.BackendType, "", meta)
	return true, nil
}

// AuditTrail returns up to limit change records for the identity tuple in
// chronological order.
func (r *Registry) AuditTrail(ctx context.Context, key types.RouteKey, limit int) ([]types.RouteChangeEvent, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	key = r.normalizeKey(key)
	events, err := r.store.ListAudit(ctx, key, limit)
	if err != nil {
		metrics.RegistryUnavailable.Add(1)
		return nil, &types.RegistryUnavailableError{Op: "audit", Err: err}
	}
	return events, nil
}

// Ping reports whether the underlying store is reachable.
func (r *Registry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

func (r *Registry) normalizeKey(key types.RouteKey) types.RouteKey {
	key = key.WithDefaults()
	key.Surface = r.surfaces.Normalize(key.Surface)
	return key
}

// emit records the mutation to the audit trail and change stream. Both are
// best-effort: the route write has already succeeded.
func (r *Registry) emit(ctx context.Context, action types.ChangeAction, key types.RouteKey, oldBackend, newBackend string, meta ChangeMeta) {
	actor := meta.Actor
	if actor == "" {
		actor = "anonymous"
	}
	event := types.RouteChangeEvent{
		ID:             ulid.Make().String(),
		Action:         action,
		RouteKey:       key,
		OldBackendType: oldBackend,
		NewBackendType: newBackend,
		Rationale:      meta.Rationale,
		Actor:          actor,
		ApprovalID:     meta.ApprovalID,
		Timestamp:      r.now().UTC(),
	}
	r.audit.Record(ctx, event)
	if r.stream != nil {
		r.stream.Publish(ctx, event)
	}
}

func (r *Registry) lock(key types.RouteKey) func() {
	id := key.String()
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &keyLock{}
		r.locks[id] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, id)
		}
		r.mu.Unlock()
	}
}
