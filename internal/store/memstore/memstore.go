// Package memstore implements the Store interface in process memory. It
// backs tests and throwaway lab environments; nothing survives a restart.
package memstore

import (
	"context"
	"sync"

	"github.com/switchyard-systems/switchyard/internal/store"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

// Compile-time interface satisfaction check.
var _ store.Store = (*MemStore)(nil)

// MemStore holds routes and audit trails in maps guarded by a single RWMutex.
type MemStore struct {
	mu     sync.RWMutex
	routes map[types.RouteKey]types.ResourceRoute
	audit  map[types.RouteKey][]types.RouteChangeEvent
}

// New creates an empty MemStore.
func New() *MemStore {
	return &MemStore{
		routes: make(map[types.RouteKey]types.ResourceRoute),
		audit:  make(map[types.RouteKey][]types.RouteChangeEvent),
	}
}

func (m *MemStore) LoadAll(_ context.Context) ([]types.ResourceRoute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	routes := make([]types.ResourceRoute, 0, len(m.routes))
	for _, r := range m.routes {
		routes = append(routes, cloneRoute(r))
	}
	return routes, nil
}

func (m *MemStore) Get(_ context.Context, key types.RouteKey) (*types.ResourceRoute, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.routes[key.WithDefaults()]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := cloneRoute(r)
	return &out, nil
}

func (m *MemStore) Save(_ context.Context, route types.ResourceRoute) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	route.RouteKey = route.RouteKey.WithDefaults()
	m.routes[route.RouteKey] = cloneRoute(route)
	return nil
}

func (m *MemStore) Delete(_ context.Context, key types.RouteKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key = key.WithDefaults()
	if _, ok := m.routes[key]; !ok {
		return store.ErrNotFound
	}
	delete(m.routes, key)
	return nil
}

func (m *MemStore) AppendAudit(_ context.Context, event types.RouteChangeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := event.RouteKey.WithDefaults()
	m.audit[key] = append(m.audit[key], event)
	return nil
}

func (m *MemStore) ListAudit(_ context.Context, key types.RouteKey, limit int) ([]types.RouteChangeEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	trail := m.audit[key.WithDefaults()]
	if limit > 0 && len(trail) > limit {
		trail = trail[len(trail)-limit:]
	}
	out := make([]types.RouteChangeEvent, len(trail))
	copy(out, trail)
	return out, nil
}

func (m *MemStore) Ping(_ context.Context) error { return nil }

func (m *MemStore) Close() error { return nil }

// cloneRoute copies the route so callers never share the stored config map.
func cloneRoute(r types.ResourceRoute) types.ResourceRoute {
	if r.Config != nil {
		cfg := make(map[string]string, len(r.Config))
		for k, v := range r.Config {
			cfg[k] = v
		}
		r.Config = cfg
	}
	if r.LastSwitchTime != nil {
		t := *r.LastSwitchTime
		r.LastSwitchTime = &t
	}
	return r
}
