// Package store defines the persistence interface behind the route registry.
package store

import (
	"context"
	"errors"

	"github.com/switchyard-systems/switchyard/pkg/types"
)

// ErrNotFound is returned by Get and Delete when no record exists for the
// key. The registry maps it to "route not found"; any other store error means
// the registry itself is unavailable.
var ErrNotFound = errors.New("route not found")

// Store is the storage backend interface for the route registry. The
// registry owns all writes; no other component touches a Store directly.
//
// Implementations must provide at least read-committed semantics: a Save
// followed by a Get of the same key from any process sees the saved record.
type Store interface {
	// LoadAll returns every stored route. Called once at registry
	// construction to verify the store before any lookup is served, and for
	// filtered listings.
	LoadAll(ctx context.Context) ([]types.ResourceRoute, error)

	// Get returns the route stored for the exact identity tuple, or
	// ErrNotFound.
	Get(ctx context.Context, key types.RouteKey) (*types.ResourceRoute, error)

	// Save stores the route under its identity tuple, replacing any existing
	// record.
	Save(ctx context.Context, route types.ResourceRoute) error

	// Delete removes the record for the identity tuple. Returns ErrNotFound
	// if none exists.
	Delete(ctx context.Context, key types.RouteKey) error

	// AppendAudit appends a change record to the route's audit trail.
	AppendAudit(ctx context.Context, event types.RouteChangeEvent) error

	// ListAudit returns audit records for the identity tuple in
	// chronological order: the complete trail for limit 0, otherwise the
	// most recent limit records.
	ListAudit(ctx context.Context, key types.RouteKey, limit int) ([]types.RouteChangeEvent, error)

	// Ping checks that the storage medium is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
