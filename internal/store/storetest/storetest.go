// Package storetest is a conformance suite run against every Store
// implementation so path-keyed, bolt-on, and cloud stores all honor the same
// contract.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchyard-systems/switchyard/internal/store"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

// Factory creates a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run executes the full conformance suite against stores built by factory.
func Run(t *testing.T, factory Factory) {
	t.Run("RouteCRUD", func(t *testing.T) { testRouteCRUD(t, factory(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, factory(t)) })
	t.Run("DeleteMissing", func(t *testing.T) { testDeleteMissing(t, factory(t)) })
	t.Run("SaveReplaces", func(t *testing.T) { testSaveReplaces(t, factory(t)) })
	t.Run("ProjectAndSurfaceKeys", func(t *testing.T) { testProjectAndSurfaceKeys(t, factory(t)) })
	t.Run("LoadAll", func(t *testing.T) { testLoadAll(t, factory(t)) })
	t.Run("AuditTrail", func(t *testing.T) { testAuditTrail(t, factory(t)) })
	t.Run("LongAuditTrail", func(t *testing.T) { testLongAuditTrail(t, factory(t)) })
	t.Run("Ping", func(t *testing.T) { testPing(t, factory(t)) })
}

func testRoute(kind, tenant, env, backend string) types.ResourceRoute {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return types.ResourceRoute{
		RouteKey:    types.RouteKey{Kind: kind, Tenant: tenant, Env: env}.WithDefaults(),
		BackendType: backend,
		Config:      map[string]string{"bucket": "media", "accessSecret": "s3cr3t"},
		Required:    true,
		Tier:        "pro",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func testRouteCRUD(t *testing.T, s store.Store) {
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	route := testRoute(types.KindObjectStore, "t1", "dev", "s3")
	require.NoError(t, s.Save(ctx, route))

	got, err := s.Get(ctx, route.RouteKey)
	require.NoError(t, err)
	assert.Equal(t, route.RouteKey, got.RouteKey)
	assert.Equal(t, "s3", got.BackendType)
	assert.Equal(t, "media", got.Config["bucket"])
	assert.True(t, got.Required)
	assert.Equal(t, route.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())

	require.NoError(t, s.Delete(ctx, route.RouteKey))
	_, err = s.Get(ctx, route.RouteKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testGetMissing(t *testing.T, s store.Store) {
	t.Cleanup(func() { _ = s.Close() })

	_, err := s.Get(context.Background(), types.RouteKey{Kind: types.KindMetricsStore, Tenant: "t2", Env: "prod"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDeleteMissing(t *testing.T, s store.Store) {
	t.Cleanup(func() { _ = s.Close() })

	err := s.Delete(context.Background(), types.RouteKey{Kind: types.KindEventStream, Tenant: "t1", Env: "dev"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testSaveReplaces(t *testing.T, s store.Store) {
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	route := testRoute(types.KindTabularStore, "t1", "staging", "dynamodb")
	require.NoError(t, s.Save(ctx, route))

	route.BackendType = "firestore"
	route.Config = map[string]string{"collection": "routes"}
	require.NoError(t, s.Save(ctx, route))

	got, err := s.Get(ctx, route.RouteKey)
	require.NoError(t, err)
	assert.Equal(t, "firestore", got.BackendType)
	assert.Equal(t, "routes", got.Config["collection"])
	assert.NotContains(t, got.Config, "bucket")
}

func testProjectAndSurfaceKeys(t *testing.T, s store.Store) {
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	tenantWide := testRoute(types.KindCanvasCommandStore, "t1", "dev", "dynamodb")
	projected := tenantWide
	projected.Project = "proj-a"
	surfaced := tenantWide
	surfaced.Surface = "canvas"
	surfaced.BackendType = "redis"

	require.NoError(t, s.Save(ctx, tenantWide))
	require.NoError(t, s.Save(ctx, projected))
	require.NoError(t, s.Save(ctx, surfaced))

	// The wildcard-project record and the projected record are distinct.
	got, err := s.Get(ctx, tenantWide.RouteKey)
	require.NoError(t, err)
	assert.Equal(t, types.ProjectAny, got.Project)

	got, err = s.Get(ctx, projected.RouteKey)
	require.NoError(t, err)
	assert.Equal(t, "proj-a", got.Project)

	got, err = s.Get(ctx, surfaced.RouteKey)
	require.NoError(t, err)
	assert.Equal(t, "redis", got.BackendType)
}

func testLoadAll(t *testing.T, s store.Store) {
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		route := testRoute(types.KindEventStream, fmt.Sprintf("tenant-%d", i), "prod", "kinesis")
		require.NoError(t, s.Save(ctx, route))
	}

	routes, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, routes, 3)
}

func testAuditTrail(t *testing.T, s store.Store) {
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	key := types.RouteKey{Kind: types.KindObjectStore, Tenant: "t1", Env: "dev"}.WithDefaults()
	base := time.Now().UTC()

	for i := 0; i < 4; i++ {
		event := types.RouteChangeEvent{
			ID:             fmt.Sprintf("evt-%d", i),
			Action:         types.RouteSwitched,
			RouteKey:       key,
			OldBackendType: "filesystem",
			NewBackendType: "s3",
			Rationale:      "migrate off local disk",
			Actor:          "operator@t1",
			Timestamp:      base.Add(time.Duration(i) * time.Millisecond),
		}
		require.NoError(t, s.AppendAudit(ctx, event))
	}

	trail, err := s.ListAudit(ctx, key, 0)
	require.NoError(t, err)
	require.Len(t, trail, 4)
	// Chronological order.
	for i := 1; i < len(trail); i++ {
		assert.False(t, trail[i].Timestamp.Before(trail[i-1].Timestamp))
	}
	assert.Equal(t, "migrate off local disk", trail[0].Rationale)

	limited, err := s.ListAudit(ctx, key, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

// testLongAuditTrail writes well past any single query window so stores that
// page their reads still return the complete trail for limit 0.
func testLongAuditTrail(t *testing.T, s store.Store) {
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	key := types.RouteKey{Kind: types.KindObjectStore, Tenant: "t1", Env: "dev"}.WithDefaults()
	base := time.Now().UTC()

	const total = 120
	for i := 0; i < total; i++ {
		event := types.RouteChangeEvent{
			ID:        fmt.Sprintf("evt-%03d", i),
			Action:    types.RouteUpdated,
			RouteKey:  key,
			Actor:     "operator@t1",
			Timestamp: base.Add(time.Duration(i) * time.Millisecond),
		}
		require.NoError(t, s.AppendAudit(ctx, event))
	}

	trail, err := s.ListAudit(ctx, key, 0)
	require.NoError(t, err)
	require.Len(t, trail, total)
	assert.Equal(t, "evt-000", trail[0].ID)
	assert.Equal(t, fmt.Sprintf("evt-%03d", total-1), trail[total-1].ID)

	// A limit returns the most recent records, still chronological.
	limited, err := s.ListAudit(ctx, key, 60)
	require.NoError(t, err)
	require.Len(t, limited, 60)
	assert.Equal(t, "evt-060", limited[0].ID)
	assert.Equal(t, fmt.Sprintf("evt-%03d", total-1), limited[59].ID)
}

func testPing(t *testing.T, s store.Store) {
	t.Cleanup(func() { _ = s.Close() })
	assert.NoError(t, s.Ping(context.Background()))
}
