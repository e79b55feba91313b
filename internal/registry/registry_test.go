package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchyard-systems/switchyard/internal/store"
	"github.com/switchyard-systems/switchyard/internal/store/filestore"
	"github.com/switchyard-systems/switchyard/internal/store/memstore"
	"github.com/switchyard-systems/switchyard/internal/stream"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	r, err := New(context.Background(), memstore.New(), opts...)
	require.NoError(t, err)
	return r
}

func testRoute() types.ResourceRoute {
	return types.ResourceRoute{
		RouteKey: types.RouteKey{
			Kind:   types.KindObjectStore,
			Tenant: "t1",
			Env:    "dev",
		},
		BackendType: types.BackendFilesystem,
		Config:      map[string]string{"root": "/var/data"},
	}
}

func TestUpsertAndGetRoute(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	saved, created, err := r.UpsertRoute(ctx, testRoute(), ChangeMeta{Actor: "ops"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, types.ProjectAny, saved.Project)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.Equal(t, saved.CreatedAt, saved.UpdatedAt)

	got, err := r.GetRoute(ctx, types.RouteKey{Kind: types.KindObjectStore, Tenant: "t1", Env: "dev"})
	require.NoError(t, err)
	assert.Equal(t, types.BackendFilesystem, got.BackendType)
	assert.Equal(t, "/var/data", got.Config["root"])
}

func TestGetRoute_Missing(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.GetRoute(context.Background(), types.RouteKey{
		Kind: types.KindMetricsStore, Tenant: "t2", Env: "prod",
	})
	var missing *types.MissingRouteError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Error(), "POST /api/routes")
}

func TestUpsertRoute_Validation(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	route := testRoute()
	route.Tenant = ""
	_, _, err := r.UpsertRoute(ctx, route, ChangeMeta{})
	var ve *types.ValidationError
	assert.ErrorAs(t, err, &ve)

	route = testRoute()
	route.BackendType = ""
	_, _, err = r.UpsertRoute(ctx, route, ChangeMeta{})
	assert.ErrorAs(t, err, &ve)
}

func TestUpsertRoute_RejectsUnsafeIdentity(t *testing.T) {
	dir := t.TempDir()
	fs, err := filestore.New(filestore.Config{Root: filepath.Join(dir, "routes")})
	require.NoError(t, err)
	r, err := New(context.Background(), fs)
	require.NoError(t, err)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*types.ResourceRoute)
	}{
		{"parent-dir kind", func(r *types.ResourceRoute) { r.Kind = ".." }},
		{"parent-dir tenant", func(r *types.ResourceRoute) { r.Tenant = ".." }},
		{"separator in tenant", func(r *types.ResourceRoute) { r.Tenant = "a/b" }},
		{"dot env", func(r *types.ResourceRoute) { r.Env = "." }},
		{"reserved project marker", func(r *types.ResourceRoute) { r.Project = "_any" }},
		{"reserved surface marker", func(r *types.ResourceRoute) { r.Surface = "default" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			route := testRoute()
			tc.mutate(&route)
			_, _, err := r.UpsertRoute(ctx, route, ChangeMeta{})
			var ve *types.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}

	// Nothing was persisted, inside the store root or above it.
	routes, err := r.ListRoutes(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, routes)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1) // only the store root itself
}

func TestReadsRejectUnsafeIdentity(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	key := types.RouteKey{Kind: "..", Tenant: "..", Env: "up"}

	var ve *types.ValidationError
	_, err := r.GetRoute(ctx, key)
	assert.ErrorAs(t, err, &ve)

	_, err = r.DeleteRoute(ctx, key, ChangeMeta{})
	assert.ErrorAs(t, err, &ve)

	_, err = r.AuditTrail(ctx, key, 0)
	assert.ErrorAs(t, err, &ve)
}

func TestUpsertRoute_SurfaceNormalized(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	route := testRoute()
	route.Surface = "Canvas"
	saved, _, err := r.UpsertRoute(ctx, route, ChangeMeta{})
	require.NoError(t, err)
	assert.Equal(t, "canvas", saved.Surface)

	// Lookup under a different alias of the same surface hits the same record.
	got, err := r.GetRoute(ctx, types.RouteKey{
		Kind: types.KindObjectStore, Tenant: "t1", Env: "dev", Surface: "CANVAS",
	})
	require.NoError(t, err)
	assert.Equal(t, "canvas", got.Surface)
}

func TestUpsertRoute_UpdatePreservesCreatedAt(t *testing.T) {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	r := newTestRegistry(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	first, _, err := r.UpsertRoute(ctx, testRoute(), ChangeMeta{})
	require.NoError(t, err)

	clock = base.Add(time.Hour)
	update := testRoute()
	update.Config = map[string]string{"root": "/srv/data"}
	second, created, err := r.UpsertRoute(ctx, update, ChangeMeta{})
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	// Same backend type: no switch history.
	assert.Empty(t, second.PreviousBackendType)
	assert.Nil(t, second.LastSwitchTime)
}

func TestUpsertRoute_BackendChangeStampsHistory(t *testing.T) {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	r := newTestRegistry(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	_, _, err := r.UpsertRoute(ctx, testRoute(), ChangeMeta{})
	require.NoError(t, err)

	clock = base.Add(time.Hour)
	switched := testRoute()
	switched.BackendType = "s3"
	switched.Config = map[string]string{"bucket": "tenant-data"}
	saved, _, err := r.UpsertRoute(ctx, switched, ChangeMeta{
		Actor:     "ops",
		Rationale: "local disk filling up",
	})
	require.NoError(t, err)

	assert.Equal(t, types.BackendFilesystem, saved.PreviousBackendType)
	assert.Equal(t, "local disk filling up", saved.SwitchRationale)
	require.NotNil(t, saved.LastSwitchTime)
	assert.Equal(t, clock, *saved.LastSwitchTime)

	// A later non-switch update keeps the stamped history.
	clock = base.Add(2 * time.Hour)
	touch := switched
	touch.Tier = "standard"
	saved, _, err = r.UpsertRoute(ctx, touch, ChangeMeta{})
	require.NoError(t, err)
	assert.Equal(t, types.BackendFilesystem, saved.PreviousBackendType)
	assert.Equal(t, "local disk filling up", saved.SwitchRationale)
	assert.Equal(t, base.Add(time.Hour), *saved.LastSwitchTime)
}

func TestAuditTrail_RecordsActions(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	_, _, err := r.UpsertRoute(ctx, testRoute(), ChangeMeta{Actor: "alice"})
	require.NoError(t, err)

	switched := testRoute()
	switched.BackendType = "s3"
	_, _, err = r.UpsertRoute(ctx, switched, ChangeMeta{Actor: "bob", Rationale: "durability", ApprovalID: "chg-7"})
	require.NoError(t, err)

	key := types.RouteKey{Kind: types.KindObjectStore, Tenant: "t1", Env: "dev"}
	deleted, err := r.DeleteRoute(ctx, key, ChangeMeta{Actor: "carol", Rationale: "decommissioned"})
	require.NoError(t, err)
	assert.True(t, deleted)

	events, err := r.AuditTrail(ctx, key, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, types.RouteCreated, events[0].Action)
	assert.Equal(t, "alice", events[0].Actor)

	assert.Equal(t, types.RouteSwitched, events[1].Action)
	assert.Equal(t, types.BackendFilesystem, events[1].OldBackendType)
	assert.Equal(t, "s3", events[1].NewBackendType)
	assert.Equal(t, "durability", events[1].Rationale)
	assert.Equal(t, "chg-7", events[1].ApprovalID)

	assert.Equal(t, types.RouteDeleted, events[2].Action)
	assert.Equal(t, "s3", events[2].OldBackendType)

	for _, e := range events {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestDeleteRoute_Missing(t *testing.T) {
	r := newTestRegistry(t)

	deleted, err := r.DeleteRoute(context.Background(), types.RouteKey{
		Kind: types.KindObjectStore, Tenant: "ghost", Env: "dev",
	}, ChangeMeta{})
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestListRoutes_FilterAndOrder(t *testing.T) {
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	r := newTestRegistry(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	for i, key := range []types.RouteKey{
		{Kind: types.KindObjectStore, Tenant: "t1", Env: "dev"},
		{Kind: types.KindObjectStore, Tenant: "t1", Env: "prod"},
		{Kind: types.KindEventStream, Tenant: "t2", Env: "dev"},
	} {
		clock = base.Add(time.Duration(i) * time.Minute)
		_, _, err := r.UpsertRoute(ctx, types.ResourceRoute{
			RouteKey: key, BackendType: "s3",
		}, ChangeMeta{})
		require.NoError(t, err)
	}

	all, err := r.ListRoutes(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.Before(all[1].CreatedAt))
	assert.True(t, all[1].CreatedAt.Before(all[2].CreatedAt))

	t1, err := r.ListRoutes(ctx, Filter{Tenant: "t1"})
	require.NoError(t, err)
	assert.Len(t, t1, 2)

	dev, err := r.ListRoutes(ctx, Filter{Env: "dev"})
	require.NoError(t, err)
	assert.Len(t, dev, 2)
}

func TestRegistry_StreamsChanges(t *testing.T) {
	sink := stream.NewChannelSink(8)
	t.Cleanup(func() { _ = sink.Close() })
	d, err := stream.NewDispatcher(nil, nil)
	require.NoError(t, err)
	d.AddSink(sink)

	r := newTestRegistry(t, WithStream(d))
	ch, cancel := sink.Subscribe()
	defer cancel()

	_, _, err = r.UpsertRoute(context.Background(), testRoute(), ChangeMeta{Actor: "ops"})
	require.NoError(t, err)

	select {
	case event := <-ch:
		assert.Equal(t, types.RouteCreated, event.Action)
		assert.Equal(t, "ops", event.Actor)
	case <-time.After(time.Second):
		t.Fatal("no change event published")
	}
}

type brokenStore struct {
	store.Store
	err error
}

func (b *brokenStore) LoadAll(context.Context) ([]types.ResourceRoute, error) { return nil, b.err }
func (b *brokenStore) Get(context.Context, types.RouteKey) (*types.ResourceRoute, error) {
	return nil, b.err
}

func TestMutationsReleaseKeyLocks(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		route := testRoute()
		route.Tenant = fmt.Sprintf("t%d", i)
		_, _, err := r.UpsertRoute(ctx, route, ChangeMeta{})
		require.NoError(t, err)
	}
	key := testRoute().RouteKey
	key.Tenant = "t3"
	_, err := r.DeleteRoute(ctx, key, ChangeMeta{})
	require.NoError(t, err)

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Empty(t, r.locks)
}

func TestNew_UnreachableStore(t *testing.T) {
	_, err := New(context.Background(), &brokenStore{err: errors.New("disk gone")})
	var unavailable *types.RegistryUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestGetRoute_StoreFailure(t *testing.T) {
	// Store loads fine at construction but fails reads afterwards.
	healthy := memstore.New()
	r, err := New(context.Background(), healthy)
	require.NoError(t, err)
	r.store = &brokenStore{Store: healthy, err: errors.New("connection reset")}

	_, err = r.GetRoute(context.Background(), types.RouteKey{
		Kind: types.KindObjectStore, Tenant: "t1", Env: "dev",
	})
	var unavailable *types.RegistryUnavailableError
	require.ErrorAs(t, err, &unavailable)
	var missing *types.MissingRouteError
	assert.False(t, errors.As(err, &missing))
}
