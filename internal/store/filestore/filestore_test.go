package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchyard-systems/switchyard/internal/store"
	"github.com/switchyard-systems/switchyard/internal/store/storetest"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		fs, err := New(Config{Root: t.TempDir()})
		require.NoError(t, err)
		return fs
	})
}

func TestDeterministicLayout(t *testing.T) {
	root := t.TempDir()
	fs, err := New(Config{Root: root})
	require.NoError(t, err)

	route := types.ResourceRoute{
		RouteKey:    types.RouteKey{Kind: "object-store", Tenant: "t1", Env: "dev"},
		BackendType: "filesystem",
	}
	require.NoError(t, fs.Save(context.Background(), route))

	// Wildcard project and empty surface have fixed on-disk names so the
	// layout is stable across restarts.
	path := filepath.Join(root, "object-store", "t1", "dev", "_any", "default.json")
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSurviveReopen(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	fs, err := New(Config{Root: root})
	require.NoError(t, err)

	route := types.ResourceRoute{
		RouteKey:    types.RouteKey{Kind: "event-stream", Tenant: "t9", Env: "prod", Project: "proj-x"},
		BackendType: "kinesis",
		Config:      map[string]string{"stream": "events"},
	}
	require.NoError(t, fs.Save(ctx, route))
	require.NoError(t, fs.Close())

	reopened, err := New(Config{Root: root})
	require.NoError(t, err)

	got, err := reopened.Get(ctx, route.RouteKey)
	require.NoError(t, err)
	assert.Equal(t, "kinesis", got.BackendType)
	assert.Equal(t, "events", got.Config["stream"])
}

func TestNewRequiresRoot(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
