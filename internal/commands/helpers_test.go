package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchyard-systems/switchyard/internal/store/filestore"
	"github.com/switchyard-systems/switchyard/internal/store/memstore"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

func TestParseRouteArg(t *testing.T) {
	key, err := parseRouteArg("object-store/t1/dev", "", "")
	require.NoError(t, err)
	assert.Equal(t, types.KindObjectStore, key.Kind)
	assert.Equal(t, "t1", key.Tenant)
	assert.Equal(t, "dev", key.Env)

	key, err = parseRouteArg("object-store/t1/dev", "apollo", "canvas")
	require.NoError(t, err)
	assert.Equal(t, "apollo", key.Project)
	assert.Equal(t, "canvas", key.Surface)

	_, err = parseRouteArg("object-store/t1", "", "")
	assert.Error(t, err)

	_, err = parseRouteArg("object-store//dev", "", "")
	assert.Error(t, err)
}

func TestParseConfigPairs(t *testing.T) {
	out, err := parseConfigPairs([]string{"bucket=data", "region=us-east-1", "empty="})
	require.NoError(t, err)
	assert.Equal(t, "data", out["bucket"])
	assert.Equal(t, "us-east-1", out["region"])
	assert.Equal(t, "", out["empty"])

	_, err = parseConfigPairs([]string{"noequals"})
	assert.Error(t, err)

	_, err = parseConfigPairs([]string{"=value"})
	assert.Error(t, err)

	out, err = parseConfigPairs(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	st, err := newStore(ctx, &types.ProjectConfig{Store: "memory"})
	require.NoError(t, err)
	assert.IsType(t, memstore.New(), st)

	st, err = newStore(ctx, &types.ProjectConfig{
		Store: "file",
		File:  &filestore.Config{Root: t.TempDir()},
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = newStore(ctx, &types.ProjectConfig{Store: "file"})
	assert.Error(t, err)

	_, err = newStore(ctx, &types.ProjectConfig{Store: "etcd"})
	assert.Error(t, err)
}
