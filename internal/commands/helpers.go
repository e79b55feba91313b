// Package commands implements the CLI subcommands for the switchyard binary.
package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/switchyard-systems/switchyard/internal/store"
	"github.com/switchyard-systems/switchyard/internal/store/dynamo"
	"github.com/switchyard-systems/switchyard/internal/store/filestore"
	"github.com/switchyard-systems/switchyard/internal/store/memstore"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

// newStore creates the configured registry storage backend.
func newStore(ctx context.Context, cfg *types.ProjectConfig) (store.Store, error) {
	switch cfg.Store {
	case "memory":
		return memstore.New(), nil
	case "file":
		fc, ok := cfg.File.(*filestore.Config)
		if !ok || fc == nil {
			return nil, fmt.Errorf("file config is required when store is file")
		}
		return filestore.New(*fc)
	case "dynamodb":
		dc, ok := cfg.DynamoDB.(*dynamo.Config)
		if !ok || dc == nil {
			return nil, fmt.Errorf("dynamodb config is required when store is dynamodb")
		}
		return dynamo.New(ctx, *dc)
	default:
		return nil, fmt.Errorf("unsupported store: %s", cfg.Store)
	}
}

// parseRouteArg splits a "kind/tenant/env" positional argument; project and
// surface come from flags.
func parseRouteArg(arg, project, surface string) (types.RouteKey, error) {
	parts := strings.Split(arg, "/")
	if len(parts) != 3 {
		return types.RouteKey{}, fmt.Errorf("route must be kind/tenant/env, got %q", arg)
	}

	key := types.RouteKey{
		Kind:    parts[0],
		Tenant:  parts[1],
		Env:     parts[2],
		Project: project,
		Surface: surface,
	}
	if err := key.Validate(); err != nil {
		return types.RouteKey{}, err
	}
	return key, nil
}
