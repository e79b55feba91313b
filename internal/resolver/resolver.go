// Package resolver answers "which backend serves this resource" for a given
// deployment mode. It is a thin read path over the registry plus the
// backend-class guard; it never mutates routes and never invents defaults.
package resolver

import (
	"context"
	"log/slog"

	"github.com/switchyard-systems/switchyard/internal/metrics"
	"github.com/switchyard-systems/switchyard/internal/registry"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

// Resolver resolves identity tuples to backend descriptors.
type Resolver struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// New creates a Resolver over the registry.
func New(r *registry.Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{registry: r, logger: logger}
}

// Resolve returns the backend descriptor for the identity tuple, enforcing
// the backend-class guard for the given deployment mode. A missing route is
// an error; there is no fallback backend of any kind.
func (r *Resolver) Resolve(ctx context.Context, key types.RouteKey, mode types.DeploymentMode) (types.BackendDescriptor, error) {
	metrics.ResolvesTotal.Add(1)

	route, err := r.registry.GetRoute(ctx, key)
	if err != nil {
		return types.BackendDescriptor{}, err
	}

	if err := checkClass(route, mode); err != nil {
		metrics.ResolvesDenied.Add(1)
		r.logger.Warn("backend class denied",
			"route", route.RouteKey.String(),
			"backend", route.BackendType,
			"mode", string(mode))
		return types.BackendDescriptor{}, err
	}

	return route.Descriptor(), nil
}

// checkClass permits local-class backends only in lab mode. Unknown modes
// fail closed: they permit nothing local.
func checkClass(route types.ResourceRoute, mode types.DeploymentMode) error {
	if types.ClassOf(route.BackendType) != types.BackendClassLocal {
		return nil
	}
	if mode == types.ModeLab {
		return nil
	}
	return &types.ForbiddenBackendClassError{
		Key:         route.RouteKey,
		BackendType: route.BackendType,
		Mode:        mode,
	}
}
