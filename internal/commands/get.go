package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/switchyard-systems/switchyard/internal/config"
	"github.com/switchyard-systems/switchyard/internal/diagnostics"
	"github.com/switchyard-systems/switchyard/internal/normalize"
	"github.com/switchyard-systems/switchyard/internal/registry"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

const commandTimeout = 10 * time.Second

// NewGetCmd creates the get command.
func NewGetCmd() *cobra.Command {
	var project, surface string

	cmd := &cobra.Command{
		Use:   "get kind/tenant/env",
		Short: "Show the route for an identity tuple",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseRouteArg(args[0], project, surface)
			if err != nil {
				return err
			}
			return runGet(key)
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Project scope (default: wildcard)")
	cmd.Flags().StringVar(&surface, "surface", "", "Consuming surface")
	return cmd
}

func runGet(key types.RouteKey) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	diag, closeFn, err := openDiagnostics(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	view, err := diag.View(ctx, key)
	if err != nil {
		return err
	}
	printView(view)

	trail, err := diag.AuditTrail(ctx, key, 5)
	if err != nil {
		return err
	}
	if len(trail) > 0 {
		fmt.Println()
		_, _ = color.New(color.Bold).Println("Recent changes:")
		for _, e := range trail {
			fmt.Printf("  %s  %-14s  %s", e.Timestamp.Format(time.RFC3339), e.Action, e.Actor)
			if e.Rationale != "" {
				fmt.Printf("  (%s)", e.Rationale)
			}
			fmt.Println()
		}
	}
	return nil
}

// openDiagnostics wires a read-only diagnostics service from the local
// project config.
func openDiagnostics(ctx context.Context) (*diagnostics.Service, func(), error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating store: %w", err)
	}

	reg, err := registry.New(ctx, st,
		registry.WithSurfaceTable(normalize.NewTable(cfg.SurfaceAliases)),
	)
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("opening registry: %w", err)
	}

	return diagnostics.New(reg, nil, nil), func() { _ = st.Close() }, nil
}

func printView(view types.DiagnosticsView) {
	bold := color.New(color.Bold)
	_, _ = bold.Printf("%s\n", view.RouteKey.String())
	fmt.Printf("  backend:  %s", view.BackendType)
	if types.ClassOf(view.BackendType) == types.BackendClassLocal {
		fmt.Printf("  %s", color.YellowString("(local, lab only)"))
	}
	fmt.Println()
	for k, v := range view.Config {
		fmt.Printf("  config.%s: %s\n", k, v)
	}
	if view.Tier != "" {
		fmt.Printf("  tier:     %s\n", view.Tier)
	}
	if view.PreviousBackendType != "" {
		fmt.Printf("  switched: %s -> %s", view.PreviousBackendType, view.BackendType)
		if view.LastSwitchTime != nil {
			fmt.Printf(" at %s", view.LastSwitchTime.Format(time.RFC3339))
		}
		fmt.Println()
		fmt.Printf("  reason:   %s\n", view.SwitchRationale)
	}
	fmt.Printf("  updated:  %s\n", view.UpdatedAt.Format(time.RFC3339))
}
