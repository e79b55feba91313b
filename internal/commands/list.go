package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/switchyard-systems/switchyard/internal/registry"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var kind, tenant, env, project string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(registry.Filter{
				Kind:    kind,
				Tenant:  tenant,
				Env:     env,
				Project: project,
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Filter by resource kind")
	cmd.Flags().StringVar(&tenant, "tenant", "", "Filter by tenant")
	cmd.Flags().StringVar(&env, "env", "", "Filter by environment")
	cmd.Flags().StringVar(&project, "project", "", "Filter by project")
	return cmd
}

func runList(filter registry.Filter) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	diag, closeFn, err := openDiagnostics(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	views, err := diag.List(ctx, filter)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Println("No routes configured.")
		return nil
	}

	bold := color.New(color.Bold)
	_, _ = bold.Println("Configured routes:")
	fmt.Println()
	for _, view := range views {
		backend := view.BackendType
		if types.ClassOf(backend) == types.BackendClassLocal {
			backend = color.YellowString(backend)
		}
		fmt.Printf("  %-50s %s\n", view.RouteKey.String(), backend)
	}
	fmt.Printf("\n%d route(s)\n", len(views))
	return nil
}
