package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/switchyard-systems/switchyard/internal/commands"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "switchyard",
		Short: "Resource routing control plane",
		Long: `Switchyard maps logical resources (kind, tenant, environment, project,
surface) to concrete backends. Services ask it which backend serves a
resource instead of hardcoding infrastructure choices; operators inspect
and switch backends with a full audit trail. There are no default routes:
an unconfigured resource is an explicit error, never a silent fallback.`,
		Version: version,
	}

	root.AddCommand(
		commands.NewInitCmd(),
		commands.NewGetCmd(),
		commands.NewListCmd(),
		commands.NewSwitchCmd(),
		commands.NewServeCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
