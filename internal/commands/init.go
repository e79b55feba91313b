package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [project-name]",
		Short: "Initialize a new Switchyard project",
		Long:  "Creates project scaffolding with a file-backed route store.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(args[0])
		},
	}
	return cmd
}

func runInit(projectName string) error {
	bold := color.New(color.Bold)
	_, _ = bold.Printf("Initializing Switchyard project: %s\n", projectName)

	routesDir := filepath.Join(projectName, "routes")
	if err := os.MkdirAll(routesDir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", routesDir, err)
	}

	configPath := filepath.Join(projectName, "switchyard.yaml")
	configContent := `store: file
file:
  root: ./routes
server:
  addr: ":3000"
streamSinks:
  - type: channel
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	color.Green("Created %s", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  cd %s\n", projectName)
	fmt.Println("  switchyard serve")
	fmt.Println()
	fmt.Println("Then register a route:")
	fmt.Println(`  curl -X POST localhost:3000/api/routes -d '{"kind":"object-store","tenant":"t1","env":"dev","backendType":"filesystem","config":{"root":"/tmp/objects"}}'`)
	return nil
}
