package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/switchyard-systems/switchyard/internal/approval"
	"github.com/switchyard-systems/switchyard/internal/config"
	"github.com/switchyard-systems/switchyard/internal/diagnostics"
	"github.com/switchyard-systems/switchyard/internal/normalize"
	"github.com/switchyard-systems/switchyard/internal/registry"
	"github.com/switchyard-systems/switchyard/internal/stream"
)

// NewSwitchCmd creates the switch command.
func NewSwitchCmd() *cobra.Command {
	var (
		project, surface string
		backend          string
		rationale        string
		token            string
		configPairs      []string
	)

	cmd := &cobra.Command{
		Use:   "switch kind/tenant/env",
		Short: "Switch a route to a different backend",
		Long:  "Changes the backend of an existing route. A rationale is mandatory and is recorded in the audit trail.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseRouteArg(args[0], project, surface)
			if err != nil {
				return err
			}
			cfgMap, err := parseConfigPairs(configPairs)
			if err != nil {
				return err
			}
			return runSwitch(diagnostics.SwitchRequest{
				Key:           key,
				BackendType:   backend,
				Config:        cfgMap,
				Rationale:     rationale,
				ApprovalToken: token,
				Actor:         actorName(),
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "Project scope (default: wildcard)")
	cmd.Flags().StringVar(&surface, "surface", "", "Consuming surface")
	cmd.Flags().StringVar(&backend, "backend", "", "New backend type (required)")
	cmd.Flags().StringVar(&rationale, "rationale", "", "Why the backend is changing (required)")
	cmd.Flags().StringVar(&token, "approval-token", "", "Approval token, when an approver is configured")
	cmd.Flags().StringArrayVar(&configPairs, "config", nil, "Backend config as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("backend")
	_ = cmd.MarkFlagRequired("rationale")
	return cmd
}

func runSwitch(req diagnostics.SwitchRequest) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	st, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer func() { _ = st.Close() }()

	dispatcher, err := stream.NewDispatcher(cfg.StreamSinks, nil)
	if err != nil {
		return fmt.Errorf("creating change stream: %w", err)
	}
	defer func() { _ = dispatcher.Close() }()

	reg, err := registry.New(ctx, st,
		registry.WithStream(dispatcher),
		registry.WithSurfaceTable(normalize.NewTable(cfg.SurfaceAliases)),
	)
	if err != nil {
		return fmt.Errorf("opening registry: %w", err)
	}

	approver, err := approval.FromConfig(cfg.Approval)
	if err != nil {
		return fmt.Errorf("configuring approval: %w", err)
	}

	diag := diagnostics.New(reg, approver, nil)
	view, err := diag.SwitchBackend(ctx, req)
	if err != nil {
		return err
	}

	color.Green("Switched %s: %s -> %s", view.RouteKey.String(), view.PreviousBackendType, view.BackendType)
	return nil
}

func parseConfigPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("config must be key=value, got %q", pair)
		}
		out[k] = v
	}
	return out, nil
}

// actorName attributes CLI mutations to the invoking OS user.
func actorName() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}
