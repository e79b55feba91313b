package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/switchyard-systems/switchyard/internal/approval"
	"github.com/switchyard-systems/switchyard/internal/config"
	"github.com/switchyard-systems/switchyard/internal/diagnostics"
	"github.com/switchyard-systems/switchyard/internal/normalize"
	"github.com/switchyard-systems/switchyard/internal/registry"
	"github.com/switchyard-systems/switchyard/internal/resolver"
	"github.com/switchyard-systems/switchyard/internal/server"
	"github.com/switchyard-systems/switchyard/internal/stream"
	"github.com/switchyard-systems/switchyard/pkg/types"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Switchyard routing API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store
	st, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer func() { _ = st.Close() }()

	// Change stream
	dispatcher, err := stream.NewDispatcher(cfg.StreamSinks, logger)
	if err != nil {
		return fmt.Errorf("creating change stream: %w", err)
	}
	defer func() { _ = dispatcher.Close() }()

	// Registry
	reg, err := registry.New(ctx, st,
		registry.WithStream(dispatcher),
		registry.WithSurfaceTable(normalize.NewTable(cfg.SurfaceAliases)),
		registry.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("opening registry: %w", err)
	}

	// Approval
	approver, err := approval.FromConfig(cfg.Approval)
	if err != nil {
		return fmt.Errorf("configuring approval: %w", err)
	}

	res := resolver.New(reg, logger)
	diag := diagnostics.New(reg, approver, logger)

	serverCfg := types.ServerConfig{Addr: ":3000"}
	if cfg.Server != nil {
		serverCfg = *cfg.Server
		if serverCfg.Addr == "" {
			serverCfg.Addr = ":3000"
		}
	}
	srv := server.New(serverCfg, reg, res, diag)

	color.Green("Switchyard listening on %s (store: %s)", serverCfg.Addr, cfg.Store)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		color.Yellow("\nShutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	color.Green("Server stopped gracefully")
	return nil
}
