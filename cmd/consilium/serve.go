package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/run-bigpig/consilium/internal/bridge"
	"github.com/run-bigpig/consilium/internal/config"
	"github.com/run-bigpig/consilium/internal/consensus"
	"github.com/run-bigpig/consilium/internal/logger"
	"github.com/run-bigpig/consilium/internal/server"
	"github.com/run-bigpig/consilium/internal/session"
)

var log = logger.New("Main")

// buildRuntime assembles the shared store and runner from configuration.
// The returned cleanup stops the eviction janitor.
func buildRuntime(cfg *config.Config) (session.Store, *consensus.Runner, func()) {
	var store session.Store
	store = session.NewMemoryStore(cfg.Defaults)
	if cfg.DBPath != "" {
		db, err := session.OpenSQLite(cfg.DBPath)
		if err != nil {
			// Sessions degrade to memory-only when the database is unusable.
			log.Warn("session database unavailable, keeping sessions in memory: %v", err)
		} else {
			store = session.NewGormStore(db, cfg.Defaults)
		}
	}
	stopJanitor := session.StartJanitor(store, cfg.SessionTTL, cfg.SessionTTL/4)

	var pacer bridge.Pacer = bridge.NopPacer{}
	if cfg.PacingScale > 0 {
		pacer = bridge.DelayPacer{Scale: cfg.PacingScale}
	}
	runner := &consensus.Runner{
		Store:          store,
		Roster:         config.Roster(),
		ModeratorModel: cfg.ModeratorModel,
		Avatars:        config.AvatarImages(),
		Pacer:          pacer,
	}
	return store, runner, stopJanitor
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if addr != "" {
				cfg.Addr = addr
			}
			store, runner, stop := buildRuntime(cfg)
			defer stop()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return server.New(store, runner, cfg.Addr).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			store, runner, stop := buildRuntime(cfg)
			defer stop()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return server.NewMCPServer(store, runner, Version).Run(ctx)
		},
	}
}
