package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jayainhufs/coding-sam/internal/config"
	"github.com/jayainhufs/coding-sam/internal/daemon"
	mcpserver "github.com/jayainhufs/coding-sam/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the coding-sam tools over MCP (stdio by default)",
	Long: `mcp runs the tutor in-process and exposes it as MCP tools. It shares the
daemon's configuration and progress store but never starts the run queue.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

		cfg, err := config.LoadLocalConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg.Queue.Enabled = false

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		srv, err := daemon.NewServer(ctx, daemon.ServerConfig{Config: cfg})
		if err != nil {
			return fmt.Errorf("create services: %w", err)
		}
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()

		mcpSrv := newMCPServer(srv.Services(), viper.GetString("user"))

		if addr, _ := cmd.Flags().GetString("http"); addr != "" {
			return mcpSrv.ServeHTTP(ctx, addr)
		}
		return mcpSrv.ServeStdio(ctx)
	},
}

func init() {
	mcpCmd.Flags().String("http", "", "Serve over HTTP on this address instead of stdio")
}

func newMCPServer(svc daemon.Services, userID string) *mcpserver.Server {
	return mcpserver.NewServer(mcpserver.Config{
		Catalog:         svc.Catalog,
		Scorer:          svc.Scorer,
		Feedback:        svc.Feedback,
		Trackers:        svc.Trackers,
		Profiles:        svc.Profiles,
		Runner:          svc.Runner,
		UserID:          userID,
		SolvedThreshold: svc.SolvedThreshold,
	})
}
