package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Proton-105/rental-agent/internal/app"
	"github.com/Proton-105/rental-agent/pkg/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server with health, metrics and the MCP SSE transport",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, v, log, levelVar, err := bootstrap(cmd, os.Stdout)
		if err != nil {
			return err
		}

		if port, _ := cmd.Flags().GetInt("port"); cmd.Flags().Changed("port") {
			cfg.Server.Port = port
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, log, levelVar)
		if err != nil {
			return err
		}

		config.Watch(v, log, a.ApplyConfig)

		log.Info("starting rental agent",
			slog.Int("port", cfg.Server.Port),
			slog.String("inventory_backend", cfg.Inventory.Backend),
			slog.String("mcp_transport", cfg.MCP.Transport),
			slog.Bool("redis", cfg.Redis.Enabled),
			slog.Bool("jobs", cfg.Jobs.Enabled),
		)

		return a.Serve(ctx)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
