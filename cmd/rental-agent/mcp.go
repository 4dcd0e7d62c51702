package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Proton-105/rental-agent/internal/app"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the workflow tools over MCP stdio",
	Long: `Starts the rental workflow as an MCP server on stdin/stdout.
Logs are written to stderr so they never mix with protocol messages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, log, levelVar, err := bootstrap(cmd, os.Stderr)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, log, levelVar)
		if err != nil {
			return err
		}

		log.Info("serving MCP over stdio")
		return a.ServeStdio(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
