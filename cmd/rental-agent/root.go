package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Proton-105/rental-agent/internal/app"
	"github.com/Proton-105/rental-agent/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "rental-agent",
	Short: "Equipment rental call agent",
	Long: `rental-agent runs the workflow behind an equipment rental phone line:
customer verification, equipment discovery, pricing, compliance checks and booking.
The voice runtime drives it through MCP tools.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./configs/$APP_ENV.yaml)")
}

// bootstrap loads configuration, initialises Sentry and builds the logger.
// Logs go to out so the stdio transport can keep stdout clean.
func bootstrap(cmd *cobra.Command, out io.Writer) (*config.Config, *viper.Viper, *slog.Logger, *slog.LevelVar, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *config.Config
		v   *viper.Viper
		err error
	)
	if path != "" {
		cfg, v, err = config.LoadFile(path)
	} else {
		cfg, v, err = config.Load()
	}
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if err := app.InitSentry(cfg); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init sentry: %w", err)
	}

	log, levelVar, err := app.NewLogger(cfg, out)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	return cfg, v, log, levelVar, nil
}
