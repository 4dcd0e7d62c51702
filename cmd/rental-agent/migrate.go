package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Proton-105/rental-agent/internal/app"
	"github.com/Proton-105/rental-agent/internal/database"
	"github.com/Proton-105/rental-agent/internal/inventory"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the inventory schema and optionally seed it from a CSV file",
	Long: `Applies the embedded PostgreSQL migrations when the inventory backend is postgres.
With --seed, loads the given CSV (same columns as the file backend) into the
configured backend. Existing units are updated in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, log, _, err := bootstrap(cmd, os.Stdout)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		backend, err := app.OpenBackend(ctx, cfg.Inventory, nil, log)
		if err != nil {
			return err
		}
		defer backend.Close()

		if backend.DB != nil {
			if err := database.NewMigrator(backend.DB, log).ApplyEmbedded(ctx); err != nil {
				return err
			}
		} else {
			log.Info("backend has no schema to migrate", slog.String("backend", backend.Name))
		}

		seedPath, _ := cmd.Flags().GetString("seed")
		if seedPath == "" {
			return nil
		}

		items, err := inventory.NewCSVStore(seedPath, nil, log).ListAll(ctx)
		if err != nil {
			return fmt.Errorf("read seed file: %w", err)
		}

		if err := backend.Seed(ctx, items); err != nil {
			return err
		}

		log.Info("inventory seeded", slog.String("backend", backend.Name), slog.Int("units", len(items)))
		return nil
	},
}

func init() {
	migrateCmd.Flags().String("seed", "", "CSV file to load into the inventory backend")
	rootCmd.AddCommand(migrateCmd)
}
