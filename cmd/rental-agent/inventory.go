package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Proton-105/rental-agent/internal/app"
	"github.com/Proton-105/rental-agent/internal/inventory"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "List the equipment held by the configured backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, log, _, err := bootstrap(cmd, os.Stderr)
		if err != nil {
			return err
		}

		backend, err := app.OpenBackend(cmd.Context(), cfg.Inventory, nil, log)
		if err != nil {
			return err
		}
		defer backend.Close()

		availableOnly, _ := cmd.Flags().GetBool("available")

		var items []inventory.Equipment
		if availableOnly {
			items, err = backend.Store.ListAvailable(cmd.Context())
		} else {
			items, err = backend.Store.ListAll(cmd.Context())
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tDAILY\tMAX\tSTATUS\tLOCATION")
		for _, eq := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%s\t%s\n",
				eq.ID, eq.Name, eq.Category, eq.DailyRate, eq.MaxRate, eq.Status, eq.StorageLocation)
		}
		return w.Flush()
	},
}

func init() {
	inventoryCmd.Flags().Bool("available", false, "Only list units that can be reserved")
	rootCmd.AddCommand(inventoryCmd)
}
