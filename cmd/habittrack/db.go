package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"habittrack/internal/utils"
)

func newDBCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Local database maintenance",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.store.DB().GetStats()
			if err != nil {
				return err
			}
			fmt.Printf("Path: %s\n", app.store.DB().Path())
			fmt.Println(stats)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "vacuum",
		Short: "Compact the database file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.LogOperation("vacuum", app.store.DB().Vacuum); err != nil {
				return err
			}
			fmt.Println("Database compacted.")
			return nil
		},
	})

	return cmd
}
