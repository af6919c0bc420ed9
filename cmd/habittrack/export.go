package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"habittrack/internal/export"
	"habittrack/internal/utils"
)

func newExportCmd(app *App) *cobra.Command {
	var formatName string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export all data to a JSON or YAML file",
		Long: `Export the complete local dataset to a file.

The format is detected from the file extension (.json, .yaml, .yml) and
can be forced with --format. Use "-" to write JSON to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds := app.store.Dataset()

			if args[0] == "-" {
				format := export.FormatJSON
				if formatName != "" {
					var err error
					if format, err = export.ParseFormat(formatName); err != nil {
						return err
					}
				}
				return export.Write(os.Stdout, ds, format)
			}

			if formatName != "" {
				format, err := export.ParseFormat(formatName)
				if err != nil {
					return err
				}
				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				if err := export.Write(f, ds, format); err != nil {
					return err
				}
			} else if err := export.WriteFile(args[0], ds); err != nil {
				return err
			}

			fmt.Printf("Exported %d records to %s\n", ds.Count(), args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "", "export format (json or yaml)")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	var merge bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import data from a JSON or YAML export file",
		Long: `Import a dataset from an export file.

By default the imported dataset REPLACES all local data. With --merge,
imported records are upserted over the existing ones instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := export.ReadFile(args[0])
			if err != nil {
				return err
			}

			if !merge && !yes && !utils.PromptYesNo(fmt.Sprintf("Replace ALL local data with %d imported records?", ds.Count())) {
				fmt.Println("Aborted.")
				return nil
			}

			if err := app.orch.ImportDataset(ds, !merge); err != nil {
				return err
			}
			fmt.Printf("Imported %d records\n", ds.Count())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&merge, "merge", "m", false, "merge into existing data instead of replacing")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
