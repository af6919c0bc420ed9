package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"habittrack/internal/utils"
)

func newCategoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage habit categories",
	}

	cmd.AddCommand(newCategoryAddCmd(app))
	cmd.AddCommand(newCategoryListCmd(app))
	cmd.AddCommand(newCategoryRenameCmd(app))
	cmd.AddCommand(newCategoryDeleteCmd(app))

	return cmd
}

func newCategoryAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.orch.CreateCategory(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Created category %q (%s)\n", c.Name, shortID(c.ID))
			return nil
		},
	}
}

func newCategoryListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			categories := app.store.Categories()
			if len(categories) == 0 {
				fmt.Println("No categories.")
				return nil
			}
			habitCounts := make(map[string]int)
			for _, h := range app.store.Habits() {
				habitCounts[h.CategoryID]++
			}
			for _, c := range categories {
				fmt.Printf("%s  %s (%d habits)\n", shortID(c.ID), c.Name, habitCounts[c.ID])
			}
			return nil
		},
	}
}

func newCategoryRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:               "rename <category> <new-name>",
		Short:             "Rename a category",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: app.categoryNameCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.findCategory(args[0])
			if err != nil {
				return err
			}
			c.Name = args[1]
			if err := app.orch.UpdateCategory(c); err != nil {
				return err
			}
			fmt.Printf("Renamed category to %q\n", args[1])
			return nil
		},
	}
}

func newCategoryDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:               "delete <category>",
		Short:             "Delete a category with all its habits and logs",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: app.categoryNameCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.findCategory(args[0])
			if err != nil {
				return err
			}
			if !yes && !utils.PromptYesNo(fmt.Sprintf("Delete category %q with all its habits and check-ins?", c.Name)) {
				fmt.Println("Aborted.")
				return nil
			}
			if err := app.orch.DeleteCategory(c.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted category %q\n", c.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
