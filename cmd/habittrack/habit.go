package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"habittrack/internal/utils"
)

func newHabitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Manage habits",
	}

	cmd.AddCommand(newHabitAddCmd(app))
	cmd.AddCommand(newHabitListCmd(app))
	cmd.AddCommand(newHabitEditCmd(app))
	cmd.AddCommand(newHabitDeleteCmd(app))

	return cmd
}

func newHabitAddCmd(app *App) *cobra.Command {
	var reminder string

	cmd := &cobra.Command{
		Use:               "add <category> <name>",
		Short:             "Create a habit in a category",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: app.categoryNameCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.findCategory(args[0])
			if err != nil {
				return err
			}
			h, err := app.orch.CreateHabit(c.ID, args[1], reminder)
			if err != nil {
				return err
			}
			fmt.Printf("Created habit %q in %q (%s)\n", h.Name, c.Name, shortID(h.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&reminder, "reminder", "r", "", "daily reminder time (HH:MM)")
	return cmd
}

func newHabitListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:               "list [category]",
		Short:             "List habits, optionally filtered by category",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: app.categoryNameCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			var categoryID string
			if len(args) > 0 {
				c, err := app.findCategory(args[0])
				if err != nil {
					return err
				}
				categoryID = c.ID
			}

			counts := app.store.LogCountByHabit()
			shown := 0
			for _, h := range app.store.Habits() {
				if categoryID != "" && h.CategoryID != categoryID {
					continue
				}
				line := fmt.Sprintf("%s  %s (%d check-ins)", shortID(h.ID), h.Name, counts[h.ID])
				if h.ReminderTime != "" {
					line += " @ " + h.ReminderTime
				}
				fmt.Println(line)
				shown++
			}
			if shown == 0 {
				fmt.Println("No habits.")
			}
			return nil
		},
	}
}

func newHabitEditCmd(app *App) *cobra.Command {
	var name string
	var reminder string
	var clearReminder bool

	cmd := &cobra.Command{
		Use:               "edit <habit>",
		Short:             "Edit a habit's name or reminder",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: app.habitNameCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.findHabit(args[0])
			if err != nil {
				return err
			}
			if name != "" {
				h.Name = name
			}
			if clearReminder {
				h.ReminderTime = ""
			} else if reminder != "" {
				h.ReminderTime = reminder
			}
			if err := app.orch.UpdateHabit(h); err != nil {
				return err
			}
			fmt.Printf("Updated habit %q\n", h.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "new habit name")
	cmd.Flags().StringVarP(&reminder, "reminder", "r", "", "daily reminder time (HH:MM)")
	cmd.Flags().BoolVar(&clearReminder, "clear-reminder", false, "remove the reminder")
	return cmd
}

func newHabitDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:               "delete <habit>",
		Short:             "Delete a habit with all its check-ins",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: app.habitNameCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.findHabit(args[0])
			if err != nil {
				return err
			}
			if !yes && !utils.PromptYesNo(fmt.Sprintf("Delete habit %q with all its check-ins?", h.Name)) {
				fmt.Println("Aborted.")
				return nil
			}
			if err := app.orch.DeleteHabit(h.ID); err != nil {
				return err
			}
			fmt.Printf("Deleted habit %q\n", h.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
