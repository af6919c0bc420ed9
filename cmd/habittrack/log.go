package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"habittrack/internal/utils"
)

func newCheckinCmd(app *App) *cobra.Command {
	var note string
	var date string

	cmd := &cobra.Command{
		Use:   "checkin <habit>",
		Short: "Record a habit check-in",
		Long: `Record a check-in for a habit.

Without --date the check-in is for right now. With --date it becomes a
makeup entry: logged today but covering the given past date.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: app.habitNameCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.findHabit(args[0])
			if err != nil {
				return err
			}

			var originalDate *time.Time
			if date != "" {
				originalDate, err = utils.ParseDateFlag(date)
				if err != nil {
					return err
				}
			}

			l, err := app.orch.CheckIn(h.ID, note, time.Now().UTC(), originalDate)
			if err != nil {
				return err
			}

			if l.IsMakeup {
				fmt.Printf("Checked in %q for %s (makeup)\n", h.Name, originalDate.Format(app.config.GetDateFormat()))
			} else {
				fmt.Printf("Checked in %q\n", h.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&note, "note", "n", "", "optional note")
	cmd.Flags().StringVarP(&date, "date", "d", "", "makeup date (YYYY-MM-DD) for a missed day")
	return cmd
}

func newLogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect and manage check-ins",
	}

	cmd.AddCommand(newLogListCmd(app))
	cmd.AddCommand(newLogDeleteCmd(app))

	return cmd
}

func newLogListCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:               "list [habit]",
		Short:             "List check-ins, newest first",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: app.habitNameCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			var habitID string
			if len(args) > 0 {
				h, err := app.findHabit(args[0])
				if err != nil {
					return err
				}
				habitID = h.ID
			}

			habitNames := make(map[string]string)
			for _, h := range app.store.Habits() {
				habitNames[h.ID] = h.Name
			}

			dateFormat := app.config.GetDateFormat()
			shown := 0
			for _, l := range app.store.Logs() {
				if habitID != "" && l.HabitID != habitID {
					continue
				}
				if limit > 0 && shown >= limit {
					break
				}
				name := habitNames[l.HabitID]
				if name == "" {
					name = shortID(l.HabitID)
				}
				line := fmt.Sprintf("%s  %s  %s", shortID(l.ID), l.Timestamp.Format(dateFormat+" 15:04"), name)
				if l.IsMakeup && l.OriginalDate != nil {
					line += fmt.Sprintf(" (makeup for %s)", l.OriginalDate.Format(dateFormat))
				}
				if l.Note != "" {
					line += " - " + l.Note
				}
				fmt.Println(line)
				shown++
			}
			if shown == 0 {
				fmt.Println("No check-ins.")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum entries to show (0 for all)")
	return cmd
}

func newLogDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <log-id>",
		Short: "Delete a single check-in by id or id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := args[0]
			for _, l := range app.store.Logs() {
				if l.ID == term || (len(term) >= 4 && strings.HasPrefix(l.ID, term)) {
					if err := app.orch.DeleteLog(l.ID); err != nil {
						return err
					}
					fmt.Printf("Deleted check-in %s\n", shortID(l.ID))
					return nil
				}
			}
			return fmt.Errorf("no check-in matching %q", term)
		},
	}
}
