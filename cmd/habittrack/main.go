package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"habittrack/backend"
	"habittrack/backend/rest"
	"habittrack/backend/sqlite"
	"habittrack/internal/config"
	syncengine "habittrack/internal/sync"
	"habittrack/internal/utils"
)

// App wires the store, provider and orchestrator for the CLI commands
type App struct {
	config   *config.Config
	store    *sqlite.Store
	provider backend.SyncProvider
	orch     *syncengine.Orchestrator
	bgLog    *utils.BackgroundLogger
}

func (a *App) init() error {
	cfg := config.GetConfig()
	a.config = cfg

	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	a.store = store

	if providerConfig, err := cfg.GetDefaultProvider(); err == nil {
		provider, err := backend.NewProvider(*providerConfig)
		if err != nil {
			return fmt.Errorf("failed to construct provider %q: %w", providerConfig.Name, err)
		}
		a.provider = provider
	}

	a.orch = syncengine.NewOrchestrator(store, a.provider, syncengine.Options{
		Debounce: cfg.Sync.Debounce(),
		AutoSync: cfg.AutoSyncEnabled(),
	})

	if cfg.SyncEnabled() {
		a.orch.EnableSync()
		if bgLog, err := utils.NewBackgroundLogger(); err == nil {
			a.bgLog = bgLog
		}
	}
	a.restoreSession()

	return a.orch.Start()
}

// restoreSession resumes a persisted login so sync works across CLI
// invocations without prompting again.
func (a *App) restoreSession() {
	stored, err := loadSession()
	if err != nil || stored == nil {
		return
	}
	session := backend.Session{UserID: stored.UserID, Email: stored.Email}
	if rp, ok := a.provider.(*rest.Provider); ok {
		rp.RestoreSession(stored.Token, session)
	}
	a.orch.RestoreSession(session)
}

// shutdown flushes any pending debounced push before the process exits.
// The change queue lives in memory only, so leaving without a flush would
// defer those deltas to the next manual sync.
func (a *App) shutdown() {
	pending := a.orch.Queue().Len()
	a.orch.FlushPending()
	if a.bgLog != nil {
		if pending > 0 {
			a.bgLog.Printf("shutdown flush: %d pending changes, state=%s", pending, a.orch.Status().State)
		}
		_ = a.bgLog.Close()
	}
	a.orch.Stop()
	if a.store != nil {
		_ = a.store.Close()
	}
}

// findCategory resolves a user-supplied name or id prefix to a category
func (a *App) findCategory(term string) (backend.Category, error) {
	for _, c := range a.store.Categories() {
		if strings.EqualFold(c.Name, term) {
			return c, nil
		}
	}
	for _, c := range a.store.Categories() {
		if strings.HasPrefix(c.ID, term) {
			return c, nil
		}
	}
	return backend.Category{}, utils.ErrCategoryNotFound(term)
}

// findHabit resolves a user-supplied name or id prefix to a habit
func (a *App) findHabit(term string) (backend.Habit, error) {
	for _, h := range a.store.Habits() {
		if strings.EqualFold(h.Name, term) {
			return h, nil
		}
	}
	for _, h := range a.store.Habits() {
		if strings.HasPrefix(h.ID, term) {
			return h, nil
		}
	}
	return backend.Habit{}, utils.ErrHabitNotFound(term)
}

func (a *App) categoryNameCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var completions []string
	for _, c := range a.store.Categories() {
		if strings.HasPrefix(strings.ToLower(c.Name), strings.ToLower(toComplete)) {
			completions = append(completions, c.Name)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

func (a *App) habitNameCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var completions []string
	for _, h := range a.store.Habits() {
		if strings.HasPrefix(strings.ToLower(h.Name), strings.ToLower(toComplete)) {
			completions = append(completions, h.Name)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// overview is the default command: every category with its habits and
// check-in counts.
func (a *App) overview(cmd *cobra.Command, args []string) error {
	categories := a.store.Categories()
	if len(categories) == 0 {
		fmt.Println("No habits yet. Create a category with: habittrack category add <name>")
		return nil
	}

	counts := a.store.LogCountByHabit()
	habitsByCategory := make(map[string][]backend.Habit)
	for _, h := range a.store.Habits() {
		habitsByCategory[h.CategoryID] = append(habitsByCategory[h.CategoryID], h)
	}

	for _, c := range categories {
		fmt.Println(renderCategoryHeader(c.Name))
		for _, h := range habitsByCategory[c.ID] {
			line := fmt.Sprintf("  %s (%d check-ins)", h.Name, counts[h.ID])
			if h.ReminderTime != "" {
				line += " @ " + h.ReminderTime
			}
			fmt.Println(line)
		}
	}
	return nil
}

func main() {
	var configPath string
	var verbose bool

	app := &App{}

	rootCmd := &cobra.Command{
		Use:   "habittrack",
		Short: "Offline-first habit tracker with cloud sync",
		Long: `Track habits locally and optionally sync them to a remote account.

The local database is always the source of truth: every command works
offline, and changes are pushed in the background once you log in to a
configured sync provider.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				config.SetCustomConfigPath(configPath)
			}
			utils.SetVerboseMode(verbose)
			return app.init()
		},
		RunE: app.overview,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newCategoryCmd(app))
	rootCmd.AddCommand(newHabitCmd(app))
	rootCmd.AddCommand(newCheckinCmd(app))
	rootCmd.AddCommand(newLogCmd(app))
	rootCmd.AddCommand(newSyncCmd(app))
	rootCmd.AddCommand(newCredentialsCmd())
	rootCmd.AddCommand(newExportCmd(app))
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newDBCmd(app))

	err := rootCmd.Execute()
	if app.store != nil {
		app.shutdown()
	}
	if err != nil {
		log.SetFlags(0)
		log.Fatal(err)
	}
}
