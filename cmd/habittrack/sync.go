package main

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"habittrack/backend"
	"habittrack/backend/rest"
	"habittrack/internal/config"
	"habittrack/internal/credentials"
	"habittrack/internal/utils"
)

func newSyncCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage cloud synchronization",
		Long: `Manage synchronization with the configured remote provider.

The local database stays the source of truth. After login, local changes
are pushed automatically in the background; a one-time reconciliation
merges pre-existing local and remote data.

Examples:
  habittrack sync enable            # Turn sync on
  habittrack sync login             # Log in to the default provider
  habittrack sync reconcile         # One-time merge after first login
  habittrack sync now               # Push the full local state
  habittrack sync status            # Show current sync state`,
	}

	cmd.AddCommand(newSyncEnableCmd(app))
	cmd.AddCommand(newSyncDisableCmd(app))
	cmd.AddCommand(newSyncLoginCmd(app))
	cmd.AddCommand(newSyncRegisterCmd(app))
	cmd.AddCommand(newSyncLogoutCmd(app))
	cmd.AddCommand(newSyncReconcileCmd(app))
	cmd.AddCommand(newSyncNowCmd(app))
	cmd.AddCommand(newSyncPullCmd(app))
	cmd.AddCommand(newSyncStatusCmd(app))
	cmd.AddCommand(newSyncWipeCmd(app))
	cmd.AddCommand(newSyncRepairCmd(app))

	return cmd
}

func newSyncEnableCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Enable synchronization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.provider == nil {
				return utils.ErrSyncNotEnabled()
			}
			app.config.Sync.Enabled = true
			if err := config.Save(app.config); err != nil {
				return err
			}
			app.orch.EnableSync()
			fmt.Println("Sync enabled.")
			if app.orch.Status().Authenticated {
				return nil
			}
			fmt.Println("Log in with: habittrack sync login")
			return nil
		},
	}
}

func newSyncDisableCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Disable synchronization (local data is untouched)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.config.Sync.Enabled = false
			if err := config.Save(app.config); err != nil {
				return err
			}
			app.orch.DisableSync()
			fmt.Println("Sync disabled. Your local data is untouched.")
			return nil
		},
	}
}

// resolveCredential gathers email and password: flags first, then the
// keyring/env/config chain, finally an interactive prompt.
func resolveCredential(app *App, email string) (backend.Credential, error) {
	providerConfig, err := app.config.GetDefaultProvider()
	if err != nil {
		return backend.Credential{}, err
	}

	if email == "" {
		email = providerConfig.Email
	}
	if email == "" {
		fmt.Print("Email: ")
		if _, err := fmt.Scanln(&email); err != nil {
			return backend.Credential{}, fmt.Errorf("email is required")
		}
	}

	resolver := credentials.NewResolver()
	if resolved, err := resolver.Resolve(providerConfig.Name, email, providerConfig.APIToken); err == nil && resolved.Password != "" {
		utils.Debugf("Using %s credentials for %s", resolved.Source, email)
		return backend.Credential{Email: email, Password: resolved.Password}, nil
	}

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return backend.Credential{}, fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimSpace(string(passwordBytes))
	if password == "" {
		return backend.Credential{}, fmt.Errorf("password is required")
	}
	return backend.Credential{Email: email, Password: password}, nil
}

func persistLogin(app *App, session backend.Session) {
	token := ""
	if rp, ok := app.provider.(*rest.Provider); ok {
		token = rp.Token()
	}
	if token == "" {
		return
	}
	if err := saveSession(storedSession{Token: token, UserID: session.UserID, Email: session.Email}); err != nil {
		utils.Warnf("Could not persist session: %v", err)
	}
}

func newSyncLoginCmd(app *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the sync provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.provider == nil {
				return utils.ErrSyncNotEnabled()
			}
			cred, err := resolveCredential(app, email)
			if err != nil {
				return err
			}

			session, err := app.orch.Login(cmd.Context(), cred)
			if err != nil {
				if backend.IsUnauthorized(err) {
					return fmt.Errorf("login rejected: check your email and password")
				}
				return err
			}
			persistLogin(app, session)

			fmt.Printf("Logged in as %s\n", session.Email)
			if !app.store.Empty() {
				fmt.Println("Run 'habittrack sync reconcile' to merge local and remote data.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newSyncRegisterCmd(app *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a sync account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.provider == nil {
				return utils.ErrSyncNotEnabled()
			}
			cred, err := resolveCredential(app, email)
			if err != nil {
				return err
			}

			session, err := app.orch.Register(cmd.Context(), cred)
			if err != nil {
				return err
			}
			persistLogin(app, session)

			fmt.Printf("Account created; logged in as %s\n", session.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newSyncLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of the sync provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.orch.Logout(cmd.Context()); err != nil {
				utils.Warnf("Logout: %v", err)
			}
			if err := clearSession(); err != nil {
				utils.Warnf("Could not remove persisted session: %v", err)
			}
			fmt.Println("Logged out. Local data is untouched.")
			return nil
		},
	}
}

func newSyncReconcileCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "One-time merge of local and remote data after login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := app.orch.Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Reconciliation complete: %s\n", action)
			return nil
		},
	}
}

func newSyncNowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Push the complete local state to the remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.orch.SyncNow(cmd.Context()); err != nil {
				if backend.IsConnectivity(err) {
					return fmt.Errorf("remote unreachable; changes stay local: %w", err)
				}
				return err
			}
			fmt.Println("Pushed local state to remote.")
			return nil
		},
	}
}

func newSyncPullCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Replace local data with the remote dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !utils.PromptYesNo("Replace ALL local data with the remote dataset?") {
				fmt.Println("Aborted.")
				return nil
			}
			if err := app.orch.PullNow(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Local data replaced with remote dataset.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newSyncStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printStatus(app.orch.Status())
			return nil
		},
	}
}

func newSyncWipeCmd(app *App) *cobra.Command {
	var local bool
	var remote bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Destroy local and/or remote data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !local && !remote {
				return fmt.Errorf("specify --local, --remote or both")
			}
			target := "local"
			if remote && local {
				target = "local and remote"
			} else if remote {
				target = "remote"
			}
			if !yes && !utils.PromptYesNo(fmt.Sprintf("Permanently destroy %s data?", target)) {
				fmt.Println("Aborted.")
				return nil
			}

			if remote {
				if err := app.orch.WipeRemote(cmd.Context()); err != nil {
					return err
				}
				fmt.Println("Remote data wiped.")
			}
			if local {
				if err := app.orch.WipeLocal(); err != nil {
					return err
				}
				fmt.Println("Local data wiped.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "wipe the local database")
	cmd.Flags().BoolVar(&remote, "remote", false, "wipe the remote account data")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newSyncRepairCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Fix historical remote records (missing or duplicate ids)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.orch.Repair(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Cloud repair complete.")
			return nil
		},
	}
}
