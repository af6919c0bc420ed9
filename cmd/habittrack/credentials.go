package main

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"habittrack/internal/credentials"
)

func newCredentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage provider credentials",
		Long: `Securely manage sync credentials using the system keyring.

Credentials are resolved in priority order:
  1. System keyring (most secure)
  2. Environment variables (HABITTRACK_<PROVIDER>_EMAIL / _PASSWORD)
  3. API token in the config file (least secure)

Examples:
  habittrack credentials set cloud me@example.com --prompt
  habittrack credentials get cloud me@example.com
  habittrack credentials delete cloud me@example.com`,
	}

	cmd.AddCommand(newCredentialsSetCmd())
	cmd.AddCommand(newCredentialsGetCmd())
	cmd.AddCommand(newCredentialsDeleteCmd())

	return cmd
}

func newCredentialsSetCmd() *cobra.Command {
	var promptPassword bool

	cmd := &cobra.Command{
		Use:   "set <provider> <email> [password]",
		Short: "Store credentials in the system keyring",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, email := args[0], args[1]

			var password string
			if promptPassword || len(args) < 3 {
				fmt.Print("Password: ")
				passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
				fmt.Println()
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimSpace(string(passwordBytes))
			} else {
				password = args[2]
			}
			if password == "" {
				return fmt.Errorf("password cannot be empty")
			}

			if err := credentials.Set(provider, email, password); err != nil {
				return err
			}
			fmt.Printf("Stored credentials for %s (%s) in system keyring\n", provider, email)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&promptPassword, "prompt", "p", false, "read password interactively")
	return cmd
}

func newCredentialsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <provider> <email>",
		Short: "Check whether credentials exist in the keyring",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := credentials.Get(args[0], args[1]); err != nil {
				return fmt.Errorf("no keyring credentials for %s (%s)", args[0], args[1])
			}
			fmt.Printf("Keyring credentials exist for %s (%s)\n", args[0], args[1])
			return nil
		},
	}
}

func newCredentialsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <provider> <email>",
		Short: "Remove credentials from the keyring",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := credentials.Delete(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Removed credentials for %s (%s)\n", args[0], args[1])
			return nil
		},
	}
}
