package credentials

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringServicePrefix is the prefix for all habittrack keyring entries
	KeyringServicePrefix = "habittrack"
)

// getServiceName returns the keyring service name for a provider
func getServiceName(providerName string) string {
	return fmt.Sprintf("%s-%s", KeyringServicePrefix, providerName)
}

// Set stores credentials in the OS keyring
func Set(providerName, email, password string) error {
	if providerName == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	serviceName := getServiceName(providerName)
	err := keyring.Set(serviceName, email, password)
	if err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}

	return nil
}

// Get retrieves a password from the OS keyring
func Get(providerName, email string) (string, error) {
	if providerName == "" {
		return "", fmt.Errorf("provider name cannot be empty")
	}
	if email == "" {
		return "", fmt.Errorf("email cannot be empty")
	}

	serviceName := getServiceName(providerName)
	password, err := keyring.Get(serviceName, email)
	if err != nil {
		// Check if it's a "not found" error
		if err == keyring.ErrNotFound {
			return "", fmt.Errorf("no credentials found in keyring for provider %q and user %q", providerName, email)
		}
		return "", fmt.Errorf("failed to retrieve credentials from keyring: %w", err)
	}

	return password, nil
}

// Delete removes credentials from the OS keyring
func Delete(providerName, email string) error {
	if providerName == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	serviceName := getServiceName(providerName)
	err := keyring.Delete(serviceName, email)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}

	return nil
}

// IsAvailable reports whether an OS keyring backend is usable.
func IsAvailable() bool {
	const probe = "habittrack-keyring-probe"
	if err := keyring.Set(probe, "probe", "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(probe, "probe")
	return true
}
