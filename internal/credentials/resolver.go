package credentials

import (
	"fmt"
)

// Source indicates where credentials were found
type Source string

const (
	SourceKeyring Source = "keyring"
	SourceEnv     Source = "env"
	SourceConfig  Source = "config"
	SourceNone    Source = "none"
)

// Credentials represents resolved authentication credentials. Password
// doubles as the API token for token-based providers.
type Credentials struct {
	Email    string
	Password string
	Source   Source
}

// Resolver handles credential resolution from multiple sources with priority order
type Resolver struct {
	// Priority order: Keyring > Environment Variables > Config
}

// NewResolver creates a new credential resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve attempts to find credentials using the priority order:
// 1. Keyring (if an email hint is provided)
// 2. Environment variables
// 3. Config values (email + api_token from the provider section)
//
// Returns credentials with Source indicating where they were found.
func (r *Resolver) Resolve(providerName, emailHint, configToken string) (*Credentials, error) {
	if providerName == "" {
		return nil, fmt.Errorf("provider name is required for credential resolution")
	}

	// Priority 1: Try keyring if the account email is known
	if emailHint != "" && IsAvailable() {
		password, err := Get(providerName, emailHint)
		if err == nil {
			return &Credentials{
				Email:    emailHint,
				Password: password,
				Source:   SourceKeyring,
			}, nil
		}
		// Not found or keyring access issue; fall through to next source.
	}

	// Priority 2: Try environment variables
	envEmail := GetEmail(providerName)
	envPassword := GetPassword(providerName)
	if envEmail != "" && envPassword != "" {
		return &Credentials{
			Email:    envEmail,
			Password: envPassword,
			Source:   SourceEnv,
		}, nil
	}

	// Priority 3: Fall back to the config token
	if emailHint != "" && configToken != "" {
		return &Credentials{
			Email:    emailHint,
			Password: configToken,
			Source:   SourceConfig,
		}, nil
	}

	return nil, fmt.Errorf("no credentials found for provider %q (tried: keyring, environment variables, config)", providerName)
}
