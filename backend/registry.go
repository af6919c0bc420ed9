package backend

import (
	"fmt"
	"sync"
)

// ProviderConfig holds the configuration a provider constructor receives.
// Fields beyond Type are interpreted by the concrete adapter.
type ProviderConfig struct {
	Name     string `json:"-"` // config key, filled in by the loader
	Type     string `json:"type" validate:"required"`
	Enabled  bool   `json:"enabled"`
	URL      string `json:"url,omitempty"`
	Email    string `json:"email,omitempty"`
	APIToken string `json:"api_token,omitempty"`

	// PollInterval is the snapshot-polling interval in seconds for adapters
	// that implement the live subscription by polling. 0 uses the adapter
	// default.
	PollInterval int `json:"poll_interval,omitempty"`

	InsecureSkipVerify bool `json:"insecure_skip_verify,omitempty"` // WARNING: Only use for self-signed certificates in dev
}

// ProviderConstructor is a function that creates a new provider instance
type ProviderConstructor func(config ProviderConfig) (SyncProvider, error)

// Registry holds registered provider constructors
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]ProviderConstructor
}

var globalRegistry = &Registry{
	constructors: make(map[string]ProviderConstructor),
}

// RegisterType registers a provider constructor for a config type
func RegisterType(providerType string, constructor ProviderConstructor) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.constructors[providerType] = constructor
}

// GetTypeConstructor returns the constructor for a provider type
func GetTypeConstructor(providerType string) (ProviderConstructor, error) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	constructor, ok := globalRegistry.constructors[providerType]
	if !ok {
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
	return constructor, nil
}

// NewProvider constructs a provider from its configuration
func NewProvider(config ProviderConfig) (SyncProvider, error) {
	constructor, err := GetTypeConstructor(config.Type)
	if err != nil {
		return nil, err
	}
	return constructor(config)
}

// RegisteredTypes returns the names of all registered provider types
func RegisteredTypes() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	types := make([]string, 0, len(globalRegistry.constructors))
	for t := range globalRegistry.constructors {
		types = append(types, t)
	}
	return types
}
