package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"habittrack/backend"
	"habittrack/internal/utils"

	"github.com/go-playground/validator/v10"

	_ "embed"
)

var configOnce sync.Once

var globalConfig *Config

var customConfigPath string // Custom config path set via --config flag

//go:embed config.sample.json
var sampleConfig []byte

const (
	CONFIG_DIR_PATH  = "habittrack"
	CONFIG_FILE_PATH = "config.json"
	CONFIG_DIR_PERM  = 0755
	CONFIG_FILE_PERM = 0644
)

// SyncConfig holds the sync subsystem settings. Credentials live in the
// keyring or environment, not here.
type SyncConfig struct {
	Enabled    bool `json:"enabled"`
	AutoSync   bool `json:"auto_sync"`
	DebounceMs int  `json:"debounce_ms,omitempty" validate:"gte=0"`
}

// Debounce returns the configured debounce delay, zero meaning "use the
// engine default".
func (s *SyncConfig) Debounce() time.Duration {
	if s == nil {
		return 0
	}
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// Config represents the application configuration.
type Config struct {
	Providers       map[string]backend.ProviderConfig `json:"providers,omitempty"`
	DefaultProvider string                            `json:"default_provider,omitempty"`
	Sync            *SyncConfig                       `json:"sync,omitempty"`

	// DatabasePath overrides the XDG default local store location.
	DatabasePath string `json:"database_path,omitempty"`
	DateFormat   string `json:"date_format,omitempty"` // Go time format string, defaults to "2006-01-02"
}

// GetProvider returns the provider configuration for the given name
func (c *Config) GetProvider(name string) (*backend.ProviderConfig, error) {
	providerConfig, exists := c.Providers[name]
	if !exists {
		return nil, fmt.Errorf("provider %q not found in config", name)
	}
	providerConfig.Name = name
	return &providerConfig, nil
}

// GetDefaultProvider returns the default provider configuration
func (c *Config) GetDefaultProvider() (*backend.ProviderConfig, error) {
	if c.DefaultProvider == "" {
		// Try to find the first enabled provider
		for name, providerConfig := range c.Providers {
			if providerConfig.Enabled {
				providerConfig.Name = name
				return &providerConfig, nil
			}
		}
		return nil, fmt.Errorf("no default provider specified and no enabled providers found")
	}

	return c.GetProvider(c.DefaultProvider)
}

// SyncEnabled reports whether the sync subsystem is switched on.
func (c *Config) SyncEnabled() bool {
	return c.Sync != nil && c.Sync.Enabled
}

// AutoSyncEnabled reports whether debounced background pushes are on.
func (c *Config) AutoSyncEnabled() bool {
	return c.Sync != nil && c.Sync.Enabled && c.Sync.AutoSync
}

func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	// Validate each provider config
	for name, providerConfig := range c.Providers {
		if err := validate.Struct(providerConfig); err != nil {
			return fmt.Errorf("provider %q validation failed: %w", name, err)
		}

		// Type-specific validation
		switch providerConfig.Type {
		case "rest":
			if providerConfig.URL == "" {
				return fmt.Errorf("provider %q: URL is required for rest provider", name)
			}
		}
	}

	// Validate default provider exists and is enabled
	if c.DefaultProvider != "" {
		provider, exists := c.Providers[c.DefaultProvider]
		if !exists {
			return fmt.Errorf("default provider %q not found in configured providers", c.DefaultProvider)
		}
		if !provider.Enabled {
			return fmt.Errorf("default provider %q is disabled", c.DefaultProvider)
		}
	}

	// Sync requires at least one enabled provider
	if c.SyncEnabled() {
		enabled := false
		for _, providerConfig := range c.Providers {
			if providerConfig.Enabled {
				enabled = true
				break
			}
		}
		if !enabled {
			return fmt.Errorf("sync is enabled but no provider is enabled")
		}
	}

	return nil
}

func (c *Config) GetDateFormat() string {
	if c.DateFormat == "" {
		return "2006-01-02" // Default to yyyy-mm-dd
	}
	return c.DateFormat
}

// SetCustomConfigPath sets a custom config path to use instead of the default user config directory.
// If path is empty or ".", it uses "./habittrack/config.json" (current directory).
// If path is a directory, it looks for "config.json" inside it.
// If path is a file, it uses that file directly.
// This must be called before GetConfig() is called for the first time.
func SetCustomConfigPath(path string) {
	if path == "" || path == "." {
		customConfigPath = filepath.Join(".", CONFIG_DIR_PATH, CONFIG_FILE_PATH)
	} else {
		// Check if path is a directory
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			customConfigPath = filepath.Join(path, CONFIG_FILE_PATH)
		} else {
			customConfigPath = path
		}
	}
}

func GetConfig() *Config {
	configOnce.Do(func() {
		config, err := loadUserOrSampleConfig()
		if err != nil {
			log.Fatal(err)
		}
		globalConfig = config
	})
	return globalConfig
}

func loadUserOrSampleConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("config path couldn't be retrieved: %w", err)
	}
	configData, err := configDataFromPath(configPath)
	if err != nil {
		return nil, fmt.Errorf("config data couldn't be retrieved: %w", err)
	}
	return parseConfig(configData, configPath)
}

func GetConfigPath() (string, error) {
	// If a custom config path was set, use it even when it does not exist
	// yet (allows creation of config in custom location)
	if customConfigPath != "" {
		return customConfigPath, nil
	}

	// Otherwise, use the default user config directory
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	return filepath.Join(dir, CONFIG_DIR_PATH, CONFIG_FILE_PATH), nil
}

func createConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), CONFIG_DIR_PERM)
}

func WriteConfigFile(configPath string, data []byte) error {
	return os.WriteFile(configPath, data, CONFIG_FILE_PERM)
}

// Save writes the config back to its path, creating directories as needed.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	if err := createConfigDir(configPath); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return WriteConfigFile(configPath, data)
}

func createConfigFromSample(configPath string) []byte {
	if err := createConfigDir(configPath); err != nil {
		log.Fatal(err)
	}
	if err := WriteConfigFile(configPath, sampleConfig); err != nil {
		log.Fatal(err)
	}
	return sampleConfig
}

func parseConfig(configData []byte, configPath string) (*Config, error) {
	var configObj Config
	if err := json.Unmarshal(configData, &configObj); err != nil {
		return nil, fmt.Errorf("invalid JSON in config file %s: %w", configPath, err)
	}

	if err := configObj.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return &configObj, nil
}

func configDataFromPath(configPath string) ([]byte, error) {
	configData, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		fmt.Println("No config exists at", configPath)

		shouldCopySample := utils.PromptYesNo("Do you want to copy the config sample to " + configPath + "?")
		if shouldCopySample {
			configData = createConfigFromSample(configPath)
		} else {
			configData = sampleConfig
		}
		return configData, nil
	}
	if err != nil {
		return nil, err
	}

	return configData, nil
}
