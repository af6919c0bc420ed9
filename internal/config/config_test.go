package config

import (
	"testing"
	"time"

	"habittrack/backend"
)

func TestSampleConfigParsesAndValidates(t *testing.T) {
	cfg, err := parseConfig(sampleConfig, "embedded sample")
	if err != nil {
		t.Fatalf("embedded sample must be valid: %v", err)
	}

	provider, err := cfg.GetDefaultProvider()
	if err != nil {
		t.Fatalf("sample must define a usable default provider: %v", err)
	}
	if provider.Type != "rest" {
		t.Errorf("expected rest provider in sample, got %q", provider.Type)
	}
	if cfg.SyncEnabled() {
		t.Error("sample config must ship with sync off")
	}
}

func TestParseConfigRejectsBadJSON(t *testing.T) {
	if _, err := parseConfig([]byte("{not json"), "test"); err == nil {
		t.Error("expected parse failure")
	}
}

func TestValidateRestProviderRequiresURL(t *testing.T) {
	cfg := Config{
		Providers: map[string]backend.ProviderConfig{
			"cloud": {Type: "rest", Enabled: true},
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected rest provider without url rejected")
	}
}

func TestValidateDefaultProviderMustExistAndBeEnabled(t *testing.T) {
	cfg := Config{
		Providers: map[string]backend.ProviderConfig{
			"cloud": {Type: "rest", Enabled: true, URL: "https://example.com"},
		},
		DefaultProvider: "missing",
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown default provider rejected")
	}

	cfg = Config{
		Providers: map[string]backend.ProviderConfig{
			"cloud": {Type: "rest", Enabled: false, URL: "https://example.com"},
		},
		DefaultProvider: "cloud",
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected disabled default provider rejected")
	}
}

func TestValidateSyncNeedsEnabledProvider(t *testing.T) {
	cfg := Config{
		Sync: &SyncConfig{Enabled: true},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected sync without any enabled provider rejected")
	}
}

func TestGetProviderFillsName(t *testing.T) {
	cfg := Config{
		Providers: map[string]backend.ProviderConfig{
			"cloud": {Type: "rest", Enabled: true, URL: "https://example.com"},
		},
	}
	provider, err := cfg.GetProvider("cloud")
	if err != nil {
		t.Fatalf("get provider: %v", err)
	}
	if provider.Name != "cloud" {
		t.Errorf("expected name filled in, got %q", provider.Name)
	}
	if _, err := cfg.GetProvider("nope"); err == nil {
		t.Error("expected unknown provider rejected")
	}
}

func TestSyncConfigDebounce(t *testing.T) {
	var nilSync *SyncConfig
	if nilSync.Debounce() != 0 {
		t.Error("nil sync config must yield zero debounce")
	}
	s := &SyncConfig{DebounceMs: 800}
	if s.Debounce() != 800*time.Millisecond {
		t.Errorf("expected 800ms, got %v", s.Debounce())
	}
}

func TestDateFormatDefault(t *testing.T) {
	cfg := Config{}
	if cfg.GetDateFormat() != "2006-01-02" {
		t.Errorf("unexpected default date format %q", cfg.GetDateFormat())
	}
	cfg.DateFormat = "02.01.2006"
	if cfg.GetDateFormat() != "02.01.2006" {
		t.Errorf("expected override honored, got %q", cfg.GetDateFormat())
	}
}
