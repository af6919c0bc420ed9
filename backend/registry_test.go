package backend

import (
	"context"
	"testing"
)

type stubProvider struct{ name string }

func (s *stubProvider) Login(ctx context.Context, cred Credential) (Session, error) {
	return Session{}, nil
}
func (s *stubProvider) Logout(ctx context.Context) error              { return nil }
func (s *stubProvider) Online(ctx context.Context) bool               { return false }
func (s *stubProvider) FullSyncUp(ctx context.Context, d Dataset) error { return nil }
func (s *stubProvider) FullSyncDown(ctx context.Context) (Dataset, error) {
	return Dataset{}, nil
}
func (s *stubProvider) Subscribe(cb SnapshotCallbacks) (func(), error) { return func() {}, nil }
func (s *stubProvider) ClearRemote(ctx context.Context) error          { return nil }

func TestRegistryConstructsByType(t *testing.T) {
	RegisterType("stub", func(config ProviderConfig) (SyncProvider, error) {
		return &stubProvider{name: config.Name}, nil
	})

	provider, err := NewProvider(ProviderConfig{Name: "mine", Type: "stub"})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if provider.(*stubProvider).name != "mine" {
		t.Error("expected config passed to constructor")
	}
}

func TestRegistryRejectsUnknownType(t *testing.T) {
	if _, err := NewProvider(ProviderConfig{Type: "does-not-exist"}); err == nil {
		t.Error("expected unknown type rejected")
	}
}

func TestRegisteredTypesListsRegistrations(t *testing.T) {
	RegisterType("stub2", func(config ProviderConfig) (SyncProvider, error) {
		return &stubProvider{}, nil
	})
	found := false
	for _, name := range RegisteredTypes() {
		if name == "stub2" {
			found = true
		}
	}
	if !found {
		t.Error("expected stub2 listed")
	}
}
