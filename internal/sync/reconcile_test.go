package sync

import (
	"context"
	"testing"

	"habittrack/backend"
)

func TestReconcilePushWhenRemoteEmpty(t *testing.T) {
	store := newFakeStore()
	_ = store.Put(backend.Category{ID: "c1", Name: "Health"})
	provider := newFakeProvider()

	action, err := reconcile(context.Background(), provider, store)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if action != ReconcilePush {
		t.Fatalf("expected push, got %s", action)
	}
	if !remoteHas(provider, backend.KindCategories, "c1") {
		t.Error("expected local category uploaded to remote")
	}
}

func TestReconcilePullWhenLocalEmpty(t *testing.T) {
	store := newFakeStore()
	provider := newFakeProvider()
	provider.remote = backend.Dataset{
		Categories: []backend.Category{{ID: "c1", Name: "Health"}},
		Habits:     []backend.Habit{{ID: "h1", CategoryID: "c1", Name: "Run"}},
	}

	action, err := reconcile(context.Background(), provider, store)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if action != ReconcilePull {
		t.Fatalf("expected pull, got %s", action)
	}
	if !store.has(backend.KindCategories, "c1") || !store.has(backend.KindHabits, "h1") {
		t.Error("expected remote dataset adopted locally")
	}
	if provider.upCalls != 0 {
		t.Errorf("pull must not upload, got %d uploads", provider.upCalls)
	}
}

func TestReconcileMergeRemoteWinsCollisions(t *testing.T) {
	store := newFakeStore()
	_ = store.Put(backend.Category{ID: "c1", Name: "Local Name"})
	_ = store.Put(backend.Category{ID: "c2", Name: "Local Only"})

	provider := newFakeProvider()
	provider.remote = backend.Dataset{
		Categories: []backend.Category{
			{ID: "c1", Name: "Remote Name"},
			{ID: "c3", Name: "Remote Only"},
		},
	}

	action, err := reconcile(context.Background(), provider, store)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if action != ReconcileMerge {
		t.Fatalf("expected merge, got %s", action)
	}

	merged := store.Dataset()
	if len(merged.Categories) != 3 {
		t.Fatalf("expected union of 3 categories, got %d", len(merged.Categories))
	}
	for _, c := range merged.Categories {
		if c.ID == "c1" && c.Name != "Remote Name" {
			t.Errorf("expected remote record to win collision, got %q", c.Name)
		}
	}
	for _, id := range []string{"c1", "c2", "c3"} {
		if !remoteHas(provider, backend.KindCategories, id) {
			t.Errorf("expected merged dataset pushed, %s missing remotely", id)
		}
	}
}

func TestReconcileNoopWhenBothEmpty(t *testing.T) {
	store := newFakeStore()
	provider := newFakeProvider()

	action, err := reconcile(context.Background(), provider, store)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if action != ReconcileNoop {
		t.Fatalf("expected noop, got %s", action)
	}
	if provider.upCalls != 0 {
		t.Errorf("expected no upload, got %d", provider.upCalls)
	}
	if provider.downCalls != 1 {
		t.Errorf("expected only the initial probe, got %d downloads", provider.downCalls)
	}
}

func TestReconcileMergePrefersDeltaSync(t *testing.T) {
	store := newFakeStore()
	_ = store.Put(backend.Category{ID: "c2", Name: "Local Only"})

	provider := newFakeDeltaProvider()
	provider.remote = backend.Dataset{
		Categories: []backend.Category{{ID: "c1", Name: "Remote Only"}},
	}

	action, err := reconcile(context.Background(), provider, store)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if action != ReconcileMerge {
		t.Fatalf("expected merge, got %s", action)
	}
	if provider.deltaCalls != 1 {
		t.Errorf("expected merge pushed via delta sync, got %d delta calls", provider.deltaCalls)
	}
	if provider.upCalls != 0 {
		t.Errorf("expected no full upload when delta sync is available, got %d", provider.upCalls)
	}
}

func TestMergeDatasetsDeduplicates(t *testing.T) {
	remote := backend.Dataset{
		Categories: []backend.Category{
			{ID: "c1", Name: "First"},
			{ID: "c1", Name: "Duplicate"},
		},
	}
	local := backend.Dataset{
		Categories: []backend.Category{{ID: "c1", Name: "Local"}},
	}

	merged := mergeDatasets(remote, local)
	if len(merged.Categories) != 1 {
		t.Fatalf("expected 1 category after dedup, got %d", len(merged.Categories))
	}
	if merged.Categories[0].Name != "First" {
		t.Errorf("expected first-seen record kept, got %q", merged.Categories[0].Name)
	}
}
