package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"habittrack/backend"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "habits.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestWriteThroughSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habits.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	original := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	if err := store.Put(backend.Category{ID: "c1", Name: "Health"}); err != nil {
		t.Fatalf("put category: %v", err)
	}
	if err := store.Put(backend.Habit{ID: "h1", CategoryID: "c1", Name: "Run", ReminderTime: "07:30"}); err != nil {
		t.Fatalf("put habit: %v", err)
	}
	if err := store.Put(backend.HabitLog{
		ID: "l1", HabitID: "h1", Timestamp: time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC),
		Note: "makeup", IsMakeup: true, OriginalDate: &original,
	}); err != nil {
		t.Fatalf("put log: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	if c, ok := reopened.Category("c1"); !ok || c.Name != "Health" {
		t.Errorf("category lost on reopen: %+v ok=%v", c, ok)
	}
	if h, ok := reopened.Habit("h1"); !ok || h.ReminderTime != "07:30" {
		t.Errorf("habit lost on reopen: %+v ok=%v", h, ok)
	}
	logs := reopened.Logs()
	if len(logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(logs))
	}
	l := logs[0]
	if !l.IsMakeup || l.OriginalDate == nil || !l.OriginalDate.Equal(original) {
		t.Errorf("makeup fields lost on reopen: %+v", l)
	}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	store := openTestStore(t)

	if err := store.Add(backend.Category{ID: "c1", Name: "Health"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Add(backend.Category{ID: "c1", Name: "Other"}); err == nil {
		t.Error("expected duplicate insert to fail")
	}
	// Mirror must still hold the original record.
	if c, _ := store.Category("c1"); c.Name != "Health" {
		t.Errorf("mirror changed on failed insert: %+v", c)
	}
}

func TestPutUpserts(t *testing.T) {
	store := openTestStore(t)

	_ = store.Put(backend.Category{ID: "c1", Name: "Old"})
	if err := store.Put(backend.Category{ID: "c1", Name: "New"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if len(store.Categories()) != 1 {
		t.Fatalf("expected a single category, got %d", len(store.Categories()))
	}
	if c, _ := store.Category("c1"); c.Name != "New" {
		t.Errorf("expected upsert to replace record, got %q", c.Name)
	}
}

func TestDeleteCategoryCascadeIsAtomicAndReturnsDependents(t *testing.T) {
	store := openTestStore(t)

	_ = store.Put(backend.Category{ID: "c1", Name: "Health"})
	_ = store.Put(backend.Category{ID: "c2", Name: "Work"})
	_ = store.Put(backend.Habit{ID: "h1", CategoryID: "c1", Name: "Run"})
	_ = store.Put(backend.Habit{ID: "h2", CategoryID: "c1", Name: "Swim"})
	_ = store.Put(backend.Habit{ID: "h3", CategoryID: "c2", Name: "Email"})
	_ = store.Put(backend.HabitLog{ID: "l1", HabitID: "h1", Timestamp: time.Now().UTC()})
	_ = store.Put(backend.HabitLog{ID: "l2", HabitID: "h2", Timestamp: time.Now().UTC()})
	_ = store.Put(backend.HabitLog{ID: "l3", HabitID: "h3", Timestamp: time.Now().UTC()})

	habitIDs, logIDs, err := store.DeleteCategoryCascade("c1")
	if err != nil {
		t.Fatalf("cascade: %v", err)
	}
	if len(habitIDs) != 2 || habitIDs[0] != "h1" || habitIDs[1] != "h2" {
		t.Errorf("expected habit ids [h1 h2], got %v", habitIDs)
	}
	if len(logIDs) != 2 {
		t.Errorf("expected 2 log ids, got %v", logIDs)
	}

	if _, ok := store.Category("c1"); ok {
		t.Error("category still present after cascade")
	}
	if _, ok := store.Habit("h3"); !ok {
		t.Error("unrelated habit removed by cascade")
	}
	if len(store.Logs()) != 1 {
		t.Errorf("expected only unrelated log left, got %d", len(store.Logs()))
	}
}

func TestDeleteHabitCascade(t *testing.T) {
	store := openTestStore(t)

	_ = store.Put(backend.Habit{ID: "h1", CategoryID: "c1", Name: "Run"})
	_ = store.Put(backend.HabitLog{ID: "l1", HabitID: "h1", Timestamp: time.Now().UTC()})
	_ = store.Put(backend.HabitLog{ID: "l2", HabitID: "h1", Timestamp: time.Now().UTC()})

	logIDs, err := store.DeleteHabitCascade("h1")
	if err != nil {
		t.Fatalf("cascade: %v", err)
	}
	if len(logIDs) != 2 {
		t.Errorf("expected 2 log ids, got %v", logIDs)
	}
	if !store.Empty() {
		t.Error("expected store emptied")
	}
}

func TestReplaceAll(t *testing.T) {
	store := openTestStore(t)
	_ = store.Put(backend.Category{ID: "old", Name: "Old"})

	err := store.ReplaceAll(backend.Dataset{
		Categories: []backend.Category{{ID: "c1", Name: "Health"}},
		Habits:     []backend.Habit{{ID: "h1", CategoryID: "c1", Name: "Run"}},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	if _, ok := store.Category("old"); ok {
		t.Error("expected previous data dropped")
	}
	if _, ok := store.Category("c1"); !ok {
		t.Error("expected new dataset present")
	}
	if len(store.Habits()) != 1 {
		t.Errorf("expected 1 habit, got %d", len(store.Habits()))
	}
}

func TestApplySnapshotReplacesKindAndDedups(t *testing.T) {
	store := openTestStore(t)
	_ = store.Put(backend.Category{ID: "gone", Name: "Gone"})
	_ = store.Put(backend.Habit{ID: "h1", CategoryID: "c1", Name: "Untouched"})

	snapshot := []backend.Entity{
		backend.Category{ID: "c1", Name: "First"},
		backend.Category{ID: "c1", Name: "Last"},
		backend.Category{ID: "c2", Name: "Other"},
	}
	if err := store.ApplySnapshot(backend.KindCategories, snapshot); err != nil {
		t.Fatalf("apply snapshot: %v", err)
	}

	categories := store.Categories()
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories after dedup, got %d", len(categories))
	}
	if c, _ := store.Category("c1"); c.Name != "Last" {
		t.Errorf("expected last duplicate to win, got %q", c.Name)
	}
	if _, ok := store.Category("gone"); ok {
		t.Error("expected records absent from snapshot removed")
	}
	if _, ok := store.Habit("h1"); !ok {
		t.Error("other kinds must be untouched by a kind snapshot")
	}
	if ents := store.GetAll(backend.KindCategories); len(ents) != 2 {
		t.Errorf("expected generic read deduplicated, got %d entities", len(ents))
	}
}

func TestQueriesAreSorted(t *testing.T) {
	store := openTestStore(t)
	_ = store.Put(backend.Category{ID: "c2", Name: "Beta"})
	_ = store.Put(backend.Category{ID: "c1", Name: "Alpha"})
	_ = store.Put(backend.HabitLog{ID: "l1", HabitID: "h1", Timestamp: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)})
	_ = store.Put(backend.HabitLog{ID: "l2", HabitID: "h1", Timestamp: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)})

	categories := store.Categories()
	if categories[0].Name != "Alpha" {
		t.Errorf("expected categories sorted by name, got %v", categories)
	}
	logs := store.Logs()
	if logs[0].ID != "l2" {
		t.Errorf("expected logs newest first, got %v", logs)
	}
}

func TestLogCountByHabitSkipsDanglingRefs(t *testing.T) {
	store := openTestStore(t)
	_ = store.Put(backend.Habit{ID: "h1", CategoryID: "c1", Name: "Run"})
	_ = store.Put(backend.HabitLog{ID: "l1", HabitID: "h1", Timestamp: time.Now().UTC()})
	_ = store.Put(backend.HabitLog{ID: "l2", HabitID: "ghost", Timestamp: time.Now().UTC()})

	counts := store.LogCountByHabit()
	if counts["h1"] != 1 {
		t.Errorf("expected 1 log for h1, got %d", counts["h1"])
	}
	if _, ok := counts["ghost"]; ok {
		t.Error("expected dangling habit ref excluded")
	}
}

func TestClearAll(t *testing.T) {
	store := openTestStore(t)
	_ = store.Put(backend.Category{ID: "c1", Name: "Health"})
	_ = store.Put(backend.Habit{ID: "h1", CategoryID: "c1", Name: "Run"})

	if err := store.ClearAll(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !store.Empty() {
		t.Error("expected empty store")
	}
}

func TestSchemaVersionRecorded(t *testing.T) {
	store := openTestStore(t)
	version, err := store.DB().GetSchemaVersion()
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("expected schema version %d, got %d", SchemaVersion, version)
	}
}
