package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"habittrack/backend"
)

func sampleDataset() backend.Dataset {
	original := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	return backend.Dataset{
		Categories: []backend.Category{{ID: "c1", Name: "Health"}},
		Habits:     []backend.Habit{{ID: "h1", CategoryID: "c1", Name: "Run", ReminderTime: "07:30"}},
		Logs: []backend.HabitLog{{
			ID: "l1", HabitID: "h1",
			Timestamp: time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC),
			Note:      "makeup", IsMakeup: true, OriginalDate: &original,
		}},
	}
}

func TestRoundTripJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleDataset(), FormatJSON); err != nil {
		t.Fatalf("write: %v", err)
	}

	ds, err := Read(&buf, FormatJSON)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	verifyDataset(t, ds)
}

func TestRoundTripYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleDataset(), FormatYAML); err != nil {
		t.Fatalf("write: %v", err)
	}

	ds, err := Read(&buf, FormatYAML)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	verifyDataset(t, ds)
}

func verifyDataset(t *testing.T, ds backend.Dataset) {
	t.Helper()
	if len(ds.Categories) != 1 || ds.Categories[0].Name != "Health" {
		t.Errorf("categories lost: %+v", ds.Categories)
	}
	if len(ds.Habits) != 1 || ds.Habits[0].ReminderTime != "07:30" {
		t.Errorf("habits lost: %+v", ds.Habits)
	}
	if len(ds.Logs) != 1 {
		t.Fatalf("logs lost: %+v", ds.Logs)
	}
	l := ds.Logs[0]
	if !l.IsMakeup || l.OriginalDate == nil {
		t.Errorf("makeup fields lost: %+v", l)
	}
}

func TestFileRoundTripDetectsFormat(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.json", "out.yaml"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(path, sampleDataset()); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		ds, err := ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		verifyDataset(t, ds)
	}
}

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"data.json": FormatJSON,
		"data.yaml": FormatYAML,
		"data.yml":  FormatYAML,
		"data.txt":  FormatJSON,
	}
	for path, want := range cases {
		if got := DetectFormat(path); got != want {
			t.Errorf("DetectFormat(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestParseFormatRejectsUnknown(t *testing.T) {
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected unknown format rejected")
	}
}

func TestReadRejectsMissingIDs(t *testing.T) {
	doc := `{"version":1,"data":{"categories":[{"id":"","name":"Bad"}]}}`
	if _, err := Read(strings.NewReader(doc), FormatJSON); err == nil {
		t.Error("expected record without id rejected")
	}
}

func TestReadRejectsDuplicateIDs(t *testing.T) {
	doc := `{"version":1,"data":{"habits":[{"id":"h1","categoryId":"c1","name":"A"},{"id":"h1","categoryId":"c1","name":"B"}]}}`
	if _, err := Read(strings.NewReader(doc), FormatJSON); err == nil {
		t.Error("expected duplicate ids rejected")
	}
}

func TestReadRejectsNewerVersion(t *testing.T) {
	doc := `{"version":99,"data":{}}`
	if _, err := Read(strings.NewReader(doc), FormatJSON); err == nil {
		t.Error("expected newer file version rejected")
	}
}
