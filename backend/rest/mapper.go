package rest

import (
	"time"

	"habittrack/backend"
)

// Conversions between wire records and local entities. LastModified is a
// remote-only concern that gets stamped on the way up and dropped on the
// way down.

func categoryToRecord(c backend.Category, modified int64) categoryRecord {
	return categoryRecord{ID: c.ID, Name: c.Name, LastModified: modified}
}

func recordToCategory(r categoryRecord) backend.Category {
	return backend.Category{ID: r.ID, Name: r.Name}
}

func habitToRecord(h backend.Habit, modified int64) habitRecord {
	return habitRecord{
		ID:           h.ID,
		CategoryID:   h.CategoryID,
		Name:         h.Name,
		ReminderTime: h.ReminderTime,
		LastModified: modified,
	}
}

func recordToHabit(r habitRecord) backend.Habit {
	return backend.Habit{
		ID:           r.ID,
		CategoryID:   r.CategoryID,
		Name:         r.Name,
		ReminderTime: r.ReminderTime,
	}
}

func logToRecord(l backend.HabitLog, modified int64) logRecord {
	rec := logRecord{
		ID:           l.ID,
		HabitID:      l.HabitID,
		Timestamp:    l.Timestamp.Unix(),
		Note:         l.Note,
		IsMakeup:     l.IsMakeup,
		LastModified: modified,
	}
	if l.OriginalDate != nil {
		rec.OriginalDate = l.OriginalDate.Unix()
	}
	return rec
}

func recordToLog(r logRecord) backend.HabitLog {
	l := backend.HabitLog{
		ID:        r.ID,
		HabitID:   r.HabitID,
		Timestamp: time.Unix(r.Timestamp, 0).UTC(),
		Note:      r.Note,
		IsMakeup:  r.IsMakeup,
	}
	if r.OriginalDate != 0 {
		t := time.Unix(r.OriginalDate, 0).UTC()
		l.OriginalDate = &t
	}
	return l
}

func datasetToSnapshot(ds backend.Dataset, modified int64) snapshotPayload {
	snapshot := snapshotPayload{
		Categories: make([]categoryRecord, 0, len(ds.Categories)),
		Habits:     make([]habitRecord, 0, len(ds.Habits)),
		Logs:       make([]logRecord, 0, len(ds.Logs)),
	}
	for _, c := range ds.Categories {
		snapshot.Categories = append(snapshot.Categories, categoryToRecord(c, modified))
	}
	for _, h := range ds.Habits {
		snapshot.Habits = append(snapshot.Habits, habitToRecord(h, modified))
	}
	for _, l := range ds.Logs {
		snapshot.Logs = append(snapshot.Logs, logToRecord(l, modified))
	}
	return snapshot
}

func snapshotToDataset(snapshot *snapshotPayload) backend.Dataset {
	ds := backend.Dataset{
		Categories: make([]backend.Category, 0, len(snapshot.Categories)),
		Habits:     make([]backend.Habit, 0, len(snapshot.Habits)),
		Logs:       make([]backend.HabitLog, 0, len(snapshot.Logs)),
	}
	for _, r := range snapshot.Categories {
		ds.Categories = append(ds.Categories, recordToCategory(r))
	}
	for _, r := range snapshot.Habits {
		ds.Habits = append(ds.Habits, recordToHabit(r))
	}
	for _, r := range snapshot.Logs {
		ds.Logs = append(ds.Logs, recordToLog(r))
	}
	return ds
}

func deltaToPayload(delta backend.Delta, modified int64) deltaPayload {
	payload := deltaPayload{
		Deletes: make(map[string][]string),
	}
	for _, entities := range delta.Upserts {
		for _, e := range entities {
			switch v := e.(type) {
			case backend.Category:
				payload.Upserts.Categories = append(payload.Upserts.Categories, categoryToRecord(v, modified))
			case backend.Habit:
				payload.Upserts.Habits = append(payload.Upserts.Habits, habitToRecord(v, modified))
			case backend.HabitLog:
				payload.Upserts.Logs = append(payload.Upserts.Logs, logToRecord(v, modified))
			}
		}
	}
	for kind, ids := range delta.Deletes {
		if len(ids) > 0 {
			payload.Deletes[string(kind)] = ids
		}
	}
	return payload
}
