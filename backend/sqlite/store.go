package sqlite

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"habittrack/backend"
)

// Store is the durable local store plus the in-memory mirror the rest of
// the application reads. It is the single source of truth when offline.
//
// Every mutation writes to SQLite first and only then updates the mirror,
// so a crash between the two steps leaves durable storage, not a stale
// mirror, as the recovery source of truth. A failed durable write leaves
// the mirror untouched and surfaces as an error to the caller.
type Store struct {
	db *Database

	mu         sync.RWMutex
	categories map[string]backend.Category
	habits     map[string]backend.Habit
	logs       map[string]backend.HabitLog
}

// Open opens (creating if needed) the store at path and loads the mirror.
// An empty path uses the XDG default location.
func Open(path string) (*Store, error) {
	db, err := InitDatabase(path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:         db,
		categories: make(map[string]backend.Category),
		habits:     make(map[string]backend.Habit),
		logs:       make(map[string]backend.HabitLog),
	}

	if err := s.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load local store: %w", err)
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the database wrapper for stats and maintenance.
func (s *Store) DB() *Database {
	return s.db
}

// load populates the mirror from durable storage.
func (s *Store) load() error {
	rows, err := s.db.Query("SELECT id, name FROM categories")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var c backend.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return err
		}
		s.categories[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return err
	}

	habitRows, err := s.db.Query("SELECT id, category_id, name, reminder_time FROM habits")
	if err != nil {
		return err
	}
	defer habitRows.Close()
	for habitRows.Next() {
		var h backend.Habit
		var reminder sql.NullString
		if err := habitRows.Scan(&h.ID, &h.CategoryID, &h.Name, &reminder); err != nil {
			return err
		}
		h.ReminderTime = reminder.String
		s.habits[h.ID] = h
	}
	if err := habitRows.Err(); err != nil {
		return err
	}

	logRows, err := s.db.Query("SELECT id, habit_id, timestamp, note, is_makeup, original_date FROM habit_logs")
	if err != nil {
		return err
	}
	defer logRows.Close()
	for logRows.Next() {
		l, err := scanLog(logRows)
		if err != nil {
			return err
		}
		s.logs[l.ID] = l
	}
	return logRows.Err()
}

func scanLog(rows *sql.Rows) (backend.HabitLog, error) {
	var l backend.HabitLog
	var ts int64
	var note sql.NullString
	var makeup int
	var original sql.NullInt64
	if err := rows.Scan(&l.ID, &l.HabitID, &ts, &note, &makeup, &original); err != nil {
		return l, err
	}
	l.Timestamp = time.Unix(ts, 0).UTC()
	l.Note = note.String
	l.IsMakeup = makeup == 1
	if original.Valid {
		t := time.Unix(original.Int64, 0).UTC()
		l.OriginalDate = &t
	}
	return l, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// writeEntity inserts an entity, optionally as an upsert.
func writeEntity(x execer, e backend.Entity, upsert bool) error {
	switch v := e.(type) {
	case backend.Category:
		q := "INSERT INTO categories (id, name) VALUES (?, ?)"
		if upsert {
			q += " ON CONFLICT(id) DO UPDATE SET name = excluded.name"
		}
		_, err := x.Exec(q, v.ID, v.Name)
		return err
	case backend.Habit:
		q := "INSERT INTO habits (id, category_id, name, reminder_time) VALUES (?, ?, ?, ?)"
		if upsert {
			q += " ON CONFLICT(id) DO UPDATE SET category_id = excluded.category_id, name = excluded.name, reminder_time = excluded.reminder_time"
		}
		_, err := x.Exec(q, v.ID, v.CategoryID, v.Name, nullString(v.ReminderTime))
		return err
	case backend.HabitLog:
		q := "INSERT INTO habit_logs (id, habit_id, timestamp, note, is_makeup, original_date) VALUES (?, ?, ?, ?, ?, ?)"
		if upsert {
			q += " ON CONFLICT(id) DO UPDATE SET habit_id = excluded.habit_id, timestamp = excluded.timestamp, note = excluded.note, is_makeup = excluded.is_makeup, original_date = excluded.original_date"
		}
		_, err := x.Exec(q, v.ID, v.HabitID, v.Timestamp.Unix(), nullString(v.Note), boolToInt(v.IsMakeup), timeToNullInt64(v.OriginalDate))
		return err
	}
	return fmt.Errorf("unknown entity type %T", e)
}

func tableFor(kind backend.Kind) (string, error) {
	switch kind {
	case backend.KindCategories:
		return "categories", nil
	case backend.KindHabits:
		return "habits", nil
	case backend.KindHabitLogs:
		return "habit_logs", nil
	}
	return "", fmt.Errorf("unknown entity kind: %s", kind)
}

// Add inserts a new entity. Fails if the id already exists durably.
func (s *Store) Add(e backend.Entity) error {
	if err := writeEntity(s.db, e, false); err != nil {
		return fmt.Errorf("failed to persist %T: %w", e, err)
	}
	s.setMirror(e)
	return nil
}

// Put inserts or replaces an entity by id. Applying a write with an
// existing id replaces the prior record in full.
func (s *Store) Put(e backend.Entity) error {
	if err := writeEntity(s.db, e, true); err != nil {
		return fmt.Errorf("failed to persist %T: %w", e, err)
	}
	s.setMirror(e)
	return nil
}

// Delete removes the entity with the given id. Deleting an absent id is a
// no-op. Deletion is physical and immediate; there are no tombstones.
func (s *Store) Delete(kind backend.Kind, id string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM "+table+" WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	s.deleteMirror(kind, id)
	return nil
}

// ClearAll destroys every entity of every kind in one transaction.
func (s *Store) ClearAll() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"habit_logs", "habits", "categories"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.mu.Lock()
	s.categories = make(map[string]backend.Category)
	s.habits = make(map[string]backend.Habit)
	s.logs = make(map[string]backend.HabitLog)
	s.mu.Unlock()
	return nil
}

// ReplaceAll swaps the entire local dataset for the given one in a single
// transaction. Used by full sync down and reconciliation merge.
func (s *Store) ReplaceAll(data backend.Dataset) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"habit_logs", "habits", "categories"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	for _, kind := range backend.Kinds() {
		for _, e := range dedupByID(data.Entities(kind)) {
			if err := writeEntity(tx, e, true); err != nil {
				return fmt.Errorf("failed to persist %T: %w", e, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.mu.Lock()
	s.categories = make(map[string]backend.Category)
	s.habits = make(map[string]backend.Habit)
	s.logs = make(map[string]backend.HabitLog)
	for _, kind := range backend.Kinds() {
		for _, e := range data.Entities(kind) {
			s.setMirrorLocked(e)
		}
	}
	s.mu.Unlock()
	return nil
}

// ApplySnapshot replaces one kind with a remote snapshot: every record in
// the snapshot is upserted, records absent from it are removed, and the
// mirror for the kind becomes the deduplicated snapshot. Whole-record
// last-writer-wins; a concurrent unpushed local edit to the same id is
// overwritten.
func (s *Store) ApplySnapshot(kind backend.Kind, entities []backend.Entity) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	deduped := dedupByID(entities)

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM " + table); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	for _, e := range deduped {
		if err := writeEntity(tx, e, true); err != nil {
			return fmt.Errorf("failed to persist %T: %w", e, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.mu.Lock()
	switch kind {
	case backend.KindCategories:
		s.categories = make(map[string]backend.Category)
	case backend.KindHabits:
		s.habits = make(map[string]backend.Habit)
	case backend.KindHabitLogs:
		s.logs = make(map[string]backend.HabitLog)
	}
	for _, e := range deduped {
		s.setMirrorLocked(e)
	}
	s.mu.Unlock()
	return nil
}

// DeleteCategoryCascade deletes a category together with its habits and
// their logs in one transaction, so an interruption never leaves a partial
// cascade. It returns the ids of the deleted habits and logs so callers can
// propagate the deletes to a remote replica.
func (s *Store) DeleteCategoryCascade(id string) (habitIDs []string, logIDs []string, err error) {
	s.mu.RLock()
	for _, h := range s.habits {
		if h.CategoryID == id {
			habitIDs = append(habitIDs, h.ID)
		}
	}
	habitSet := make(map[string]bool, len(habitIDs))
	for _, hid := range habitIDs {
		habitSet[hid] = true
	}
	for _, l := range s.logs {
		if habitSet[l.HabitID] {
			logIDs = append(logIDs, l.ID)
		}
	}
	s.mu.RUnlock()
	sort.Strings(habitIDs)
	sort.Strings(logIDs)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, lid := range logIDs {
		if _, err := tx.Exec("DELETE FROM habit_logs WHERE id = ?", lid); err != nil {
			return nil, nil, fmt.Errorf("failed to delete log %s: %w", lid, err)
		}
	}
	for _, hid := range habitIDs {
		if _, err := tx.Exec("DELETE FROM habits WHERE id = ?", hid); err != nil {
			return nil, nil, fmt.Errorf("failed to delete habit %s: %w", hid, err)
		}
	}
	if _, err := tx.Exec("DELETE FROM categories WHERE id = ?", id); err != nil {
		return nil, nil, fmt.Errorf("failed to delete category %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	for _, lid := range logIDs {
		delete(s.logs, lid)
	}
	for _, hid := range habitIDs {
		delete(s.habits, hid)
	}
	delete(s.categories, id)
	s.mu.Unlock()
	return habitIDs, logIDs, nil
}

// DeleteHabitCascade deletes a habit and its logs in one transaction and
// returns the ids of the deleted logs.
func (s *Store) DeleteHabitCascade(id string) (logIDs []string, err error) {
	s.mu.RLock()
	for _, l := range s.logs {
		if l.HabitID == id {
			logIDs = append(logIDs, l.ID)
		}
	}
	s.mu.RUnlock()
	sort.Strings(logIDs)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, lid := range logIDs {
		if _, err := tx.Exec("DELETE FROM habit_logs WHERE id = ?", lid); err != nil {
			return nil, fmt.Errorf("failed to delete log %s: %w", lid, err)
		}
	}
	if _, err := tx.Exec("DELETE FROM habits WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to delete habit %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	for _, lid := range logIDs {
		delete(s.logs, lid)
	}
	delete(s.habits, id)
	s.mu.Unlock()
	return logIDs, nil
}

// GetAll returns every entity of a kind, deduplicated by id (the mirror is
// keyed by id, so the most recently applied record wins), ordered by id.
func (s *Store) GetAll(kind backend.Kind) []backend.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []backend.Entity
	switch kind {
	case backend.KindCategories:
		for _, c := range s.categories {
			out = append(out, c)
		}
	case backend.KindHabits:
		for _, h := range s.habits {
			out = append(out, h)
		}
	case backend.KindHabitLogs:
		for _, l := range s.logs {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID() < out[j].EntityID() })
	return out
}

// Categories returns all categories sorted by name.
func (s *Store) Categories() []backend.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]backend.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Habits returns all habits sorted by name.
func (s *Store) Habits() []backend.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]backend.Habit, 0, len(s.habits))
	for _, h := range s.habits {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Logs returns all habit logs sorted by timestamp, newest first.
func (s *Store) Logs() []backend.HabitLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]backend.HabitLog, 0, len(s.logs))
	for _, l := range s.logs {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// Category looks up a category by id.
func (s *Store) Category(id string) (backend.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	return c, ok
}

// Habit looks up a habit by id.
func (s *Store) Habit(id string) (backend.Habit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.habits[id]
	return h, ok
}

// Dataset returns a full snapshot of the mirror, the shape shared by full
// sync payloads and export files.
func (s *Store) Dataset() backend.Dataset {
	var ds backend.Dataset
	ds.Categories = s.Categories()
	ds.Habits = s.Habits()
	ds.Logs = s.Logs()
	return ds
}

// Empty reports whether the store holds no entities of any kind.
func (s *Store) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.categories) == 0 && len(s.habits) == 0 && len(s.logs) == 0
}

// LogCountByHabit aggregates check-in counts per habit. Logs whose habit no
// longer exists are filtered out: dangling references are acceptable in
// steady state and must not poison aggregations.
func (s *Store) LogCountByHabit() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, l := range s.logs {
		if _, ok := s.habits[l.HabitID]; !ok {
			continue
		}
		counts[l.HabitID]++
	}
	return counts
}

func (s *Store) setMirror(e backend.Entity) {
	s.mu.Lock()
	s.setMirrorLocked(e)
	s.mu.Unlock()
}

func (s *Store) setMirrorLocked(e backend.Entity) {
	switch v := e.(type) {
	case backend.Category:
		s.categories[v.ID] = v
	case backend.Habit:
		s.habits[v.ID] = v
	case backend.HabitLog:
		s.logs[v.ID] = v
	}
}

func (s *Store) deleteMirror(kind backend.Kind, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case backend.KindCategories:
		delete(s.categories, id)
	case backend.KindHabits:
		delete(s.habits, id)
	case backend.KindHabitLogs:
		delete(s.logs, id)
	}
}

// dedupByID keeps the last occurrence of each id, preserving first-seen
// position so the result order is stable.
func dedupByID(entities []backend.Entity) []backend.Entity {
	index := make(map[string]int, len(entities))
	var out []backend.Entity
	for _, e := range entities {
		if i, seen := index[e.EntityID()]; seen {
			out[i] = e
			continue
		}
		index[e.EntityID()] = len(out)
		out = append(out, e)
	}
	return out
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timeToNullInt64(t *time.Time) sql.NullInt64 {
	if t == nil || t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
