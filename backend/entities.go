package backend

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies one of the three entity collections.
type Kind string

const (
	KindCategories Kind = "categories"
	KindHabits     Kind = "habits"
	KindHabitLogs  Kind = "habitLogs"
)

// Kinds lists every entity kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindCategories, KindHabits, KindHabitLogs}
}

// Entity is anything addressable by a globally unique id within its kind.
// Equality everywhere in the sync engine is equality of EntityID.
type Entity interface {
	EntityID() string
}

// Category is the root grouping entity.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c Category) EntityID() string { return c.ID }

// Habit belongs to a category via a soft reference. The storage layer does
// not enforce referential integrity; callers keep it consistent.
type Habit struct {
	ID           string `json:"id"`
	CategoryID   string `json:"categoryId"`
	Name         string `json:"name"`
	ReminderTime string `json:"reminderTime,omitempty"` // "HH:MM", empty when unset
}

func (h Habit) EntityID() string { return h.ID }

// HabitLog records one check-in. IsMakeup marks a log entered for a past
// date; OriginalDate holds the date the check-in actually covers.
type HabitLog struct {
	ID           string     `json:"id"`
	HabitID      string     `json:"habitId"`
	Timestamp    time.Time  `json:"timestamp"`
	Note         string     `json:"note,omitempty"`
	IsMakeup     bool       `json:"isMakeup,omitempty"`
	OriginalDate *time.Time `json:"originalDate,omitempty"`
}

func (l HabitLog) EntityID() string { return l.ID }

// NewID returns a fresh globally unique entity id.
func NewID() string {
	return uuid.NewString()
}

// KindOf returns the entity kind of a concrete entity value.
func KindOf(e Entity) Kind {
	switch e.(type) {
	case Category:
		return KindCategories
	case Habit:
		return KindHabits
	case HabitLog:
		return KindHabitLogs
	}
	return ""
}

// Dataset is a full snapshot of every entity kind. The same shape is used
// for full sync payloads and for export/import files.
type Dataset struct {
	Categories []Category `json:"categories" yaml:"categories"`
	Habits     []Habit    `json:"habits" yaml:"habits"`
	Logs       []HabitLog `json:"habitLogs" yaml:"habitLogs"`
}

// Empty reports whether the dataset contains no entities of any kind.
func (d Dataset) Empty() bool {
	return len(d.Categories) == 0 && len(d.Habits) == 0 && len(d.Logs) == 0
}

// Count returns the total number of entities across all kinds.
func (d Dataset) Count() int {
	return len(d.Categories) + len(d.Habits) + len(d.Logs)
}

// Entities returns the records of one kind as the generic Entity interface.
func (d Dataset) Entities(kind Kind) []Entity {
	switch kind {
	case KindCategories:
		out := make([]Entity, len(d.Categories))
		for i, c := range d.Categories {
			out[i] = c
		}
		return out
	case KindHabits:
		out := make([]Entity, len(d.Habits))
		for i, h := range d.Habits {
			out[i] = h
		}
		return out
	case KindHabitLogs:
		out := make([]Entity, len(d.Logs))
		for i, l := range d.Logs {
			out[i] = l
		}
		return out
	}
	return nil
}

// Insert adds an entity to the collection matching its concrete type.
func (d *Dataset) Insert(e Entity) {
	switch v := e.(type) {
	case Category:
		d.Categories = append(d.Categories, v)
	case Habit:
		d.Habits = append(d.Habits, v)
	case HabitLog:
		d.Logs = append(d.Logs, v)
	}
}

// Delta is the set of pending upserts and deletes accumulated since the
// last successful push.
type Delta struct {
	Upserts map[Kind][]Entity `json:"upserts"`
	Deletes map[Kind][]string `json:"deletes"`
}

// Empty reports whether the delta carries no changes at all.
func (d Delta) Empty() bool {
	for _, ents := range d.Upserts {
		if len(ents) > 0 {
			return false
		}
	}
	for _, ids := range d.Deletes {
		if len(ids) > 0 {
			return false
		}
	}
	return true
}

// Count returns the total number of upserts plus deletes in the delta.
func (d Delta) Count() int {
	n := 0
	for _, ents := range d.Upserts {
		n += len(ents)
	}
	for _, ids := range d.Deletes {
		n += len(ids)
	}
	return n
}
