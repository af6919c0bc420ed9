package sync

import (
	"testing"

	"habittrack/backend"
)

func TestQueueUpsertThenDelete(t *testing.T) {
	q := NewChangeQueue()
	h := backend.Habit{ID: "h1", CategoryID: "c1", Name: "Run"}

	q.EnqueueUpsert(h)
	q.EnqueueDelete(backend.KindHabits, "h1")

	delta := q.BuildDelta()
	if len(delta.Upserts[backend.KindHabits]) != 0 {
		t.Errorf("expected upsert to be dropped after delete, got %v", delta.Upserts[backend.KindHabits])
	}
	if got := delta.Deletes[backend.KindHabits]; len(got) != 1 || got[0] != "h1" {
		t.Errorf("expected delete for h1, got %v", got)
	}
}

func TestQueueDeleteThenUpsert(t *testing.T) {
	q := NewChangeQueue()
	h := backend.Habit{ID: "h1", CategoryID: "c1", Name: "Run"}

	q.EnqueueDelete(backend.KindHabits, "h1")
	q.EnqueueUpsert(h)

	delta := q.BuildDelta()
	if len(delta.Deletes[backend.KindHabits]) != 0 {
		t.Errorf("expected delete to be cancelled by upsert, got %v", delta.Deletes[backend.KindHabits])
	}
	if got := delta.Upserts[backend.KindHabits]; len(got) != 1 || got[0].EntityID() != "h1" {
		t.Errorf("expected upsert for h1, got %v", got)
	}
}

func TestQueueUpsertCoalesces(t *testing.T) {
	q := NewChangeQueue()
	q.EnqueueUpsert(backend.Category{ID: "c1", Name: "Old"})
	q.EnqueueUpsert(backend.Category{ID: "c1", Name: "New"})

	delta := q.BuildDelta()
	ups := delta.Upserts[backend.KindCategories]
	if len(ups) != 1 {
		t.Fatalf("expected coalesced upsert, got %d entries", len(ups))
	}
	if ups[0].(backend.Category).Name != "New" {
		t.Errorf("expected latest record to win, got %q", ups[0].(backend.Category).Name)
	}
}

func TestQueueBuildDeltaLeavesQueueIntact(t *testing.T) {
	q := NewChangeQueue()
	q.EnqueueUpsert(backend.Category{ID: "c1", Name: "Health"})
	q.EnqueueDelete(backend.KindHabits, "h1")

	first := q.BuildDelta()
	second := q.BuildDelta()
	if first.Count() != second.Count() {
		t.Errorf("BuildDelta must not drain the queue: %d vs %d", first.Count(), second.Count())
	}
	if q.Len() != 2 {
		t.Errorf("expected 2 queued changes, got %d", q.Len())
	}
}

func TestQueueBuildDeltaDeterministicOrder(t *testing.T) {
	q := NewChangeQueue()
	q.EnqueueDelete(backend.KindHabitLogs, "l2")
	q.EnqueueDelete(backend.KindHabitLogs, "l1")
	q.EnqueueDelete(backend.KindHabitLogs, "l3")

	delta := q.BuildDelta()
	ids := delta.Deletes[backend.KindHabitLogs]
	want := []string{"l1", "l2", "l3"}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("expected sorted delete ids %v, got %v", want, ids)
		}
	}
}

func TestQueueClear(t *testing.T) {
	q := NewChangeQueue()
	q.EnqueueUpsert(backend.Category{ID: "c1", Name: "Health"})
	q.EnqueueDelete(backend.KindHabits, "h1")

	q.Clear()
	if !q.Empty() {
		t.Error("expected empty queue after Clear")
	}
	if !q.BuildDelta().Empty() {
		t.Error("expected empty delta after Clear")
	}
}
