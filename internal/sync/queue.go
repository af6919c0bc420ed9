package sync

import (
	"sort"
	"sync"

	"habittrack/backend"
)

// ChangeQueue accumulates pending upserts and deletes per entity kind since
// the last successful push. It is intentionally not durable: every local
// mutation that reaches the local store re-enqueues here, and a restart
// before a push falls back to the manual full-state push.
//
// Conflict rules inside the queue: an upsert for an id removes it from the
// pending-delete set (an edit un-deletes), and a delete removes the id from
// the pending-upsert map (a delete wins over a not-yet-pushed edit).
type ChangeQueue struct {
	mu      sync.Mutex
	upserts map[backend.Kind]map[string]backend.Entity
	deletes map[backend.Kind]map[string]bool
}

// NewChangeQueue creates an empty change queue.
func NewChangeQueue() *ChangeQueue {
	return &ChangeQueue{
		upserts: make(map[backend.Kind]map[string]backend.Entity),
		deletes: make(map[backend.Kind]map[string]bool),
	}
}

// EnqueueUpsert records a pending upsert, un-deleting the id if a delete
// was queued for it.
func (q *ChangeQueue) EnqueueUpsert(e backend.Entity) {
	kind := backend.KindOf(e)
	if kind == "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.upserts[kind] == nil {
		q.upserts[kind] = make(map[string]backend.Entity)
	}
	q.upserts[kind][e.EntityID()] = e
	delete(q.deletes[kind], e.EntityID())
}

// EnqueueDelete records a pending delete, dropping any queued upsert for
// the same id.
func (q *ChangeQueue) EnqueueDelete(kind backend.Kind, id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.deletes[kind] == nil {
		q.deletes[kind] = make(map[string]bool)
	}
	q.deletes[kind][id] = true
	delete(q.upserts[kind], id)
}

// BuildDelta snapshots the queue into a Delta with deterministic ordering.
// The queue itself is left untouched; callers clear it only after a
// successful push.
func (q *ChangeQueue) BuildDelta() backend.Delta {
	q.mu.Lock()
	defer q.mu.Unlock()

	delta := backend.Delta{
		Upserts: make(map[backend.Kind][]backend.Entity),
		Deletes: make(map[backend.Kind][]string),
	}
	for kind, byID := range q.upserts {
		if len(byID) == 0 {
			continue
		}
		ents := make([]backend.Entity, 0, len(byID))
		for _, e := range byID {
			ents = append(ents, e)
		}
		sort.Slice(ents, func(i, j int) bool { return ents[i].EntityID() < ents[j].EntityID() })
		delta.Upserts[kind] = ents
	}
	for kind, ids := range q.deletes {
		if len(ids) == 0 {
			continue
		}
		out := make([]string, 0, len(ids))
		for id := range ids {
			out = append(out, id)
		}
		sort.Strings(out)
		delta.Deletes[kind] = out
	}
	return delta
}

// Clear empties the queue after a successful push.
func (q *ChangeQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.upserts = make(map[backend.Kind]map[string]backend.Entity)
	q.deletes = make(map[backend.Kind]map[string]bool)
}

// Len returns the number of pending changes across all kinds.
func (q *ChangeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, byID := range q.upserts {
		n += len(byID)
	}
	for _, ids := range q.deletes {
		n += len(ids)
	}
	return n
}

// Empty reports whether nothing is queued.
func (q *ChangeQueue) Empty() bool {
	return q.Len() == 0
}
