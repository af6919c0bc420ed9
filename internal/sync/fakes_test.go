package sync

import (
	"context"
	"sort"
	"sync"

	"habittrack/backend"
)

// fakeStore is an in-memory LocalStore for engine tests.
type fakeStore struct {
	mu   sync.Mutex
	data map[backend.Kind]map[string]backend.Entity
}

func newFakeStore() *fakeStore {
	s := &fakeStore{data: make(map[backend.Kind]map[string]backend.Entity)}
	for _, kind := range backend.Kinds() {
		s.data[kind] = make(map[string]backend.Entity)
	}
	return s
}

func (s *fakeStore) Add(e backend.Entity) error { return s.Put(e) }

func (s *fakeStore) Put(e backend.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[backend.KindOf(e)][e.EntityID()] = e
	return nil
}

func (s *fakeStore) Delete(kind backend.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[kind], id)
	return nil
}

func (s *fakeStore) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range backend.Kinds() {
		s.data[kind] = make(map[string]backend.Entity)
	}
	return nil
}

func (s *fakeStore) ReplaceAll(data backend.Dataset) error {
	if err := s.ClearAll(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range backend.Kinds() {
		for _, e := range data.Entities(kind) {
			s.data[kind][e.EntityID()] = e
		}
	}
	return nil
}

func (s *fakeStore) ApplySnapshot(kind backend.Kind, entities []backend.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[kind] = make(map[string]backend.Entity)
	for _, e := range entities {
		s.data[kind][e.EntityID()] = e
	}
	return nil
}

func (s *fakeStore) Dataset() backend.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ds backend.Dataset
	for _, kind := range backend.Kinds() {
		ids := make([]string, 0, len(s.data[kind]))
		for id := range s.data[kind] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			ds.Insert(s.data[kind][id])
		}
	}
	return ds
}

func (s *fakeStore) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range backend.Kinds() {
		if len(s.data[kind]) > 0 {
			return false
		}
	}
	return true
}

func (s *fakeStore) DeleteCategoryCascade(id string) ([]string, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var habitIDs []string
	for hid, e := range s.data[backend.KindHabits] {
		if e.(backend.Habit).CategoryID == id {
			habitIDs = append(habitIDs, hid)
		}
	}
	sort.Strings(habitIDs)

	var logIDs []string
	for lid, e := range s.data[backend.KindHabitLogs] {
		for _, hid := range habitIDs {
			if e.(backend.HabitLog).HabitID == hid {
				logIDs = append(logIDs, lid)
				break
			}
		}
	}
	sort.Strings(logIDs)

	for _, lid := range logIDs {
		delete(s.data[backend.KindHabitLogs], lid)
	}
	for _, hid := range habitIDs {
		delete(s.data[backend.KindHabits], hid)
	}
	delete(s.data[backend.KindCategories], id)
	return habitIDs, logIDs, nil
}

func (s *fakeStore) DeleteHabitCascade(id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var logIDs []string
	for lid, e := range s.data[backend.KindHabitLogs] {
		if e.(backend.HabitLog).HabitID == id {
			logIDs = append(logIDs, lid)
		}
	}
	sort.Strings(logIDs)

	for _, lid := range logIDs {
		delete(s.data[backend.KindHabitLogs], lid)
	}
	delete(s.data[backend.KindHabits], id)
	return logIDs, nil
}

func (s *fakeStore) has(kind backend.Kind, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[kind][id]
	return ok
}

// fakeProvider implements SyncProvider without the optional interfaces.
type fakeProvider struct {
	mu     sync.Mutex
	remote backend.Dataset

	online    bool
	loginErr  error
	downErr   error
	upErr     error
	downCalls int
	upCalls   int

	subscribed   int
	unsubscribed int
	callbacks    backend.SnapshotCallbacks
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{online: true}
}

func (p *fakeProvider) Login(ctx context.Context, cred backend.Credential) (backend.Session, error) {
	if p.loginErr != nil {
		return backend.Session{}, p.loginErr
	}
	return backend.Session{UserID: "u1", Email: cred.Email}, nil
}

func (p *fakeProvider) Logout(ctx context.Context) error { return nil }

func (p *fakeProvider) Online(ctx context.Context) bool { return p.online }

func (p *fakeProvider) FullSyncUp(ctx context.Context, data backend.Dataset) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.upCalls++
	if p.upErr != nil {
		return p.upErr
	}
	p.remote = data
	return nil
}

func (p *fakeProvider) FullSyncDown(ctx context.Context) (backend.Dataset, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.downCalls++
	if p.downErr != nil {
		return backend.Dataset{}, p.downErr
	}
	return p.remote, nil
}

func (p *fakeProvider) Subscribe(cb backend.SnapshotCallbacks) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribed++
	p.callbacks = cb
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.unsubscribed++
	}, nil
}

func (p *fakeProvider) ClearRemote(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remote = backend.Dataset{}
	return nil
}

// fakeDeltaProvider adds incremental push on top of fakeProvider. Deltas
// are applied to the remote dataset by id so a retry of the same delta
// converges to the same state.
type fakeDeltaProvider struct {
	*fakeProvider
	deltaErr   error
	deltaCalls int
}

func newFakeDeltaProvider() *fakeDeltaProvider {
	return &fakeDeltaProvider{fakeProvider: newFakeProvider()}
}

func (p *fakeDeltaProvider) DeltaSync(ctx context.Context, delta backend.Delta) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deltaCalls++
	if p.deltaErr != nil {
		return p.deltaErr
	}

	indexed := make(map[backend.Kind]map[string]backend.Entity)
	for _, kind := range backend.Kinds() {
		indexed[kind] = make(map[string]backend.Entity)
		for _, e := range p.remote.Entities(kind) {
			indexed[kind][e.EntityID()] = e
		}
	}
	for kind, ents := range delta.Upserts {
		for _, e := range ents {
			indexed[kind][e.EntityID()] = e
		}
	}
	for kind, ids := range delta.Deletes {
		for _, id := range ids {
			delete(indexed[kind], id)
		}
	}

	var remote backend.Dataset
	for _, kind := range backend.Kinds() {
		ids := make([]string, 0, len(indexed[kind]))
		for id := range indexed[kind] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			remote.Insert(indexed[kind][id])
		}
	}
	p.remote = remote
	return nil
}

func remoteHas(p *fakeProvider, kind backend.Kind, id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.remote.Entities(kind) {
		if e.EntityID() == id {
			return true
		}
	}
	return false
}
