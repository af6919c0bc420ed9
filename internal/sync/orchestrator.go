package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"habittrack/backend"
	"habittrack/internal/utils"
)

// State is the orchestrator's sync-related status.
type State string

const (
	StateDisabled               State = "disabled"
	StateEnabledUnauthenticated State = "enabled_unauthenticated"
	StateIdle                   State = "idle"
	StateSyncing                State = "syncing"
	StateError                  State = "error"
)

// LocalStore is the slice of the local store the orchestrator drives.
// *sqlite.Store satisfies it.
type LocalStore interface {
	Add(e backend.Entity) error
	Put(e backend.Entity) error
	Delete(kind backend.Kind, id string) error
	ClearAll() error
	ReplaceAll(data backend.Dataset) error
	ApplySnapshot(kind backend.Kind, entities []backend.Entity) error
	Dataset() backend.Dataset
	Empty() bool
	DeleteCategoryCascade(id string) (habitIDs []string, logIDs []string, err error)
	DeleteHabitCascade(id string) (logIDs []string, err error)
}

// Options configures an Orchestrator.
type Options struct {
	// Debounce is the auto-sync debounce delay; zero uses DefaultDebounce.
	Debounce time.Duration
	// AutoSync enables the debounced background push after local mutations.
	AutoSync bool
	// Logger defaults to the global logger.
	Logger *utils.Logger
}

// Orchestrator owns sync state and coordinates the local store, change
// queue, scheduler and provider. All sync-related mutable state (timers,
// subscription handles) lives on the instance so teardown is clean and
// tests are isolated.
type Orchestrator struct {
	store    LocalStore
	provider backend.SyncProvider
	queue    *ChangeQueue
	sched    *Scheduler
	logger   *utils.Logger
	autoSync bool

	mu          sync.Mutex
	state       State
	enabled     bool
	session     *backend.Session
	unsubscribe func()
	reconciled  bool // at most one reconciliation per login
	syncErr     error
	localErr    error
	lastPush    time.Time
}

// NewOrchestrator creates an orchestrator with an injected provider.
// The provider may be nil until sync is enabled and configured.
func NewOrchestrator(store LocalStore, provider backend.SyncProvider, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = utils.GetLogger()
	}

	o := &Orchestrator{
		store:    store,
		provider: provider,
		queue:    NewChangeQueue(),
		logger:   logger,
		autoSync: opts.AutoSync,
		state:    StateDisabled,
	}
	o.sched = NewScheduler(opts.Debounce, o.flushQueue)
	return o
}

// Queue exposes the change queue for status display.
func (o *Orchestrator) Queue() *ChangeQueue {
	return o.queue
}

// Start brings the orchestrator up: if sync is enabled and a session is
// already established it restarts the live-change subscription.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	enabled, session := o.enabled, o.session
	o.mu.Unlock()

	if enabled && session != nil {
		return o.startSubscription()
	}
	return nil
}

// Stop tears everything down: pending debounce timers and the live-change
// subscription. Safe to call multiple times.
func (o *Orchestrator) Stop() {
	o.sched.Stop()
	o.teardownSubscription()
}

// --- local mutations -----------------------------------------------------

// CreateCategory creates a category, persists it, and queues the upsert.
func (o *Orchestrator) CreateCategory(name string) (backend.Category, error) {
	name, err := utils.ValidateName(name)
	if err != nil {
		return backend.Category{}, err
	}
	c := backend.Category{ID: backend.NewID(), Name: name}
	if err := o.applyUpsert(c); err != nil {
		return backend.Category{}, err
	}
	return c, nil
}

// UpdateCategory replaces a category record in full.
func (o *Orchestrator) UpdateCategory(c backend.Category) error {
	name, err := utils.ValidateName(c.Name)
	if err != nil {
		return err
	}
	c.Name = name
	return o.applyUpsert(c)
}

// DeleteCategory deletes a category with its habits and logs in one atomic
// cascade. Every removed dependent is queued as a remote delete so replicas
// converge.
func (o *Orchestrator) DeleteCategory(id string) error {
	habitIDs, logIDs, err := o.store.DeleteCategoryCascade(id)
	if err != nil {
		o.setLocalErr(err)
		return err
	}
	for _, lid := range logIDs {
		o.queue.EnqueueDelete(backend.KindHabitLogs, lid)
	}
	for _, hid := range habitIDs {
		o.queue.EnqueueDelete(backend.KindHabits, hid)
	}
	o.queue.EnqueueDelete(backend.KindCategories, id)
	o.mutated()
	return nil
}

// CreateHabit creates a habit under a category.
func (o *Orchestrator) CreateHabit(categoryID, name, reminderTime string) (backend.Habit, error) {
	name, err := utils.ValidateName(name)
	if err != nil {
		return backend.Habit{}, err
	}
	if reminderTime != "" {
		if err := utils.ValidateReminderTime(reminderTime); err != nil {
			return backend.Habit{}, err
		}
	}
	h := backend.Habit{ID: backend.NewID(), CategoryID: categoryID, Name: name, ReminderTime: reminderTime}
	if err := o.applyUpsert(h); err != nil {
		return backend.Habit{}, err
	}
	return h, nil
}

// UpdateHabit replaces a habit record in full.
func (o *Orchestrator) UpdateHabit(h backend.Habit) error {
	name, err := utils.ValidateName(h.Name)
	if err != nil {
		return err
	}
	if h.ReminderTime != "" {
		if err := utils.ValidateReminderTime(h.ReminderTime); err != nil {
			return err
		}
	}
	h.Name = name
	return o.applyUpsert(h)
}

// DeleteHabit deletes a habit and its logs atomically, queueing remote
// deletes for each.
func (o *Orchestrator) DeleteHabit(id string) error {
	logIDs, err := o.store.DeleteHabitCascade(id)
	if err != nil {
		o.setLocalErr(err)
		return err
	}
	for _, lid := range logIDs {
		o.queue.EnqueueDelete(backend.KindHabitLogs, lid)
	}
	o.queue.EnqueueDelete(backend.KindHabits, id)
	o.mutated()
	return nil
}

// CheckIn records a habit log. A non-nil originalDate marks a makeup entry
// for a past date rather than a same-day check-in.
func (o *Orchestrator) CheckIn(habitID, note string, at time.Time, originalDate *time.Time) (backend.HabitLog, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	l := backend.HabitLog{
		ID:        backend.NewID(),
		HabitID:   habitID,
		Timestamp: at,
		Note:      note,
	}
	if originalDate != nil {
		l.IsMakeup = true
		l.OriginalDate = originalDate
	}
	if err := o.applyUpsert(l); err != nil {
		return backend.HabitLog{}, err
	}
	return l, nil
}

// UpdateLog replaces a habit log record in full.
func (o *Orchestrator) UpdateLog(l backend.HabitLog) error {
	return o.applyUpsert(l)
}

// DeleteLog removes a single check-in.
func (o *Orchestrator) DeleteLog(id string) error {
	if err := o.store.Delete(backend.KindHabitLogs, id); err != nil {
		o.setLocalErr(err)
		return err
	}
	o.queue.EnqueueDelete(backend.KindHabitLogs, id)
	o.mutated()
	return nil
}

// WipeLocal destroys the entire local dataset and drops queued changes.
func (o *Orchestrator) WipeLocal() error {
	if err := o.store.ClearAll(); err != nil {
		o.setLocalErr(err)
		return err
	}
	o.queue.Clear()
	return nil
}

// ImportDataset loads an exported dataset. In replace mode the current
// local dataset is dropped first; in merge mode imported records upsert
// over existing ones. Every imported record is queued so the next push
// propagates it.
func (o *Orchestrator) ImportDataset(ds backend.Dataset, replace bool) error {
	if replace {
		if err := o.store.ReplaceAll(ds); err != nil {
			o.setLocalErr(err)
			return err
		}
	} else {
		for _, kind := range backend.Kinds() {
			for _, e := range ds.Entities(kind) {
				if err := o.store.Put(e); err != nil {
					o.setLocalErr(err)
					return err
				}
			}
		}
	}
	for _, kind := range backend.Kinds() {
		for _, e := range ds.Entities(kind) {
			o.queue.EnqueueUpsert(e)
		}
	}
	o.mutated()
	return nil
}

// applyUpsert is the single mutation path: durable write first, then queue
// and debounce. A failed durable write leaves both mirror and queue
// untouched so the UI never shows unpersisted data.
func (o *Orchestrator) applyUpsert(e backend.Entity) error {
	if err := o.store.Put(e); err != nil {
		o.setLocalErr(err)
		return err
	}
	o.queue.EnqueueUpsert(e)
	o.mutated()
	return nil
}

func (o *Orchestrator) mutated() {
	o.mu.Lock()
	o.localErr = nil
	o.mu.Unlock()
	if o.autoSync {
		o.sched.NotifyMutation()
	}
}

func (o *Orchestrator) setLocalErr(err error) {
	o.mu.Lock()
	o.localErr = err
	o.mu.Unlock()
}

// --- sync lifecycle ------------------------------------------------------

// EnableSync turns the sync subsystem on. Without a session the state is
// EnabledUnauthenticated; with one, Idle.
func (o *Orchestrator) EnableSync() {
	o.mu.Lock()
	o.enabled = true
	if o.session != nil {
		o.state = StateIdle
	} else {
		o.state = StateEnabledUnauthenticated
	}
	o.mu.Unlock()
	o.sched.Resume()
}

// DisableSync tears down the subscription, discards in-flight timers and
// returns to Disabled. The local store is untouched.
func (o *Orchestrator) DisableSync() {
	o.sched.Stop()
	o.teardownSubscription()
	o.mu.Lock()
	o.enabled = false
	o.state = StateDisabled
	o.mu.Unlock()
}

// Login authenticates against the provider. On success the orchestrator
// moves to Idle and starts the live-change subscription.
func (o *Orchestrator) Login(ctx context.Context, cred backend.Credential) (backend.Session, error) {
	if o.provider == nil {
		return backend.Session{}, fmt.Errorf("no sync provider configured")
	}
	session, err := o.provider.Login(ctx, cred)
	if err != nil {
		return backend.Session{}, err
	}

	o.mu.Lock()
	o.session = &session
	o.reconciled = false
	o.syncErr = nil
	if o.enabled {
		o.state = StateIdle
	}
	o.mu.Unlock()

	o.sched.Resume()
	if err := o.startSubscription(); err != nil {
		o.logger.Warn("live change subscription failed: %v", err)
	}
	return session, nil
}

// Register creates an account when the provider supports it, then behaves
// like Login.
func (o *Orchestrator) Register(ctx context.Context, cred backend.Credential) (backend.Session, error) {
	registrar, ok := o.provider.(backend.Registrar)
	if !ok {
		return backend.Session{}, fmt.Errorf("provider does not support registration")
	}
	session, err := registrar.Register(ctx, cred)
	if err != nil {
		return backend.Session{}, err
	}

	o.mu.Lock()
	o.session = &session
	o.reconciled = false
	o.syncErr = nil
	if o.enabled {
		o.state = StateIdle
	}
	o.mu.Unlock()

	o.sched.Resume()
	if err := o.startSubscription(); err != nil {
		o.logger.Warn("live change subscription failed: %v", err)
	}
	return session, nil
}

// RestoreSession installs a previously persisted session without a network
// round trip. Reconciliation is not re-armed; it runs at most once per
// login event, and restoring is not a login event.
func (o *Orchestrator) RestoreSession(session backend.Session) {
	o.mu.Lock()
	o.session = &session
	o.reconciled = true
	if o.enabled {
		o.state = StateIdle
	}
	o.mu.Unlock()
	o.sched.Resume()
}

// Logout ends the session, tears down the subscription, and discards any
// in-flight debounce timer. Queued changes stay queued.
func (o *Orchestrator) Logout(ctx context.Context) error {
	o.sched.Stop()
	o.teardownSubscription()

	var err error
	if o.provider != nil {
		err = o.provider.Logout(ctx)
	}

	o.mu.Lock()
	o.session = nil
	o.reconciled = false
	if o.enabled {
		o.state = StateEnabledUnauthenticated
	} else {
		o.state = StateDisabled
	}
	o.mu.Unlock()
	return err
}

// Reconcile runs the onboarding resolver. It is user-triggered and runs at
// most once per login event.
func (o *Orchestrator) Reconcile(ctx context.Context) (ReconcileAction, error) {
	o.mu.Lock()
	if o.reconciled {
		o.mu.Unlock()
		return ReconcileNoop, fmt.Errorf("reconciliation already ran for this login")
	}
	o.mu.Unlock()

	if err := o.beginAttempt(); err != nil {
		return "", err
	}
	action, err := reconcile(ctx, o.provider, o.store)
	o.finishAttempt(err)
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	o.reconciled = true
	if action != ReconcileNoop {
		o.lastPush = time.Now()
	}
	o.mu.Unlock()
	o.queue.Clear()
	o.logger.Info("reconciliation complete: %s", action)
	return action, nil
}

// SyncNow performs a manual full-state push: the complete local dataset
// replaces the remote one. This is the fallback that recovers deltas lost
// to a restart, since the change queue is not durable.
func (o *Orchestrator) SyncNow(ctx context.Context) error {
	if err := o.beginAttempt(); err != nil {
		return err
	}
	err := o.provider.FullSyncUp(ctx, o.store.Dataset())
	o.finishAttempt(err)
	if err != nil {
		return err
	}
	o.queue.Clear()
	o.recordPush()
	return nil
}

// PullNow replaces the entire local dataset with the remote one. Queued
// local changes are discarded by definition.
func (o *Orchestrator) PullNow(ctx context.Context) error {
	if err := o.beginAttempt(); err != nil {
		return err
	}
	remote, err := o.provider.FullSyncDown(ctx)
	if err == nil {
		err = o.store.ReplaceAll(remote)
	}
	o.finishAttempt(err)
	if err != nil {
		return err
	}
	o.queue.Clear()
	return nil
}

// WipeRemote deletes everything remote belonging to the current account.
func (o *Orchestrator) WipeRemote(ctx context.Context) error {
	if err := o.beginAttempt(); err != nil {
		return err
	}
	err := o.provider.ClearRemote(ctx)
	o.finishAttempt(err)
	return err
}

// Repair runs the provider's cloud maintenance repair when supported.
func (o *Orchestrator) Repair(ctx context.Context) error {
	repairer, ok := o.provider.(backend.Repairer)
	if !ok {
		return fmt.Errorf("provider does not support cloud repair")
	}
	if err := o.beginAttempt(); err != nil {
		return err
	}
	err := repairer.RepairCloudData(ctx)
	o.finishAttempt(err)
	return err
}

// flushQueue is the scheduler's debounced push. Gating conditions are
// re-checked at fire time; when any fails the queue is simply left intact
// for the next mutation-triggered attempt.
func (o *Orchestrator) flushQueue() {
	o.mu.Lock()
	gated := !o.enabled || o.session == nil
	o.mu.Unlock()
	if gated {
		return
	}

	ctx := context.Background()
	if !o.provider.Online(ctx) {
		o.logger.Debug("skipping auto-sync: offline")
		return
	}

	delta := o.queue.BuildDelta()
	if delta.Empty() {
		return
	}

	o.mu.Lock()
	o.state = StateSyncing
	o.syncErr = nil
	o.mu.Unlock()

	var err error
	if ds, ok := o.provider.(backend.DeltaSyncer); ok {
		err = ds.DeltaSync(ctx, delta)
	} else {
		err = o.provider.FullSyncUp(ctx, o.store.Dataset())
	}

	if err != nil {
		// Queue kept intact; retry rides the next mutation or manual sync.
		o.mu.Lock()
		o.state = StateError
		o.syncErr = err
		o.mu.Unlock()
		o.logger.Warn("auto-sync push failed: %v", err)
		return
	}

	o.queue.Clear()
	o.recordPush()
	o.mu.Lock()
	o.state = StateIdle
	o.mu.Unlock()
	o.logger.Debug("auto-sync pushed %d changes", delta.Count())
}

// FlushPending cancels any pending debounce timer and pushes queued
// changes synchronously. Called on process shutdown so the in-memory queue
// does not silently vanish. No-op when the queue is empty or sync is
// unavailable; flushQueue re-checks the gating conditions itself.
func (o *Orchestrator) FlushPending() {
	o.sched.Stop()
	if o.queue.Empty() {
		return
	}
	o.flushQueue()
}

func (o *Orchestrator) beginAttempt() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.enabled {
		return utils.ErrSyncNotEnabled()
	}
	if o.session == nil {
		return utils.ErrNotLoggedIn()
	}
	if o.provider == nil {
		return fmt.Errorf("no sync provider configured")
	}
	o.state = StateSyncing
	o.syncErr = nil
	return nil
}

func (o *Orchestrator) finishAttempt(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.state = StateError
		o.syncErr = err
		return
	}
	o.state = StateIdle
}

func (o *Orchestrator) recordPush() {
	o.mu.Lock()
	o.lastPush = time.Now()
	o.mu.Unlock()
}

// --- subscription --------------------------------------------------------

// startSubscription begins receiving per-kind remote snapshots. Each
// snapshot is applied whole: upsert everything it contains and replace the
// kind's mirror with the deduplicated snapshot. Whole-record last-writer-
// wins, so a concurrent unpushed local edit to the same id is overwritten.
func (o *Orchestrator) startSubscription() error {
	o.teardownSubscription()

	unsubscribe, err := o.provider.Subscribe(backend.SnapshotCallbacks{
		OnCategories: func(cs []backend.Category) {
			ents := make([]backend.Entity, len(cs))
			for i, c := range cs {
				ents[i] = c
			}
			o.applyRemoteSnapshot(backend.KindCategories, ents)
		},
		OnHabits: func(hs []backend.Habit) {
			ents := make([]backend.Entity, len(hs))
			for i, h := range hs {
				ents[i] = h
			}
			o.applyRemoteSnapshot(backend.KindHabits, ents)
		},
		OnLogs: func(ls []backend.HabitLog) {
			ents := make([]backend.Entity, len(ls))
			for i, l := range ls {
				ents[i] = l
			}
			o.applyRemoteSnapshot(backend.KindHabitLogs, ents)
		},
	})
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.unsubscribe = unsubscribe
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) teardownSubscription() {
	o.mu.Lock()
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	o.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (o *Orchestrator) applyRemoteSnapshot(kind backend.Kind, entities []backend.Entity) {
	if err := o.store.ApplySnapshot(kind, entities); err != nil {
		o.setLocalErr(err)
		o.logger.Error("failed to apply remote %s snapshot: %v", kind, err)
		return
	}
	o.logger.Debug("applied remote snapshot: %d %s", len(entities), kind)
}

// --- status --------------------------------------------------------------

// Status is a point-in-time snapshot of the orchestrator's state.
type Status struct {
	State         State
	Enabled       bool
	Authenticated bool
	Email         string
	Pending       int
	LastPush      time.Time
	SyncError     string
	LocalError    string
}

// Status reports the current sync status.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := Status{
		State:    o.state,
		Enabled:  o.enabled,
		Pending:  o.queue.Len(),
		LastPush: o.lastPush,
	}
	if o.session != nil {
		st.Authenticated = true
		st.Email = o.session.Email
	}
	if o.syncErr != nil {
		st.SyncError = o.syncErr.Error()
	}
	if o.localErr != nil {
		st.LocalError = o.localErr.Error()
	}
	return st
}
