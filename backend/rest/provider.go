package rest

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"habittrack/backend"
	"habittrack/internal/utils"
)

// defaultPollInterval is used when the config does not set one
const defaultPollInterval = 30 * time.Second

func init() {
	backend.RegisterType("rest", func(config backend.ProviderConfig) (backend.SyncProvider, error) {
		return NewProvider(config)
	})
}

// Provider adapts a habittrack sync server to the SyncProvider contract.
// The live subscription is implemented by polling the snapshot endpoint
// and delivering per-kind snapshots when a kind's content changes.
type Provider struct {
	client       *APIClient
	pollInterval time.Duration
	logger       *utils.Logger

	mu      sync.Mutex
	session *backend.Session
	stop    chan struct{}
}

// NewProvider creates a REST provider from its configuration
func NewProvider(config backend.ProviderConfig) (*Provider, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("rest provider %q requires a url", config.Name)
	}

	client := NewAPIClient(config.URL)
	if config.InsecureSkipVerify {
		client.httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	interval := defaultPollInterval
	if config.PollInterval > 0 {
		interval = time.Duration(config.PollInterval) * time.Second
	}

	return &Provider{
		client:       client,
		pollInterval: interval,
		logger:       utils.GetLogger(),
	}, nil
}

// Login authenticates against the sync server
func (p *Provider) Login(ctx context.Context, cred backend.Credential) (backend.Session, error) {
	resp, err := p.client.Login(ctx, cred.Email, cred.Password)
	if err != nil {
		return backend.Session{}, err
	}

	session := backend.Session{UserID: resp.UserID, Email: resp.Email}
	p.client.SetToken(resp.Token)

	p.mu.Lock()
	p.session = &session
	p.mu.Unlock()

	p.logger.Info("Logged in to sync server as %s", session.Email)
	return session, nil
}

// Register creates an account and logs in
func (p *Provider) Register(ctx context.Context, cred backend.Credential) (backend.Session, error) {
	resp, err := p.client.Register(ctx, cred.Email, cred.Password)
	if err != nil {
		return backend.Session{}, err
	}

	session := backend.Session{UserID: resp.UserID, Email: resp.Email}
	p.client.SetToken(resp.Token)

	p.mu.Lock()
	p.session = &session
	p.mu.Unlock()

	return session, nil
}

// Logout invalidates the session. Server-side failures are ignored so the
// local session always gets cleared.
func (p *Provider) Logout(ctx context.Context) error {
	if p.client.Token() != "" {
		if err := p.client.Logout(ctx); err != nil {
			p.logger.Warn("Server logout failed: %v", err)
		}
	}

	p.client.SetToken("")
	p.mu.Lock()
	p.session = nil
	p.mu.Unlock()
	return nil
}

// Online reports whether the sync server is reachable
func (p *Provider) Online(ctx context.Context) bool {
	return p.client.Ping(ctx)
}

// FullSyncUp replaces the remote dataset with the local one
func (p *Provider) FullSyncUp(ctx context.Context, data backend.Dataset) error {
	return p.client.PutSnapshot(ctx, datasetToSnapshot(data, time.Now().Unix()))
}

// FullSyncDown downloads the complete remote dataset
func (p *Provider) FullSyncDown(ctx context.Context) (backend.Dataset, error) {
	snapshot, err := p.client.GetSnapshot(ctx)
	if err != nil {
		return backend.Dataset{}, err
	}
	return snapshotToDataset(snapshot), nil
}

// DeltaSync applies an incremental change set remotely. The server applies
// upserts and deletes by id, so retrying the same delta is harmless.
func (p *Provider) DeltaSync(ctx context.Context, delta backend.Delta) error {
	if delta.Empty() {
		return nil
	}
	return p.client.PostDelta(ctx, deltaToPayload(delta, time.Now().Unix()))
}

// Subscribe starts snapshot polling and returns the teardown function.
// Each poll compares per-kind fingerprints against the previous poll and
// delivers a kind's snapshot only when it changed. The first poll sets the
// baseline without delivering; reconciliation already covers initial state.
func (p *Provider) Subscribe(cb backend.SnapshotCallbacks) (func(), error) {
	p.mu.Lock()
	if p.stop != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("subscription already active")
	}
	stop := make(chan struct{})
	p.stop = stop
	p.mu.Unlock()

	go p.pollLoop(stop, cb)

	unsubscribe := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.stop != nil {
			close(p.stop)
			p.stop = nil
		}
	}
	return unsubscribe, nil
}

func (p *Provider) pollLoop(stop chan struct{}, cb backend.SnapshotCallbacks) {
	var prev [3]uint64
	primed := false

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	poll := func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		snapshot, err := p.client.GetSnapshot(ctx)
		if err != nil {
			p.logger.Debug("Snapshot poll failed: %v", err)
			return
		}

		cur := [3]uint64{
			fingerprint(snapshot.Categories),
			fingerprint(snapshot.Habits),
			fingerprint(snapshot.Logs),
		}

		if primed {
			if cur[0] != prev[0] && cb.OnCategories != nil {
				ds := snapshotToDataset(snapshot)
				cb.OnCategories(ds.Categories)
			}
			if cur[1] != prev[1] && cb.OnHabits != nil {
				ds := snapshotToDataset(snapshot)
				cb.OnHabits(ds.Habits)
			}
			if cur[2] != prev[2] && cb.OnLogs != nil {
				ds := snapshotToDataset(snapshot)
				cb.OnLogs(ds.Logs)
			}
		}
		prev = cur
		primed = true
	}

	poll()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			poll()
		}
	}
}

// fingerprint hashes the wire form of a record slice for change detection
func fingerprint(records interface{}) uint64 {
	data, err := json.Marshal(records)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}

// ClearRemote wipes everything belonging to the current account
func (p *Provider) ClearRemote(ctx context.Context) error {
	return p.client.DeleteAll(ctx)
}

// RepairCloudData fixes historical remote records: assigns ids where
// missing and collapses duplicate ids, keeping the record with the
// greatest lastModified. The repaired snapshot replaces the remote one.
func (p *Provider) RepairCloudData(ctx context.Context) error {
	snapshot, err := p.client.GetSnapshot(ctx)
	if err != nil {
		return err
	}

	repaired := snapshotPayload{
		Categories: repairCategories(snapshot.Categories),
		Habits:     repairHabits(snapshot.Habits),
		Logs:       repairLogs(snapshot.Logs),
	}

	fixed := len(snapshot.Categories) - len(repaired.Categories) +
		len(snapshot.Habits) - len(repaired.Habits) +
		len(snapshot.Logs) - len(repaired.Logs)
	p.logger.Info("Cloud repair collapsed %d duplicate records", fixed)

	return p.client.PutSnapshot(ctx, repaired)
}

func repairCategories(records []categoryRecord) []categoryRecord {
	out := make([]categoryRecord, 0, len(records))
	index := make(map[string]int)
	for _, r := range records {
		if r.ID == "" {
			r.ID = backend.NewID()
		}
		if i, ok := index[r.ID]; ok {
			if r.LastModified > out[i].LastModified {
				out[i] = r
			}
			continue
		}
		index[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}

func repairHabits(records []habitRecord) []habitRecord {
	out := make([]habitRecord, 0, len(records))
	index := make(map[string]int)
	for _, r := range records {
		if r.ID == "" {
			r.ID = backend.NewID()
		}
		if i, ok := index[r.ID]; ok {
			if r.LastModified > out[i].LastModified {
				out[i] = r
			}
			continue
		}
		index[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}

func repairLogs(records []logRecord) []logRecord {
	out := make([]logRecord, 0, len(records))
	index := make(map[string]int)
	for _, r := range records {
		if r.ID == "" {
			r.ID = backend.NewID()
		}
		if i, ok := index[r.ID]; ok {
			if r.LastModified > out[i].LastModified {
				out[i] = r
			}
			continue
		}
		index[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}

// RestoreSession reinstalls a persisted token and session so a new process
// can resume an earlier login without re-authenticating.
func (p *Provider) RestoreSession(token string, session backend.Session) {
	p.client.SetToken(token)
	p.mu.Lock()
	p.session = &session
	p.mu.Unlock()
}

// Token exposes the current session token for persistence
func (p *Provider) Token() string {
	return p.client.Token()
}

// Session returns the current session, nil when logged out
func (p *Provider) Session() *backend.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}
