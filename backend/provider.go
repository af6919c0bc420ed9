package backend

import "context"

// Credential carries what a provider needs to authenticate a user.
// Password doubles as an API token for token-based backends.
type Credential struct {
	Email    string
	Password string
}

// Session describes an authenticated remote session.
type Session struct {
	UserID string
	Email  string
}

// SnapshotCallbacks receives per-kind full snapshots from a provider's live
// change subscription. The provider delivers the current complete snapshot
// of a kind whenever anything in that kind changes remotely; it is not a
// per-record delta stream.
type SnapshotCallbacks struct {
	OnCategories func([]Category)
	OnHabits     func([]Habit)
	OnLogs       func([]HabitLog)
}

// SyncProvider is the contract every remote backend adapter implements.
// The sync engine never depends on backend specifics beyond this interface.
//
// Any operation may fail with a connectivity error (transient, retry later)
// or an authorization error (session invalid, force re-login); adapters
// report both through ProviderError so callers can classify. Operations may
// be called concurrently; adapters own the sequencing of their own internal
// network calls.
type SyncProvider interface {
	// Login authenticates and establishes a session.
	Login(ctx context.Context, cred Credential) (Session, error)

	// Logout tears down the session. Safe to call when not logged in.
	Logout(ctx context.Context) error

	// Online reports whether the backend is currently reachable.
	Online(ctx context.Context) bool

	// FullSyncUp replaces the remote dataset with exactly the given local
	// dataset: upload all, delete remote items not present locally.
	FullSyncUp(ctx context.Context, data Dataset) error

	// FullSyncDown returns the complete remote dataset.
	FullSyncDown(ctx context.Context) (Dataset, error)

	// Subscribe starts the live change subscription and returns a teardown
	// function. The teardown must be invoked on logout/disable.
	Subscribe(cb SnapshotCallbacks) (func(), error)

	// ClearRemote deletes everything remote belonging to the current account.
	ClearRemote(ctx context.Context) error
}

// Registrar is implemented by providers that support account creation.
type Registrar interface {
	Register(ctx context.Context, cred Credential) (Session, error)
}

// DeltaSyncer is implemented by providers that can apply an incremental
// delta remotely. Preferred over FullSyncUp when available. DeltaSync must
// be idempotent under retry.
type DeltaSyncer interface {
	DeltaSync(ctx context.Context, delta Delta) error
}

// Repairer is implemented by providers that can fix historical remote
// records: assign ids where missing and collapse duplicates by id, keeping
// the record with the greatest lastModified.
type Repairer interface {
	RepairCloudData(ctx context.Context) error
}
