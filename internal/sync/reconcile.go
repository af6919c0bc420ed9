package sync

import (
	"context"
	"fmt"

	"habittrack/backend"
)

// ReconcileAction names the path the onboarding resolver chose.
type ReconcileAction string

const (
	ReconcilePush  ReconcileAction = "push"  // local uploaded, remote was empty
	ReconcilePull  ReconcileAction = "pull"  // remote downloaded, local was empty
	ReconcileMerge ReconcileAction = "merge" // union by id, remote precedence
	ReconcileNoop  ReconcileAction = "noop"  // both sides empty
)

// reconcile decides how to combine independently evolved local and remote
// datasets. It runs at most once per login, only when the user opts into
// enabling sync, to avoid surprising data loss.
//
// Decision table:
//
//	remote empty,  local data  -> push local to remote
//	remote data,   local empty -> pull remote, replacing local
//	remote data,   local data  -> merge: union by id with remote winning
//	                              collisions, replace local, push merged
//	remote empty,  local empty -> nothing to do
func reconcile(ctx context.Context, provider backend.SyncProvider, store LocalStore) (ReconcileAction, error) {
	// Historical remote records may lack ids or be duplicated; repair first
	// when the provider knows how.
	if repairer, ok := provider.(backend.Repairer); ok {
		if err := repairer.RepairCloudData(ctx); err != nil {
			return "", fmt.Errorf("cloud repair failed: %w", err)
		}
	}

	remote, err := provider.FullSyncDown(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to inspect remote dataset: %w", err)
	}

	hasLocal := !store.Empty()
	remoteEmpty := remote.Empty()

	switch {
	case remoteEmpty && hasLocal:
		if err := provider.FullSyncUp(ctx, store.Dataset()); err != nil {
			return "", fmt.Errorf("initial upload failed: %w", err)
		}
		return ReconcilePush, nil

	case !remoteEmpty && !hasLocal:
		if err := store.ReplaceAll(remote); err != nil {
			return "", fmt.Errorf("failed to adopt remote dataset: %w", err)
		}
		return ReconcilePull, nil

	case !remoteEmpty && hasLocal:
		merged := mergeDatasets(remote, store.Dataset())
		if err := store.ReplaceAll(merged); err != nil {
			return "", fmt.Errorf("failed to apply merged dataset: %w", err)
		}
		if err := pushDataset(ctx, provider, merged); err != nil {
			return "", fmt.Errorf("failed to upload merged dataset: %w", err)
		}
		return ReconcileMerge, nil

	default:
		// Both sides empty: no further network call.
		return ReconcileNoop, nil
	}
}

// mergeDatasets unions remote and local by id per kind. The union walks
// remote first, so on an id collision the remote record wins
// (first-seen-wins in a remote-then-local union).
func mergeDatasets(remote, local backend.Dataset) backend.Dataset {
	var merged backend.Dataset
	for _, kind := range backend.Kinds() {
		seen := make(map[string]bool)
		for _, e := range remote.Entities(kind) {
			if seen[e.EntityID()] {
				continue
			}
			seen[e.EntityID()] = true
			merged.Insert(e)
		}
		for _, e := range local.Entities(kind) {
			if seen[e.EntityID()] {
				continue
			}
			seen[e.EntityID()] = true
			merged.Insert(e)
		}
	}
	return merged
}

// pushDataset sends a full dataset upstream, preferring delta sync when the
// provider supports it.
func pushDataset(ctx context.Context, provider backend.SyncProvider, data backend.Dataset) error {
	if ds, ok := provider.(backend.DeltaSyncer); ok {
		delta := backend.Delta{
			Upserts: make(map[backend.Kind][]backend.Entity),
			Deletes: make(map[backend.Kind][]string),
		}
		for _, kind := range backend.Kinds() {
			if ents := data.Entities(kind); len(ents) > 0 {
				delta.Upserts[kind] = ents
			}
		}
		return ds.DeltaSync(ctx, delta)
	}
	return provider.FullSyncUp(ctx, data)
}
