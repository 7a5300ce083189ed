package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/purselabs/purse/core"
)

const propertyMigrated = "replica_migrated"

func New(
	localKeys core.KeyStore,
	localInvoices core.InvoiceStore,
	properties core.PropertyStore,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		localKeys:     localKeys,
		localInvoices: localInvoices,
		properties:    properties,
		logger:        logger.With("component", "reconciler"),
	}
}

// Reconciler routes credential and invoice persistence between the local
// store and the optional encrypted remote replica. While remote mode is
// enabled it holds the authoritative in-memory snapshot and writes the
// replica as a whole on every mutation.
//
// Proofs and pending transactions never pass through here: they are live
// bearer secrets and stay local-only.
type Reconciler struct {
	localKeys     core.KeyStore
	localInvoices core.InvoiceStore
	properties    core.PropertyStore
	logger        *slog.Logger

	mu       sync.Mutex
	replica  core.ReplicaStore
	snapshot *core.Snapshot
}

// EnableRemote switches persistence to the replica. The first time remote
// mode is enabled against an empty replica while local records exist, the
// local records migrate to the replica exactly once; a property flag tracks
// completion explicitly instead of inferring it from "local is now empty".
// Success is reported only after the remote write is confirmed.
func (r *Reconciler) EnableRemote(ctx context.Context, replica core.ReplicaStore) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	remote, err := replica.Load(ctx)
	if err != nil {
		return fmt.Errorf("load replica: %w", err)
	}

	if !remote.Empty() {
		r.replica = replica
		r.snapshot = remote
		r.logger.Info("remote mode enabled", "keys", len(remote.Keys), "invoices", len(remote.Invoices))
		return nil
	}

	var migrated bool
	if err := r.properties.Get(ctx, propertyMigrated, &migrated); err != nil {
		return err
	}

	snapshot := &core.Snapshot{}
	if !migrated {
		local, err := r.loadLocal(ctx)
		if err != nil {
			return err
		}

		if !local.Empty() {
			if err := replica.Store(ctx, local); err != nil {
				return fmt.Errorf("migrate to replica: %w", err)
			}

			if err := r.clearLocal(ctx, local); err != nil {
				return err
			}

			snapshot = local
			r.logger.Info("migrated local records to replica", "keys", len(local.Keys), "invoices", len(local.Invoices))
		}

		if err := r.properties.Set(ctx, propertyMigrated, true); err != nil {
			return err
		}
	}

	r.replica = replica
	r.snapshot = snapshot
	return nil
}

// DisableRemote degrades persistence to local-only. Neither backend's data
// is deleted by toggling modes.
func (r *Reconciler) DisableRemote() {
	r.mu.Lock()
	r.replica = nil
	r.snapshot = nil
	r.mu.Unlock()
}

// RemoteEnabled reports whether the replica currently backs persistence.
func (r *Reconciler) RemoteEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replica != nil
}

// ApplyRemote folds an incoming remote push into the authoritative
// snapshot. A push that deep-equals the current snapshot is a stale echo of
// our own write and is dropped, so it cannot clobber a concurrent local
// edit or trigger a redundant write.
func (r *Reconciler) ApplyRemote(ctx context.Context, incoming *core.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.replica == nil {
		return nil
	}

	if incoming.Equal(r.snapshot) {
		r.logger.Debug("remote push identical to snapshot, skipping")
		return nil
	}

	r.snapshot = incoming.Clone()
	r.logger.Info("adopted remote snapshot", "keys", len(r.snapshot.Keys), "invoices", len(r.snapshot.Invoices))
	return nil
}

func (r *Reconciler) loadLocal(ctx context.Context) (*core.Snapshot, error) {
	keys, err := r.localKeys.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	invoices, err := r.localInvoices.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}

	return &core.Snapshot{Keys: keys, Invoices: invoices}, nil
}

func (r *Reconciler) clearLocal(ctx context.Context, migrated *core.Snapshot) error {
	for _, key := range migrated.Keys {
		if err := r.localKeys.DeleteKey(ctx, key.Key); err != nil {
			return err
		}
	}

	for _, invoice := range migrated.Invoices {
		if err := r.localInvoices.DeleteInvoice(ctx, invoice.ID); err != nil {
			return err
		}
	}

	return nil
}

// push writes the current snapshot to the replica. Callers hold r.mu.
func (r *Reconciler) push(ctx context.Context) error {
	return r.replica.Store(ctx, r.snapshot)
}
