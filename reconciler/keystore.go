package reconciler

import (
	"context"
	"database/sql"

	"github.com/purselabs/purse/core"
)

// SaveKey upserts a credential. In remote mode the whole snapshot is
// rewritten; writes that change nothing are dropped before touching the
// replica.
func (r *Reconciler) SaveKey(ctx context.Context, key *core.ApiKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.replica == nil {
		return r.localKeys.SaveKey(ctx, key)
	}

	for i, existing := range r.snapshot.Keys {
		if existing.Key != key.Key {
			continue
		}

		if existing.Equal(key) {
			return nil
		}

		next := r.snapshot.Clone()
		next.Keys[i] = cloneKey(key)
		return r.swap(ctx, next)
	}

	next := r.snapshot.Clone()
	next.Keys = append(next.Keys, cloneKey(key))
	return r.swap(ctx, next)
}

func (r *Reconciler) DeleteKey(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.replica == nil {
		return r.localKeys.DeleteKey(ctx, key)
	}

	next := r.snapshot.Clone()
	for i, existing := range next.Keys {
		if existing.Key == key {
			next.Keys = append(next.Keys[:i], next.Keys[i+1:]...)
			return r.swap(ctx, next)
		}
	}

	return nil
}

func (r *Reconciler) FindKey(ctx context.Context, key string) (*core.ApiKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.replica == nil {
		return r.localKeys.FindKey(ctx, key)
	}

	for _, existing := range r.snapshot.Keys {
		if existing.Key == key {
			return cloneKey(existing), nil
		}
	}

	return nil, sql.ErrNoRows
}

func (r *Reconciler) ListKeys(ctx context.Context) ([]*core.ApiKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.replica == nil {
		return r.localKeys.ListKeys(ctx)
	}

	keys := make([]*core.ApiKey, len(r.snapshot.Keys))
	for i, key := range r.snapshot.Keys {
		keys[i] = cloneKey(key)
	}

	return keys, nil
}

// swap commits a modified snapshot: the replica write must succeed before
// the in-memory authoritative copy moves forward.
func (r *Reconciler) swap(ctx context.Context, next *core.Snapshot) error {
	prev := r.snapshot
	r.snapshot = next
	if err := r.push(ctx); err != nil {
		r.snapshot = prev
		return err
	}

	return nil
}

func cloneKey(key *core.ApiKey) *core.ApiKey {
	dup := *key
	if key.Balance != nil {
		b := *key.Balance
		dup.Balance = &b
	}

	return &dup
}
