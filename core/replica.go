package core

import "context"

// Snapshot is the whole-record-set unit the encrypted remote replica stores.
// The replica is addressable-replaceable as a snapshot, not per record.
// Proofs and pending transactions are deliberately absent: they are live
// bearer secrets and never leave local storage.
type Snapshot struct {
	Keys     []*ApiKey        `json:"keys"`
	Invoices []*StoredInvoice `json:"invoices"`
}

func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return &Snapshot{}
	}

	out := &Snapshot{
		Keys:     make([]*ApiKey, len(s.Keys)),
		Invoices: make([]*StoredInvoice, len(s.Invoices)),
	}

	for i, k := range s.Keys {
		dup := *k
		if k.Balance != nil {
			b := *k.Balance
			dup.Balance = &b
		}
		out.Keys[i] = &dup
	}

	for i, inv := range s.Invoices {
		dup := *inv
		out.Invoices[i] = &dup
	}

	return out
}

// Equal is a field-wise deep comparison used to drop redundant writes and
// stale echoes.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return (s == nil || len(s.Keys)+len(s.Invoices) == 0) &&
			(other == nil || len(other.Keys)+len(other.Invoices) == 0)
	}

	if len(s.Keys) != len(other.Keys) || len(s.Invoices) != len(other.Invoices) {
		return false
	}

	for i, k := range s.Keys {
		if !k.Equal(other.Keys[i]) {
			return false
		}
	}

	for i, inv := range s.Invoices {
		if *inv != *other.Invoices[i] {
			return false
		}
	}

	return true
}

func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Keys)+len(s.Invoices) == 0
}

// ReplicaStore is the identity-gated encrypted remote record store.
type ReplicaStore interface {
	// Load fetches the current snapshot. An absent replica yields an empty
	// snapshot, not an error.
	Load(ctx context.Context) (*Snapshot, error)
	// Store replaces the remote snapshot as a whole.
	Store(ctx context.Context, snapshot *Snapshot) error
}
