package replica

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/purselabs/purse/core"
)

// BlobStore is the identity-gated transport underneath the replica: one
// addressable blob per application, replaced as a whole.
type BlobStore interface {
	Get(ctx context.Context) (blob []byte, ok bool, err error)
	Put(ctx context.Context, blob []byte) error
}

// New returns a ReplicaStore that keeps the snapshot encrypted at rest with
// the identity layer's key.
func New(blobs BlobStore, key []byte) (core.ReplicaStore, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("replica key must be %d bytes, got %d", keySize, len(key))
	}

	return &store{blobs: blobs, key: key}, nil
}

type store struct {
	blobs BlobStore
	key   []byte
}

func (s *store) Load(ctx context.Context) (*core.Snapshot, error) {
	blob, ok, err := s.blobs.Get(ctx)
	if err != nil {
		return nil, err
	}

	if !ok || len(blob) == 0 {
		return &core.Snapshot{}, nil
	}

	plain, err := decrypt(s.key, blob)
	if err != nil {
		return nil, fmt.Errorf("decrypt replica: %w", err)
	}

	var snapshot core.Snapshot
	if err := json.Unmarshal(plain, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal replica: %w", err)
	}

	return &snapshot, nil
}

func (s *store) Store(ctx context.Context, snapshot *core.Snapshot) error {
	plain, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	blob, err := encrypt(s.key, plain)
	if err != nil {
		return err
	}

	return s.blobs.Put(ctx, blob)
}
