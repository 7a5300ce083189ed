package core

import "context"

// PropertyStore is a small key -> JSON blob store for wallet-level flags and
// offsets (replica migration marker, poll bookkeeping). Get leaves value
// untouched when the key is absent.
type PropertyStore interface {
	Get(ctx context.Context, key string, value any) error
	Set(ctx context.Context, key string, value any) error
}
