package repository

import (
	"context"

	"pocketmirror/internal/mirror/domain/model"
)

// RecordCache is the host-owned local store for one collection's mirrored
// entries. The mirror core never assumes a particular backend, only these
// operations. Get returns (nil, nil) when the key is absent. Each collection
// owns a disjoint key space, so independent collections can sync
// concurrently without coordination.
type RecordCache interface {
	Get(ctx context.Context, key string) (*model.CacheEntry, error)
	Set(ctx context.Context, entry model.CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Values(ctx context.Context) ([]model.CacheEntry, error)
	Keys(ctx context.Context) ([]string, error)
}
