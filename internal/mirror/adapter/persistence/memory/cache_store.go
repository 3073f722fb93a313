// Package memory provides the in-process cache store backend, the default
// when no external store is configured and the backend used by tests.
package memory

import (
	"context"
	"sync"

	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/mirror/domain/repository"
)

// Store holds the mirrored entries and sync metadata of every collection.
// Collections own disjoint key spaces. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]map[string]model.CacheEntry
	meta    map[string]map[string]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]map[string]model.CacheEntry),
		meta:    make(map[string]map[string]string),
	}
}

// Collection returns the record cache view of one collection.
func (s *Store) Collection(name string) repository.RecordCache {
	return &collectionCache{store: s, collection: name}
}

// Metadata returns the sync metadata view of one collection.
func (s *Store) Metadata(name string) repository.SyncMetadata {
	return &collectionMeta{store: s, collection: name}
}

type collectionCache struct {
	store      *Store
	collection string
}

func (c *collectionCache) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	if entry, ok := c.store.entries[c.collection][key]; ok {
		return &entry, nil
	}
	return nil, nil
}

func (c *collectionCache) Set(ctx context.Context, entry model.CacheEntry) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	bucket, ok := c.store.entries[c.collection]
	if !ok {
		bucket = make(map[string]model.CacheEntry)
		c.store.entries[c.collection] = bucket
	}
	bucket[entry.LocalKey] = entry
	return nil
}

func (c *collectionCache) Delete(ctx context.Context, key string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	delete(c.store.entries[c.collection], key)
	return nil
}

func (c *collectionCache) Clear(ctx context.Context) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	delete(c.store.entries, c.collection)
	return nil
}

func (c *collectionCache) Values(ctx context.Context) ([]model.CacheEntry, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	bucket := c.store.entries[c.collection]
	out := make([]model.CacheEntry, 0, len(bucket))
	for _, entry := range bucket {
		out = append(out, entry)
	}
	return out, nil
}

func (c *collectionCache) Keys(ctx context.Context) ([]string, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	bucket := c.store.entries[c.collection]
	out := make([]string, 0, len(bucket))
	for key := range bucket {
		out = append(out, key)
	}
	return out, nil
}

type collectionMeta struct {
	store      *Store
	collection string
}

func (m *collectionMeta) Get(ctx context.Context, name string) (string, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return m.store.meta[m.collection][name], nil
}

func (m *collectionMeta) Set(ctx context.Context, name, value string) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	bucket, ok := m.store.meta[m.collection]
	if !ok {
		bucket = make(map[string]string)
		m.store.meta[m.collection] = bucket
	}
	bucket[name] = value
	return nil
}
