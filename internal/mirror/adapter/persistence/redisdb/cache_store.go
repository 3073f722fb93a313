// Package redisdb provides the redis-backed cache store backend. Each
// collection's entries live in one hash keyed by local key, metadata in a
// second hash, so collections can be cleared independently with a single
// DEL.
package redisdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/mirror/domain/repository"
)

// Store persists mirrored entries and sync metadata in redis.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore creates a store on top of an existing redis client. prefix
// namespaces every key; empty defaults to "mirror".
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "mirror"
	}
	return &Store{client: client, prefix: prefix}
}

// Collection returns the record cache view of one collection.
func (s *Store) Collection(name string) repository.RecordCache {
	return &collectionCache{
		client: s.client,
		key:    fmt.Sprintf("%s:%s:records", s.prefix, name),
	}
}

// Metadata returns the sync metadata view of one collection.
func (s *Store) Metadata(name string) repository.SyncMetadata {
	return &collectionMeta{
		client: s.client,
		key:    fmt.Sprintf("%s:%s:meta", s.prefix, name),
	}
}

type collectionCache struct {
	client *redis.Client
	key    string
}

func (c *collectionCache) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	raw, err := c.client.HGet(ctx, c.key, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis cache get: %w", err)
	}
	var entry model.CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("redis cache entry %q is corrupt: %w", key, err)
	}
	return &entry, nil
}

func (c *collectionCache) Set(ctx context.Context, entry model.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis cache encode: %w", err)
	}
	if err := c.client.HSet(ctx, c.key, entry.LocalKey, raw).Err(); err != nil {
		return fmt.Errorf("redis cache set: %w", err)
	}
	return nil
}

func (c *collectionCache) Delete(ctx context.Context, key string) error {
	if err := c.client.HDel(ctx, c.key, key).Err(); err != nil {
		return fmt.Errorf("redis cache delete: %w", err)
	}
	return nil
}

func (c *collectionCache) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis cache clear: %w", err)
	}
	return nil
}

func (c *collectionCache) Values(ctx context.Context) ([]model.CacheEntry, error) {
	raw, err := c.client.HVals(ctx, c.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis cache values: %w", err)
	}
	out := make([]model.CacheEntry, 0, len(raw))
	for _, item := range raw {
		var entry model.CacheEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("redis cache entry is corrupt: %w", err)
		}
		out = append(out, entry)
	}
	return out, nil
}

func (c *collectionCache) Keys(ctx context.Context) ([]string, error) {
	keys, err := c.client.HKeys(ctx, c.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis cache keys: %w", err)
	}
	return keys, nil
}

type collectionMeta struct {
	client *redis.Client
	key    string
}

func (m *collectionMeta) Get(ctx context.Context, name string) (string, error) {
	value, err := m.client.HGet(ctx, m.key, name).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis metadata get: %w", err)
	}
	return value, nil
}

func (m *collectionMeta) Set(ctx context.Context, name, value string) error {
	if err := m.client.HSet(ctx, m.key, name, value).Err(); err != nil {
		return fmt.Errorf("redis metadata set: %w", err)
	}
	return nil
}
