// Package mongodb provides the mongo-backed cache store backend. Entries of
// every mirrored collection share one mongo collection, discriminated by a
// collection field, so a single database holds the whole mirror.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/mirror/domain/repository"
)

const (
	recordsCollection  = "mirror_records"
	metadataCollection = "mirror_metadata"
)

// Store persists mirrored entries and sync metadata in mongodb.
type Store struct {
	records *mongo.Collection
	meta    *mongo.Collection
}

// NewStore creates a store on top of an existing database handle.
func NewStore(db *mongo.Database) *Store {
	return &Store{
		records: db.Collection(recordsCollection),
		meta:    db.Collection(metadataCollection),
	}
}

// EnsureIndexes creates the unique lookup indexes. Call once at startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.records.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "collection", Value: 1}, {Key: "local_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo cache indexes: %w", err)
	}
	_, err = s.meta.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "collection", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo metadata indexes: %w", err)
	}
	return nil
}

// Collection returns the record cache view of one collection.
func (s *Store) Collection(name string) repository.RecordCache {
	return &collectionCache{records: s.records, collection: name}
}

// Metadata returns the sync metadata view of one collection.
func (s *Store) Metadata(name string) repository.SyncMetadata {
	return &collectionMeta{meta: s.meta, collection: name}
}

type entryDocument struct {
	Collection string           `bson:"collection"`
	LocalKey   string           `bson:"local_key"`
	Entry      model.CacheEntry `bson:"entry"`
}

type collectionCache struct {
	records    *mongo.Collection
	collection string
}

func (c *collectionCache) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	var doc entryDocument
	err := c.records.FindOne(ctx, bson.M{"collection": c.collection, "local_key": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo cache get: %w", err)
	}
	return &doc.Entry, nil
}

func (c *collectionCache) Set(ctx context.Context, entry model.CacheEntry) error {
	doc := entryDocument{Collection: c.collection, LocalKey: entry.LocalKey, Entry: entry}
	_, err := c.records.ReplaceOne(ctx,
		bson.M{"collection": c.collection, "local_key": entry.LocalKey},
		doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo cache set: %w", err)
	}
	return nil
}

func (c *collectionCache) Delete(ctx context.Context, key string) error {
	_, err := c.records.DeleteOne(ctx, bson.M{"collection": c.collection, "local_key": key})
	if err != nil {
		return fmt.Errorf("mongo cache delete: %w", err)
	}
	return nil
}

func (c *collectionCache) Clear(ctx context.Context) error {
	_, err := c.records.DeleteMany(ctx, bson.M{"collection": c.collection})
	if err != nil {
		return fmt.Errorf("mongo cache clear: %w", err)
	}
	return nil
}

func (c *collectionCache) Values(ctx context.Context) ([]model.CacheEntry, error) {
	cursor, err := c.records.Find(ctx, bson.M{"collection": c.collection})
	if err != nil {
		return nil, fmt.Errorf("mongo cache values: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var out []model.CacheEntry
	for cursor.Next(ctx) {
		var doc entryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo cache entry is corrupt: %w", err)
		}
		out = append(out, doc.Entry)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo cache values: %w", err)
	}
	return out, nil
}

func (c *collectionCache) Keys(ctx context.Context) ([]string, error) {
	values, err := c.records.Distinct(ctx, "local_key", bson.M{"collection": c.collection})
	if err != nil {
		return nil, fmt.Errorf("mongo cache keys: %w", err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if key, ok := v.(string); ok {
			out = append(out, key)
		}
	}
	return out, nil
}

type metaDocument struct {
	Collection string `bson:"collection"`
	Name       string `bson:"name"`
	Value      string `bson:"value"`
}

type collectionMeta struct {
	meta       *mongo.Collection
	collection string
}

func (m *collectionMeta) Get(ctx context.Context, name string) (string, error) {
	var doc metaDocument
	err := m.meta.FindOne(ctx, bson.M{"collection": m.collection, "name": name}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("mongo metadata get: %w", err)
	}
	return doc.Value, nil
}

func (m *collectionMeta) Set(ctx context.Context, name, value string) error {
	_, err := m.meta.ReplaceOne(ctx,
		bson.M{"collection": m.collection, "name": name},
		metaDocument{Collection: m.collection, Name: name, Value: value},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo metadata set: %w", err)
	}
	return nil
}
