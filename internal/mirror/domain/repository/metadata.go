package repository

import "context"

// Names of the sync metadata entries the session controller maintains.
const (
	MetaLastModified  = "lastModified"
	MetaSchemaVersion = "schemaVersion"
)

// SyncMetadata is a per-collection string key-value store, durable across
// invocations. Get returns "" when the name has never been set.
type SyncMetadata interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
}
