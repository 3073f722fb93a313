package remote

import (
	"encoding/json"
	"os"

	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/shared/errors"
)

// SchemaFile is a local snapshot of collection schemas, used when no
// elevated credentials are configured and the remote schema endpoint is
// therefore unreachable. The file holds a JSON array of collection schema
// objects.
type SchemaFile struct {
	schemas map[string]model.CollectionSchema
}

// LoadSchemaFile reads and indexes a schema file by collection name.
func LoadSchemaFile(path string) (*SchemaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigurationError("failed to read the schema file " + path).WithCause(err)
	}

	var schemas []model.CollectionSchema
	if err := json.Unmarshal(data, &schemas); err != nil {
		return nil, errors.NewConfigurationError("schema file " + path + " is not a JSON array of collection schemas").WithCause(err)
	}

	indexed := make(map[string]model.CollectionSchema, len(schemas))
	for _, schema := range schemas {
		indexed[schema.Name] = schema
	}
	return &SchemaFile{schemas: indexed}, nil
}

// Collection returns the named collection's schema or a not found error.
func (f *SchemaFile) Collection(name string) (*model.CollectionSchema, error) {
	schema, ok := f.schemas[name]
	if !ok {
		return nil, errors.NewNotFoundError("collection " + name + " in the schema file")
	}
	return &schema, nil
}
