// Package config loads the mirror's configuration: environment variables for
// the daemon and its backends, a JSON file for the per-collection sync
// settings.
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/caarlos0/env/v6"

	"pocketmirror/internal/shared/errors"
)

// Store backends selectable through MIRROR_STORE.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

// MirrorConfig holds the daemon configuration.
type MirrorConfig struct {
	// BaseURL is the remote record store, e.g. "https://records.example.com".
	BaseURL string `env:"MIRROR_BASE_URL"`

	// Credentials. Either an impersonation token or an email/password pair;
	// both empty restricts the mirror to public collections and the local
	// schema file.
	Email              string `env:"MIRROR_EMAIL"`
	Password           string `env:"MIRROR_PASSWORD"`
	ImpersonationToken string `env:"MIRROR_TOKEN"`

	// SchemaFile is the local schema fallback, consulted when no elevated
	// credentials are configured.
	SchemaFile string `env:"MIRROR_SCHEMA_FILE"`

	// CollectionsFile is the JSON file listing the collections to mirror.
	CollectionsFile string `env:"MIRROR_COLLECTIONS_FILE" envDefault:"collections.json"`

	SyncInterval   time.Duration `env:"MIRROR_SYNC_INTERVAL" envDefault:"5m"`
	RequestTimeout time.Duration `env:"MIRROR_REQUEST_TIMEOUT" envDefault:"30s"`
	Realtime       bool          `env:"MIRROR_REALTIME" envDefault:"true"`
	HTTPAddr       string        `env:"MIRROR_HTTP_ADDR" envDefault:":8090"`

	// Store selects the cache backend: memory, redis or mongo.
	Store         string `env:"MIRROR_STORE" envDefault:"memory"`
	MongoURI      string `env:"MIRROR_MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MIRROR_MONGODB_DATABASE" envDefault:"pocketmirror"`

	Redis RedisConfig

	// Collections is loaded from CollectionsFile, not from the environment.
	Collections []CollectionConfig `env:"-"`
}

// CollectionConfig is the per-collection sync configuration.
type CollectionConfig struct {
	Name            string   `json:"name"`
	IDField         string   `json:"idField,omitempty"`
	ContentFields   []string `json:"contentFields,omitempty"`
	UpdatedField    string   `json:"updatedField,omitempty"`
	Filter          string   `json:"filter,omitempty"`
	Fields          []string `json:"fields,omitempty"`
	FieldsToInclude []string `json:"fieldsToInclude,omitempty"`
	ImproveTypes    bool     `json:"improveTypes,omitempty"`
}

// LoadConfig reads the environment and the collections file.
func LoadConfig() (*MirrorConfig, error) {
	cfg := &MirrorConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.NewConfigurationError("failed to load configuration from environment").WithCause(err)
	}
	if err := env.Parse(&cfg.Redis); err != nil {
		return nil, errors.NewConfigurationError("failed to load redis configuration from environment").WithCause(err)
	}

	if cfg.BaseURL == "" {
		return nil, errors.NewConfigurationError("MIRROR_BASE_URL is not set")
	}
	switch cfg.Store {
	case StoreMemory, StoreRedis, StoreMongo:
	default:
		return nil, errors.NewConfigurationError("MIRROR_STORE must be one of memory, redis, mongo")
	}

	collections, err := LoadCollections(cfg.CollectionsFile)
	if err != nil {
		return nil, err
	}
	cfg.Collections = collections

	return cfg, nil
}

// LoadCollections reads the per-collection settings file: a JSON array of
// collection configuration objects.
func LoadCollections(path string) ([]CollectionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigurationError("failed to read the collections file " + path).WithCause(err)
	}

	var collections []CollectionConfig
	if err := json.Unmarshal(data, &collections); err != nil {
		return nil, errors.NewConfigurationError("collections file " + path + " is not a JSON array").WithCause(err)
	}

	seen := make(map[string]struct{}, len(collections))
	for _, collection := range collections {
		if collection.Name == "" {
			return nil, errors.NewConfigurationError("collections file " + path + " contains an entry without a name")
		}
		if _, ok := seen[collection.Name]; ok {
			return nil, errors.NewConfigurationError("collection " + collection.Name + " is configured twice")
		}
		seen[collection.Name] = struct{}{}
	}
	return collections, nil
}

// CollectionNames returns the configured collection names in order.
func (c *MirrorConfig) CollectionNames() []string {
	names := make([]string, 0, len(c.Collections))
	for _, collection := range c.Collections {
		names = append(names, collection.Name)
	}
	return names
}

// Elevated reports whether any credential is configured.
func (c *MirrorConfig) Elevated() bool {
	return c.ImpersonationToken != "" || (c.Email != "" && c.Password != "")
}
