// Package di wires the mirror's components: the cache store backend, the
// remote client, the sync usecases and the optional realtime listener.
package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mirrorhttp "pocketmirror/internal/mirror/adapter/http"
	"pocketmirror/internal/mirror/adapter/persistence/memory"
	"pocketmirror/internal/mirror/adapter/persistence/mongodb"
	"pocketmirror/internal/mirror/adapter/persistence/redisdb"
	"pocketmirror/internal/mirror/adapter/realtime"
	"pocketmirror/internal/mirror/adapter/remote"
	"pocketmirror/internal/mirror/config"
	"pocketmirror/internal/mirror/usecase"
	"pocketmirror/internal/shared/eventbus"
	"pocketmirror/internal/shared/logger"
)

// Container holds the wired components of one mirror instance.
type Container struct {
	Config *config.MirrorConfig
	Logger logger.Logger

	Store       mirrorhttp.StoreView
	Remote      *remote.Client
	TokenSource *remote.TokenSource
	SchemaFile  *remote.SchemaFile

	Translator *usecase.SchemaTranslator
	Controller *usecase.SessionController

	Bus      *eventbus.Bus
	Listener *realtime.Listener

	redisClient *redis.Client
	mongoClient *mongo.Client
}

// NewContainer wires everything from the configuration. It connects to the
// selected store backend; realtime wiring happens later via InitRealtime
// once a session token exists.
func NewContainer(ctx context.Context, cfg *config.MirrorConfig, log logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.NewLogger()
	}

	c := &Container{
		Config: cfg,
		Logger: log,
		Bus:    eventbus.NewBus(log),
	}

	if err := c.initStore(ctx); err != nil {
		return nil, err
	}

	c.Remote = remote.NewClient(cfg.BaseURL, cfg.RequestTimeout, log)
	c.TokenSource = remote.NewTokenSource(remote.Credentials{
		Email:              cfg.Email,
		Password:           cfg.Password,
		ImpersonationToken: cfg.ImpersonationToken,
	}, c.Remote, log)

	if cfg.SchemaFile != "" {
		schemaFile, err := remote.LoadSchemaFile(cfg.SchemaFile)
		if err != nil {
			return nil, err
		}
		c.SchemaFile = schemaFile
	}

	c.Translator = usecase.NewSchemaTranslator(log)

	normalizer := usecase.NewNormalizer(log)
	fetcher := usecase.NewFetcher(c.Remote, log)
	reconciler := usecase.NewReconciler(fetcher, normalizer, log)
	patcher := usecase.NewRealtimePatcher(normalizer, log)
	c.Controller = usecase.NewSessionController(reconciler, patcher, log)

	return c, nil
}

// InitRealtime creates the push-event listener with the session token. No-op
// when realtime is disabled in the configuration.
func (c *Container) InitRealtime(token string) {
	if !c.Config.Realtime {
		return
	}
	c.Listener = realtime.NewListener(
		c.Config.BaseURL, token, c.Config.CollectionNames(), c.Bus, c.Logger)
}

// initStore connects the configured cache backend.
func (c *Container) initStore(ctx context.Context) error {
	switch c.Config.Store {
	case config.StoreMemory:
		c.Store = memory.NewStore()

	case config.StoreRedis:
		client := config.NewRedisClient(&c.Config.Redis)
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.redisClient = client
		c.Store = redisdb.NewStore(client, c.Config.Redis.KeyPrefix)

	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(c.Config.MongoURI))
		if err != nil {
			return fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			return fmt.Errorf("failed to ping mongodb: %w", err)
		}
		c.mongoClient = client

		store := mongodb.NewStore(client.Database(c.Config.MongoDatabase))
		if err := store.EnsureIndexes(connectCtx); err != nil {
			return err
		}
		c.Store = store

	default:
		return fmt.Errorf("unknown store backend %q", c.Config.Store)
	}

	c.Logger.Infof("cache store backend: %s", c.Config.Store)
	return nil
}

// Close releases the backend connections.
func (c *Container) Close(ctx context.Context) error {
	var firstErr error
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			firstErr = err
		}
	}
	if c.mongoClient != nil {
		if err := c.mongoClient.Disconnect(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
