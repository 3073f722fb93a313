package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"pocketmirror/internal/di"
	"pocketmirror/internal/mirror"
	mirrorhttp "pocketmirror/internal/mirror/adapter/http"
	"pocketmirror/internal/mirror/config"
	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/mirror/usecase"
	"pocketmirror/internal/shared/errors"
	"pocketmirror/internal/shared/eventbus"
	"pocketmirror/internal/shared/logger"
)

// collectionSession is one mirrored collection's prepared sync inputs.
type collectionSession struct {
	opts usecase.CollectionOptions
}

// triggerQueue feeds refresh requests from the realtime handlers into the
// sync loop. A full buffer degrades the request to a pending force rebuild
// instead of dropping it: a lost push event would leave the cache stale
// until the record changes again.
type triggerQueue struct {
	ch           chan *usecase.RefreshContext
	pendingForce atomic.Bool
}

func newTriggerQueue(size int) *triggerQueue {
	return &triggerQueue{ch: make(chan *usecase.RefreshContext, size)}
}

// Push enqueues a refresh request without blocking the caller.
func (q *triggerQueue) Push(refresh *usecase.RefreshContext, log logger.Logger) {
	select {
	case q.ch <- refresh:
	default:
		q.pendingForce.Store(true)
		log.Warn("trigger queue is full, degrading to a forced rebuild on the next pass")
	}
}

// Next resolves the refresh request for one pass. A pending force rebuild
// overrides whatever triggered the pass and is consumed exactly once.
func (q *triggerQueue) Next(refresh *usecase.RefreshContext) *usecase.RefreshContext {
	if q.pendingForce.Swap(false) {
		return &usecase.RefreshContext{Force: true}
	}
	return refresh
}

func main() {
	fmt.Println("🚀 PocketMirror - starting")

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Infof("mirroring %d collections from %s every %s",
		len(cfg.Collections), cfg.BaseURL, cfg.SyncInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.NewContainer(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		if err := container.Close(closeCtx); err != nil {
			appLogger.Errorf("failed to close backend connections: %v", err)
		}
	}()

	token, impersonated, err := container.TokenSource.Token(ctx)
	if err != nil {
		log.Fatalf("Failed to authenticate against the remote store: %v", err)
	}

	sessions, err := buildSessions(ctx, container, token, impersonated)
	if err != nil {
		log.Fatalf("Failed to prepare collections: %v", err)
	}

	// Realtime events and resync requests feed the sync loop through this
	// queue; a nil refresh means "regular interval pass".
	triggers := newTriggerQueue(64)
	wireRealtime(container, token, triggers)

	app := fiber.New(fiber.Config{
		AppName:      "PocketMirror " + mirror.Version,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	app.Use(recover.New())
	mirrorhttp.NewMirrorHTTPHandler(container.Store, cfg.CollectionNames(), appLogger).SetupRoutes(app)

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(cfg.HTTPAddr)
	}()
	appLogger.Infof("serving the mirror API on %s", cfg.HTTPAddr)

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		syncLoop(ctx, container, sessions, triggers)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			log.Fatalf("API server failed: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("received shutdown signal: %v", sig)
		fmt.Println("🛑 shutting down")

		cancel()
		<-loopDone

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("API server forced to shut down: %v", err)
		}
	}

	fmt.Println("✅ stopped")
}

// buildSessions resolves each configured collection's schema, derives its
// validator and assembles its sync options. A collection whose schema cannot
// be resolved syncs without a validator.
func buildSessions(ctx context.Context, c *di.Container, token string, impersonated bool) ([]collectionSession, error) {
	elevated := c.Config.Elevated()
	sessions := make([]collectionSession, 0, len(c.Config.Collections))

	for _, cc := range c.Config.Collections {
		opts := usecase.CollectionOptions{
			Collection:    cc.Name,
			IDField:       cc.IDField,
			ContentFields: cc.ContentFields,
			UpdatedField:  cc.UpdatedField,
			Filter:        cc.Filter,
			Fields:        cc.Fields,
			Token:         token,
			Impersonated:  impersonated,
		}

		schema, err := resolveSchema(ctx, c, cc.Name, token, elevated)
		if err != nil {
			if errors.IsNotFound(err) {
				c.Logger.WithCollection(cc.Name).Warn("no schema available, syncing without validation")
				sessions = append(sessions, collectionSession{opts: opts})
				continue
			}
			return nil, err
		}

		validator, err := c.Translator.Translate(schema, usecase.TranslateOptions{
			HasSuperuserRights: elevated,
			ImproveTypes:       cc.ImproveTypes,
			FieldsToInclude:    cc.FieldsToInclude,
		}, nil)
		if err != nil {
			return nil, err
		}
		opts.Validator = validator
		c.Translator.CheckSyncFields(schema, opts)

		sessions = append(sessions, collectionSession{opts: opts})
	}
	return sessions, nil
}

// resolveSchema fetches a collection's schema from the remote store when
// elevated credentials exist, else from the local schema file.
func resolveSchema(ctx context.Context, c *di.Container, collection, token string, elevated bool) (*model.CollectionSchema, error) {
	if elevated {
		return c.Remote.GetCollection(ctx, collection, token)
	}
	if c.SchemaFile != nil {
		return c.SchemaFile.Collection(collection)
	}
	return nil, errors.NewNotFoundError("schema for collection " + collection)
}

// wireRealtime starts the push listener and routes its events into the sync
// loop's trigger channel.
func wireRealtime(c *di.Container, token string, triggers *triggerQueue) {
	if !c.Config.Realtime {
		return
	}
	c.InitRealtime(token)

	push := func(refresh *usecase.RefreshContext) {
		triggers.Push(refresh, c.Logger)
	}

	recordHandler := func(ctx context.Context, event eventbus.Event) error {
		parsed, ok := event.Data.(model.RealtimeEvent)
		if !ok {
			return nil
		}
		push(&usecase.RefreshContext{
			Collections: []string{parsed.Record.CollectionName()},
			Event:       parsed,
		})
		return nil
	}
	c.Bus.Subscribe(eventbus.EventTypeRecordCreated, recordHandler)
	c.Bus.Subscribe(eventbus.EventTypeRecordUpdated, recordHandler)
	c.Bus.Subscribe(eventbus.EventTypeRecordDeleted, recordHandler)
	c.Bus.Subscribe(eventbus.EventTypeResyncNeeded, func(ctx context.Context, event eventbus.Event) error {
		push(&usecase.RefreshContext{Force: true})
		return nil
	})
}

// syncLoop runs an initial pass, then repeats on the interval and whenever a
// realtime trigger arrives.
func syncLoop(ctx context.Context, c *di.Container, sessions []collectionSession, triggers *triggerQueue) {
	if c.Listener != nil {
		go func() {
			_ = c.Listener.Run(ctx)
		}()
	}

	runPass(ctx, c, sessions, triggers.Next(nil))

	ticker := time.NewTicker(c.Config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runPass(ctx, c, sessions, triggers.Next(nil))
		case refresh := <-triggers.ch:
			runPass(ctx, c, sessions, triggers.Next(refresh))
		}
	}
}

// runPass executes one session per collection. A failing collection never
// blocks the others.
func runPass(ctx context.Context, c *di.Container, sessions []collectionSession, refresh *usecase.RefreshContext) {
	for _, session := range sessions {
		if ctx.Err() != nil {
			return
		}
		err := c.Controller.Run(ctx,
			session.opts,
			c.Store.Collection(session.opts.Collection),
			c.Store.Metadata(session.opts.Collection),
			mirror.Version,
			refresh)
		if err != nil {
			c.Logger.WithCollection(session.opts.Collection).Errorf("sync pass failed: %v", err)
		}
	}
}
