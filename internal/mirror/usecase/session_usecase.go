package usecase

import (
	"context"
	"time"

	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/mirror/domain/repository"
	"pocketmirror/internal/shared/logger"
)

// RefreshContext models the external trigger attached to one invocation.
type RefreshContext struct {
	// Force requests a full rebuild regardless of recorded state.
	Force bool

	// Collections optionally names the collections the trigger applies
	// to. A non-empty list that excludes the current collection skips the
	// pass entirely.
	Collections []string

	// Event optionally carries a realtime payload to apply without a
	// network call.
	Event interface{}
}

// SessionController is the top-level per-invocation policy: skip, apply a
// realtime patch, or run an incremental or full reconciliation pass.
type SessionController struct {
	reconciler *Reconciler
	patcher    *RealtimePatcher
	log        logger.Logger
}

// NewSessionController creates a controller. log may be nil.
func NewSessionController(reconciler *Reconciler, patcher *RealtimePatcher, log logger.Logger) *SessionController {
	if log == nil {
		log = logger.NewNoop()
	}
	return &SessionController{
		reconciler: reconciler,
		patcher:    patcher,
		log:        log.WithComponent("session"),
	}
}

// Run executes one sync session for a collection. version is the running
// tool version; a mismatch with the recorded version forces a full rebuild
// so behavior changes always take effect. On any successful completion other
// than skip, the watermark and version are recorded.
func (c *SessionController) Run(ctx context.Context, opts CollectionOptions, cache repository.RecordCache, meta repository.SyncMetadata, version string, refresh *RefreshContext) error {
	log := c.log.WithCollection(opts.Collection)

	if refresh != nil && len(refresh.Collections) > 0 && !refresh.Force &&
		!containsString(refresh.Collections, opts.Collection) {
		log.Debug("refresh trigger names other collections, skipping")
		return nil
	}

	lastModified, err := meta.Get(ctx, repository.MetaLastModified)
	if err != nil {
		return err
	}
	recordedVersion, err := meta.Get(ctx, repository.MetaSchemaVersion)
	if err != nil {
		return err
	}

	force := refresh != nil && refresh.Force

	switch {
	case force:
		log.Info("force refresh requested, rebuilding the collection cache")
		lastModified = ""
		if err := cache.Clear(ctx); err != nil {
			return err
		}
	case recordedVersion != version:
		log.Infof("tool version changed (%q -> %q), rebuilding the collection cache", recordedVersion, version)
		lastModified = ""
		if err := cache.Clear(ctx); err != nil {
			return err
		}
	case refresh != nil && refresh.Event != nil:
		// Checked before the no-updated-field rebuild: applying a push
		// event needs no watermark, so it spares collections without an
		// updated field the full refetch.
		if c.patcher.Apply(ctx, refresh.Event, cache, opts) {
			log.Debug("realtime event applied, no network sync needed")
			return c.recordPass(ctx, meta, version)
		}
		if opts.UpdatedField == "" {
			lastModified = ""
			if err := cache.Clear(ctx); err != nil {
				return err
			}
		}
	case opts.UpdatedField == "":
		lastModified = ""
		if err := cache.Clear(ctx); err != nil {
			return err
		}
	}

	if err := c.reconciler.Sync(ctx, opts, cache, lastModified); err != nil {
		return err
	}
	return c.recordPass(ctx, meta, version)
}

// recordPass persists the new watermark and the running tool version.
func (c *SessionController) recordPass(ctx context.Context, meta repository.SyncMetadata, version string) error {
	if err := meta.Set(ctx, repository.MetaLastModified, formatNow()); err != nil {
		return err
	}
	return meta.Set(ctx, repository.MetaSchemaVersion, version)
}

// formatNow is a hook so tests can pin the recorded watermark.
var formatNow = func() string {
	return model.FormatWatermark(time.Now())
}
