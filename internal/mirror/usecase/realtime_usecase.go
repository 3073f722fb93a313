package usecase

import (
	"context"

	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/mirror/domain/repository"
	"pocketmirror/internal/shared/logger"
)

// RealtimePatcher applies a single push event directly to the cache without
// a network round-trip.
type RealtimePatcher struct {
	normalizer *Normalizer
	log        logger.Logger
}

// NewRealtimePatcher creates a patcher. log may be nil.
func NewRealtimePatcher(normalizer *Normalizer, log logger.Logger) *RealtimePatcher {
	if log == nil {
		log = logger.NewNoop()
	}
	return &RealtimePatcher{
		normalizer: normalizer,
		log:        log.WithComponent("realtime"),
	}
}

// Apply consumes one push event payload. It returns true when the event was
// handled locally; false signals the caller to fall back to a network sync.
//
// Preconditions: no statically configured collection filter (filter
// membership can only be evaluated remotely), the payload structurally
// matches the realtime event shape, and the event targets this collection.
//
// Deletes are keyed by remote id, not by a custom local key derived from the
// configured id field. Records mirrored under a custom key are therefore not
// removed by a push delete; the next cleanup pass reconciles them.
func (p *RealtimePatcher) Apply(ctx context.Context, raw interface{}, cache repository.RecordCache, opts CollectionOptions) bool {
	log := p.log.WithCollection(opts.Collection)

	if opts.Filter != "" {
		log.Debug("collection has a static filter, realtime events need a network sync")
		return false
	}

	event, ok := model.ParseRealtimeEvent(raw)
	if !ok {
		log.Debug("payload does not match the realtime event shape")
		return false
	}
	if event.Record.CollectionName() != opts.Collection {
		return false
	}

	switch event.Action {
	case model.EventActionDelete:
		if err := cache.Delete(ctx, event.Record.ID()); err != nil {
			log.Errorf("failed to delete record %q from cache: %v", event.Record.ID(), err)
		}
	case model.EventActionCreate, model.EventActionUpdate:
		if err := p.normalizer.Normalize(ctx, event.Record, cache, opts); err != nil {
			log.Errorf("failed to apply %s event for record %q: %v", event.Action, event.Record.ID(), err)
		}
	}
	return true
}
