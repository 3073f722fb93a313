package usecase

import (
	"context"

	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/mirror/domain/repository"
	"pocketmirror/internal/shared/errors"
	"pocketmirror/internal/shared/logger"
)

// Reconciler orchestrates one sync pass: it decides the fetch window, streams
// pages through the normalizer, and afterwards removes cache entries absent
// from the remote result set.
type Reconciler struct {
	fetcher    *Fetcher
	normalizer *Normalizer
	log        logger.Logger
}

// NewReconciler creates a reconciler. log may be nil.
func NewReconciler(fetcher *Fetcher, normalizer *Normalizer, log logger.Logger) *Reconciler {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Reconciler{
		fetcher:    fetcher,
		normalizer: normalizer,
		log:        log.WithComponent("reconcile"),
	}
}

// Sync performs a full or incremental pass. lastModified is the watermark of
// the previous successful pass; empty means fetch everything. Records that
// fail validation are skipped with an error log, the pass continues.
func (r *Reconciler) Sync(ctx context.Context, opts CollectionOptions, cache repository.RecordCache, lastModified string) error {
	log := r.log.WithCollection(opts.Collection)

	if opts.UpdatedField == "" {
		if lastModified != "" {
			log.Info("no updated field configured, incremental builds are disabled")
		}
		lastModified = ""
	}

	filter := &model.CollectionFilter{LastModified: lastModified}

	fetched := 0
	err := r.fetcher.Fetch(ctx, opts, func(ctx context.Context, records []model.Record) error {
		for _, record := range records {
			if err := r.normalizer.Normalize(ctx, record, cache, opts); err != nil {
				if errors.IsValidation(err) {
					log.Errorf("record %q failed validation and was not cached: %v", record.ID(), err)
					continue
				}
				return err
			}
			fetched++
		}
		return nil
	}, filter)
	if err != nil {
		return err
	}

	log.Infof("synced %d records (incremental: %v)", fetched, lastModified != "")

	return r.Cleanup(ctx, opts, cache)
}

// Cleanup reconciles deletions and filter-exclusions an incremental pass
// cannot observe. It lists only the id field of every record currently
// matching the configured filter and deletes cache entries whose remote id
// is absent from that set. An access rejection while listing never
// propagates: the safe decision is to clear the whole collection cache
// rather than operate on stale or partial data.
func (r *Reconciler) Cleanup(ctx context.Context, opts CollectionOptions, cache repository.RecordCache) error {
	log := r.log.WithCollection(opts.Collection)

	entries, err := cache.Values(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	idOpts := opts
	idOpts.Fields = []string{model.FieldID}
	idOpts.IDField = ""
	idOpts.UpdatedField = ""
	idOpts.ContentFields = nil

	validIDs := make(map[string]struct{})
	err = r.fetcher.fetchPages(ctx, idOpts, func(ctx context.Context, records []model.Record) error {
		for _, record := range records {
			validIDs[record.ID()] = struct{}{}
		}
		return nil
	}, nil, cleanupPageSize, false)
	if err != nil {
		if errors.IsAuthentication(err) {
			if opts.Impersonated {
				log.Errorf("cleanup id listing rejected for impersonation token, clearing the local cache: %v", err)
			} else {
				log.Errorf("cleanup id listing rejected, clearing the local cache: %v", err)
			}
			return cache.Clear(ctx)
		}
		return err
	}

	removed := 0
	for _, entry := range entries {
		if _, ok := validIDs[entry.RemoteID()]; ok {
			continue
		}
		if err := cache.Delete(ctx, entry.LocalKey); err != nil {
			return err
		}
		removed++
	}
	if removed > 0 {
		log.Infof("cleanup removed %d stale entries", removed)
	}
	return nil
}
