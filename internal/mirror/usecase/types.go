package usecase

import (
	"context"

	"pocketmirror/internal/mirror/domain/model"
)

// CollectionOptions is the static per-collection mirror configuration shared
// by the fetcher, normalizer, reconciler and session controller.
type CollectionOptions struct {
	// Collection is the remote collection name.
	Collection string

	// IDField optionally names the record field the local key is derived
	// from. Empty means the remote id is used unchanged.
	IDField string

	// ContentFields optionally name the fields a rendered-content blob is
	// synthesized from, in order.
	ContentFields []string

	// UpdatedField names the change-timestamp field. Empty disables
	// incremental sync.
	UpdatedField string

	// Filter is the statically configured collection-level filter clause.
	Filter string

	// Fields is an optional explicit field selection.
	Fields []string

	// Token authenticates remote requests; Impersonated marks it as an
	// impersonation-style credential.
	Token        string
	Impersonated bool

	// Validator accepts or rejects normalized entries. Nil means accept
	// everything.
	Validator *RecordValidator
}

// PageFunc consumes one fetched page of records.
type PageFunc func(ctx context.Context, records []model.Record) error
