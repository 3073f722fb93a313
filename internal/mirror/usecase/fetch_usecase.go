package usecase

import (
	"context"
	"fmt"

	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/mirror/domain/repository"
	"pocketmirror/internal/shared/logger"
)

const (
	// defaultPageSize is the page size used when the caller does not pin
	// an explicit perPage.
	defaultPageSize = 100

	// cleanupPageSize is the larger page size used when only ids are
	// transferred.
	cleanupPageSize = 1000
)

// Fetcher retrieves records from a remote collection page by page. Pages are
// strictly sequential: the next request depends on the previous page's
// reported counts. The fetcher performs no retries; retry policy belongs to
// the transport.
type Fetcher struct {
	remote repository.RemoteClient
	log    logger.Logger
}

// NewFetcher creates a fetcher. log may be nil.
func NewFetcher(remote repository.RemoteClient, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Fetcher{remote: remote, log: log.WithComponent("fetch")}
}

// Fetch streams every record matching opts and filter through onPage.
//
// When filter carries a watermark and an updated field is configured, only
// records changed after the watermark are requested, sorted
// `-<updatedField>,id` so ordering stays stable across records sharing a
// timestamp. A pinned filter.PerPage fetches exactly one page.
func (f *Fetcher) Fetch(ctx context.Context, opts CollectionOptions, onPage PageFunc, filter *model.CollectionFilter) error {
	perPage := defaultPageSize
	singlePage := false
	if filter != nil && filter.PerPage > 0 {
		perPage = filter.PerPage
		singlePage = true
	}
	return f.fetchPages(ctx, opts, onPage, filter, perPage, singlePage)
}

// fetchPages drives the page loop. Internal callers (the cleanup pass) use
// it to page at a non-default size without entering single-page mode.
func (f *Fetcher) fetchPages(ctx context.Context, opts CollectionOptions, onPage PageFunc, filter *model.CollectionFilter, perPage int, singlePage bool) error {
	page := 1
	sort := ""
	clauses := []string{opts.Filter}

	if filter != nil {
		if filter.Page > 0 {
			page = filter.Page
		}
		sort = filter.Sort
		clauses = append(clauses, filter.Filter)

		if filter.LastModified != "" && opts.UpdatedField != "" {
			clauses = append(clauses, fmt.Sprintf("%s > %q", opts.UpdatedField, filter.LastModified))
			sort = "-" + opts.UpdatedField + "," + model.FieldID
		}
	}

	fields := f.selectFields(opts)
	log := f.log.WithCollection(opts.Collection)

	for {
		result, err := f.remote.ListRecords(ctx, repository.ListOptions{
			Collection:   opts.Collection,
			Page:         page,
			PerPage:      perPage,
			Filter:       model.CombineFilters(clauses...),
			Sort:         sort,
			Fields:       fields,
			Token:        opts.Token,
			Impersonated: opts.Impersonated,
		})
		if err != nil {
			return err
		}

		log.Debugf("fetched page %d/%d (%d records)", result.Page, result.TotalPages, len(result.Items))

		if err := onPage(ctx, result.Items); err != nil {
			return err
		}

		if singlePage || result.Page >= result.TotalPages {
			return nil
		}
		page = result.Page + 1
	}
}

// selectFields returns the caller's field selection, unioned with the fields
// normalization depends on so a narrow selection never breaks it. An empty
// selection means all fields.
func (f *Fetcher) selectFields(opts CollectionOptions) []string {
	if len(opts.Fields) == 0 {
		return nil
	}

	required := []string{model.FieldID, model.FieldCollectionID, model.FieldCollectionName}
	if opts.IDField != "" {
		required = append(required, opts.IDField)
	}
	if opts.UpdatedField != "" {
		required = append(required, opts.UpdatedField)
	}
	required = append(required, opts.ContentFields...)

	fields := make([]string, 0, len(opts.Fields)+len(required))
	seen := make(map[string]struct{})
	for _, lists := range [][]string{opts.Fields, required} {
		for _, name := range lists {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			fields = append(fields, name)
		}
	}
	return fields
}
