package usecase

import (
	"context"
	"fmt"
	"sync"

	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/mirror/domain/repository"
	"pocketmirror/internal/shared/logger"
)

// MockLogger implements logger.Logger and records warn/error lines so tests
// can assert diagnostics were emitted.
type MockLogger struct {
	mu       sync.Mutex
	Warnings []string
	Errors   []string
	Infos    []string
}

func (m *MockLogger) record(dst *[]string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*dst = append(*dst, fmt.Sprint(args...))
}

func (m *MockLogger) recordf(dst *[]string, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*dst = append(*dst, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Debug(args ...interface{})                 {}
func (m *MockLogger) Info(args ...interface{})                  { m.record(&m.Infos, args...) }
func (m *MockLogger) Warn(args ...interface{})                  { m.record(&m.Warnings, args...) }
func (m *MockLogger) Error(args ...interface{})                 { m.record(&m.Errors, args...) }
func (m *MockLogger) Fatal(args ...interface{})                 {}
func (m *MockLogger) Debugf(format string, args ...interface{}) {}
func (m *MockLogger) Infof(format string, args ...interface{})  { m.recordf(&m.Infos, format, args...) }
func (m *MockLogger) Warnf(format string, args ...interface{}) {
	m.recordf(&m.Warnings, format, args...)
}
func (m *MockLogger) Errorf(format string, args ...interface{}) {
	m.recordf(&m.Errors, format, args...)
}
func (m *MockLogger) Fatalf(format string, args ...interface{})            {}
func (m *MockLogger) WithFields(map[string]interface{}) logger.Logger      { return m }
func (m *MockLogger) WithComponent(string) logger.Logger                   { return m }
func (m *MockLogger) WithCollection(string) logger.Logger                  { return m }

// fakeCache is an in-memory repository.RecordCache for tests.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]model.CacheEntry

	// SetErr, when non-nil, is returned by Set.
	SetErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]model.CacheEntry)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		return &entry, nil
	}
	return nil, nil
}

func (c *fakeCache) Set(ctx context.Context, entry model.CacheEntry) error {
	if c.SetErr != nil {
		return c.SetErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.LocalKey] = entry
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]model.CacheEntry)
	return nil
}

func (c *fakeCache) Values(ctx context.Context) ([]model.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.CacheEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		out = append(out, entry)
	}
	return out, nil
}

func (c *fakeCache) Keys(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	return out, nil
}

func (c *fakeCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// fakeMetadata is an in-memory repository.SyncMetadata for tests.
type fakeMetadata struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeMetadata() *fakeMetadata {
	return &fakeMetadata{values: make(map[string]string)}
}

func (m *fakeMetadata) Get(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[name], nil
}

func (m *fakeMetadata) Set(ctx context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
	return nil
}

// fakeRemote is a repository.RemoteClient whose behavior is injected per
// test through function fields, following the repo mock pattern used across
// the usecase tests.
type fakeRemote struct {
	ListRecordsFn   func(ctx context.Context, opts repository.ListOptions) (*model.ListResult, error)
	GetRecordFn     func(ctx context.Context, collection, id string, fields []string, token string) (model.Record, error)
	GetCollectionFn func(ctx context.Context, collection, token string) (*model.CollectionSchema, error)
	AuthenticateFn  func(ctx context.Context, identity, password string) (string, error)

	mu    sync.Mutex
	Calls []repository.ListOptions
}

func (f *fakeRemote) ListRecords(ctx context.Context, opts repository.ListOptions) (*model.ListResult, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, opts)
	f.mu.Unlock()
	if f.ListRecordsFn != nil {
		return f.ListRecordsFn(ctx, opts)
	}
	return &model.ListResult{Page: opts.Page, PerPage: opts.PerPage, TotalPages: 0, TotalItems: 0}, nil
}

func (f *fakeRemote) GetRecord(ctx context.Context, collection, id string, fields []string, token string) (model.Record, error) {
	if f.GetRecordFn != nil {
		return f.GetRecordFn(ctx, collection, id, fields, token)
	}
	return nil, nil
}

func (f *fakeRemote) GetCollection(ctx context.Context, collection, token string) (*model.CollectionSchema, error) {
	if f.GetCollectionFn != nil {
		return f.GetCollectionFn(ctx, collection, token)
	}
	return &model.CollectionSchema{Name: collection}, nil
}

func (f *fakeRemote) Authenticate(ctx context.Context, identity, password string) (string, error) {
	if f.AuthenticateFn != nil {
		return f.AuthenticateFn(ctx, identity, password)
	}
	return "", nil
}

// pagedRemote serves a fixed record set in pages of the requested size,
// honoring an optional fields projection of just the id field.
func pagedRemote(records []model.Record) *fakeRemote {
	remote := &fakeRemote{}
	remote.ListRecordsFn = func(ctx context.Context, opts repository.ListOptions) (*model.ListResult, error) {
		perPage := opts.PerPage
		if perPage <= 0 {
			perPage = defaultPageSize
		}
		totalPages := (len(records) + perPage - 1) / perPage
		start := (opts.Page - 1) * perPage
		end := start + perPage
		if start > len(records) {
			start = len(records)
		}
		if end > len(records) {
			end = len(records)
		}
		items := make([]model.Record, 0, end-start)
		for _, r := range records[start:end] {
			items = append(items, r)
		}
		return &model.ListResult{
			Page:       opts.Page,
			PerPage:    perPage,
			TotalPages: totalPages,
			TotalItems: len(records),
			Items:      items,
		}, nil
	}
	return remote
}
