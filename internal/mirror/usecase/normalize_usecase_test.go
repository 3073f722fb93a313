package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/shared/errors"
)

func testRecord(id string, extra map[string]interface{}) model.Record {
	rec := model.Record{
		"id":             id,
		"collectionId":   "c1",
		"collectionName": "posts",
	}
	for k, v := range extra {
		rec[k] = v
	}
	return rec
}

func TestNormalizeDefaultsToRemoteID(t *testing.T) {
	cache := newFakeCache()
	n := NewNormalizer(nil)

	rec := testRecord("rec1", map[string]interface{}{"updated": "2024-03-01 10:00:00.000Z"})
	require.NoError(t, n.Normalize(context.Background(), rec, cache, CollectionOptions{Collection: "posts"}))

	entry, err := cache.Get(context.Background(), "rec1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "rec1", entry.LocalKey)
	assert.Equal(t, "2024-03-01 10:00:00.000Z", entry.Fingerprint)
	assert.Empty(t, entry.RenderedContent)
}

func TestNormalizeCustomIDFieldIsSlugified(t *testing.T) {
	cache := newFakeCache()
	n := NewNormalizer(nil)

	rec := testRecord("rec1", map[string]interface{}{"title": "Über Uns!"})
	require.NoError(t, n.Normalize(context.Background(), rec, cache, CollectionOptions{
		Collection: "posts",
		IDField:    "title",
	}))

	entry, err := cache.Get(context.Background(), "ueber-uns")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "rec1", entry.RemoteID())
}

func TestNormalizeFalsyIDFieldFallsBackWithWarning(t *testing.T) {
	cache := newFakeCache()
	log := &MockLogger{}
	n := NewNormalizer(log)

	rec := testRecord("rec1", map[string]interface{}{"title": ""})
	require.NoError(t, n.Normalize(context.Background(), rec, cache, CollectionOptions{
		Collection: "posts",
		IDField:    "title",
	}))

	entry, _ := cache.Get(context.Background(), "rec1")
	require.NotNil(t, entry)
	require.Len(t, log.Warnings, 1)
	assert.Contains(t, log.Warnings[0], "title")
}

func TestNormalizeCollisionWarnsAndDoesNotDropTheWarning(t *testing.T) {
	cache := newFakeCache()
	log := &MockLogger{}
	n := NewNormalizer(log)
	opts := CollectionOptions{Collection: "users", IDField: "email"}

	first := testRecord("recA", map[string]interface{}{"email": "jane@example.com"})
	second := testRecord("recB", map[string]interface{}{"email": "jane@example.com"})

	require.NoError(t, n.Normalize(context.Background(), first, cache, opts))
	assert.Empty(t, log.Warnings)

	require.NoError(t, n.Normalize(context.Background(), second, cache, opts))
	require.Len(t, log.Warnings, 1)
	assert.Contains(t, log.Warnings[0], "recA")
	assert.Contains(t, log.Warnings[0], "recB")
	assert.Contains(t, log.Warnings[0], "email")
}

func TestNormalizeIsIdempotent(t *testing.T) {
	cache := newFakeCache()
	n := NewNormalizer(nil)
	opts := CollectionOptions{Collection: "posts", ContentFields: []string{"body"}}

	rec := testRecord("rec1", map[string]interface{}{
		"body":    "<p>hi</p>",
		"updated": "2024-03-01 10:00:00.000Z",
	})

	require.NoError(t, n.Normalize(context.Background(), rec, cache, opts))
	first, err := cache.Get(context.Background(), "rec1")
	require.NoError(t, err)

	require.NoError(t, n.Normalize(context.Background(), rec, cache, opts))
	second, err := cache.Get(context.Background(), "rec1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.len())
}

func TestNormalizeFingerprintPrecedence(t *testing.T) {
	cache := newFakeCache()
	n := NewNormalizer(nil)
	opts := CollectionOptions{Collection: "posts"}
	ctx := context.Background()

	// updated wins.
	rec := testRecord("r1", map[string]interface{}{"updated": "u-ts", "created": "c-ts"})
	require.NoError(t, n.Normalize(ctx, rec, cache, opts))
	entry, _ := cache.Get(ctx, "r1")
	assert.Equal(t, "u-ts", entry.Fingerprint)

	// created is the fallback.
	rec = testRecord("r2", map[string]interface{}{"created": "c-ts"})
	require.NoError(t, n.Normalize(ctx, rec, cache, opts))
	entry, _ = cache.Get(ctx, "r2")
	assert.Equal(t, "c-ts", entry.Fingerprint)

	// Timestamp-less records (views) fall back to the whole record.
	rec = testRecord("r3", map[string]interface{}{"title": "x"})
	require.NoError(t, n.Normalize(ctx, rec, cache, opts))
	entry, _ = cache.Get(ctx, "r3")
	assert.Contains(t, entry.Fingerprint, `"title":"x"`)
}

func TestNormalizeRenderedContent(t *testing.T) {
	cache := newFakeCache()
	n := NewNormalizer(nil)
	ctx := context.Background()

	// Single content field: verbatim value.
	rec := testRecord("r1", map[string]interface{}{"body": "<p>hi</p>"})
	require.NoError(t, n.Normalize(ctx, rec, cache, CollectionOptions{
		Collection:    "posts",
		ContentFields: []string{"body"},
	}))
	entry, _ := cache.Get(ctx, "r1")
	assert.Equal(t, "<p>hi</p>", entry.RenderedContent)

	// Multiple fields: section markers tagged with the field name, in order.
	rec = testRecord("r2", map[string]interface{}{"intro": "Hello", "body": "<p>hi</p>"})
	require.NoError(t, n.Normalize(ctx, rec, cache, CollectionOptions{
		Collection:    "posts",
		ContentFields: []string{"intro", "body"},
	}))
	entry, _ = cache.Get(ctx, "r2")
	assert.Equal(t, "<section data-field=\"intro\">Hello</section>\n<section data-field=\"body\"><p>hi</p></section>",
		entry.RenderedContent)
}

func TestNormalizeValidationFailureDoesNotCache(t *testing.T) {
	cache := newFakeCache()
	n := NewNormalizer(nil)

	rv := translate(t, []model.FieldDescriptor{
		{Name: "views", Type: model.FieldTypeNumber, Required: true},
	}, TranslateOptions{})

	rec := testRecord("rec1", map[string]interface{}{"views": "many"})
	err := n.Normalize(context.Background(), rec, cache, CollectionOptions{
		Collection: "posts",
		Validator:  rv,
	})

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, 0, cache.len())
}

func TestNormalizeStoresValidatedData(t *testing.T) {
	cache := newFakeCache()
	n := NewNormalizer(nil)

	rv := translate(t, []model.FieldDescriptor{
		{Name: "views", Type: model.FieldTypeNumber, Required: true},
		{Name: "draft", Type: model.FieldTypeBool},
	}, TranslateOptions{})

	rec := testRecord("rec1", map[string]interface{}{"views": float64(7), "draft": false})
	require.NoError(t, n.Normalize(context.Background(), rec, cache, CollectionOptions{
		Collection: "posts",
		Validator:  rv,
	}))

	entry, _ := cache.Get(context.Background(), "rec1")
	require.NotNil(t, entry)
	assert.Equal(t, float64(7), entry.Data["views"])
	assert.NotContains(t, entry.Data, "draft", "falsy optional coerced to absent")
}
