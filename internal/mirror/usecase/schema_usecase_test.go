package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/shared/errors"
	"pocketmirror/internal/shared/logger"
)

func translate(t *testing.T, fields []model.FieldDescriptor, opts TranslateOptions) *RecordValidator {
	t.Helper()
	rv, err := NewSchemaTranslator(logger.NewNoop()).Translate(
		&model.CollectionSchema{Name: "posts", Fields: fields}, opts, nil)
	require.NoError(t, err)
	return rv
}

func TestTranslateBaseTypes(t *testing.T) {
	rv := translate(t, []model.FieldDescriptor{
		{Name: "title", Type: model.FieldTypeText},
		{Name: "views", Type: model.FieldTypeNumber},
		{Name: "published", Type: model.FieldTypeBool},
		{Name: "when", Type: model.FieldTypeDate},
		{Name: "place", Type: model.FieldTypeGeoPoint},
	}, TranslateOptions{})

	out, err := rv.Validate(model.Record{
		"id":        "r1",
		"title":     "hello",
		"views":     float64(12),
		"published": true,
		"when":      "2024-03-01 10:22:33.123Z",
		"place":     map[string]interface{}{"lon": float64(6.9), "lat": float64(50.9)},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello", out["title"])
	assert.Equal(t, float64(12), out["views"])
	assert.Equal(t, true, out["published"])
	assert.IsType(t, time.Time{}, out["when"])
	assert.Equal(t, model.GeoPoint{Lon: 6.9, Lat: 50.9}, out["place"])
}

func TestTranslateRejectsWrongTypes(t *testing.T) {
	rv := translate(t, []model.FieldDescriptor{
		{Name: "views", Type: model.FieldTypeNumber, Required: true},
	}, TranslateOptions{})

	_, err := rv.Validate(model.Record{"id": "r1", "views": "twelve"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Contains(t, err.Error(), "views")
}

func TestLiveTypesKeepDatesAsStrings(t *testing.T) {
	rv := translate(t, []model.FieldDescriptor{
		{Name: "when", Type: model.FieldTypeDate, Required: true},
	}, TranslateOptions{LiveTypesOnly: true})

	out, err := rv.Validate(model.Record{"when": "2024-03-01 10:22:33.123Z"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01 10:22:33.123Z", out["when"])
}

func TestSelectSingleValue(t *testing.T) {
	rv := translate(t, []model.FieldDescriptor{
		{Name: "status", Type: model.FieldTypeSelect, Values: []string{"active", "inactive"}, Required: true},
	}, TranslateOptions{})

	out, err := rv.Validate(model.Record{"status": "active"})
	require.NoError(t, err)
	assert.Equal(t, "active", out["status"])

	_, err = rv.Validate(model.Record{"status": "pending"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestSelectMultiValue(t *testing.T) {
	rv := translate(t, []model.FieldDescriptor{
		{Name: "status", Type: model.FieldTypeSelect, Values: []string{"active", "inactive"}, MaxSelect: 2, Required: true},
	}, TranslateOptions{})

	out, err := rv.Validate(model.Record{"status": []interface{}{"active", "inactive"}})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"active", "inactive"}, out["status"])

	// A bare string is rejected in multi-select mode.
	_, err = rv.Validate(model.Record{"status": "active"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestSelectWithoutValuesIsConfigurationError(t *testing.T) {
	_, err := NewSchemaTranslator(nil).Translate(&model.CollectionSchema{
		Name:   "posts",
		Fields: []model.FieldDescriptor{{Name: "status", Type: model.FieldTypeSelect}},
	}, TranslateOptions{}, nil)

	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestRelationAndFileFollowMaxSelect(t *testing.T) {
	rv := translate(t, []model.FieldDescriptor{
		{Name: "author", Type: model.FieldTypeRelation, Required: true},
		{Name: "images", Type: model.FieldTypeFile, MaxSelect: 99, Required: true},
	}, TranslateOptions{})

	out, err := rv.Validate(model.Record{
		"author": "usr1",
		"images": []interface{}{"a.png", "b.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "usr1", out["author"])
	assert.Equal(t, []interface{}{"a.png", "b.png"}, out["images"])
}

func TestJSONFieldUsesCallerValidator(t *testing.T) {
	schema := &model.CollectionSchema{
		Name: "posts",
		Fields: []model.FieldDescriptor{
			{Name: "meta", Type: model.FieldTypeJSON, Required: true},
			{Name: "extra", Type: model.FieldTypeJSON},
		},
	}

	called := false
	rv, err := NewSchemaTranslator(nil).Translate(schema, TranslateOptions{}, map[string]Validator{
		"meta": func(v interface{}) (interface{}, error) {
			called = true
			return v, nil
		},
	})
	require.NoError(t, err)

	out, err := rv.Validate(model.Record{"meta": map[string]interface{}{"a": float64(1)}, "extra": []interface{}{"x"}})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, []interface{}{"x"}, out["extra"], "json without caller validator accepts anything")
}

func TestHiddenFieldsSkippedWithoutSuperuserRights(t *testing.T) {
	log := &MockLogger{}
	translator := NewSchemaTranslator(log)
	schema := &model.CollectionSchema{
		Name: "posts",
		Fields: []model.FieldDescriptor{
			{Name: "secret", Type: model.FieldTypeText, Hidden: true},
			{Name: "title", Type: model.FieldTypeText},
		},
	}

	rv, err := translator.Translate(schema, TranslateOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"title"}, rv.FieldNames())
	assert.Empty(t, log.Warnings, "silently skipped when not explicitly requested")

	// Explicitly requesting the hidden field warns.
	rv, err = translator.Translate(schema, TranslateOptions{FieldsToInclude: []string{"secret", "title"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"title"}, rv.FieldNames())
	assert.NotEmpty(t, log.Warnings)

	// With superuser rights the hidden field is translated.
	rv, err = translator.Translate(schema, TranslateOptions{HasSuperuserRights: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"secret", "title"}, rv.FieldNames())
}

func TestFieldsToIncludeRestrictsTranslation(t *testing.T) {
	rv := translate(t, []model.FieldDescriptor{
		{Name: "a", Type: model.FieldTypeText},
		{Name: "b", Type: model.FieldTypeText},
		{Name: "c", Type: model.FieldTypeText},
	}, TranslateOptions{FieldsToInclude: []string{"a", "c"}})

	assert.Equal(t, []string{"a", "c"}, rv.FieldNames())
}

func TestRequiredRules(t *testing.T) {
	tests := []struct {
		name     string
		field    model.FieldDescriptor
		opts     TranslateOptions
		required bool
	}{
		{"declared required", model.FieldDescriptor{Name: "f", Type: model.FieldTypeText, Required: true}, TranslateOptions{}, true},
		{"autodate with onCreate", model.FieldDescriptor{Name: "f", Type: model.FieldTypeAutodate, OnCreate: true}, TranslateOptions{}, true},
		{"autodate without onCreate", model.FieldDescriptor{Name: "f", Type: model.FieldTypeAutodate}, TranslateOptions{}, false},
		{"number under improveTypes", model.FieldDescriptor{Name: "f", Type: model.FieldTypeNumber}, TranslateOptions{ImproveTypes: true}, true},
		{"bool under improveTypes", model.FieldDescriptor{Name: "f", Type: model.FieldTypeBool}, TranslateOptions{ImproveTypes: true}, true},
		{"text under improveTypes", model.FieldDescriptor{Name: "f", Type: model.FieldTypeText}, TranslateOptions{ImproveTypes: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.required, isRequired(tt.field, tt.opts))
		})
	}
}

func TestRequiredFieldAbsentFailsValidation(t *testing.T) {
	rv := translate(t, []model.FieldDescriptor{
		{Name: "views", Type: model.FieldTypeNumber},
	}, TranslateOptions{ImproveTypes: true})

	_, err := rv.Validate(model.Record{"id": "r1"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestFalsyOptionalValuesCoercedToAbsent(t *testing.T) {
	rv := translate(t, []model.FieldDescriptor{
		{Name: "views", Type: model.FieldTypeNumber},
		{Name: "title", Type: model.FieldTypeText},
		{Name: "flag", Type: model.FieldTypeBool},
	}, TranslateOptions{})

	// The remote returns zero-values for unset fields; optional fields
	// treat them as absent instead of failing validation.
	out, err := rv.Validate(model.Record{
		"id":    "r1",
		"views": float64(0),
		"title": "",
		"flag":  false,
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "views")
	assert.NotContains(t, out, "title")
	assert.NotContains(t, out, "flag")
}

func TestRequiredFieldKeepsFalsyValue(t *testing.T) {
	rv := translate(t, []model.FieldDescriptor{
		{Name: "views", Type: model.FieldTypeNumber, Required: true},
	}, TranslateOptions{})

	out, err := rv.Validate(model.Record{"views": float64(0)})
	require.NoError(t, err)
	assert.Equal(t, float64(0), out["views"])
}

func TestCheckSyncFieldsWarnings(t *testing.T) {
	schema := &model.CollectionSchema{
		Name: "posts",
		Fields: []model.FieldDescriptor{
			{Name: "title", Type: model.FieldTypeText},
			{Name: "changed", Type: model.FieldTypeAutodate, OnUpdate: true},
			{Name: "frozen", Type: model.FieldTypeAutodate},
		},
	}

	tests := []struct {
		name      string
		opts      CollectionOptions
		wantWarns int
	}{
		{"all good", CollectionOptions{IDField: "title", ContentFields: []string{"title"}, UpdatedField: "changed"}, 0},
		{"missing id field", CollectionOptions{IDField: "nope", UpdatedField: "changed"}, 1},
		{"missing content field", CollectionOptions{ContentFields: []string{"nope"}, UpdatedField: "changed"}, 1},
		{"no updated field", CollectionOptions{}, 1},
		{"updated field absent from schema", CollectionOptions{UpdatedField: "nope"}, 1},
		{"updated field without onUpdate", CollectionOptions{UpdatedField: "frozen"}, 1},
		{"updated field wrong type", CollectionOptions{UpdatedField: "title"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &MockLogger{}
			NewSchemaTranslator(log).CheckSyncFields(schema, tt.opts)
			assert.Len(t, log.Warnings, tt.wantWarns)
		})
	}
}
