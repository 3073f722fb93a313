package usecase

import (
	"fmt"
	"time"

	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/shared/errors"
	"pocketmirror/internal/shared/logger"
)

// Validator checks one field value and returns its normalized form.
type Validator func(value interface{}) (interface{}, error)

// TranslateOptions control how a remote schema becomes a validator graph.
type TranslateOptions struct {
	// HasSuperuserRights exposes hidden fields. Without it hidden fields
	// are skipped entirely.
	HasSuperuserRights bool

	// ImproveTypes makes number and bool fields required, refusing to
	// treat absent numeric/boolean fields as valid.
	ImproveTypes bool

	// FieldsToInclude restricts translation to the named fields. Nil means
	// all fields.
	FieldsToInclude []string

	// LiveTypesOnly keeps date fields as strings instead of parsing them.
	LiveTypesOnly bool
}

type fieldRule struct {
	validate Validator
	required bool
}

// RecordValidator validates a whole record, one rule per translated field.
type RecordValidator struct {
	rules map[string]fieldRule
	order []string
}

// FieldNames returns the translated field names in schema order.
func (rv *RecordValidator) FieldNames() []string {
	out := make([]string, len(rv.order))
	copy(out, rv.order)
	return out
}

// Validate applies every field rule to rec and returns the transformed
// record. Falsy values of non-required fields are coerced to absent before
// validation, matching the remote convention of returning zero-values for
// unset fields. A failure is a ValidationError naming the field.
func (rv *RecordValidator) Validate(rec model.Record) (model.Record, error) {
	out := rec.Clone()
	for _, name := range rv.order {
		rule := rv.rules[name]
		value, present := rec[name]

		if !present || (!rule.required && model.IsFalsy(value)) {
			if rule.required {
				return nil, errors.NewValidationError(fmt.Sprintf("field %s: required but absent", name))
			}
			delete(out, name)
			continue
		}

		normalized, err := rule.validate(value)
		if err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("field %s: %v", name, err))
		}
		out[name] = normalized
	}
	return out, nil
}

// SchemaTranslator converts remote field descriptors into typed validators.
type SchemaTranslator struct {
	log logger.Logger
}

// NewSchemaTranslator creates a translator. log may be nil.
func NewSchemaTranslator(log logger.Logger) *SchemaTranslator {
	if log == nil {
		log = logger.NewNoop()
	}
	return &SchemaTranslator{log: log.WithComponent("schema")}
}

// Translate builds the validator graph for a collection schema.
// jsonValidators optionally supplies caller validators for json-typed
// fields. A select field without declared values is a ConfigurationError.
func (t *SchemaTranslator) Translate(schema *model.CollectionSchema, opts TranslateOptions, jsonValidators map[string]Validator) (*RecordValidator, error) {
	log := t.log.WithCollection(schema.Name)
	rv := &RecordValidator{rules: make(map[string]fieldRule)}

	for _, field := range schema.Fields {
		if opts.FieldsToInclude != nil && !containsString(opts.FieldsToInclude, field.Name) {
			continue
		}
		if field.Hidden && !opts.HasSuperuserRights {
			if containsString(opts.FieldsToInclude, field.Name) {
				log.Warnf("field %q is hidden and superuser rights are missing, skipping it", field.Name)
			}
			continue
		}

		validate, err := t.fieldValidator(schema.Name, field, opts, jsonValidators)
		if err != nil {
			return nil, err
		}

		rv.rules[field.Name] = fieldRule{
			validate: validate,
			required: isRequired(field, opts),
		}
		rv.order = append(rv.order, field.Name)
	}
	return rv, nil
}

// fieldValidator maps one descriptor to its base validator. The switch is
// exhaustive over the closed field type set; unknown types degrade to string.
func (t *SchemaTranslator) fieldValidator(collection string, field model.FieldDescriptor, opts TranslateOptions, jsonValidators map[string]Validator) (Validator, error) {
	switch field.Type {
	case model.FieldTypeNumber:
		return validateNumber, nil

	case model.FieldTypeBool:
		return validateBool, nil

	case model.FieldTypeDate, model.FieldTypeAutodate:
		if opts.LiveTypesOnly {
			return validateString, nil
		}
		return validateDate, nil

	case model.FieldTypeGeoPoint:
		return validateGeoPoint, nil

	case model.FieldTypeSelect:
		if len(field.Values) == 0 {
			return nil, errors.NewConfigurationError(fmt.Sprintf(
				"collection %s: select field %q has no declared values", collection, field.Name))
		}
		enum := newEnumValidator(field.Values)
		if field.MaxSelect > 1 {
			return newListValidator(enum), nil
		}
		return enum, nil

	case model.FieldTypeRelation, model.FieldTypeFile:
		// Relations are not resolved to related records; file names are
		// rewritten to URLs by a downstream collaborator.
		if field.MaxSelect > 1 {
			return newListValidator(validateString), nil
		}
		return validateString, nil

	case model.FieldTypeJSON:
		if v, ok := jsonValidators[field.Name]; ok {
			return v, nil
		}
		return validateAny, nil

	case model.FieldTypeText, model.FieldTypeEditor, model.FieldTypeEmail,
		model.FieldTypeURL, model.FieldTypePassword:
		return validateString, nil

	default:
		return validateString, nil
	}
}

// isRequired decides whether a field must be present: declared required,
// an autodate guaranteed by onCreate, or numeric/boolean under improveTypes.
func isRequired(field model.FieldDescriptor, opts TranslateOptions) bool {
	if field.Required {
		return true
	}
	if field.Type == model.FieldTypeAutodate && field.OnCreate {
		return true
	}
	if opts.ImproveTypes && (field.Type == model.FieldTypeNumber || field.Type == model.FieldTypeBool) {
		return true
	}
	return false
}

// CheckSyncFields emits diagnostic warnings for configuration mismatches
// between the mirror options and the collection schema. They never abort
// processing; they degrade functionality and surface to the operator.
func (t *SchemaTranslator) CheckSyncFields(schema *model.CollectionSchema, opts CollectionOptions) {
	log := t.log.WithCollection(schema.Name)

	if opts.IDField != "" && schema.Field(opts.IDField) == nil {
		log.Warnf("configured id field %q does not exist in the schema, falling back to remote ids", opts.IDField)
	}
	for _, name := range opts.ContentFields {
		if schema.Field(name) == nil {
			log.Warnf("configured content field %q does not exist in the schema", name)
		}
	}
	if opts.UpdatedField == "" {
		log.Warn("no updated field configured, incremental sync is disabled")
		return
	}
	field := schema.Field(opts.UpdatedField)
	switch {
	case field == nil:
		log.Warnf("configured updated field %q does not exist in the schema, incremental sync is disabled", opts.UpdatedField)
	case field.Type == model.FieldTypeAutodate && !field.OnUpdate:
		log.Warnf("updated field %q is an autodate without onUpdate, it will not track changes", opts.UpdatedField)
	case field.Type != model.FieldTypeAutodate && field.Type != model.FieldTypeDate:
		log.Warnf("updated field %q has type %s, expected a date or autodate field", opts.UpdatedField, field.Type)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Base validators

func validateString(v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func validateNumber(v interface{}) (interface{}, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return nil, fmt.Errorf("expected number, got %T", v)
	}
}

func validateBool(v interface{}) (interface{}, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("expected bool, got %T", v)
	}
	return b, nil
}

func validateDate(v interface{}) (interface{}, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		parsed, err := model.ParseTimestamp(d)
		if err != nil {
			return nil, err
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("expected date string, got %T", v)
	}
}

func validateGeoPoint(v interface{}) (interface{}, error) {
	if p, ok := v.(model.GeoPoint); ok {
		return p, nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected geo point object, got %T", v)
	}
	lon, err := validateNumber(m["lon"])
	if err != nil {
		return nil, fmt.Errorf("lon: %v", err)
	}
	lat, err := validateNumber(m["lat"])
	if err != nil {
		return nil, fmt.Errorf("lat: %v", err)
	}
	return model.GeoPoint{Lon: lon.(float64), Lat: lat.(float64)}, nil
}

func validateAny(v interface{}) (interface{}, error) {
	return v, nil
}

func newEnumValidator(values []string) Validator {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	return func(v interface{}) (interface{}, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected one of %v, got %T", values, v)
		}
		if _, ok := allowed[s]; !ok {
			return nil, fmt.Errorf("value %q is not one of %v", s, values)
		}
		return s, nil
	}
}

func newListValidator(inner Validator) Validator {
	return func(v interface{}) (interface{}, error) {
		var items []interface{}
		switch list := v.(type) {
		case []interface{}:
			items = list
		case []string:
			items = make([]interface{}, len(list))
			for i, s := range list {
				items[i] = s
			}
		default:
			return nil, fmt.Errorf("expected list, got %T", v)
		}
		out := make([]interface{}, len(items))
		for i, item := range items {
			normalized, err := inner(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %v", i, err)
			}
			out[i] = normalized
		}
		return out, nil
	}
}
