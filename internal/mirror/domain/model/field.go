package model

// FieldType is the closed set of remote schema field types.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEditor   FieldType = "editor"
	FieldTypeNumber   FieldType = "number"
	FieldTypeBool     FieldType = "bool"
	FieldTypeEmail    FieldType = "email"
	FieldTypeURL      FieldType = "url"
	FieldTypeDate     FieldType = "date"
	FieldTypeAutodate FieldType = "autodate"
	FieldTypeSelect   FieldType = "select"
	FieldTypeFile     FieldType = "file"
	FieldTypeRelation FieldType = "relation"
	FieldTypeJSON     FieldType = "json"
	FieldTypeGeoPoint FieldType = "geoPoint"
	FieldTypePassword FieldType = "password"
)

// FieldDescriptor describes one remote schema field. Immutable snapshot
// fetched from the remote schema endpoint or a local schema file.
type FieldDescriptor struct {
	Name      string    `json:"name"`
	Type      FieldType `json:"type"`
	Required  bool      `json:"required,omitempty"`
	Hidden    bool      `json:"hidden,omitempty"`
	Values    []string  `json:"values,omitempty"`
	MaxSelect int       `json:"maxSelect,omitempty"`
	OnCreate  bool      `json:"onCreate,omitempty"`
	OnUpdate  bool      `json:"onUpdate,omitempty"`
}

// CollectionSchema is the ordered field list of one remote collection.
type CollectionSchema struct {
	Name   string            `json:"name"`
	Type   string            `json:"type"`
	Fields []FieldDescriptor `json:"fields"`
}

// Field returns the descriptor with the given name, or nil.
func (s *CollectionSchema) Field(name string) *FieldDescriptor {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// GeoPoint is the typed value of a geoPoint field.
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}
