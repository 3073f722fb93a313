package model

// System field names every remote record carries.
const (
	FieldID             = "id"
	FieldCollectionID   = "collectionId"
	FieldCollectionName = "collectionName"
	FieldCreated        = "created"
	FieldUpdated        = "updated"
)

// Record is an immutable snapshot of one remote record at fetch time: an
// opaque mapping from field name to value. The remote service owns the
// shape; the mirror only relies on the system fields above.
type Record map[string]interface{}

// ID returns the remote record identifier.
func (r Record) ID() string {
	return r.GetString(FieldID)
}

// CollectionID returns the remote collection identifier.
func (r Record) CollectionID() string {
	return r.GetString(FieldCollectionID)
}

// CollectionName returns the remote collection name.
func (r Record) CollectionName() string {
	return r.GetString(FieldCollectionName)
}

// GetString returns the named field as a string, or "" when the field is
// absent or not a string.
func (r Record) GetString(field string) string {
	if v, ok := r[field].(string); ok {
		return v
	}
	return ""
}

// Has reports whether the named field is present.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IsFalsy reports whether a field value is one of the zero-values the remote
// service uses for unset fields: "", 0, false, nil, or an empty list.
func IsFalsy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case float32:
		return t == 0
	case int:
		return t == 0
	case int64:
		return t == 0
	case []interface{}:
		return len(t) == 0
	case []string:
		return len(t) == 0
	default:
		return false
	}
}
