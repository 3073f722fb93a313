package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"pocketmirror/internal/mirror/domain/model"
	"pocketmirror/internal/mirror/domain/repository"
	"pocketmirror/internal/shared/logger"
	"pocketmirror/internal/shared/utils"
)

// Normalizer maps one raw remote record into the local cache shape: local
// key resolution, change fingerprinting, optional content rendering, and a
// write-through to the cache. Normalization is idempotent per record.
type Normalizer struct {
	log logger.Logger
}

// NewNormalizer creates a normalizer. log may be nil.
func NewNormalizer(log logger.Logger) *Normalizer {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Normalizer{log: log.WithComponent("normalize")}
}

// Normalize validates raw through opts.Validator and writes the resulting
// cache entry. A validation failure aborts only this entry (the returned
// error satisfies errors.IsValidation); the caller continues the pass.
func (n *Normalizer) Normalize(ctx context.Context, raw model.Record, cache repository.RecordCache, opts CollectionOptions) error {
	log := n.log.WithCollection(opts.Collection)

	localKey := n.localKey(raw, opts, log)

	existing, err := cache.Get(ctx, localKey)
	if err != nil {
		return err
	}
	if existing != nil && existing.RemoteID() != raw.ID() {
		log.Warnf("local key collision: records %q and %q both map to %q because of non-unique values in field %q",
			existing.RemoteID(), raw.ID(), localKey, opts.IDField)
	}

	data := raw
	if opts.Validator != nil {
		data, err = opts.Validator.Validate(raw)
		if err != nil {
			return err
		}
	}

	entry := model.CacheEntry{
		LocalKey:    localKey,
		Data:        data,
		Fingerprint: fingerprint(raw),
	}
	if len(opts.ContentFields) > 0 {
		entry.RenderedContent = renderContent(raw, opts.ContentFields)
	}

	return cache.Set(ctx, entry)
}

// localKey resolves the effective local key: the configured id field's
// slugified value when present and truthy, else the remote id.
func (n *Normalizer) localKey(raw model.Record, opts CollectionOptions, log logger.Logger) string {
	if opts.IDField == "" {
		return raw.ID()
	}
	value, present := raw[opts.IDField]
	if !present || model.IsFalsy(value) {
		log.Warnf("record %q has no usable value in id field %q, falling back to the remote id", raw.ID(), opts.IDField)
		return raw.ID()
	}
	return utils.Slugify(stringify(value))
}

// fingerprint derives the change-detection token: the updated timestamp,
// falling back to created, falling back to the whole record for collections
// lacking change timestamps (e.g. views).
func fingerprint(raw model.Record) string {
	if v := raw.GetString(model.FieldUpdated); v != "" {
		return v
	}
	if v := raw.GetString(model.FieldCreated); v != "" {
		return v
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return raw.ID()
	}
	return string(encoded)
}

// renderContent synthesizes the rendered-content blob. A single field is
// used verbatim; multiple fields are wrapped in section markers tagged with
// the field name, preserving configured order.
func renderContent(raw model.Record, fields []string) string {
	if len(fields) == 1 {
		return stringify(raw[fields[0]])
	}
	sections := make([]string, 0, len(fields))
	for _, name := range fields {
		sections = append(sections, fmt.Sprintf("<section data-field=%q>%s</section>", name, stringify(raw[name])))
	}
	return strings.Join(sections, "\n")
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		if encoded, err := json.Marshal(t); err == nil {
			return string(encoded)
		}
		return fmt.Sprintf("%v", t)
	}
}
