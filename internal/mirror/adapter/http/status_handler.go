// Package http exposes the mirror's read-only HTTP surface: health, the
// mirrored collections with their sync state, and cached record access.
package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"pocketmirror/internal/mirror/domain/repository"
	"pocketmirror/internal/shared/logger"
)

// StoreView is the slice of a cache store the HTTP surface reads from.
type StoreView interface {
	Collection(name string) repository.RecordCache
	Metadata(name string) repository.SyncMetadata
}

// CollectionStatus describes one mirrored collection's sync state.
type CollectionStatus struct {
	Name          string `json:"name"`
	Entries       int    `json:"entries"`
	LastModified  string `json:"lastModified,omitempty"`
	SchemaVersion string `json:"schemaVersion,omitempty"`
}

// MirrorHTTPHandler serves the read-only mirror API.
type MirrorHTTPHandler struct {
	store       StoreView
	collections []string
	log         logger.Logger
	started     time.Time
}

// NewMirrorHTTPHandler creates a handler over the given store, restricted to
// the configured collections. log may be nil.
func NewMirrorHTTPHandler(store StoreView, collections []string, log logger.Logger) *MirrorHTTPHandler {
	if log == nil {
		log = logger.NewNoop()
	}
	return &MirrorHTTPHandler{
		store:       store,
		collections: collections,
		log:         log.WithComponent("http"),
		started:     time.Now(),
	}
}

// SetupRoutes registers the mirror routes on a router.
func (h *MirrorHTTPHandler) SetupRoutes(router fiber.Router) {
	router.Get("/healthz", h.Health)
	router.Get("/api/mirror/collections", h.ListCollections)
	router.Get("/api/mirror/collections/:collection/records", h.ListRecords)
	router.Get("/api/mirror/collections/:collection/records/:key", h.GetRecord)
}

// Health reports liveness.
func (h *MirrorHTTPHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"uptime": time.Since(h.started).String(),
	})
}

// ListCollections reports every mirrored collection's sync state.
func (h *MirrorHTTPHandler) ListCollections(c *fiber.Ctx) error {
	out := make([]CollectionStatus, 0, len(h.collections))
	for _, name := range h.collections {
		keys, err := h.store.Collection(name).Keys(c.Context())
		if err != nil {
			h.log.Errorf("failed to read keys of collection %s: %v", name, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to read the cache",
			})
		}
		meta := h.store.Metadata(name)
		lastModified, _ := meta.Get(c.Context(), repository.MetaLastModified)
		version, _ := meta.Get(c.Context(), repository.MetaSchemaVersion)

		out = append(out, CollectionStatus{
			Name:          name,
			Entries:       len(keys),
			LastModified:  lastModified,
			SchemaVersion: version,
		})
	}
	return c.JSON(fiber.Map{"collections": out})
}

// ListRecords returns every cached entry of one collection.
func (h *MirrorHTTPHandler) ListRecords(c *fiber.Ctx) error {
	name := c.Params("collection")
	if !h.mirrored(name) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "collection is not mirrored",
		})
	}

	entries, err := h.store.Collection(name).Values(c.Context())
	if err != nil {
		h.log.Errorf("failed to read collection %s: %v", name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read the cache",
		})
	}
	return c.JSON(fiber.Map{
		"collection": name,
		"totalItems": len(entries),
		"items":      entries,
	})
}

// GetRecord returns one cached entry by local key.
func (h *MirrorHTTPHandler) GetRecord(c *fiber.Ctx) error {
	name := c.Params("collection")
	if !h.mirrored(name) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "collection is not mirrored",
		})
	}

	entry, err := h.store.Collection(name).Get(c.Context(), c.Params("key"))
	if err != nil {
		h.log.Errorf("failed to read entry %s/%s: %v", name, c.Params("key"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read the cache",
		})
	}
	if entry == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "entry not found",
		})
	}
	return c.JSON(entry)
}

func (h *MirrorHTTPHandler) mirrored(name string) bool {
	for _, c := range h.collections {
		if c == name {
			return true
		}
	}
	return false
}
