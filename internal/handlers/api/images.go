package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"placeimages/internal/db"
	"placeimages/internal/display"
	"placeimages/internal/fallback"
	"placeimages/internal/imagepath"
	"placeimages/internal/models"
	"placeimages/internal/validation"
)

// Prewarm request limits.
const (
	defaultPrewarmLimit = 50
	maxPrewarmLimit     = 500
)

// EntitySource loads entity records.
type EntitySource interface {
	GetEntity(ctx context.Context, kind models.Kind, id string) (*models.Entity, error)
	ListEntitiesWithoutImages(ctx context.Context, kind models.Kind, limit int) ([]*models.Entity, error)
}

// ImageHandler serves display image resolution via JSON API.
type ImageHandler struct {
	entities  EntitySource
	resolver  *imagepath.Resolver
	generator *fallback.Generator
	display   *display.Orchestrator
}

// NewImageHandler creates a new API image handler.
func NewImageHandler(entities EntitySource, resolver *imagepath.Resolver, generator *fallback.Generator, orch *display.Orchestrator) *ImageHandler {
	return &ImageHandler{entities: entities, resolver: resolver, generator: generator, display: orch}
}

// Get resolves the display image of a stored entity.
func (h *ImageHandler) Get(c fiber.Ctx) error {
	e, ferr := h.lookup(c)
	if ferr != nil {
		return jsonError(c, ferr.Code, ferr.Message)
	}

	index, err := queryIndex(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid image index")
	}

	return jsonSuccess(c, h.render(c, e, index))
}

// All lists every stored image of an entity.
func (h *ImageHandler) All(c fiber.Ctx) error {
	e, ferr := h.lookup(c)
	if ferr != nil {
		return jsonError(c, ferr.Code, ferr.Message)
	}

	urls := h.resolver.ResolveAll(e)
	if urls == nil {
		urls = []string{}
	}
	return jsonSuccess(c, models.ImageListResponse{EntityID: e.ID, Kind: e.Kind, URLs: urls})
}

// Resolve resolves the display image of an entity record posted as the body.
func (h *ImageHandler) Resolve(c fiber.Ctx) error {
	var e models.Entity
	if err := json.Unmarshal(c.Body(), &e); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if e.Kind == "" {
		if kind, ok := models.ParseKind(c.Query("kind", "")); ok {
			e.Kind = kind
		}
	}

	index, err := queryIndex(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid image index")
	}

	return jsonSuccess(c, h.render(c, &e, index))
}

// Prewarm generates fallbacks for stored entities that have no image.
func (h *ImageHandler) Prewarm(c fiber.Ctx) error {
	kinds := models.Kinds
	if raw := c.Query("kind", ""); raw != "" {
		kind, ok := models.ParseKind(raw)
		if !ok {
			return jsonError(c, fiber.StatusBadRequest, "unknown entity kind")
		}
		kinds = []models.Kind{kind}
	}

	limit := defaultPrewarmLimit
	if raw := c.Query("limit", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return jsonError(c, fiber.StatusBadRequest, "invalid limit")
		}
		limit = min(n, maxPrewarmLimit)
	}

	var entities []*models.Entity
	for _, kind := range kinds {
		list, err := h.entities.ListEntitiesWithoutImages(c.Context(), kind, limit)
		if err != nil {
			slog.Error("failed to list entities for prewarm", "kind", kind, "error", err)
			return jsonError(c, fiber.StatusInternalServerError, "failed to list entities")
		}
		entities = append(entities, list...)
	}

	res, err := h.generator.Prewarm(c.Context(), entities)
	if err != nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "prewarm interrupted")
	}

	return jsonSuccess(c, models.PrewarmResponse{
		Requested: res.Requested,
		Resolved:  res.Resolved,
		Skipped:   res.Skipped,
		Failed:    res.Failed,
	})
}

// CacheStats returns the fallback cache statistics.
func (h *ImageHandler) CacheStats(c fiber.Ctx) error {
	s := h.generator.Stats()
	return jsonSuccess(c, models.CacheStatsResponse{CacheSize: s.CacheSize, InFlight: s.InFlight, PlaceIDs: s.PlaceIDs})
}

// ClearCache empties the fallback cache.
func (h *ImageHandler) ClearCache(c fiber.Ctx) error {
	h.generator.Clear()
	return jsonSuccess(c, fiber.Map{"cleared": true})
}

// lookup loads the entity named by the :kind and :id path params.
func (h *ImageHandler) lookup(c fiber.Ctx) (*models.Entity, *fiber.Error) {
	return LookupEntity(c, h.entities)
}

// LookupEntity loads the entity named by the :kind and :id path params from src.
// Failures are returned as the status and message to send.
func LookupEntity(c fiber.Ctx, src EntitySource) (*models.Entity, *fiber.Error) {
	kind, ok := models.ParseKind(c.Params("kind"))
	if !ok {
		return nil, fiber.NewError(fiber.StatusBadRequest, "unknown entity kind")
	}
	id := c.Params("id")
	if !validation.ValidateEntityID(id) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid entity id")
	}

	e, err := src.GetEntity(c.Context(), kind, id)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrEntityNotFound):
			return nil, fiber.NewError(fiber.StatusNotFound, "entity not found")
		case errors.Is(err, db.ErrUnknownKind):
			return nil, fiber.NewError(fiber.StatusBadRequest, "unknown entity kind")
		}
		slog.Error("failed to fetch entity", "kind", kind, "id", id, "error", err)
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to fetch entity")
	}
	return e, nil
}

func (h *ImageHandler) render(c fiber.Ctx, e *models.Entity, index int) models.ImageResponse {
	snap := h.display.Render(c.Context(), e, index)
	return imageResponse(e, index, snap, c.Query("size", ""))
}

// imageResponse converts a display snapshot to its API form. Stored images are
// sized; generated ones already carry their provider dimensions.
func imageResponse(e *models.Entity, index int, snap display.Snapshot, size string) models.ImageResponse {
	resp := models.ImageResponse{
		Index:       index,
		State:       snap.State.String(),
		IsGenerated: snap.IsGenerated,
		Retries:     snap.Retries,
	}
	if e != nil {
		resp.EntityID = e.ID
		resp.Kind = e.Kind
	}

	url, icon := snap.Render()
	if url != "" && !snap.IsGenerated {
		url = imagepath.Sized(url, size)
	}
	resp.URL = url
	resp.Icon = icon
	return resp
}

func queryIndex(c fiber.Ctx) (int, error) {
	raw := c.Query("index", "")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid index")
	}
	return n, nil
}
