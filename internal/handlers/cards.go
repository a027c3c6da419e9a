package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"placeimages/internal/display"
	"placeimages/internal/handlers/api"
	"placeimages/internal/imagepath"
)

// CardHandler renders entity image cards as HTML partials.
type CardHandler struct {
	entities api.EntitySource
	display  *display.Orchestrator
}

// NewCardHandler creates a new card handler.
func NewCardHandler(entities api.EntitySource, orch *display.Orchestrator) *CardHandler {
	return &CardHandler{entities: entities, display: orch}
}

// Show renders the image card of one entity: the loaded image, tagged when it
// was generated, or the type icon.
func (h *CardHandler) Show(c fiber.Ctx) error {
	e, ferr := api.LookupEntity(c, h.entities)
	if ferr != nil {
		return ferr
	}

	index, err := strconv.Atoi(c.Query("index", "0"))
	if err != nil || index < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid image index")
	}

	snap := h.display.Render(c.Context(), e, index)
	url, icon := snap.Render()
	if url != "" && !snap.IsGenerated {
		url = imagepath.Sized(url, c.Query("size", imagepath.SizeMedium))
	}

	return c.Render("partials/image_card", fiber.Map{
		"Name":      e.Name,
		"Type":      e.Category(),
		"URL":       url,
		"Generated": snap.IsGenerated,
		"Icon":      icon,
		"State":     snap.State.String(),
	})
}
