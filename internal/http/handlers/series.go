package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/mpetrov/anisync/internal/models"
)

// Catalog lists the anime series known to the media manager.
type Catalog interface {
	AnimeSeries(ctx context.Context) ([]models.SeriesItem, error)
}

type SeriesHandler struct {
	catalog Catalog
	logger  *slog.Logger
}

func NewSeriesHandler(catalog Catalog, logger *slog.Logger) *SeriesHandler {
	return &SeriesHandler{catalog: catalog, logger: logger}
}

func (h *SeriesHandler) List(c *fiber.Ctx) error {
	items, err := h.catalog.AnimeSeries(c.Context())
	if err != nil {
		h.logger.Error("failed to fetch series", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "failed to fetch series from sonarr",
		})
	}
	if items == nil {
		items = []models.SeriesItem{}
	}

	return c.JSON(fiber.Map{
		"count": len(items),
		"items": items,
	})
}
