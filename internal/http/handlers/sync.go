package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/mpetrov/anisync/internal/malauth"
	"github.com/mpetrov/anisync/internal/models"
	"github.com/mpetrov/anisync/internal/sync"
)

// RunHistory reads back summaries of finished reconciliation passes.
type RunHistory interface {
	ListRecent(limit int) ([]models.SyncRunSummary, error)
}

type startSyncRequest struct {
	DryRun        bool    `json:"dryRun"`
	MinScore      float64 `json:"minScore"`
	DefaultStatus string  `json:"defaultStatus"`
}

type SyncHandler struct {
	engine  *sync.Engine
	history RunHistory
	logger  *slog.Logger
}

func NewSyncHandler(engine *sync.Engine, history RunHistory, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{engine: engine, history: history, logger: logger}
}

// Start kicks off a reconciliation pass in the background and returns the
// session id. The worker is detached from the request context so closing
// the connection does not abort the run.
func (h *SyncHandler) Start(c *fiber.Ctx) error {
	var req startSyncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "invalid request body",
			})
		}
	}

	sessionID := h.engine.Start(context.Background(), sync.Options{
		DryRun:        req.DryRun,
		MinScore:      req.MinScore,
		DefaultStatus: req.DefaultStatus,
	})

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"sessionId": sessionID,
		"dryRun":    req.DryRun,
	})
}

func (h *SyncHandler) Status(c *fiber.Ctx) error {
	session, ok := h.engine.Registry().Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "session not found",
		})
	}

	return c.JSON(session.Snapshot())
}

// Preview runs a dry pass inline and returns the per-item decisions
// without mutating the remote list.
func (h *SyncHandler) Preview(c *fiber.Ctx) error {
	results, err := h.engine.Preview(c.Context())
	if err != nil {
		if errors.Is(err, malauth.ErrNotAuthenticated) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "not authenticated with myanimelist",
			})
		}
		h.logger.Error("preview failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "preview failed",
		})
	}
	if results == nil {
		results = []models.SyncItemResult{}
	}

	return c.JSON(fiber.Map{
		"count":   len(results),
		"results": results,
	})
}

func (h *SyncHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	runs, err := h.history.ListRecent(limit)
	if err != nil {
		h.logger.Error("failed to list sync runs", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "failed to list sync runs",
		})
	}
	if runs == nil {
		runs = []models.SyncRunSummary{}
	}

	return c.JSON(fiber.Map{
		"count": len(runs),
		"runs":  runs,
	})
}
