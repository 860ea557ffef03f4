package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const connectionCheckTimeout = 10 * time.Second

// ConnectionChecker probes a remote service for reachability.
type ConnectionChecker interface {
	CheckConnection(ctx context.Context) error
}

type StatusHandler struct {
	sonarr ConnectionChecker
	mal    ConnectionChecker
}

func NewStatusHandler(sonarr, mal ConnectionChecker) *StatusHandler {
	return &StatusHandler{sonarr: sonarr, mal: mal}
}

func (h *StatusHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), connectionCheckTimeout)
	defer cancel()

	resp := fiber.Map{}
	resp["sonarr"] = checkOne(ctx, h.sonarr)
	resp["mal"] = checkOne(ctx, h.mal)

	return c.JSON(resp)
}

func checkOne(ctx context.Context, checker ConnectionChecker) fiber.Map {
	if err := checker.CheckConnection(ctx); err != nil {
		return fiber.Map{"connected": false, "error": err.Error()}
	}
	return fiber.Map{"connected": true}
}
