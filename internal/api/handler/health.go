package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/sereno/internal/probe"
)

// Pinger reports database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendStatus reports the cached inference backend verdict.
type BackendStatus interface {
	Status() probe.Status
}

type HealthHandler struct {
	db      Pinger
	backend BackendStatus
}

func NewHealthHandler(db Pinger, backend BackendStatus) *HealthHandler {
	return &HealthHandler{
		db:      db,
		backend: backend,
	}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Backend string `json:"backend,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	resp := HealthResponse{
		Status:  "ok",
		Version: "0.1.0",
	}
	if h.backend != nil {
		resp.Backend = h.backend.Status().String()
	}
	return c.JSON(resp)
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.db != nil {
		if err := h.db.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
				Status: "unavailable",
			})
		}
	}

	return c.JSON(HealthResponse{
		Status: "ready",
	})
}
