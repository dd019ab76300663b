package handlers

import (
	"github.com/gofiber/fiber/v2"

	"cardman/internal/store"
)

type HealthHandler struct {
	store store.Store
}

func NewHealthHandler(st store.Store) *HealthHandler {
	return &HealthHandler{store: st}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	storeStatus := "connected"
	status := "ok"
	if err := h.store.Ping(c.UserContext()); err != nil {
		storeStatus = err.Error()
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":  status,
		"version": "1.0.0",
		"services": fiber.Map{
			"store": storeStatus,
		},
	})
}
