package handlers

import (
	"github.com/gofiber/fiber/v2"

	"facturacion/internal/services"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "availability.check", "invalid product id")
	}
	avail, err := h.Inv.CheckAvailability(c.UserContext(), id)
	if err != nil {
		return respondErr(c, "availability.check", err)
	}
	return c.JSON(avail)
}
