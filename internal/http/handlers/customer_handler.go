package handlers

import (
	"github.com/gofiber/fiber/v2"

	"facturacion/internal/domain"
	applog "facturacion/internal/log"
	"facturacion/internal/services"
)

type CustomerHandler struct {
	Customers *services.CustomerService
}

type customerRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (h *CustomerHandler) List(c *fiber.Ctx) error {
	list, err := h.Customers.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *CustomerHandler) Get(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "customer.get", "invalid customer id")
	}
	cust, err := h.Customers.Get(c.UserContext(), id)
	if err != nil {
		return respondErr(c, "customer.get", err)
	}
	return c.JSON(cust)
}

func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var req customerRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "customer.create", err.Error())
	}
	cust, err := h.Customers.Create(c.UserContext(), domain.Customer{
		FirstName: deref(req.FirstName),
		LastName:  deref(req.LastName),
		Email:     deref(req.Email),
	})
	if err != nil {
		return respondErr(c, "customer.create", err)
	}
	applog.Audit(c, "customer.create", map[string]any{"customer_id": cust.ID})
	return c.Status(fiber.StatusCreated).JSON(cust)
}

// Update applies the fields present in the body; omitted ones are kept.
func (h *CustomerHandler) Update(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "customer.update", "invalid customer id")
	}
	var req customerRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "customer.update", err.Error())
	}
	cust, err := h.Customers.Update(c.UserContext(), id, services.CustomerPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		return respondErr(c, "customer.update", err)
	}
	applog.Audit(c, "customer.update", map[string]any{"customer_id": id})
	return c.JSON(cust)
}

func (h *CustomerHandler) Delete(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "customer.delete", "invalid customer id")
	}
	if err := h.Customers.Delete(c.UserContext(), id); err != nil {
		return respondErr(c, "customer.delete", err)
	}
	applog.Audit(c, "customer.delete", map[string]any{"customer_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
