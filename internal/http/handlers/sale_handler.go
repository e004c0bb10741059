package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"facturacion/internal/domain"
	applog "facturacion/internal/log"
	"facturacion/internal/services"
)

type SaleHandler struct {
	Sales *services.SaleService
}

type saleLineRequest struct {
	ID       *int64 `json:"id"`
	Quantity *int   `json:"quantity"`
}

type saleRequest struct {
	CustomerID *int64            `json:"customer_id"`
	Products   []saleLineRequest `json:"products"`
}

func (r saleRequest) lines() ([]domain.LineRequest, error) {
	out := make([]domain.LineRequest, 0, len(r.Products))
	for i, p := range r.Products {
		if p.ID == nil || p.Quantity == nil {
			return nil, fmt.Errorf("products[%d] needs id and quantity", i)
		}
		out = append(out, domain.LineRequest{ProductID: *p.ID, Quantity: *p.Quantity})
	}
	return out, nil
}

func (h *SaleHandler) List(c *fiber.Ctx) error {
	list, err := h.Sales.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *SaleHandler) Get(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "sale.get", "invalid sale id")
	}
	v, err := h.Sales.Get(c.UserContext(), id)
	if err != nil {
		return respondErr(c, "sale.get", err)
	}
	return c.JSON(v)
}

func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var req saleRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "sale.create", err.Error())
	}
	if req.CustomerID == nil {
		return respondErr(c, "sale.create", domain.ErrCustomerRequired)
	}
	if len(req.Products) == 0 {
		return respondErr(c, "sale.create", domain.ErrItemsRequired)
	}
	lines, err := req.lines()
	if err != nil {
		return badRequest(c, "sale.create", err.Error())
	}

	productIDs := make([]int64, len(lines))
	quantities := make([]int, len(lines))
	for i, l := range lines {
		productIDs[i], quantities[i] = l.ProductID, l.Quantity
	}

	v, err := h.Sales.Create(c.UserContext(), *req.CustomerID, productIDs, quantities)
	if err != nil {
		return respondErr(c, "sale.create", err)
	}
	applog.Audit(c, "sale.create", map[string]any{"sale_id": v.ID, "total": v.Total, "lines": len(v.Products)})
	return c.Status(fiber.StatusCreated).JSON(v)
}

// Update takes a partial body. An absent or empty products list keeps the
// current lines.
func (h *SaleHandler) Update(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "sale.update", "invalid sale id")
	}
	var req saleRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "sale.update", err.Error())
	}
	lines, err := req.lines()
	if err != nil {
		return badRequest(c, "sale.update", err.Error())
	}

	v, err := h.Sales.Update(c.UserContext(), id, services.SaleUpdate{CustomerID: req.CustomerID, Lines: lines})
	if err != nil {
		return respondErr(c, "sale.update", err)
	}
	applog.Audit(c, "sale.update", map[string]any{"sale_id": v.ID, "total": v.Total})
	return c.JSON(v)
}

func (h *SaleHandler) Delete(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "sale.delete", "invalid sale id")
	}
	if err := h.Sales.Delete(c.UserContext(), id); err != nil {
		return respondErr(c, "sale.delete", err)
	}
	applog.Audit(c, "sale.delete", map[string]any{"sale_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
