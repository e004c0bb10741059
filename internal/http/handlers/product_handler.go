package handlers

import (
	"github.com/gofiber/fiber/v2"

	"facturacion/internal/domain"
	applog "facturacion/internal/log"
	"facturacion/internal/services"
)

type ProductHandler struct {
	Products *services.ProductService
}

type productRequest struct {
	Name  *string `json:"name"`
	Price *int64  `json:"price"`
	Stock *int    `json:"stock"`
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	list, err := h.Products.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "product.get", "invalid product id")
	}
	p, err := h.Products.Get(c.UserContext(), id)
	if err != nil {
		return respondErr(c, "product.get", err)
	}
	return c.JSON(p)
}

// Create requires name and price; stock defaults to zero.
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req productRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "product.create", err.Error())
	}
	if req.Price == nil {
		return badRequest(c, "product.create", "price is required")
	}
	p := domain.Product{Name: deref(req.Name), Price: *req.Price}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	p, err := h.Products.Create(c.UserContext(), p)
	if err != nil {
		return respondErr(c, "product.create", err)
	}
	applog.Audit(c, "product.create", map[string]any{"product_id": p.ID, "stock": p.Stock})
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "product.update", "invalid product id")
	}
	var req productRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "product.update", err.Error())
	}
	p, err := h.Products.Update(c.UserContext(), id, services.ProductPatch{
		Name:  req.Name,
		Price: req.Price,
		Stock: req.Stock,
	})
	if err != nil {
		return respondErr(c, "product.update", err)
	}
	applog.Audit(c, "product.update", map[string]any{"product_id": id, "stock": p.Stock})
	return c.JSON(p)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "product.delete", "invalid product id")
	}
	if err := h.Products.Delete(c.UserContext(), id); err != nil {
		return respondErr(c, "product.delete", err)
	}
	applog.Audit(c, "product.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
