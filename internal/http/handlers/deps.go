package handlers

import (
	"github.com/gofiber/fiber/v2"

	"facturacion/internal/metrics"
	"facturacion/internal/repos"
	"facturacion/internal/services"
)

type Deps struct {
	CustomerHandler  *CustomerHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	SaleHandler      *SaleHandler
}

func NewDeps(store *repos.Store, clock services.Clock, pub services.Publisher, m *metrics.Metrics) *Deps {
	return &Deps{
		CustomerHandler:  &CustomerHandler{Customers: services.NewCustomerService(store, pub, m)},
		ProductHandler:   &ProductHandler{Products: services.NewProductService(store)},
		InventoryHandler: &InventoryHandler{Inv: services.NewInventoryService(store)},
		SaleHandler:      &SaleHandler{Sales: services.NewSaleService(store, clock, pub, m)},
	}
}

// Routes mounts the JSON resources under r, normally the /api group.
func (d *Deps) Routes(r fiber.Router) {
	r.Get("/customers", d.CustomerHandler.List)
	r.Post("/customers", d.CustomerHandler.Create)
	r.Get("/customers/:id", d.CustomerHandler.Get)
	r.Put("/customers/:id", d.CustomerHandler.Update)
	r.Delete("/customers/:id", d.CustomerHandler.Delete)

	r.Get("/products", d.ProductHandler.List)
	r.Post("/products", d.ProductHandler.Create)
	r.Get("/products/:id", d.ProductHandler.Get)
	r.Put("/products/:id", d.ProductHandler.Update)
	r.Delete("/products/:id", d.ProductHandler.Delete)
	r.Get("/products/:id/availability", d.InventoryHandler.Check)

	r.Get("/sales", d.SaleHandler.List)
	r.Post("/sales", d.SaleHandler.Create)
	r.Get("/sales/:id", d.SaleHandler.Get)
	r.Put("/sales/:id", d.SaleHandler.Update)
	r.Delete("/sales/:id", d.SaleHandler.Delete)
}
