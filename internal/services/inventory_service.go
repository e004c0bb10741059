package services

import (
	"context"

	"facturacion/internal/domain"
	"facturacion/internal/repos"
)

const (
	StatusInStock    = "IN_STOCK"
	StatusLowStock   = "LOW_STOCK"
	StatusOutOfStock = "OUT_OF_STOCK"

	lowStockThreshold = 5
)

type InventoryService struct {
	Store *repos.Store
}

func NewInventoryService(store *repos.Store) *InventoryService {
	return &InventoryService{Store: store}
}

// CheckAvailability converts stock into IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID int64) (domain.Availability, error) {
	stock, err := s.Store.Repos().Inventory.Stock(ctx, productID)
	if err != nil {
		return domain.Availability{}, err
	}

	status := StatusOutOfStock
	switch {
	case stock >= lowStockThreshold:
		status = StatusInStock
	case stock > 0:
		status = StatusLowStock
	}
	return domain.Availability{ProductID: productID, Status: status, Stock: stock}, nil
}
