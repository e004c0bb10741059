package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"facturacion/internal/domain"
)

// InventoryRepo owns every stock mutation tied to sales.
type InventoryRepo struct{ q dbtx }

// Stock returns the current stock of a product.
func (r *InventoryRepo) Stock(ctx context.Context, productID int64) (int, error) {
	var stock int
	err := r.q.GetContext(ctx, &stock, r.q.Rebind(`SELECT stock FROM products WHERE id = ?`), productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: id %d", domain.ErrProductNotFound, productID)
	}
	if err != nil {
		return 0, fmt.Errorf("stock %d: %w", productID, err)
	}
	return stock, nil
}

// Reserve atomically subtracts qty units if enough stock exists.
// Returns domain.ErrInsufficientStock otherwise.
func (r *InventoryRepo) Reserve(ctx context.Context, productID int64, qty int) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE products
		SET stock = stock - ?
		WHERE id = ? AND stock >= ?
	`), qty, productID, qty)
	if err != nil {
		return fmt.Errorf("reserve stock %d: %w", productID, err)
	}
	return requireRow(res, fmt.Errorf("%w: product %d", domain.ErrInsufficientStock, productID))
}

// Restore gives qty units back to the product.
func (r *InventoryRepo) Restore(ctx context.Context, productID int64, qty int) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE products
		SET stock = stock + ?
		WHERE id = ?
	`), qty, productID)
	if err != nil {
		return fmt.Errorf("restore stock %d: %w", productID, err)
	}
	return requireRow(res, fmt.Errorf("%w: id %d", domain.ErrProductNotFound, productID))
}
