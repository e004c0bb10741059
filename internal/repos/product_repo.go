package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"facturacion/internal/domain"
)

type ProductRepo struct {
	q    dbtx
	lock string
}

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.q.SelectContext(ctx, &out, `
		SELECT id, name, price, stock
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// Get returns domain.ErrProductNotFound when no row matches. Inside a
// PostgreSQL transaction the row stays locked until commit.
func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.q.GetContext(ctx, &p, r.q.Rebind(`
		SELECT id, name, price, stock
		FROM products
		WHERE id = ?`+r.lock), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("%w: id %d", domain.ErrProductNotFound, id)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (r *ProductRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	if err := r.q.GetContext(ctx, &n, r.q.Rebind(`SELECT COUNT(1) FROM products WHERE id = ?`), id); err != nil {
		return false, fmt.Errorf("product exists %d: %w", id, err)
	}
	return n > 0, nil
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	err := r.q.GetContext(ctx, &p.ID, r.q.Rebind(`
		INSERT INTO products(name, price, stock)
		VALUES (?, ?, ?)
		RETURNING id
	`), p.Name, p.Price, p.Stock)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepo) Update(ctx context.Context, p domain.Product) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE products
		SET name = ?, price = ?, stock = ?
		WHERE id = ?
	`), p.Name, p.Price, p.Stock, p.ID)
	if err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, err)
	}
	return requireRow(res, fmt.Errorf("%w: id %d", domain.ErrProductNotFound, p.ID))
}

// Referenced reports whether any sale line points at the product.
func (r *ProductRepo) Referenced(ctx context.Context, id int64) (bool, error) {
	var n int
	if err := r.q.GetContext(ctx, &n, r.q.Rebind(`SELECT COUNT(1) FROM sale_lines WHERE product_id = ?`), id); err != nil {
		return false, fmt.Errorf("product references %d: %w", id, err)
	}
	return n > 0, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return requireRow(res, fmt.Errorf("%w: id %d", domain.ErrProductNotFound, id))
}
