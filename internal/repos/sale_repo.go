package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"facturacion/internal/domain"
)

type SaleRepo struct {
	q    dbtx
	lock string
}

// Get loads the sale header and its lines.
func (r *SaleRepo) Get(ctx context.Context, id int64) (domain.Sale, error) {
	var s domain.Sale
	err := r.q.GetContext(ctx, &s, r.q.Rebind(`
		SELECT id, customer_id, sold_at, total
		FROM sales
		WHERE id = ?`+r.lock), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sale{}, fmt.Errorf("%w: id %d", domain.ErrSaleNotFound, id)
	}
	if err != nil {
		return domain.Sale{}, fmt.Errorf("get sale %d: %w", id, err)
	}
	if s.Lines, err = r.Lines(ctx, id); err != nil {
		return domain.Sale{}, err
	}
	return s, nil
}

// ListByCustomer returns the headers of every sale owned by the customer.
func (r *SaleRepo) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Sale, error) {
	out := []domain.Sale{}
	err := r.q.SelectContext(ctx, &out, r.q.Rebind(`
		SELECT id, customer_id, sold_at, total
		FROM sales
		WHERE customer_id = ?
		ORDER BY id`+r.lock), customerID)
	if err != nil {
		return nil, fmt.Errorf("list sales of customer %d: %w", customerID, err)
	}
	return out, nil
}

func (r *SaleRepo) Lines(ctx context.Context, saleID int64) ([]domain.SaleLine, error) {
	var out []domain.SaleLine
	err := r.q.SelectContext(ctx, &out, r.q.Rebind(`
		SELECT id, sale_id, product_id, quantity, unit_price
		FROM sale_lines
		WHERE sale_id = ?
		ORDER BY id
	`), saleID)
	if err != nil {
		return nil, fmt.Errorf("lines of sale %d: %w", saleID, err)
	}
	return out, nil
}

// Create inserts the sale header followed by its lines, setting every generated id.
func (r *SaleRepo) Create(ctx context.Context, s *domain.Sale) error {
	err := r.q.GetContext(ctx, &s.ID, r.q.Rebind(`
		INSERT INTO sales(customer_id, sold_at, total)
		VALUES (?, ?, ?)
		RETURNING id
	`), s.CustomerID, s.Timestamp, s.Total)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return r.InsertLines(ctx, s.ID, s.Lines)
}

// InsertLines stores lines under saleID and fills in their ids.
func (r *SaleRepo) InsertLines(ctx context.Context, saleID int64, lines []domain.SaleLine) error {
	q := r.q.Rebind(`
		INSERT INTO sale_lines(sale_id, product_id, quantity, unit_price)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)
	for i := range lines {
		l := &lines[i]
		l.SaleID = saleID
		if err := r.q.GetContext(ctx, &l.ID, q, saleID, l.ProductID, l.Quantity, l.UnitPrice); err != nil {
			return fmt.Errorf("insert line of sale %d: %w", saleID, err)
		}
	}
	return nil
}

// UpdateHeader writes customer, timestamp and total of an existing sale.
func (r *SaleRepo) UpdateHeader(ctx context.Context, s domain.Sale) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE sales
		SET customer_id = ?, sold_at = ?, total = ?
		WHERE id = ?
	`), s.CustomerID, s.Timestamp, s.Total, s.ID)
	if err != nil {
		return fmt.Errorf("update sale %d: %w", s.ID, err)
	}
	return requireRow(res, fmt.Errorf("%w: id %d", domain.ErrSaleNotFound, s.ID))
}

func (r *SaleRepo) DeleteLines(ctx context.Context, saleID int64) error {
	if _, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM sale_lines WHERE sale_id = ?`), saleID); err != nil {
		return fmt.Errorf("delete lines of sale %d: %w", saleID, err)
	}
	return nil
}

func (r *SaleRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM sales WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete sale %d: %w", id, err)
	}
	return requireRow(res, fmt.Errorf("%w: id %d", domain.ErrSaleNotFound, id))
}

type saleLineViewRow struct {
	SaleID int64 `db:"sale_id"`
	domain.SaleLineView
}

const saleViewSelect = `
	SELECT s.id, s.customer_id, c.first_name, c.last_name, s.sold_at, s.total
	FROM sales s
	JOIN customers c ON c.id = s.customer_id`

const saleLineViewSelect = `
	SELECT l.sale_id, l.product_id, p.name, l.unit_price, l.quantity
	FROM sale_lines l
	JOIN products p ON p.id = l.product_id`

// View returns the client projection of one sale.
func (r *SaleRepo) View(ctx context.Context, id int64) (domain.SaleView, error) {
	var v domain.SaleView
	err := r.q.GetContext(ctx, &v, r.q.Rebind(saleViewSelect+` WHERE s.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SaleView{}, fmt.Errorf("%w: id %d", domain.ErrSaleNotFound, id)
	}
	if err != nil {
		return domain.SaleView{}, fmt.Errorf("view sale %d: %w", id, err)
	}

	var rows []saleLineViewRow
	if err := r.q.SelectContext(ctx, &rows, r.q.Rebind(saleLineViewSelect+` WHERE l.sale_id = ? ORDER BY l.id`), id); err != nil {
		return domain.SaleView{}, fmt.Errorf("view lines of sale %d: %w", id, err)
	}
	v.Products = make([]domain.SaleLineView, 0, len(rows))
	for _, row := range rows {
		v.Products = append(v.Products, row.SaleLineView)
	}
	return v, nil
}

// Views returns the client projection of every sale, ordered by id.
func (r *SaleRepo) Views(ctx context.Context) ([]domain.SaleView, error) {
	views := []domain.SaleView{}
	if err := r.q.SelectContext(ctx, &views, saleViewSelect+` ORDER BY s.id`); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	if len(views) == 0 {
		return views, nil
	}

	var rows []saleLineViewRow
	if err := r.q.SelectContext(ctx, &rows, saleLineViewSelect+` ORDER BY l.sale_id, l.id`); err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	bySale := make(map[int64][]domain.SaleLineView, len(views))
	for _, row := range rows {
		bySale[row.SaleID] = append(bySale[row.SaleID], row.SaleLineView)
	}
	for i := range views {
		views[i].Products = bySale[views[i].ID]
		if views[i].Products == nil {
			views[i].Products = []domain.SaleLineView{}
		}
	}
	return views, nil
}
