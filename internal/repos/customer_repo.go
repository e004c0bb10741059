package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"facturacion/internal/domain"
)

type CustomerRepo struct {
	q    dbtx
	lock string
}

func (r *CustomerRepo) List(ctx context.Context) ([]domain.Customer, error) {
	out := []domain.Customer{}
	err := r.q.SelectContext(ctx, &out, `
		SELECT id, first_name, last_name, email
		FROM customers
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

// Get returns domain.ErrCustomerNotFound when no row matches.
func (r *CustomerRepo) Get(ctx context.Context, id int64) (domain.Customer, error) {
	var c domain.Customer
	err := r.q.GetContext(ctx, &c, r.q.Rebind(`
		SELECT id, first_name, last_name, email
		FROM customers
		WHERE id = ?`+r.lock), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, fmt.Errorf("%w: id %d", domain.ErrCustomerNotFound, id)
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("get customer %d: %w", id, err)
	}
	return c, nil
}

func (r *CustomerRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	if err := r.q.GetContext(ctx, &n, r.q.Rebind(`SELECT COUNT(1) FROM customers WHERE id = ?`), id); err != nil {
		return false, fmt.Errorf("customer exists %d: %w", id, err)
	}
	return n > 0, nil
}

// EmailTaken reports whether another customer already uses email.
func (r *CustomerRepo) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var n int
	err := r.q.GetContext(ctx, &n, r.q.Rebind(`
		SELECT COUNT(1) FROM customers
		WHERE LOWER(email) = LOWER(?) AND id <> ?
	`), email, exceptID)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return n > 0, nil
}

// Create inserts c and sets its generated id.
func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer) error {
	err := r.q.GetContext(ctx, &c.ID, r.q.Rebind(`
		INSERT INTO customers(first_name, last_name, email)
		VALUES (?, ?, ?)
		RETURNING id
	`), c.FirstName, c.LastName, c.Email)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepo) Update(ctx context.Context, c domain.Customer) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`
		UPDATE customers
		SET first_name = ?, last_name = ?, email = ?
		WHERE id = ?
	`), c.FirstName, c.LastName, c.Email, c.ID)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("update customer %d: %w", c.ID, err)
	}
	return requireRow(res, fmt.Errorf("%w: id %d", domain.ErrCustomerNotFound, c.ID))
}

// Delete removes the customer row only. Callers remove the customer's sales first.
func (r *CustomerRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM customers WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete customer %d: %w", id, err)
	}
	return requireRow(res, fmt.Errorf("%w: id %d", domain.ErrCustomerNotFound, id))
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}
