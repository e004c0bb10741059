package domain

import (
	"fmt"

	"facturacion/internal/validate"
)

type Customer struct {
	ID        int64  `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Email     string `db:"email" json:"email"`
}

// Validate normalizes the customer's fields in place.
func (c *Customer) Validate() error {
	first, ok := validate.Name(c.FirstName)
	if !ok {
		return fmt.Errorf("%w: first name", ErrInvalidName)
	}
	last, ok := validate.Name(c.LastName)
	if !ok {
		return fmt.Errorf("%w: last name", ErrInvalidName)
	}
	email, ok := validate.Email(c.Email)
	if !ok {
		return ErrInvalidEmail
	}
	c.FirstName, c.LastName, c.Email = first, last, email
	return nil
}

type Product struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Price int64  `db:"price" json:"price"`
	Stock int    `db:"stock" json:"stock"`
}

func (p *Product) Validate() error {
	name, ok := validate.Name(p.Name)
	if !ok {
		return fmt.Errorf("%w: product name", ErrInvalidName)
	}
	if p.Price < 0 {
		return ErrInvalidPrice
	}
	if p.Stock < 0 {
		return ErrInvalidStock
	}
	p.Name = name
	return nil
}

// LineRequest is one requested (product, quantity) pair of a sale.
type LineRequest struct {
	ProductID int64
	Quantity  int
}

// Availability buckets a product's stock for storefront display.
type Availability struct {
	ProductID int64  `json:"product_id"`
	Status    string `json:"status"`
	Stock     int    `json:"stock"`
}
