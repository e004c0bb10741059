package domain

import (
	"fmt"
	"math"
)

// Sale is an invoice header. Lines are loaded explicitly through the sale repository.
type Sale struct {
	ID         int64      `db:"id"`
	CustomerID int64      `db:"customer_id"`
	Timestamp  string     `db:"sold_at"`
	Total      int64      `db:"total"`
	Lines      []SaleLine `db:"-"`
}

// SaleLine carries the unit price the product had when the line was created.
type SaleLine struct {
	ID        int64 `db:"id"`
	SaleID    int64 `db:"sale_id"`
	ProductID int64 `db:"product_id"`
	Quantity  int   `db:"quantity"`
	UnitPrice int64 `db:"unit_price"`
}

// Subtotal fails with ErrAmountOverflow when the product does not fit in int64.
func (l SaleLine) Subtotal() (int64, error) {
	q := int64(l.Quantity)
	if q > 0 && (l.UnitPrice > math.MaxInt64/q || l.UnitPrice < math.MinInt64/q) {
		return 0, fmt.Errorf("%w: product %d, %d x %d", ErrAmountOverflow, l.ProductID, l.UnitPrice, l.Quantity)
	}
	return l.UnitPrice * q, nil
}

// AddLine appends the line and keeps Total in step with it. On overflow the
// sale is left unchanged.
func (s *Sale) AddLine(l SaleLine) error {
	sub, err := l.Subtotal()
	if err != nil {
		return err
	}
	total, err := addAmounts(s.Total, sub)
	if err != nil {
		return err
	}
	s.Lines = append(s.Lines, l)
	s.Total = total
	return nil
}

func addAmounts(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, fmt.Errorf("%w: %d + %d", ErrAmountOverflow, a, b)
	}
	return a + b, nil
}

// ResetLines drops every line and zeroes the total.
func (s *Sale) ResetLines() {
	s.Lines = nil
	s.Total = 0
}

func SumLines(lines []SaleLine) (int64, error) {
	var total int64
	for _, l := range lines {
		sub, err := l.Subtotal()
		if err != nil {
			return 0, err
		}
		if total, err = addAmounts(total, sub); err != nil {
			return 0, err
		}
	}
	return total, nil
}

// ValidateInvariants reports every broken rule of a fully loaded sale.
func (s Sale) ValidateInvariants() []error {
	var errs []error
	if s.CustomerID <= 0 {
		errs = append(errs, ErrCustomerRequired)
	}
	if len(s.Lines) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	for _, l := range s.Lines {
		if l.Quantity <= 0 {
			errs = append(errs, fmt.Errorf("%w: product %d", ErrInvalidQuantity, l.ProductID))
		}
		if l.UnitPrice < 0 {
			errs = append(errs, fmt.Errorf("%w: product %d", ErrInvalidPrice, l.ProductID))
		}
	}
	sum, err := SumLines(s.Lines)
	switch {
	case err != nil:
		errs = append(errs, err)
	case sum != s.Total:
		errs = append(errs, fmt.Errorf("%w: total %d, lines sum to %d", ErrTotalMismatch, s.Total, sum))
	}
	return errs
}

// SaleView is the read projection of a sale returned to API clients.
type SaleView struct {
	ID         int64          `db:"id" json:"id"`
	CustomerID int64          `db:"customer_id" json:"customer_id"`
	FirstName  string         `db:"first_name" json:"first_name"`
	LastName   string         `db:"last_name" json:"last_name"`
	Timestamp  string         `db:"sold_at" json:"timestamp"`
	Total      int64          `db:"total" json:"total"`
	Products   []SaleLineView `db:"-" json:"products"`
}

type SaleLineView struct {
	ProductID int64  `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	UnitPrice int64  `db:"unit_price" json:"unit_price"`
	Quantity  int    `db:"quantity" json:"quantity"`
}
