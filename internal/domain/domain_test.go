package domain_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturacion/internal/domain"
)

func TestSaleAddLineKeepsTotal(t *testing.T) {
	var s domain.Sale
	s.CustomerID = 1
	require.NoError(t, s.AddLine(domain.SaleLine{ProductID: 1, Quantity: 2, UnitPrice: 100}))
	require.NoError(t, s.AddLine(domain.SaleLine{ProductID: 2, Quantity: 3, UnitPrice: 15}))

	assert.Equal(t, int64(245), s.Total)
	sum, err := domain.SumLines(s.Lines)
	require.NoError(t, err)
	assert.Equal(t, s.Total, sum)
	assert.Empty(t, s.ValidateInvariants())

	s.ResetLines()
	assert.Zero(t, s.Total)
	assert.Nil(t, s.Lines)
}

func TestSaleAddLineRejectsOverflow(t *testing.T) {
	s := domain.Sale{CustomerID: 1}

	err := s.AddLine(domain.SaleLine{ProductID: 1, Quantity: 4, UnitPrice: 1 << 62})
	assert.ErrorIs(t, err, domain.ErrAmountOverflow)
	assert.Equal(t, domain.KindInvalidArgument, domain.KindOf(err))
	assert.Empty(t, s.Lines)
	assert.Zero(t, s.Total)

	// each line fits, the running total does not
	require.NoError(t, s.AddLine(domain.SaleLine{ProductID: 1, Quantity: 1, UnitPrice: math.MaxInt64 - 10}))
	err = s.AddLine(domain.SaleLine{ProductID: 2, Quantity: 1, UnitPrice: 11})
	assert.ErrorIs(t, err, domain.ErrAmountOverflow)
	assert.Len(t, s.Lines, 1)
	assert.Equal(t, int64(math.MaxInt64-10), s.Total)
}

func TestSaleValidateInvariantsReportsOverflow(t *testing.T) {
	s := domain.Sale{
		CustomerID: 1,
		Lines:      []domain.SaleLine{{ProductID: 1, Quantity: 4, UnitPrice: 1 << 62}},
	}
	errs := s.ValidateInvariants()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], domain.ErrAmountOverflow)
}

func TestSaleValidateInvariants(t *testing.T) {
	s := domain.Sale{
		Total: 10,
		Lines: []domain.SaleLine{{ProductID: 7, Quantity: 0, UnitPrice: 5}},
	}
	errs := s.ValidateInvariants()
	require.Len(t, errs, 3)
	assert.ErrorIs(t, errs[0], domain.ErrCustomerRequired)
	assert.ErrorIs(t, errs[1], domain.ErrInvalidQuantity)
	assert.ErrorIs(t, errs[2], domain.ErrTotalMismatch)
}

func TestCustomerValidate(t *testing.T) {
	c := domain.Customer{FirstName: " Ana ", LastName: "Pérez", Email: " ana@example.com"}
	require.NoError(t, c.Validate())
	assert.Equal(t, "Ana", c.FirstName)
	assert.Equal(t, "ana@example.com", c.Email)

	bad := domain.Customer{FirstName: "Ana", LastName: "Pérez", Email: "nope"}
	assert.ErrorIs(t, bad.Validate(), domain.ErrInvalidEmail)

	noName := domain.Customer{LastName: "Pérez", Email: "ana@example.com"}
	assert.ErrorIs(t, noName.Validate(), domain.ErrInvalidArgument)
}

func TestProductValidate(t *testing.T) {
	p := domain.Product{Name: "Mouse", Price: 100, Stock: 0}
	require.NoError(t, p.Validate())

	p.Price = -1
	assert.ErrorIs(t, p.Validate(), domain.ErrInvalidPrice)

	p.Price, p.Stock = 1, -1
	assert.ErrorIs(t, p.Validate(), domain.ErrInvalidStock)
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want domain.Kind
	}{
		{domain.ErrSaleNotFound, domain.KindNotFound},
		{fmt.Errorf("get sale 3: %w", domain.ErrSaleNotFound), domain.KindNotFound},
		{domain.ErrInsufficientStock, domain.KindInvalidArgument},
		{domain.Unresolved(domain.ErrProductNotFound), domain.KindInvalidArgument},
		{domain.ErrEmailTaken, domain.KindConflict},
		{errors.New("connection reset"), domain.KindInternal},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, domain.KindOf(c.err), c.err.Error())
	}
}

func TestUnresolvedKeepsNotFound(t *testing.T) {
	err := domain.Unresolved(domain.ErrCustomerNotFound)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	other := errors.New("boom")
	assert.Equal(t, other, domain.Unresolved(other))
	assert.NoError(t, domain.Unresolved(nil))
}
