package domain

import (
	"errors"
	"fmt"
)

// Error classes. Every error produced by the services wraps one of these.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)

var (
	ErrCustomerNotFound = fmt.Errorf("customer %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrSaleNotFound     = fmt.Errorf("sale %w", ErrNotFound)
)

var (
	ErrCustomerRequired  = fmt.Errorf("%w: customer id is required", ErrInvalidArgument)
	ErrItemsRequired     = fmt.Errorf("%w: at least one product is required", ErrInvalidArgument)
	ErrItemsMismatch     = fmt.Errorf("%w: product and quantity lists differ in length", ErrInvalidArgument)
	ErrInvalidQuantity   = fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidArgument)
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", ErrInvalidArgument)
	ErrInvalidPrice      = fmt.Errorf("%w: price must not be negative", ErrInvalidArgument)
	ErrInvalidStock      = fmt.Errorf("%w: stock must not be negative", ErrInvalidArgument)
	ErrInvalidName       = fmt.Errorf("%w: name must be 1-60 characters", ErrInvalidArgument)
	ErrInvalidEmail      = fmt.Errorf("%w: invalid email", ErrInvalidArgument)
	ErrTotalMismatch     = fmt.Errorf("%w: total does not match lines", ErrInvalidArgument)
	ErrAmountOverflow    = fmt.Errorf("%w: amount out of range", ErrInvalidArgument)
)

var (
	ErrEmailTaken   = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrProductInUse = fmt.Errorf("%w: product is referenced by existing sales", ErrConflict)
)

// Unresolved marks a lookup miss on an id taken from a request body. The
// result matches both ErrInvalidArgument and the underlying not-found error.
func Unresolved(err error) error {
	if err == nil || !errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
}

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidArgument
	KindConflict
)

// KindOf classifies err. InvalidArgument wins over NotFound so that
// unresolved references stay client errors.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}
