package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")

	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
	ErrEmptyOrder      = errors.New("order has no lines")
	ErrInvalidQuantity = errors.New("quantity must be positive")

	ErrInvalidStatus     = errors.New("invalid order status")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// ErrOrderNotCancellable marks a cancel attempt on an order that already left
// the pending/processing window. It matches ErrIllegalTransition via errors.Is.
var ErrOrderNotCancellable = fmt.Errorf("%w: order cannot be cancelled", ErrIllegalTransition)

// InsufficientStockError reports a failed stock reservation together with the
// shortfall observed at the time of the atomic check.
type InsufficientStockError struct {
	ProductID int64
	Requested int32
	Available int32
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// IsInsufficientStock reports whether err carries an InsufficientStockError
// and returns it when present.
func IsInsufficientStock(err error) (InsufficientStockError, bool) {
	var e InsufficientStockError
	ok := errors.As(err, &e)
	return e, ok
}
