package orderControllers

import (
	"errors"
	"fmt"
)

// Domain conflicts: expected business failures the client can correct.
// Their messages surface verbatim in the response body.
var (
	ErrCartNotFound     = errors.New("Cart not found")
	ErrEmptyCart        = errors.New("Cart is empty")
	ErrNoValidSelection = errors.New("No valid items selected for checkout")
	ErrNotPayable       = errors.New("Order already paid or cancelled")
	ErrNotCancellable   = errors.New("Cannot cancel order in current status")
)

// InsufficientStockError names the product that ran out and how many
// units remain, so the client can retry with an adjusted quantity.
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for '%s'. Available: %d", e.ProductName, e.Available)
}

// isDomainErr distinguishes expected business failures (reported as 400)
// from system faults (logged, reported as a generic 500).
func isDomainErr(err error) bool {
	var stockErr *InsufficientStockError
	return errors.Is(err, ErrCartNotFound) ||
		errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrNoValidSelection) ||
		errors.Is(err, ErrNotPayable) ||
		errors.Is(err, ErrNotCancellable) ||
		errors.As(err, &stockErr)
}
