package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when an order identifier does not resolve.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyCart is returned when a checkout is submitted without items.
	ErrEmptyCart = errors.New("cart items required")
	// ErrInvalidStatus is returned for a target status outside the enumerated
	// set or a transition the adjacency table does not allow.
	ErrInvalidStatus = errors.New("invalid order status")
)

// ValidationError indicates a malformed or missing required field in a
// checkout payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ProductRefError indicates a cart line referencing a product that does not
// exist in the catalog.
type ProductRefError struct {
	ProductID string
}

func (e *ProductRefError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// TotalMismatchError indicates a client-claimed amount that disagrees with
// the server-side recomputation. The claimed figure is never persisted.
type TotalMismatchError struct {
	Field   string
	Claimed string
	Actual  string
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("%s mismatch: client sent %s, server computed %s", e.Field, e.Claimed, e.Actual)
}
