package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested row does not exist or is not
	// visible to the requesting user.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("already exists")
)

// ValidationError rejects a malformed request before it touches the database.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// InsufficientStockError aborts order placement when a line requests more
// units than the product has on hand. It carries the product name and the
// available count so the caller can surface both.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int
	Requested   int
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// ProductNotFoundError aborts order placement when a line references a
// product that does not exist.
type ProductNotFoundError struct {
	ProductID uuid.UUID
}

func (e ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}
