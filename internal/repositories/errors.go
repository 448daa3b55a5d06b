package repositories

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("record already exists")
	// ErrInUse is returned when a row is still referenced by another table.
	ErrInUse = errors.New("record is referenced")
	// ErrStockConflict is returned when a conditional stock decrement matched no row.
	ErrStockConflict = errors.New("insufficient stock")
)

// StockConflictError identifies the product whose stock could not cover a decrement.
type StockConflictError struct {
	ProductID string
	Quantity  int
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested: %d)", e.ProductID, e.Quantity)
}

func (e *StockConflictError) Is(target error) bool {
	return target == ErrStockConflict
}
