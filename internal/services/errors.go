package services

import (
	"errors"
	"fmt"
)

var (
	// -- Checkout --
	ErrEmptyCart         = errors.New("cart is empty")
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product is not active")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")

	// -- Orders --
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")

	// -- Catalog --
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrProductInUse     = errors.New("product is referenced by orders")
	ErrInvalidProduct   = errors.New("invalid product")

	// -- Auth --
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
)

// LineItemError reports which line of a checkout was rejected and why.
// Err is one of the checkout sentinels.
type LineItemError struct {
	Index     int
	ProductID string
	Err       error
}

func (e *LineItemError) Error() string {
	return fmt.Sprintf("item %d (product %s): %v", e.Index, e.ProductID, e.Err)
}

func (e *LineItemError) Unwrap() error {
	return e.Err
}
