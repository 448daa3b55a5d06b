package cart

import "errors"

var (
	// ErrNotFound is returned by a Storage when nothing is stored under a key.
	ErrNotFound = errors.New("cart: key not found")
	// ErrInvalidProductID is returned when a product ID is empty after trimming.
	ErrInvalidProductID = errors.New("cart: product id is required")
	// ErrEmpty is returned when checking out a cart without lines.
	ErrEmpty = errors.New("cart: cart is empty")
	// ErrInvalidKey is returned by FileStorage for keys that are not plain file names.
	ErrInvalidKey = errors.New("cart: invalid storage key")
)
