package repositories

import (
	"context"

	"storefront/internal/models"
)

// ProductFilter narrows a product listing.
type ProductFilter struct {
	Search          string
	CategoryID      string
	Featured        bool
	IncludeInactive bool
	Offset          int
	Limit           int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}
