package repositories

import (
	"context"

	"storefront/internal/models"
)

// OrderFilter narrows an order listing. An empty Status matches every order.
type OrderFilter struct {
	Status models.OrderStatus
	Offset int
	Limit  int
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// CreateWithStock persists the order with its items and decrements the
	// stock of every item's product as one unit. If any decrement cannot be
	// covered nothing is written and a *StockConflictError is returned.
	CreateWithStock(ctx context.Context, order *models.Order) error
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
}
