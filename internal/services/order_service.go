package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	OrderEventsExchange      = "orders"
	RoutingKeyOrderCreated   = "order.created"
	RoutingKeyStatusChanged  = "order.status_changed"
	defaultOrderPageLimit    = 20
	maxOrderPageLimit        = 100
	orderNumberCreateRetries = 3
)

// EventPublisher delivers order events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

// OrderEvent is the message body of order.created and order.status_changed.
type OrderEvent struct {
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	UserID      string             `json:"user_id,omitempty"`
	Status      models.OrderStatus `json:"status"`
	Total       string             `json:"total,omitempty"`
}

// PlaceOrderItem is one requested line of a checkout.
type PlaceOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// PlaceOrderRequest is the checkout payload. Prices are never accepted from the client.
type PlaceOrderRequest struct {
	Items           []PlaceOrderItem `json:"items"`
	ShippingName    string           `json:"shipping_name" validate:"required,max=100"`
	ShippingPhone   string           `json:"shipping_phone" validate:"required,max=32"`
	ShippingAddress string           `json:"shipping_address" validate:"required"`
	Notes           string           `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// OrderListFilter selects a page of orders for administrators.
type OrderListFilter struct {
	Status string
	Page   int
	Limit  int
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Orders     []models.Order    `json:"orders"`
	Pagination models.Pagination `json:"pagination"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	publisher   EventPublisher
	numbers     *OrderNumberGenerator
}

// NewOrderService creates a new OrderService. publisher may be nil, in which
// case no events are emitted; numbers defaults to the MLZ prefix.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, publisher EventPublisher, numbers *OrderNumberGenerator) *OrderService {
	if numbers == nil {
		numbers = NewOrderNumberGenerator(DefaultOrderNumberPrefix)
	}
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		numbers:     numbers,
	}
}

// PlaceOrder validates every line against the catalog, snapshots prices,
// and stores the order while decrementing stock. Validation is fail-fast:
// the first bad line aborts the checkout and nothing is written.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (*models.Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
		zap.String("user_id", userID),
		zap.Int("item_count", len(req.Items)),
	)

	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(req.Items))
	for i, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, &LineItemError{Index: i, ProductID: line.ProductID, Err: ErrInvalidQuantity}
		}

		product, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, &LineItemError{Index: i, ProductID: line.ProductID, Err: ErrProductNotFound}
			}
			return nil, fmt.Errorf("failed to load product %s: %w", line.ProductID, err)
		}
		if !product.Active {
			return nil, &LineItemError{Index: i, ProductID: product.ID, Err: ErrProductInactive}
		}
		if line.Quantity > product.Stock {
			return nil, &LineItemError{Index: i, ProductID: product.ID, Err: ErrInsufficientStock}
		}

		price := product.EffectivePrice()
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			Price:     price,
			Size:      optional(line.Size),
			Color:     optional(line.Color),
		})
	}

	var order *models.Order
	for attempt := 1; ; attempt++ {
		order = &models.Order{
			OrderNumber:     s.numbers.Next(),
			UserID:          userID,
			Items:           items,
			Total:           total,
			Status:          models.OrderStatusPending,
			ShippingName:    req.ShippingName,
			ShippingPhone:   req.ShippingPhone,
			ShippingAddress: req.ShippingAddress,
			Notes:           optional(req.Notes),
		}
		err := s.orderRepo.CreateWithStock(ctx, order)
		if err == nil {
			break
		}

		var conflict *repositories.StockConflictError
		switch {
		case errors.As(err, &conflict):
			log.Warn("stock changed during checkout", zap.String("product_id", conflict.ProductID))
			return nil, &LineItemError{Index: lineIndex(req.Items, conflict.ProductID), ProductID: conflict.ProductID, Err: ErrInsufficientStock}
		case errors.Is(err, repositories.ErrDuplicate) && attempt < orderNumberCreateRetries:
			log.Warn("order number collision, retrying", zap.String("order_number", order.OrderNumber))
			items = resetItemIDs(items)
			continue
		default:
			return nil, fmt.Errorf("failed to create order in repository: %w", err)
		}
	}

	log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.StringFixed(2)),
	)

	s.publish(ctx, RoutingKeyOrderCreated, OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      order.Status,
		Total:       order.Total.StringFixed(2),
	})
	return order, nil
}

// ListOrders returns one page of orders, newest first, optionally filtered by status.
func (s *OrderService) ListOrders(ctx context.Context, filter OrderListFilter) (*OrderPage, error) {
	status := models.OrderStatus(filter.Status)
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, filter.Status)
	}
	page, limit := normalizePage(filter.Page, filter.Limit, defaultOrderPageLimit, maxOrderPageLimit)

	orders, total, err := s.orderRepo.List(ctx, repositories.OrderFilter{
		Status: status,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	return &OrderPage{Orders: orders, Pagination: models.NewPagination(page, limit, total)}, nil
}

// ListUserOrders returns every order of userID, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// GetOrder returns an order to its owner or to an administrator. Anyone else
// gets ErrOrderNotFound.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string, isAdmin bool) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateOrderStatus overwrites the status of an order. Any defined status may
// follow any other; only membership in the status set is checked.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, status string) (*models.Order, error) {
	next := models.OrderStatus(status)
	if !next.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	order, err := s.orderRepo.UpdateStatus(ctx, orderID, next)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order status for order %s: %w", orderID, err)
	}

	logger.FromCtx(ctx).Info("order status updated",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)),
	)
	s.publish(ctx, RoutingKeyStatusChanged, OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
	})
	return order, nil
}

// publish never fails the caller; the order is already committed.
func (s *OrderService) publish(ctx context.Context, routingKey string, event OrderEvent) {
	log := logger.FromCtx(ctx)
	if s.publisher == nil {
		log.Debug("event publisher not configured, skipping", zap.String("routing_key", routingKey))
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Error("failed to marshal order event", zap.Error(err))
		return
	}
	// the order is committed; a cancelled request must not drop its event
	if err := s.publisher.Publish(context.WithoutCancel(ctx), OrderEventsExchange, routingKey, body); err != nil {
		log.Warn("failed to publish order event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

func lineIndex(items []PlaceOrderItem, productID string) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func resetItemIDs(items []models.OrderItem) []models.OrderItem {
	fresh := make([]models.OrderItem, len(items))
	for i, item := range items {
		item.ID = ""
		item.OrderID = ""
		fresh[i] = item
	}
	return fresh
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func normalizePage(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
