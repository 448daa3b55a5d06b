package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	args := m.Called(ctx, exchange, routingKey, body)
	return args.Error(0)
}

type orderFixture struct {
	products *repositories.MockProductRepository
	orders   *repositories.MockOrderRepository
	service  *services.OrderService
}

func newOrderFixture(t *testing.T, publisher services.EventPublisher) *orderFixture {
	t.Helper()
	products := repositories.NewMockProductRepository()
	orders := repositories.NewMockOrderRepository(products)
	return &orderFixture{
		products: products,
		orders:   orders,
		service:  services.NewOrderService(orders, products, publisher, nil),
	}
}

func (f *orderFixture) addProduct(t *testing.T, p models.Product) {
	t.Helper()
	require.NoError(t, f.products.Create(context.Background(), &p))
}

func (f *orderFixture) stockOf(t *testing.T, id string) int {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func shipping(items ...services.PlaceOrderItem) services.PlaceOrderRequest {
	return services.PlaceOrderRequest{
		Items:           items,
		ShippingName:    "Ayse Yilmaz",
		ShippingPhone:   "+90 555 000 0000",
		ShippingAddress: "Kadikoy, Istanbul",
	}
}

func seedCatalog(t *testing.T, f *orderFixture) {
	f.addProduct(t, models.Product{ID: "p-1", Name: "Linen Shirt", Price: decimal.RequireFromString("100.00"), Stock: 5, Active: true})
	f.addProduct(t, models.Product{
		ID:        "p-2",
		Name:      "Denim Jacket",
		Price:     decimal.RequireFromString("250.00"),
		SalePrice: decimal.NewNullDecimal(decimal.RequireFromString("199.90")),
		Stock:     2,
		Active:    true,
	})
	f.addProduct(t, models.Product{ID: "p-off", Name: "Old Scarf", Price: decimal.RequireFromString("30"), Stock: 10, Active: false})
}

func TestOrderService_PlaceOrder(t *testing.T) {
	f := newOrderFixture(t, nil)
	seedCatalog(t, f)

	order, err := f.service.PlaceOrder(context.Background(), "user-1", shipping(
		services.PlaceOrderItem{ProductID: "p-1", Quantity: 2, Size: "M"},
		services.PlaceOrderItem{ProductID: "p-2", Quantity: 1, Color: "blue"},
	))
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("399.90").Equal(order.Total), "total was %s", order.Total)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "user-1", order.UserID)
	assert.Regexp(t, `^MLZ-[0-9A-Z]+-[0-9A-Z]{4}$`, order.OrderNumber)
	require.Len(t, order.Items, 2)
	assert.True(t, decimal.RequireFromString("199.90").Equal(order.Items[1].Price))
	require.NotNil(t, order.Items[0].Size)
	assert.Equal(t, "M", *order.Items[0].Size)
	assert.Nil(t, order.Items[0].Color)
	require.NotNil(t, order.Items[0].Product)
	assert.Equal(t, "Linen Shirt", order.Items[0].Product.Name)

	assert.Equal(t, 3, f.stockOf(t, "p-1"))
	assert.Equal(t, 1, f.stockOf(t, "p-2"))
}

func TestOrderService_PlaceOrder_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		items     []services.PlaceOrderItem
		want      error
		productID string
	}{
		{name: "empty cart", items: nil, want: services.ErrEmptyCart},
		{
			name:      "unknown product",
			items:     []services.PlaceOrderItem{{ProductID: "p-1", Quantity: 1}, {ProductID: "ghost", Quantity: 1}},
			want:      services.ErrProductNotFound,
			productID: "ghost",
		},
		{
			name:      "inactive product",
			items:     []services.PlaceOrderItem{{ProductID: "p-off", Quantity: 1}},
			want:      services.ErrProductInactive,
			productID: "p-off",
		},
		{
			name:      "insufficient stock",
			items:     []services.PlaceOrderItem{{ProductID: "p-1", Quantity: 1}, {ProductID: "p-2", Quantity: 3}},
			want:      services.ErrInsufficientStock,
			productID: "p-2",
		},
		{
			name:      "zero quantity",
			items:     []services.PlaceOrderItem{{ProductID: "p-1", Quantity: 0}},
			want:      services.ErrInvalidQuantity,
			productID: "p-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t, nil)
			seedCatalog(t, f)

			order, err := f.service.PlaceOrder(context.Background(), "user-1", shipping(tt.items...))
			assert.Nil(t, order)
			assert.ErrorIs(t, err, tt.want)

			if tt.productID != "" {
				var lineErr *services.LineItemError
				require.ErrorAs(t, err, &lineErr)
				assert.Equal(t, tt.productID, lineErr.ProductID)
			}

			orders, total, err := f.orders.List(context.Background(), repositories.OrderFilter{})
			require.NoError(t, err)
			assert.Empty(t, orders)
			assert.Zero(t, total)
			assert.Equal(t, 5, f.stockOf(t, "p-1"))
			assert.Equal(t, 2, f.stockOf(t, "p-2"))
		})
	}
}

func TestOrderService_PlaceOrder_RepeatedProductExceedsStock(t *testing.T) {
	f := newOrderFixture(t, nil)
	seedCatalog(t, f)

	// each line fits on its own, together they do not
	_, err := f.service.PlaceOrder(context.Background(), "user-1", shipping(
		services.PlaceOrderItem{ProductID: "p-2", Quantity: 2, Size: "S"},
		services.PlaceOrderItem{ProductID: "p-2", Quantity: 1, Size: "M"},
	))
	assert.ErrorIs(t, err, services.ErrInsufficientStock)
	assert.Equal(t, 2, f.stockOf(t, "p-2"))
}

func TestOrderService_PlaceOrder_ConcurrentLastUnit(t *testing.T) {
	f := newOrderFixture(t, nil)
	f.addProduct(t, models.Product{ID: "last", Name: "Last One", Price: decimal.NewFromInt(10), Stock: 1, Active: true})

	const buyers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.PlaceOrder(context.Background(), "buyer", shipping(services.PlaceOrderItem{ProductID: "last", Quantity: 1}))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, services.ErrInsufficientStock):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, buyers-1, rejected)
	assert.Equal(t, 0, f.stockOf(t, "last"))
}

func TestOrderService_PlaceOrder_PublishesEvent(t *testing.T) {
	publisher := new(MockPublisher)
	f := newOrderFixture(t, publisher)
	seedCatalog(t, f)

	var body []byte
	publisher.On("Publish", mock.Anything, services.OrderEventsExchange, services.RoutingKeyOrderCreated, mock.Anything).
		Run(func(args mock.Arguments) { body = args.Get(3).([]byte) }).
		Return(errors.New("broker down")).Once()

	order, err := f.service.PlaceOrder(context.Background(), "user-1", shipping(services.PlaceOrderItem{ProductID: "p-1", Quantity: 1}))
	require.NoError(t, err, "publish failures must not fail the checkout")
	publisher.AssertExpectations(t)

	var event map[string]any
	require.NoError(t, json.Unmarshal(body, &event))
	assert.Equal(t, order.ID, event["order_id"])
	assert.Equal(t, order.OrderNumber, event["order_number"])
	assert.Equal(t, "100.00", event["total"])
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	publisher := new(MockPublisher)
	f := newOrderFixture(t, publisher)
	seedCatalog(t, f)
	publisher.On("Publish", mock.Anything, services.OrderEventsExchange, mock.Anything, mock.Anything).Return(nil)

	order, err := f.service.PlaceOrder(context.Background(), "user-1", shipping(services.PlaceOrderItem{ProductID: "p-1", Quantity: 1}))
	require.NoError(t, err)

	// any defined status may follow any other
	for _, status := range []string{"DELIVERED", "PENDING", "CANCELLED", "SHIPPED"} {
		updated, err := f.service.UpdateOrderStatus(context.Background(), order.ID, status)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatus(status), updated.Status)
	}
	publisher.AssertCalled(t, "Publish", mock.Anything, services.OrderEventsExchange, services.RoutingKeyStatusChanged, mock.Anything)

	_, err = f.service.UpdateOrderStatus(context.Background(), order.ID, "LOST")
	assert.ErrorIs(t, err, services.ErrInvalidStatus)

	_, err = f.service.UpdateOrderStatus(context.Background(), "missing", "SHIPPED")
	assert.ErrorIs(t, err, services.ErrOrderNotFound)
}

func TestOrderService_EventSurvivesCancelledRequest(t *testing.T) {
	publisher := new(MockPublisher)
	f := newOrderFixture(t, publisher)
	seedCatalog(t, f)
	publisher.On("Publish", mock.Anything, services.OrderEventsExchange, services.RoutingKeyOrderCreated, mock.Anything).Return(nil)

	order, err := f.service.PlaceOrder(context.Background(), "user-1", shipping(services.PlaceOrderItem{ProductID: "p-1", Quantity: 1}))
	require.NoError(t, err)

	var publishCtxErr error = context.Canceled
	publisher.On("Publish", mock.Anything, services.OrderEventsExchange, services.RoutingKeyStatusChanged, mock.Anything).
		Run(func(args mock.Arguments) { publishCtxErr = args.Get(0).(context.Context).Err() }).
		Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.service.UpdateOrderStatus(ctx, order.ID, "CONFIRMED")
	require.NoError(t, err)
	publisher.AssertExpectations(t)
	assert.NoError(t, publishCtxErr)
}

func TestOrderService_GetOrder_Ownership(t *testing.T) {
	f := newOrderFixture(t, nil)
	seedCatalog(t, f)

	order, err := f.service.PlaceOrder(context.Background(), "owner", shipping(services.PlaceOrderItem{ProductID: "p-1", Quantity: 1}))
	require.NoError(t, err)

	got, err := f.service.GetOrder(context.Background(), "owner", order.ID, false)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.service.GetOrder(context.Background(), "stranger", order.ID, false)
	assert.ErrorIs(t, err, services.ErrOrderNotFound)

	got, err = f.service.GetOrder(context.Background(), "admin", order.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "owner", got.UserID)

	mine, err := f.service.ListUserOrders(context.Background(), "owner")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestOrderService_ListOrders(t *testing.T) {
	f := newOrderFixture(t, nil)
	seedCatalog(t, f)
	for i := 0; i < 3; i++ {
		_, err := f.service.PlaceOrder(context.Background(), "user-1", shipping(services.PlaceOrderItem{ProductID: "p-1", Quantity: 1}))
		require.NoError(t, err)
	}

	page, err := f.service.ListOrders(context.Background(), services.OrderListFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Orders, 2)
	assert.Equal(t, int64(3), page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Pages)

	page, err = f.service.ListOrders(context.Background(), services.OrderListFilter{Status: "SHIPPED"})
	require.NoError(t, err)
	assert.Empty(t, page.Orders)
	assert.Equal(t, 20, page.Pagination.Limit)

	_, err = f.service.ListOrders(context.Background(), services.OrderListFilter{Status: "shipped-ish"})
	assert.ErrorIs(t, err, services.ErrInvalidStatus)
}

func TestOrderNumberGenerator_Distinct(t *testing.T) {
	format := regexp.MustCompile(`^MLZ-[0-9A-Z]+-[0-9A-Z]{4}$`)
	clock := time.UnixMilli(1_700_000_000_000)
	gen36 := services.NewOrderNumberGenerator("")
	gen36.Now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}

	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("generated order numbers are well formed and pairwise distinct", prop.ForAll(
		func(n int) bool {
			seen := make(map[string]struct{}, n)
			for i := 0; i < n; i++ {
				number := gen36.Next()
				if !format.MatchString(number) {
					return false
				}
				if _, dup := seen[number]; dup {
					return false
				}
				seen[number] = struct{}{}
			}
			return true
		},
		gen.IntRange(1, 200),
	))
	properties.TestingRun(t)
}

func TestOrderNumberGenerator_SameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	g := &services.OrderNumberGenerator{Prefix: "ABC", Now: func() time.Time { return fixed }}

	seen := make(map[string]struct{})
	positions := make([]map[byte]struct{}, 4)
	for i := range positions {
		positions[i] = make(map[byte]struct{})
	}
	for i := 0; i < 50; i++ {
		number := g.Next()
		require.True(t, strings.HasPrefix(number, "ABC-LOYW3V28-"), number)
		seen[number] = struct{}{}
		suffix := strings.TrimPrefix(number, "ABC-LOYW3V28-")
		require.Len(t, suffix, 4)
		for j := range positions {
			positions[j][suffix[j]] = struct{}{}
		}
	}
	assert.GreaterOrEqual(t, len(seen), 45)
	for j, chars := range positions {
		assert.Greater(t, len(chars), 5, "suffix position %d barely varies", j)
	}
}
