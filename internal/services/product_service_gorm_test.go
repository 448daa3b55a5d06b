package services_test

import (
	"context"
	"fmt"
	"testing"

	"storefront/internal/database"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct_InactiveIsStoredAndNotSold(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	productRepo := repositories.NewGORMProductRepository(db)
	products := services.NewProductService(productRepo, repositories.NewGORMCategoryRepository(db))
	orders := services.NewOrderService(repositories.NewGORMOrderRepository(db), productRepo, nil, nil)

	name, price, stock, inactive := "Eski Şal", decimal.RequireFromString("30.00"), 10, false
	created, err := products.CreateProduct(ctx, services.ProductInput{
		Name: &name, Price: &price, Stock: &stock, Active: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, created.Active)

	stored, err := productRepo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	page, err := products.ListProducts(ctx, services.ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Products)

	_, err = orders.PlaceOrder(ctx, "u-1", services.PlaceOrderRequest{
		Items:           []services.PlaceOrderItem{{ProductID: created.ID, Quantity: 1}},
		ShippingName:    "Ayşe",
		ShippingPhone:   "555",
		ShippingAddress: "Istanbul",
	})
	assert.ErrorIs(t, err, services.ErrProductInactive)

	stored, err = productRepo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Stock)
}

func TestCreateProduct_ActiveByDefault(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	productRepo := repositories.NewGORMProductRepository(db)
	products := services.NewProductService(productRepo, repositories.NewGORMCategoryRepository(db))

	name, price := "Keten Gömlek", decimal.RequireFromString("120.00")
	created, err := products.CreateProduct(ctx, services.ProductInput{Name: &name, Price: &price})
	require.NoError(t, err)

	stored, err := productRepo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
}
