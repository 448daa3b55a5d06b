package services_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCategoryRepository is a mock implementation of repositories.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
}

func TestProductService_ListProducts(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMockProductRepository()
	categories := new(MockCategoryRepository)
	service := services.NewProductService(repo, categories)

	shirts := "cat-shirts"
	for i, name := range []string{"Linen Shirt", "Oxford Shirt", "Wool Coat"} {
		p := models.Product{Name: name, Price: decimal.NewFromInt(int64(10 * (i + 1))), Stock: 1, Active: true}
		if strings.HasSuffix(name, "Shirt") {
			p.CategoryID = &shirts
		}
		require.NoError(t, repo.Create(ctx, &p))
	}
	require.NoError(t, repo.Create(ctx, &models.Product{Name: "Hidden Shirt", Active: false, CategoryID: &shirts}))

	page, err := service.ListProducts(ctx, services.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, page.Products, 3)
	assert.Equal(t, 12, page.Pagination.Limit)

	categories.On("GetByID", ctx, "shirts").Return(nil, notFound("category shirts")).Once()
	categories.On("GetBySlug", ctx, "shirts").Return(&models.Category{ID: shirts, Slug: "shirts"}, nil).Once()
	page, err = service.ListProducts(ctx, services.ProductFilter{Category: "shirts"})
	require.NoError(t, err)
	assert.Len(t, page.Products, 2)

	categories.On("GetByID", ctx, "nope").Return(nil, notFound("category nope")).Once()
	categories.On("GetBySlug", ctx, "nope").Return(nil, notFound("category nope")).Once()
	page, err = service.ListProducts(ctx, services.ProductFilter{Category: "nope"})
	require.NoError(t, err)
	assert.Empty(t, page.Products)

	page, err = service.ListProducts(ctx, services.ProductFilter{Search: "coat"})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Wool Coat", page.Products[0].Name)

	page, err = service.ListProducts(ctx, services.ProductFilter{IncludeInactive: true, Limit: 500})
	require.NoError(t, err)
	assert.Len(t, page.Products, 4)
	assert.Equal(t, 100, page.Pagination.Limit)
	categories.AssertExpectations(t)
}

func TestProductService_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMockProductRepository()
	service := services.NewProductService(repo, nil)

	name := "Çiçekli Elbise"
	price := decimal.RequireFromString("349.90")
	stock := 4
	created, err := service.CreateProduct(ctx, services.ProductInput{Name: &name, Price: &price, Stock: &stock})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.Slug, "cicekli-elbise-"), created.Slug)
	assert.True(t, created.Active)

	bySlug, err := service.GetProduct(ctx, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySlug.ID)

	sale := decimal.RequireFromString("299.90")
	updated, err := service.UpdateProduct(ctx, created.ID, services.ProductInput{SalePrice: &sale})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, created.Slug, updated.Slug)
	assert.True(t, sale.Equal(updated.EffectivePrice()))

	updated, err = service.UpdateProduct(ctx, created.ID, services.ProductInput{ClearSale: true})
	require.NoError(t, err)
	assert.False(t, updated.SalePrice.Valid)

	negative := -1
	_, err = service.UpdateProduct(ctx, created.ID, services.ProductInput{Stock: &negative})
	assert.ErrorIs(t, err, services.ErrInvalidProduct)

	_, err = service.CreateProduct(ctx, services.ProductInput{Name: &name})
	assert.ErrorIs(t, err, services.ErrInvalidProduct)

	_, err = service.UpdateProduct(ctx, "missing", services.ProductInput{Name: &name})
	assert.ErrorIs(t, err, services.ErrProductNotFound)

	require.NoError(t, service.DeleteProduct(ctx, created.ID))
	_, err = service.GetProduct(ctx, created.ID)
	assert.ErrorIs(t, err, services.ErrProductNotFound)
	assert.ErrorIs(t, service.DeleteProduct(ctx, created.ID), services.ErrProductNotFound)
}

func TestSlugify(t *testing.T) {
	tests := [][2]string{
		{"Kadın Gömlek", "kadin-gomlek"},
		{"  ŞIK  / Özel!! ", "sik-ozel"},
		{"İstanbul Çarşı 2024", "istanbul-carsi-2024"},
		{"---", ""},
		{"already-a-slug", "already-a-slug"},
		{"Café Crème Body", "cafe-creme-body"},
		{"Émile Tulum", "emile-tulum"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt[1], services.Slugify(tt[0]), tt[0])
	}
}
