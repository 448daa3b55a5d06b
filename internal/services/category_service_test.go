package services_test

import (
	"context"
	"fmt"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_Create(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCategoryRepository)
	service := services.NewCategoryService(repo)

	repo.On("Create", ctx, mock.MatchedBy(func(c *models.Category) bool {
		return c.Slug == "erkek-giyim" && c.ParentID == nil
	})).Return(nil).Once()
	created, err := service.CreateCategory(ctx, services.CategoryInput{Name: "Erkek Giyim"})
	require.NoError(t, err)
	assert.Equal(t, "erkek-giyim", created.Slug)

	repo.On("Create", ctx, mock.AnythingOfType("*models.Category")).
		Return(fmt.Errorf("category slug erkek-giyim: %w", repositories.ErrDuplicate)).Once()
	_, err = service.CreateCategory(ctx, services.CategoryInput{Name: "Erkek  Giyim"})
	assert.ErrorIs(t, err, services.ErrCategoryExists)
	repo.AssertExpectations(t)
}

func TestCategoryService_GetBySlug(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCategoryRepository)
	service := services.NewCategoryService(repo)

	full := &models.Category{ID: "c-1", Slug: "dresses", Products: []models.Product{{ID: "p-1"}}}
	repo.On("GetByID", ctx, "dresses").Return(nil, notFound("category dresses")).Once()
	repo.On("GetBySlug", ctx, "dresses").Return(&models.Category{ID: "c-1", Slug: "dresses"}, nil).Once()
	repo.On("GetByID", ctx, "c-1").Return(full, nil).Once()

	got, err := service.GetCategory(ctx, "dresses")
	require.NoError(t, err)
	assert.Len(t, got.Products, 1)

	repo.On("GetByID", ctx, "ghost").Return(nil, notFound("category ghost")).Once()
	repo.On("GetBySlug", ctx, "ghost").Return(nil, notFound("category ghost")).Once()
	_, err = service.GetCategory(ctx, "ghost")
	assert.ErrorIs(t, err, services.ErrCategoryNotFound)
	repo.AssertExpectations(t)
}

func TestCategoryService_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCategoryRepository)
	service := services.NewCategoryService(repo)

	self := "c-1"
	repo.On("GetByID", ctx, "c-1").Return(&models.Category{ID: "c-1", Name: "Old", Slug: "old"}, nil).Once()
	repo.On("Update", ctx, mock.MatchedBy(func(c *models.Category) bool {
		return c.Slug == "yeni-sezon" && c.ParentID == nil
	})).Return(nil).Once()
	updated, err := service.UpdateCategory(ctx, "c-1", services.CategoryInput{Name: "Yeni Sezon", ParentID: &self})
	require.NoError(t, err)
	assert.Equal(t, "Yeni Sezon", updated.Name)

	repo.On("Delete", ctx, "c-2").Return(notFound("category c-2")).Once()
	assert.ErrorIs(t, service.DeleteCategory(ctx, "c-2"), services.ErrCategoryNotFound)

	repo.On("Delete", ctx, "c-1").Return(nil).Once()
	assert.NoError(t, service.DeleteCategory(ctx, "c-1"))
	repo.AssertExpectations(t)
}
