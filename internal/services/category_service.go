package services

import (
	"context"
	"errors"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description string  `json:"description" validate:"max=2000"`
	Image       string  `json:"image" validate:"omitempty,max=500"`
	ParentID    *string `json:"parent_id"`
}

// CategoryService handles business logic related to categories.
type CategoryService struct {
	repo repositories.CategoryRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// ListCategories returns every category ordered by name.
func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.repo.List(ctx)
}

// GetCategory returns a category by ID or slug.
func (s *CategoryService) GetCategory(ctx context.Context, idOrSlug string) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, idOrSlug)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	bySlug, err := s.repo.GetBySlug(ctx, idOrSlug)
	if err != nil {
		return nil, mapCategoryErr(err)
	}
	// load associations
	category, err = s.repo.GetByID(ctx, bySlug.ID)
	if err != nil {
		return nil, mapCategoryErr(err)
	}
	return category, nil
}

// CreateCategory creates a category whose slug is derived from its name.
func (s *CategoryService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	category := &models.Category{
		Name:        in.Name,
		Slug:        Slugify(in.Name),
		Description: in.Description,
		Image:       in.Image,
		ParentID:    emptyToNil(in.ParentID),
	}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, mapCategoryErr(err)
	}
	return category, nil
}

// UpdateCategory overwrites the writable fields of a category.
func (s *CategoryService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapCategoryErr(err)
	}
	category.Name = in.Name
	category.Slug = Slugify(in.Name)
	category.Description = in.Description
	category.Image = in.Image
	category.ParentID = emptyToNil(in.ParentID)
	if category.ParentID != nil && *category.ParentID == category.ID {
		category.ParentID = nil
	}
	category.Parent, category.Children, category.Products = nil, nil, nil

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, mapCategoryErr(err)
	}
	return category, nil
}

// DeleteCategory removes a category.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	return mapCategoryErr(s.repo.Delete(ctx, id))
}

func mapCategoryErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, repositories.ErrDuplicate):
		return ErrCategoryExists
	}
	return err
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
