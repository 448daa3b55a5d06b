package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
)

const (
	defaultProductPageLimit = 12
	maxProductPageLimit     = 100
)

// ProductFilter selects a page of the catalog. Category accepts an ID or a slug.
type ProductFilter struct {
	Search          string
	Category        string
	Featured        bool
	IncludeInactive bool
	Page            int
	Limit           int
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products   []models.Product  `json:"products"`
	Pagination models.Pagination `json:"pagination"`
}

// ProductInput carries the writable product fields. Nil fields are left
// untouched on update.
type ProductInput struct {
	Name        *string          `json:"name" validate:"omitempty,min=2,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	ClearSale   bool             `json:"clear_sale_price"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Images      []string         `json:"images"`
	Sizes       []string         `json:"sizes"`
	Colors      []string         `json:"colors"`
	Featured    *bool            `json:"featured"`
	Active      *bool            `json:"active"`
	CategoryID  *string          `json:"category_id"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo       repositories.ProductRepository
	categories repositories.CategoryRepository
	now        func() time.Time
}

// NewProductService creates a new ProductService. categories may be nil when
// category filters are not needed.
func NewProductService(repo repositories.ProductRepository, categories repositories.CategoryRepository) *ProductService {
	return &ProductService{
		repo:       repo,
		categories: categories,
		now:        time.Now,
	}
}

// ListProducts retrieves one page of products, newest first.
func (s *ProductService) ListProducts(ctx context.Context, filter ProductFilter) (*ProductPage, error) {
	page, limit := normalizePage(filter.Page, filter.Limit, defaultProductPageLimit, maxProductPageLimit)

	categoryID, err := s.resolveCategory(ctx, filter.Category)
	if err != nil {
		return nil, err
	}
	if filter.Category != "" && categoryID == "" {
		// unknown category slug: nothing can match
		return &ProductPage{Products: []models.Product{}, Pagination: models.NewPagination(page, limit, 0)}, nil
	}

	products, total, err := s.repo.List(ctx, repositories.ProductFilter{
		Search:          filter.Search,
		CategoryID:      categoryID,
		Featured:        filter.Featured,
		IncludeInactive: filter.IncludeInactive,
		Offset:          (page - 1) * limit,
		Limit:           limit,
	})
	if err != nil {
		return nil, err
	}
	return &ProductPage{Products: products, Pagination: models.NewPagination(page, limit, total)}, nil
}

func (s *ProductService) resolveCategory(ctx context.Context, ref string) (string, error) {
	if ref == "" || s.categories == nil {
		return ref, nil
	}
	if c, err := s.categories.GetByID(ctx, ref); err == nil {
		return c.ID, nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return "", err
	}
	c, err := s.categories.GetBySlug(ctx, ref)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return c.ID, nil
}

// GetProduct retrieves a single product by its ID or, failing that, by slug.
func (s *ProductService) GetProduct(ctx context.Context, idOrSlug string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, idOrSlug)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	product, err = s.repo.GetBySlug(ctx, idOrSlug)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// CreateProduct creates a new product. Name and price are required.
func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if in.Name == nil || *in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if in.Price == nil {
		return nil, fmt.Errorf("%w: price is required", ErrInvalidProduct)
	}

	product := &models.Product{
		Active: true,
		Images: []string{},
		Sizes:  []string{},
		Colors: []string{},
	}
	if err := s.apply(product, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct applies the provided fields to an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if err := s.apply(product, in); err != nil {
		return nil, err
	}
	product.Category = nil
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrProductNotFound
	case errors.Is(err, repositories.ErrInUse):
		return ErrProductInUse
	}
	return err
}

func (s *ProductService) apply(p *models.Product, in ProductInput) error {
	if in.Name != nil && *in.Name != "" {
		p.Name = *in.Name
		p.Slug = uniqueSlug(*in.Name, s.now())
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
		}
		p.Price = *in.Price
	}
	switch {
	case in.ClearSale:
		p.SalePrice = decimal.NullDecimal{}
	case in.SalePrice != nil:
		if in.SalePrice.IsNegative() {
			return fmt.Errorf("%w: sale price must not be negative", ErrInvalidProduct)
		}
		p.SalePrice = decimal.NewNullDecimal(*in.SalePrice)
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
		}
		p.Stock = *in.Stock
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.Sizes != nil {
		p.Sizes = in.Sizes
	}
	if in.Colors != nil {
		p.Colors = in.Colors
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	if in.CategoryID != nil {
		if *in.CategoryID == "" {
			p.CategoryID = nil
		} else {
			id := *in.CategoryID
			p.CategoryID = &id
		}
	}
	return nil
}
