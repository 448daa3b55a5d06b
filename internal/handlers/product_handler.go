package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: newValidator(),
	}
}

// RegisterRoutes registers the product routes. optional identifies callers on
// public reads; admin guards writes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, optional, admin fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", optional, h.HandleGetProducts)
	productRoutes.Get("/:id", optional, h.HandleGetProduct)
	productRoutes.Post("/", admin, h.HandleCreateProduct)
	productRoutes.Put("/:id", admin, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", admin, h.HandleDeleteProduct)
}

// HandleGetProducts lists active products. Administrators may pass
// include_inactive=true.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	p := readPage(c)
	page, err := h.service.ListProducts(c.UserContext(), services.ProductFilter{
		Search:          c.Query("search"),
		Category:        c.Query("category"),
		Featured:        c.QueryBool("featured"),
		IncludeInactive: middleware.IsAdmin(c) && c.QueryBool("include_inactive"),
		Page:            p.Page,
		Limit:           p.Limit,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// HandleGetProduct retrieves a product by ID or slug. Inactive products are
// only visible to administrators.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if !product.Active && !middleware.IsAdmin(c) {
		return respondError(c, services.ErrProductNotFound)
	}
	return c.JSON(product)
}

// HandleCreateProduct adds a product to the catalog.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req services.ProductInput
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	product, err := h.service.CreateProduct(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies a partial update.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req services.ProductInput
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct removes a product that no order references.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
