package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"storefront/internal/logger"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseAndValidate decodes the JSON body into dst and runs struct validation.
// On failure the 400 response has already been written and handled is true.
func parseAndValidate(c *fiber.Ctx, v *validator.Validate, dst any) (handled bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		logger.FromCtx(c.UserContext()).Debug("invalid request body", zap.Error(err))
		return true, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if err := v.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return true, err
		}
		errorMessages := make(map[string]string, len(validationErrors))
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return true, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return false, nil
}

// respondError maps service errors onto status codes. Unknown errors are
// logged and reported as 500 without details.
func respondError(c *fiber.Ctx, err error) error {
	body := fiber.Map{"message": err.Error()}

	var lineErr *services.LineItemError
	if errors.As(err, &lineErr) {
		body["message"] = lineErr.Err.Error()
		body["product_id"] = lineErr.ProductID
		body["index"] = lineErr.Index
		return c.Status(fiber.StatusBadRequest).JSON(body)
	}

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidProduct):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		status = fiber.StatusUnauthorized
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrUserNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrCategoryExists),
		errors.Is(err, services.ErrProductInUse):
		status = fiber.StatusConflict
	}

	if status == fiber.StatusInternalServerError {
		logger.FromCtx(c.UserContext()).Error("request failed",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		body["message"] = "Internal server error"
	}
	return c.Status(status).JSON(body)
}

type pageQuery struct {
	Page  int
	Limit int
}

func readPage(c *fiber.Ctx) pageQuery {
	return pageQuery{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", 0)}
}
