package middleware

import (
	"strings"

	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	localUserID = "user_id"
	localRole   = "role"
)

// TokenValidator verifies bearer tokens. *services.AuthService satisfies it.
type TokenValidator interface {
	ValidateToken(tokenString string) (*services.Claims, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := authenticate(c, tokens); !ok {
			return err
		}
		return c.Next()
	}
}

// AdminRequired authenticates the caller and requires the ADMIN role.
func AdminRequired(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := authenticate(c, tokens); !ok {
			return err
		}
		if !IsAdmin(c) {
			return forbidden(c)
		}
		return c.Next()
	}
}

// authenticate stores the verified claims in locals. When it returns false
// the 401 response has already been written.
func authenticate(c *fiber.Ctx, tokens TokenValidator) (bool, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return false, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authorization header is required",
		})
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer")) {
		return false, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authorization header format must be 'Bearer <token>'",
		})
	}

	claims, err := tokens.ValidateToken(strings.TrimSpace(parts[1]))
	if err != nil {
		logger.FromCtx(c.UserContext()).Debug("jwt validation failed", zap.Error(err))
		return false, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid or expired token",
		})
	}

	c.Locals(localUserID, claims.UserID)
	c.Locals(localRole, string(claims.Role))
	return true, nil
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"message": "Admin access required",
	})
}

// OptionalAuth records the caller's identity when a valid bearer token is
// present and lets every request through.
func OptionalAuth(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if claims, err := tokens.ValidateToken(strings.TrimSpace(token)); err == nil {
				c.Locals(localUserID, claims.UserID)
				c.Locals(localRole, string(claims.Role))
			}
		}
		return c.Next()
	}
}

// RequireAdmin rejects callers whose token does not carry the ADMIN role.
// It must run after AuthRequired.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsAdmin(c) {
			return forbidden(c)
		}
		return c.Next()
	}
}

// UserID returns the authenticated user's ID, or "" on public routes.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// IsAdmin reports whether the authenticated user is an administrator.
func IsAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals(localRole).(string)
	return role == string(models.RoleAdmin)
}
