package app

import (
	"errors"
	"time"

	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Services bundles the business layer so callers such as the seeder can reuse it.
type Services struct {
	Auth       *services.AuthService
	Categories *services.CategoryService
	Products   *services.ProductService
	Orders     *services.OrderService
}

// NewServices builds the business layer on top of GORM repositories.
// publisher may be nil.
func NewServices(cfg *config.Config, db *gorm.DB, publisher services.EventPublisher) *Services {
	userRepo := repositories.NewGORMUserRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	return &Services{
		Auth:       services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL),
		Categories: services.NewCategoryService(categoryRepo),
		Products:   services.NewProductService(productRepo, categoryRepo),
		Orders: services.NewOrderService(orderRepo, productRepo, publisher,
			services.NewOrderNumberGenerator(cfg.OrderNumberPrefix)),
	}
}

// New returns the Fiber application serving the storefront API under /api.
func New(cfg *config.Config, svc *Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	authLimit := middleware.NewRateLimiter(rate.Limit(cfg.AuthRateLimit), cfg.AuthRateBurst)
	auth := middleware.AuthRequired(svc.Auth)
	admin := middleware.AdminRequired(svc.Auth)
	optional := middleware.OptionalAuth(svc.Auth)

	handlers.NewAuthHandler(svc.Auth).RegisterRoutes(api, authLimit.Handler())
	handlers.NewCategoryHandler(svc.Categories).RegisterRoutes(api, admin)
	handlers.NewProductHandler(svc.Products).RegisterRoutes(api, optional, admin)
	handlers.NewOrderHandler(svc.Orders).RegisterRoutes(api, auth)

	return app
}

// errorHandler renders errors that escaped the handlers, including unknown routes.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		logger.FromCtx(c.UserContext()).Error("unhandled error", zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{"message": message})
}
