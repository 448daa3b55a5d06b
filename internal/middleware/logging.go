package middleware

import (
	"time"

	"storefront/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger attaches the request ID set by the requestid middleware to the
// user context, so services log with it, and writes one line per request.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqID := c.GetRespHeader(fiber.HeaderXRequestID)
		if reqID == "" {
			reqID = c.Get(fiber.HeaderXRequestID)
		}
		c.SetUserContext(logger.WithRequestID(c.UserContext(), reqID))

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.String("ip", c.IP()),
			zap.Duration("duration", time.Since(start)),
		}
		log := logger.FromCtx(c.UserContext())
		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("request failed", append(fields, zap.Error(err))...)
		case status >= fiber.StatusBadRequest:
			log.Warn("request rejected", fields...)
		default:
			log.Info("incoming request", fields...)
		}
		return err
	}
}
