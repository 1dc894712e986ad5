package middleware

import (
	"time"

	"railpay/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const HeaderRequestID = "X-Request-ID"

// RequestLogger tags each request with an id and logs its outcome.
func RequestLogger(log *zap.Logger) fiber.Handler {
	log = logger.OrNop(log).Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(HeaderRequestID, requestID)
		c.Locals("requestID", requestID)

		err := c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		if c.Response().StatusCode() >= fiber.StatusInternalServerError {
			log.Error("request failed", fields...)
		} else {
			log.Info("request handled", fields...)
		}
		return err
	}
}
