package middleware

import (
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// NewLogger builds the application logger: JSON in production, text
// locally.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler)
}

// StructuredLogger returns a Fiber middleware for logging requests using slog
func StructuredLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("duration", time.Since(start)),
		}
		if rid := c.Locals("requestid"); rid != nil {
			if ridStr, ok := rid.(string); ok {
				attrs = append(attrs, slog.String("request_id", ridStr))
			}
		}
		if uid := c.Locals(LocalUserID); uid != nil {
			if uidUint, ok := uid.(uint); ok {
				attrs = append(attrs, slog.Any("user_id", uidUint))
			}
		}

		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
			logger.Error("request", attrs...)
		} else {
			logger.Info("request", attrs...)
		}
		return err
	}
}
