package serverutils

import (
	"github.com/gofiber/fiber/v2"

	"ai-chat-be/internal/pkg/logger"
)

// NewErrorHandlerMiddleware is the last-resort translator: anything a
// controller lets escape becomes a generic 500 with the detail kept
// server-side.
func NewErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		if fe, ok := err.(*fiber.Error); ok {
			return ctx.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		log.Error("http", "Unhandled request error", map[string]interface{}{
			"path":   ctx.Path(),
			"method": ctx.Method(),
			"error":  err.Error(),
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}
