package serverutils

import (
	"errors"

	"onco-advisor-be/internal/apperrors"
	"onco-advisor-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts service errors into JSON responses. Raw
// error text only leaves the process for fiber errors created on purpose;
// everything else gets a generic message with the detail logged.
func ErrorHandlerMiddleware(sysLogger logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}

		if apperrors.IsDataAccess(err) {
			sysLogger.Error("HTTP", "Data access failure", map[string]interface{}{"error": err.Error(), "path": ctx.Path()})
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"message": "The knowledge base is currently unavailable",
			})
		}

		sysLogger.Error("HTTP", "Unhandled error", map[string]interface{}{"error": err.Error(), "path": ctx.Path()})
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}
}
