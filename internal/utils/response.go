package utils

import (
	"github.com/gofiber/fiber/v2"
)

// SuccessResponse sends a success JSON response
func SuccessResponse(c *fiber.Ctx, data any, message string, code ...int) error {
	statusCode := fiber.StatusOK
	if len(code) > 0 {
		statusCode = code[0]
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"success": true,
		"data":    data,
		"message": message,
	})
}

// RespondError sends a structured API error as JSON
func RespondError(c *fiber.Ctx, apiErr *APIError) error {
	return c.Status(apiErr.Status).JSON(fiber.Map{
		"success": false,
		"error":   apiErr.Message,
		"code":    apiErr.Code,
	})
}

// ValidationErrorResponse sends field validation failures with a 400 status
func ValidationErrorResponse(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   "Validation failed",
		"code":    "VALIDATION_ERROR",
		"fields":  fields,
	})
}
