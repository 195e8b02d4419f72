package utils

import "github.com/gofiber/fiber/v2"

// APIError represents a structured API error
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string, status int) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// Common API errors
var (
	ErrInternalServer = NewAPIError("INTERNAL_SERVER_ERROR", "An unexpected error occurred", fiber.StatusInternalServerError)
	ErrBadRequest     = NewAPIError("BAD_REQUEST", "Invalid request", fiber.StatusBadRequest)
	ErrTokenMissing   = NewAPIError("TOKEN_MISSING", "Access token required", fiber.StatusUnauthorized)
	ErrTokenInvalid   = NewAPIError("TOKEN_INVALID", "Invalid token", fiber.StatusUnauthorized)
	ErrSessionInvalid = NewAPIError("SESSION_INVALID", "Invalid or expired session", fiber.StatusUnauthorized)
	ErrAuthFailure    = NewAPIError("AUTH_ERROR", "Authentication failed", fiber.StatusInternalServerError)
)
