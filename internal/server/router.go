package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/healthmate/healthmate/internal/domain/auth"
)

// SetupRoutes sets up the routes for the application
func SetupRoutes(app *fiber.App, h *auth.Handler, validator auth.TokenValidator, policy *auth.SessionPolicy) {
	api := app.Group("/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "ok",
		})
	})

	// 5 attempts per 15 minutes on credential endpoints, 100 elsewhere
	authLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 15 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return rateLimited(c)
		},
	})
	generalLimiter := limiter.New(limiter.Config{
		Max:        100,
		Expiration: 15 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return rateLimited(c)
		},
	})

	requireAuth := auth.RequireAuth(validator, policy)

	authGroup := api.Group("/auth")

	// public
	authGroup.Post("/guest", generalLimiter, h.CreateGuest)
	authGroup.Post("/login", authLimiter, h.Login)
	authGroup.Post("/register", authLimiter, h.Register)
	authGroup.Post("/validate", generalLimiter, h.Validate)
	authGroup.Post("/refresh", generalLimiter, h.Refresh)
	authGroup.Post("/password-reset", authLimiter, h.RequestPasswordReset)

	// authenticated
	authGroup.Get("/me", requireAuth, h.Me)
	authGroup.Post("/upgrade", requireAuth, h.Upgrade)
	authGroup.Post("/logout", requireAuth, h.Logout)
	authGroup.Post("/logout-all", requireAuth, h.LogoutAll)
	authGroup.Get("/sessions", requireAuth, h.Sessions)
	authGroup.Put("/password", requireAuth, h.ChangePassword)
}

func rateLimited(c *fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"success": false,
		"error":   "Too many requests, please try again later",
		"code":    "RATE_LIMIT_EXCEEDED",
	})
}
