package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/healthmate/healthmate/internal/utils"
)

const (
	// IdentityKey is the key used to store the identity in Fiber context
	IdentityKey = "identity"
)

// RequireAuth verifies the bearer token, applies the session-count policy
// and stores the resolved identity in the request context. policy may be
// nil, which skips enforcement.
func RequireAuth(validator TokenValidator, policy *SessionPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return utils.RespondError(c, utils.ErrTokenMissing)
		}

		identity, err := validator.Validate(token)
		if err != nil {
			return respondValidationFailure(c, err)
		}

		if policy != nil {
			policy.Enforce(identity.User.ID, identity.Session.ID)
		}

		c.Locals(IdentityKey, identity)
		return c.Next()
	}
}

// OptionalAuth resolves an identity when a valid token is present and lets
// the request through anonymously otherwise
func OptionalAuth(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Next()
		}

		identity, err := validator.Validate(token)
		if err != nil {
			return c.Next()
		}

		c.Locals(IdentityKey, identity)
		return c.Next()
	}
}

// CurrentIdentity extracts the identity from Fiber context
func CurrentIdentity(c *fiber.Ctx) *Identity {
	identity, ok := c.Locals(IdentityKey).(*Identity)
	if !ok {
		return nil
	}
	return identity
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func respondValidationFailure(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrTokenInvalid):
		return utils.RespondError(c, utils.ErrTokenInvalid)
	case errors.Is(err, ErrInvalidSession):
		return utils.RespondError(c, utils.ErrSessionInvalid)
	default:
		return utils.RespondError(c, utils.ErrAuthFailure)
	}
}
