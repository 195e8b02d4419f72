package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/healthmate/healthmate/internal/utils"
)

// Transport-level errors for the auth endpoints
var (
	apiInvalidCredentials = utils.NewAPIError("INVALID_CREDENTIALS", "Invalid credentials", fiber.StatusUnauthorized)
	apiUserExists         = utils.NewAPIError("USER_EXISTS", "Username or email already exists", fiber.StatusConflict)
	apiGuestNotFound      = utils.NewAPIError("GUEST_NOT_FOUND", "Guest user not found", fiber.StatusNotFound)
	apiNotGuest           = utils.NewAPIError("NOT_GUEST", "Only guest users can be upgraded", fiber.StatusBadRequest)
	apiUserNotFound       = utils.NewAPIError("USER_NOT_FOUND", "User not found", fiber.StatusNotFound)
	apiIncorrectPassword  = utils.NewAPIError("INCORRECT_PASSWORD", "Current password is incorrect", fiber.StatusBadRequest)
	apiRefreshFailed      = utils.NewAPIError("REFRESH_FAILED", "Invalid or expired token", fiber.StatusUnauthorized)
	apiGuestOnlyPassword  = utils.NewAPIError("GUEST_USER", "Guest users do not have a password", fiber.StatusBadRequest)
)

// Handler exposes the auth endpoints
type Handler struct {
	authService AuthService
	validator   TokenValidator
}

// NewHandler creates a new auth handler
func NewHandler(s AuthService, v TokenValidator) *Handler {
	return &Handler{authService: s, validator: v}
}

// CreateGuest handles POST /auth/guest
func (h *Handler) CreateGuest(c *fiber.Ctx) error {
	res, err := h.authService.CreateGuest(c.IP(), c.Get("User-Agent"))
	if err != nil {
		return h.respondServiceError(c, err)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"user":      res.User,
		"token":     res.Token,
		"expiresAt": res.ExpiresAt,
	}, "Guest user created", fiber.StatusCreated)
}

// Login handles POST /auth/login
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ErrBadRequest)
	}
	if fields := req.Validate(); fields != nil {
		return utils.ValidationErrorResponse(c, fields)
	}

	res, err := h.authService.Login(req.Identifier, req.Password, c.IP(), c.Get("User-Agent"))
	if err != nil {
		return h.respondServiceError(c, err)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"user":         res.User,
		"token":        res.Token,
		"expiresAt":    res.ExpiresAt,
		"isFirstLogin": res.IsFirstLogin,
	}, "Login successful")
}

// Register handles POST /auth/register
func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ErrBadRequest)
	}
	if fields := req.Validate(); fields != nil {
		return utils.ValidationErrorResponse(c, fields)
	}

	res, err := h.authService.Register(req.Username, req.Email, req.Password, c.IP(), c.Get("User-Agent"))
	if err != nil {
		return h.respondServiceError(c, err)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"user":         res.User,
		"token":        res.Token,
		"expiresAt":    res.ExpiresAt,
		"isFirstLogin": res.IsFirstLogin,
	}, "User registered successfully", fiber.StatusCreated)
}

// Upgrade handles POST /auth/upgrade. Caller must hold a valid guest token.
func (h *Handler) Upgrade(c *fiber.Ctx) error {
	identity := CurrentIdentity(c)
	if identity == nil {
		return utils.RespondError(c, utils.ErrTokenMissing)
	}
	if !identity.User.IsGuest {
		return utils.RespondError(c, apiNotGuest)
	}

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ErrBadRequest)
	}
	if fields := req.Validate(); fields != nil {
		return utils.ValidationErrorResponse(c, fields)
	}

	res, err := h.authService.UpgradeGuest(identity.User.ID, req.Username, req.Email, req.Password)
	if err != nil {
		return h.respondServiceError(c, err)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"user":         res.User,
		"token":        res.Token,
		"expiresAt":    res.ExpiresAt,
		"isFirstLogin": res.IsFirstLogin,
	}, "Guest account upgraded")
}

// Logout handles POST /auth/logout
func (h *Handler) Logout(c *fiber.Ctx) error {
	identity := CurrentIdentity(c)
	if identity == nil {
		return utils.RespondError(c, utils.ErrTokenMissing)
	}

	if err := h.authService.Logout(identity.Session.ID); err != nil {
		return h.respondServiceError(c, err)
	}
	return utils.SuccessResponse(c, nil, "Logged out")
}

// LogoutAll handles POST /auth/logout-all
func (h *Handler) LogoutAll(c *fiber.Ctx) error {
	identity := CurrentIdentity(c)
	if identity == nil {
		return utils.RespondError(c, utils.ErrTokenMissing)
	}

	if err := h.authService.LogoutAll(identity.User.ID); err != nil {
		return h.respondServiceError(c, err)
	}
	return utils.SuccessResponse(c, nil, "All sessions logged out")
}

// Refresh handles POST /auth/refresh. The current token comes from the
// Authorization header and is rotated, not extended.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return utils.RespondError(c, utils.ErrTokenMissing)
	}

	res, err := h.authService.RefreshToken(token, c.IP(), c.Get("User-Agent"))
	if err != nil {
		return h.respondServiceError(c, err)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"token":     res.Token,
		"expiresAt": res.ExpiresAt,
	}, "Token refreshed")
}

// Validate handles POST /auth/validate
func (h *Handler) Validate(c *fiber.Ctx) error {
	var req ValidateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ErrBadRequest)
	}
	if req.Token == "" {
		return utils.RespondError(c, utils.ErrTokenMissing)
	}

	identity, err := h.validator.Validate(req.Token)
	if err != nil {
		return respondValidationFailure(c, err)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"user":    identity.User,
		"session": identity.Session,
	}, "Token is valid")
}

// Me handles GET /auth/me
func (h *Handler) Me(c *fiber.Ctx) error {
	identity := CurrentIdentity(c)
	if identity == nil {
		return utils.RespondError(c, utils.ErrTokenMissing)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"user": identity.User,
	}, "")
}

// Sessions handles GET /auth/sessions, flagging the caller's own session
func (h *Handler) Sessions(c *fiber.Ctx) error {
	identity := CurrentIdentity(c)
	if identity == nil {
		return utils.RespondError(c, utils.ErrTokenMissing)
	}

	sessions, err := h.authService.UserSessions(identity.User.ID)
	if err != nil {
		return h.respondServiceError(c, err)
	}

	list := make([]fiber.Map, 0, len(sessions))
	for _, sess := range sessions {
		list = append(list, fiber.Map{
			"id":         sess.ID,
			"ip_address": sess.IPAddress,
			"user_agent": sess.UserAgent,
			"created_at": sess.CreatedAt,
			"updated_at": sess.UpdatedAt,
			"expires_at": sess.ExpiresAt,
			"is_current": sess.ID == identity.Session.ID,
		})
	}

	return utils.SuccessResponse(c, fiber.Map{"sessions": list}, "")
}

// ChangePassword handles PUT /auth/password
func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	identity := CurrentIdentity(c)
	if identity == nil {
		return utils.RespondError(c, utils.ErrTokenMissing)
	}
	if identity.User.IsGuest {
		return utils.RespondError(c, apiGuestOnlyPassword)
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ErrBadRequest)
	}
	if fields := req.Validate(); fields != nil {
		return utils.ValidationErrorResponse(c, fields)
	}

	if err := h.authService.ChangePassword(identity.User.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return h.respondServiceError(c, err)
	}
	return utils.SuccessResponse(c, nil, "Password changed")
}

// RequestPasswordReset handles POST /auth/password-reset
func (h *Handler) RequestPasswordReset(c *fiber.Ctx) error {
	var req PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, utils.ErrBadRequest)
	}
	if fields := req.Validate(); fields != nil {
		return utils.ValidationErrorResponse(c, fields)
	}

	message, err := h.authService.RequestPasswordReset(req.Email)
	if err != nil {
		return h.respondServiceError(c, err)
	}
	return utils.SuccessResponse(c, nil, message)
}

func (h *Handler) respondServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return utils.RespondError(c, apiInvalidCredentials)
	case errors.Is(err, ErrUserExists):
		return utils.RespondError(c, apiUserExists)
	case errors.Is(err, ErrGuestNotFound):
		return utils.RespondError(c, apiGuestNotFound)
	case errors.Is(err, ErrNotGuest):
		return utils.RespondError(c, apiNotGuest)
	case errors.Is(err, ErrUserNotFound):
		return utils.RespondError(c, apiUserNotFound)
	case errors.Is(err, ErrIncorrectPassword):
		return utils.RespondError(c, apiIncorrectPassword)
	case errors.Is(err, ErrRefreshFailed):
		return utils.RespondError(c, apiRefreshFailed)
	case errors.Is(err, ErrTokenInvalid):
		return utils.RespondError(c, utils.ErrTokenInvalid)
	case errors.Is(err, ErrInvalidSession):
		return utils.RespondError(c, utils.ErrSessionInvalid)
	default:
		return utils.RespondError(c, utils.ErrInternalServer)
	}
}
