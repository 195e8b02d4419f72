package auth

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmate/healthmate/internal/domain/session"
	"github.com/healthmate/healthmate/internal/domain/user"
)

// fakeAuthService lets each test stub exactly the calls it expects
type fakeAuthService struct {
	createGuest          func(ip, userAgent string) (*AuthResult, error)
	login                func(identifier, password, ip, userAgent string) (*AuthResult, error)
	register             func(username, email, password, ip, userAgent string) (*AuthResult, error)
	upgradeGuest         func(guestID uint, username, email, password string) (*AuthResult, error)
	logout               func(sessionID uint) error
	logoutAll            func(userID uint) error
	refreshToken         func(currentToken, ip, userAgent string) (*RefreshResult, error)
	changePassword       func(userID uint, currentPassword, newPassword string) error
	userSessions         func(userID uint) ([]session.Session, error)
	requestPasswordReset func(email string) (string, error)
}

func (f *fakeAuthService) CreateGuest(ip, ua string) (*AuthResult, error) { return f.createGuest(ip, ua) }
func (f *fakeAuthService) Login(id, pw, ip, ua string) (*AuthResult, error) {
	return f.login(id, pw, ip, ua)
}
func (f *fakeAuthService) Register(un, em, pw, ip, ua string) (*AuthResult, error) {
	return f.register(un, em, pw, ip, ua)
}
func (f *fakeAuthService) UpgradeGuest(id uint, un, em, pw string) (*AuthResult, error) {
	return f.upgradeGuest(id, un, em, pw)
}
func (f *fakeAuthService) Logout(id uint) error     { return f.logout(id) }
func (f *fakeAuthService) LogoutAll(id uint) error  { return f.logoutAll(id) }
func (f *fakeAuthService) RefreshToken(tok, ip, ua string) (*RefreshResult, error) {
	return f.refreshToken(tok, ip, ua)
}
func (f *fakeAuthService) ChangePassword(id uint, cur, next string) error {
	return f.changePassword(id, cur, next)
}
func (f *fakeAuthService) UserSessions(id uint) ([]session.Session, error) {
	return f.userSessions(id)
}
func (f *fakeAuthService) RequestPasswordReset(email string) (string, error) {
	return f.requestPasswordReset(email)
}
func (f *fakeAuthService) CleanupExpiredSessions() (int64, error) { return 0, nil }

type fakeValidator struct {
	validate func(raw string) (*Identity, error)
}

func (f *fakeValidator) Validate(raw string) (*Identity, error) { return f.validate(raw) }

func testIdentity(isGuest bool) *Identity {
	username := "alice"
	u := &user.User{IsGuest: isGuest, IsActive: true}
	u.ID = 1
	if !isGuest {
		u.Username = &username
	}
	sess := &session.Session{UserID: 1, Token: "tok", ExpiresAt: time.Now().Add(time.Hour), IsActive: true}
	sess.ID = 10
	return &Identity{User: u, Session: sess}
}

// newTestApp wires the handler behind the real middleware, the way the
// router does
func newTestApp(svc AuthService, validator TokenValidator) *fiber.App {
	app := fiber.New()
	h := NewHandler(svc, validator)
	requireAuth := RequireAuth(validator, nil)

	app.Post("/auth/guest", h.CreateGuest)
	app.Post("/auth/login", h.Login)
	app.Post("/auth/register", h.Register)
	app.Post("/auth/validate", h.Validate)
	app.Post("/auth/refresh", h.Refresh)
	app.Post("/auth/password-reset", h.RequestPasswordReset)
	app.Get("/auth/me", requireAuth, h.Me)
	app.Post("/auth/upgrade", requireAuth, h.Upgrade)
	app.Post("/auth/logout", requireAuth, h.Logout)
	app.Post("/auth/logout-all", requireAuth, h.LogoutAll)
	app.Get("/auth/sessions", requireAuth, h.Sessions)
	app.Put("/auth/password", requireAuth, h.ChangePassword)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, token string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return resp.StatusCode, parsed
}

func TestHandler_CreateGuest(t *testing.T) {
	svc := &fakeAuthService{
		createGuest: func(ip, ua string) (*AuthResult, error) {
			res := testIdentity(true)
			return &AuthResult{User: res.User, Token: "guest-token", ExpiresAt: time.Now().Add(time.Hour), SessionID: 10}, nil
		},
	}
	app := newTestApp(svc, &fakeValidator{})

	status, body := doJSON(t, app, "POST", "/auth/guest", "", "")

	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "guest-token", data["token"])
}

func TestHandler_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeAuthService{
			login: func(id, pw, ip, ua string) (*AuthResult, error) {
				assert.Equal(t, "alice", id)
				res := testIdentity(false)
				return &AuthResult{User: res.User, Token: "t", IsFirstLogin: true}, nil
			},
		}
		app := newTestApp(svc, &fakeValidator{})

		status, body := doJSON(t, app, "POST", "/auth/login",
			`{"identifier":"alice","password":"secret1"}`, "")

		assert.Equal(t, fiber.StatusOK, status)
		data := body["data"].(map[string]any)
		assert.Equal(t, true, data["isFirstLogin"])
	})

	t.Run("bad credentials map to 401", func(t *testing.T) {
		svc := &fakeAuthService{
			login: func(id, pw, ip, ua string) (*AuthResult, error) {
				return nil, ErrInvalidCredentials
			},
		}
		app := newTestApp(svc, &fakeValidator{})

		status, body := doJSON(t, app, "POST", "/auth/login",
			`{"identifier":"alice","password":"wrong12"}`, "")

		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "INVALID_CREDENTIALS", body["code"])
	})

	t.Run("validation failure short-circuits the service", func(t *testing.T) {
		app := newTestApp(&fakeAuthService{}, &fakeValidator{})

		status, body := doJSON(t, app, "POST", "/auth/login", `{"identifier":""}`, "")

		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_ERROR", body["code"])
	})
}

func TestHandler_Register(t *testing.T) {
	t.Run("duplicate maps to 409", func(t *testing.T) {
		svc := &fakeAuthService{
			register: func(un, em, pw, ip, ua string) (*AuthResult, error) {
				return nil, ErrUserExists
			},
		}
		app := newTestApp(svc, &fakeValidator{})

		status, body := doJSON(t, app, "POST", "/auth/register",
			`{"username":"alice","email":"alice@x.com","password":"Passw0rd"}`, "")

		assert.Equal(t, fiber.StatusConflict, status)
		assert.Equal(t, "USER_EXISTS", body["code"])
	})

	t.Run("weak password rejected before the service runs", func(t *testing.T) {
		app := newTestApp(&fakeAuthService{}, &fakeValidator{})

		status, body := doJSON(t, app, "POST", "/auth/register",
			`{"username":"alice","email":"alice@x.com","password":"weak"}`, "")

		assert.Equal(t, fiber.StatusBadRequest, status)
		fields := body["fields"].(map[string]any)
		assert.Contains(t, fields, "password")
	})
}

func TestHandler_Upgrade(t *testing.T) {
	t.Run("registered caller gets NOT_GUEST", func(t *testing.T) {
		validator := &fakeValidator{validate: func(raw string) (*Identity, error) {
			return testIdentity(false), nil
		}}
		app := newTestApp(&fakeAuthService{}, validator)

		status, body := doJSON(t, app, "POST", "/auth/upgrade",
			`{"username":"alice","email":"alice@x.com","password":"Passw0rd"}`, "tok")

		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "NOT_GUEST", body["code"])
	})

	t.Run("guest caller upgrades", func(t *testing.T) {
		validator := &fakeValidator{validate: func(raw string) (*Identity, error) {
			return testIdentity(true), nil
		}}
		svc := &fakeAuthService{
			upgradeGuest: func(id uint, un, em, pw string) (*AuthResult, error) {
				assert.Equal(t, uint(1), id)
				res := testIdentity(false)
				return &AuthResult{User: res.User, Token: "new-token", IsFirstLogin: true}, nil
			},
		}
		app := newTestApp(svc, validator)

		status, body := doJSON(t, app, "POST", "/auth/upgrade",
			`{"username":"alice","email":"alice@x.com","password":"Passw0rd"}`, "tok")

		assert.Equal(t, fiber.StatusOK, status)
		data := body["data"].(map[string]any)
		assert.Equal(t, "new-token", data["token"])
	})
}

func TestHandler_Refresh(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		app := newTestApp(&fakeAuthService{}, &fakeValidator{})

		status, body := doJSON(t, app, "POST", "/auth/refresh", "", "")

		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "TOKEN_MISSING", body["code"])
	})

	t.Run("dead token maps to REFRESH_FAILED", func(t *testing.T) {
		svc := &fakeAuthService{
			refreshToken: func(tok, ip, ua string) (*RefreshResult, error) {
				return nil, ErrRefreshFailed
			},
		}
		app := newTestApp(svc, &fakeValidator{})

		status, body := doJSON(t, app, "POST", "/auth/refresh", "", "stale")

		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "REFRESH_FAILED", body["code"])
	})

	t.Run("rotation", func(t *testing.T) {
		svc := &fakeAuthService{
			refreshToken: func(tok, ip, ua string) (*RefreshResult, error) {
				assert.Equal(t, "old-token", tok)
				return &RefreshResult{Token: "new-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
			},
		}
		app := newTestApp(svc, &fakeValidator{})

		status, body := doJSON(t, app, "POST", "/auth/refresh", "", "old-token")

		assert.Equal(t, fiber.StatusOK, status)
		data := body["data"].(map[string]any)
		assert.Equal(t, "new-token", data["token"])
	})
}

func TestHandler_Validate(t *testing.T) {
	t.Run("invalid signature", func(t *testing.T) {
		validator := &fakeValidator{validate: func(raw string) (*Identity, error) {
			return nil, ErrTokenInvalid
		}}
		app := newTestApp(&fakeAuthService{}, validator)

		status, body := doJSON(t, app, "POST", "/auth/validate", `{"token":"bad"}`, "")

		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "TOKEN_INVALID", body["code"])
	})

	t.Run("retired session", func(t *testing.T) {
		validator := &fakeValidator{validate: func(raw string) (*Identity, error) {
			return nil, ErrInvalidSession
		}}
		app := newTestApp(&fakeAuthService{}, validator)

		status, body := doJSON(t, app, "POST", "/auth/validate", `{"token":"stale"}`, "")

		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "SESSION_INVALID", body["code"])
	})

	t.Run("valid token", func(t *testing.T) {
		validator := &fakeValidator{validate: func(raw string) (*Identity, error) {
			assert.Equal(t, "good", raw)
			return testIdentity(false), nil
		}}
		app := newTestApp(&fakeAuthService{}, validator)

		status, body := doJSON(t, app, "POST", "/auth/validate", `{"token":"good"}`, "")

		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, true, body["success"])
	})
}

func TestHandler_Logout(t *testing.T) {
	var loggedOut uint
	svc := &fakeAuthService{
		logout: func(id uint) error {
			loggedOut = id
			return nil
		},
	}
	validator := &fakeValidator{validate: func(raw string) (*Identity, error) {
		return testIdentity(false), nil
	}}
	app := newTestApp(svc, validator)

	status, _ := doJSON(t, app, "POST", "/auth/logout", "", "tok")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, uint(10), loggedOut)
}

func TestHandler_Sessions(t *testing.T) {
	identity := testIdentity(false)
	svc := &fakeAuthService{
		userSessions: func(id uint) ([]session.Session, error) {
			other := session.Session{UserID: 1}
			other.ID = 11
			return []session.Session{*identity.Session, other}, nil
		},
	}
	validator := &fakeValidator{validate: func(raw string) (*Identity, error) {
		return identity, nil
	}}
	app := newTestApp(svc, validator)

	status, body := doJSON(t, app, "GET", "/auth/sessions", "", "tok")
	require.Equal(t, fiber.StatusOK, status)

	data := body["data"].(map[string]any)
	list := data["sessions"].([]any)
	require.Len(t, list, 2)

	first := list[0].(map[string]any)
	second := list[1].(map[string]any)
	assert.Equal(t, true, first["is_current"])
	assert.Equal(t, false, second["is_current"])
}

func TestHandler_ChangePassword(t *testing.T) {
	t.Run("guest caller is rejected", func(t *testing.T) {
		validator := &fakeValidator{validate: func(raw string) (*Identity, error) {
			return testIdentity(true), nil
		}}
		app := newTestApp(&fakeAuthService{}, validator)

		status, body := doJSON(t, app, "PUT", "/auth/password",
			`{"currentPassword":"old","newPassword":"NewPassw0rd"}`, "tok")

		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "GUEST_USER", body["code"])
	})

	t.Run("wrong current password maps to 400", func(t *testing.T) {
		svc := &fakeAuthService{
			changePassword: func(id uint, cur, next string) error {
				return ErrIncorrectPassword
			},
		}
		validator := &fakeValidator{validate: func(raw string) (*Identity, error) {
			return testIdentity(false), nil
		}}
		app := newTestApp(svc, validator)

		status, body := doJSON(t, app, "PUT", "/auth/password",
			`{"currentPassword":"wrong","newPassword":"NewPassw0rd"}`, "tok")

		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, "INCORRECT_PASSWORD", body["code"])
	})
}

func TestRequireAuth(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		app := newTestApp(&fakeAuthService{}, &fakeValidator{})

		status, body := doJSON(t, app, "GET", "/auth/me", "", "")

		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "TOKEN_MISSING", body["code"])
	})

	t.Run("malformed header", func(t *testing.T) {
		app := newTestApp(&fakeAuthService{}, &fakeValidator{})

		req := httptest.NewRequest("GET", "/auth/me", nil)
		req.Header.Set("Authorization", "Token abc")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token reaches the handler", func(t *testing.T) {
		validator := &fakeValidator{validate: func(raw string) (*Identity, error) {
			return testIdentity(false), nil
		}}
		app := newTestApp(&fakeAuthService{}, validator)

		status, body := doJSON(t, app, "GET", "/auth/me", "", "tok")

		assert.Equal(t, fiber.StatusOK, status)
		data := body["data"].(map[string]any)
		assert.NotNil(t, data["user"])
	})
}
