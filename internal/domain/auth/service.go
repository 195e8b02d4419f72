package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/healthmate/healthmate/internal/cache"
	"github.com/healthmate/healthmate/internal/domain/preference"
	"github.com/healthmate/healthmate/internal/domain/session"
	"github.com/healthmate/healthmate/internal/domain/user"
)

// AuthResult is returned by every operation that issues a session
type AuthResult struct {
	User         *user.User
	Token        string
	ExpiresAt    time.Time
	SessionID    uint
	IsFirstLogin bool
}

// RefreshResult is returned by a token rotation
type RefreshResult struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService drives the session/user lifecycle
type AuthService interface {
	CreateGuest(ip, userAgent string) (*AuthResult, error)
	Login(identifier, password, ip, userAgent string) (*AuthResult, error)
	Register(username, email, password, ip, userAgent string) (*AuthResult, error)
	UpgradeGuest(guestID uint, username, email, password string) (*AuthResult, error)
	Logout(sessionID uint) error
	LogoutAll(userID uint) error
	RefreshToken(currentToken, ip, userAgent string) (*RefreshResult, error)
	ChangePassword(userID uint, currentPassword, newPassword string) error
	UserSessions(userID uint) ([]session.Session, error)
	RequestPasswordReset(email string) (string, error)
	CleanupExpiredSessions() (int64, error)
}

// Service orchestrates guest creation, login, registration, guest upgrade,
// logout, refresh and password changes. All state lives in the store; the
// service itself is stateless across calls.
type Service struct {
	users       user.Repository
	sessions    session.Repository
	prefs       preference.Repository
	issuer      *Issuer
	validator   *Validator
	revocations *cache.RevocationCache
}

// NewService creates a new auth service. revocations may be nil.
func NewService(
	users user.Repository,
	sessions session.Repository,
	prefs preference.Repository,
	issuer *Issuer,
	validator *Validator,
	revocations *cache.RevocationCache,
) *Service {
	return &Service{
		users:       users,
		sessions:    sessions,
		prefs:       prefs,
		issuer:      issuer,
		validator:   validator,
		revocations: revocations,
	}
}

// CreateGuest creates a guest user with a fresh UUID and issues its first
// session. The user row is not rolled back if issuance fails; the call
// still fails as a whole.
func (s *Service) CreateGuest(ip, userAgent string) (*AuthResult, error) {
	guestUUID := uuid.NewString()
	now := time.Now().UTC()

	u := &user.User{
		GuestUUID:    &guestUUID,
		IsGuest:      true,
		IsActive:     true,
		LastActiveAt: &now,
	}
	if err := s.users.Create(u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGuestCreation, err)
	}

	issued, err := s.issuer.CreateSession(u.ID, ip, userAgent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGuestCreation, err)
	}

	return &AuthResult{
		User:      u,
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		SessionID: issued.SessionID,
	}, nil
}

// Login authenticates a registered user by username or email. Unknown
// identifiers and wrong passwords produce the same error.
func (s *Service) Login(identifier, password, ip, userAgent string) (*AuthResult, error) {
	u, err := s.users.FindActiveByIdentifier(identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if u.PasswordHash == nil || !user.VerifyPassword(password, *u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.TouchLastActive(u.ID); err != nil {
		return nil, err
	}

	issued, err := s.issuer.CreateSession(u.ID, ip, userAgent)
	if err != nil {
		return nil, err
	}

	// First-ever login iff this session is the only row the user ever had,
	// retired ones included
	count, err := s.sessions.CountForUser(u.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         u,
		Token:        issued.Token,
		ExpiresAt:    issued.ExpiresAt,
		SessionID:    issued.SessionID,
		IsFirstLogin: count == 1,
	}, nil
}

// Register creates a registered user, seeds default preferences and issues
// the first session
func (s *Service) Register(username, email, password, ip, userAgent string) (*AuthResult, error) {
	exists, err := s.users.ExistsWithCredentials(username, email, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := user.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &user.User{
		Username:     &username,
		Email:        &email,
		PasswordHash: &hash,
		IsGuest:      false,
		IsActive:     true,
		LastActiveAt: &now,
	}
	if err := s.users.Create(u); err != nil {
		return nil, err
	}

	s.seedPreferences(u.ID)

	issued, err := s.issuer.CreateSession(u.ID, ip, userAgent)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         u,
		Token:        issued.Token,
		ExpiresAt:    issued.ExpiresAt,
		SessionID:    issued.SessionID,
		IsFirstLogin: true,
	}, nil
}

// UpgradeGuest converts a guest into a registered user on the same row,
// invalidates every existing session and issues exactly one new session.
// Invalidation strictly precedes issuance so the old guest tokens stop
// working the moment the upgrade lands.
func (s *Service) UpgradeGuest(guestID uint, username, email, password string) (*AuthResult, error) {
	if _, err := s.users.FindActiveGuest(guestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGuestNotFound
		}
		return nil, err
	}

	exists, err := s.users.ExistsWithCredentials(username, email, guestID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := user.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Upgrade(guestID, username, email, hash)
	if err != nil {
		return nil, err
	}

	s.seedPreferences(u.ID)

	if err := s.retireAllSessions(u.ID); err != nil {
		return nil, err
	}

	issued, err := s.issuer.CreateSession(u.ID, "", "")
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         u,
		Token:        issued.Token,
		ExpiresAt:    issued.ExpiresAt,
		SessionID:    issued.SessionID,
		IsFirstLogin: true,
	}, nil
}

// Logout retires one session. Logging out an already-retired or unknown
// session is not an error.
func (s *Service) Logout(sessionID uint) error {
	sess, err := s.sessions.FindByID(sessionID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := s.sessions.Deactivate(sessionID); err != nil {
		return err
	}

	if sess != nil {
		s.cacheRevocation(sessionID, sess.ExpiresAt)
	}
	return nil
}

// LogoutAll retires every session the user has
func (s *Service) LogoutAll(userID uint) error {
	return s.retireAllSessions(userID)
}

// RefreshToken rotates a session: the presented token's session is retired
// and a brand-new session is issued. The old token is permanently dead
// afterwards even though its signature has not expired.
func (s *Service) RefreshToken(currentToken, ip, userAgent string) (*RefreshResult, error) {
	identity, err := s.validator.Validate(currentToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	if err := s.Logout(identity.Session.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	issued, err := s.issuer.CreateSession(identity.User.ID, ip, userAgent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	return &RefreshResult{Token: issued.Token, ExpiresAt: issued.ExpiresAt}, nil
}

// ChangePassword verifies the current password, stores the new digest and
// retires every session for the user, forcing re-login on all devices.
func (s *Service) ChangePassword(userID uint, currentPassword, newPassword string) error {
	u, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if u.IsGuest || u.PasswordHash == nil {
		return ErrUserNotFound
	}

	if !user.VerifyPassword(currentPassword, *u.PasswordHash) {
		return ErrIncorrectPassword
	}

	hash, err := user.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(userID, hash); err != nil {
		return err
	}

	return s.retireAllSessions(userID)
}

// UserSessions lists the user's live sessions, most recently touched first
func (s *Service) UserSessions(userID uint) ([]session.Session, error) {
	return s.sessions.FindLiveByUser(userID)
}

// RequestPasswordReset answers with the same message whether or not the
// email belongs to an account, to avoid user enumeration.
// TODO: generate a reset token and deliver it by mail.
func (s *Service) RequestPasswordReset(email string) (string, error) {
	_, err := s.users.FindActiveByIdentifier(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "If the email exists, a reset link has been sent", nil
		}
		return "", err
	}

	return "If the email exists, a reset link has been sent", nil
}

// CleanupExpiredSessions removes session rows that expired before now and
// returns how many were deleted
func (s *Service) CleanupExpiredSessions() (int64, error) {
	return s.sessions.DeleteExpired(time.Now().UTC())
}

// retireAllSessions deactivates every session for the user and mirrors the
// revocations into the cache when one is configured
func (s *Service) retireAllSessions(userID uint) error {
	var live []session.Session
	if s.revocations != nil {
		var err error
		live, err = s.sessions.FindLiveByUser(userID)
		if err != nil {
			slog.Warn("Failed to list sessions for revocation cache", "error", err, "user_id", userID)
		}
	}

	if err := s.sessions.DeactivateAllForUser(userID); err != nil {
		return err
	}

	for _, sess := range live {
		s.cacheRevocation(sess.ID, sess.ExpiresAt)
	}
	return nil
}

// seedPreferences is best-effort: a failed seed never aborts registration
// or upgrade
func (s *Service) seedPreferences(userID uint) {
	if err := s.prefs.SeedDefaults(userID); err != nil {
		slog.Warn("Failed to seed default preferences", "error", err, "user_id", userID)
	}
}

// cacheRevocation is best-effort: a cache failure never fails the logout,
// the database check still rejects the session
func (s *Service) cacheRevocation(sessionID uint, expiresAt time.Time) {
	if s.revocations == nil {
		return
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Hour
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.revocations.RevokeSession(ctx, sessionID, ttl); err != nil {
		slog.Warn("Failed to store session revocation in cache", "error", err, "session_id", sessionID)
	}
}
