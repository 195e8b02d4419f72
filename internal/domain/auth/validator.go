package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/healthmate/healthmate/internal/cache"
	"github.com/healthmate/healthmate/internal/domain/session"
	"github.com/healthmate/healthmate/internal/domain/user"
)

// Identity is the authenticated context resolved from a bearer token
type Identity struct {
	User    *user.User
	Session *session.Session
}

// TokenValidator resolves a bearer token to an authenticated identity
type TokenValidator interface {
	Validate(raw string) (*Identity, error)
}

// Validator verifies a token's signature and cross-checks it against the
// stored session. The double check is what makes revocation immediate: a
// logged-out session fails the storage check even while its token is still
// cryptographically valid.
type Validator struct {
	users       user.Repository
	sessions    session.Repository
	signer      *TokenSigner
	revocations *cache.RevocationCache
}

// NewValidator creates a Validator without a revocation cache
func NewValidator(users user.Repository, sessions session.Repository, signer *TokenSigner) *Validator {
	return &Validator{users: users, sessions: sessions, signer: signer}
}

// NewValidatorWithCache creates a Validator that consults the revocation
// cache before hitting the database. A nil cache is allowed.
func NewValidatorWithCache(users user.Repository, sessions session.Repository, signer *TokenSigner, revocations *cache.RevocationCache) *Validator {
	return &Validator{users: users, sessions: sessions, signer: signer, revocations: revocations}
}

// Validate checks the token and returns the joined user+session identity.
// Signature problems surface as ErrTokenInvalid; a valid signature whose
// session is gone, retired, expired, rebound or owned by an inactive user
// surfaces as ErrInvalidSession. On success the session is touched.
func (v *Validator) Validate(raw string) (*Identity, error) {
	claims, err := v.signer.Verify(raw)
	if err != nil {
		return nil, err
	}

	if v.revocations != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		revoked, err := v.revocations.IsRevoked(ctx, claims.SessionID)
		cancel()
		if err != nil {
			slog.Warn("Revocation cache lookup failed, falling back to database",
				"error", err, "session_id", claims.SessionID)
		} else if revoked {
			return nil, ErrInvalidSession
		}
	}

	sess, err := v.sessions.FindByID(claims.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	now := time.Now().UTC()
	if !sess.Live(now) || sess.UserID != claims.UserID || sess.Token != raw {
		return nil, ErrInvalidSession
	}

	u, err := v.users.FindByID(sess.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInvalidSession
	}

	if err := v.sessions.Touch(sess.ID, now); err != nil {
		slog.Warn("Failed to touch session", "error", err, "session_id", sess.ID)
	}

	return &Identity{User: u, Session: sess}, nil
}
