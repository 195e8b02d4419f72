package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/healthmate/healthmate/internal/domain/session"
	"github.com/healthmate/healthmate/internal/domain/syscfg"
	"github.com/healthmate/healthmate/internal/domain/user"
)

// IssuedSession is the result of creating a session
type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
	SessionID uint
}

// Issuer creates session rows and mints the tokens bound to them.
type Issuer struct {
	users    user.Repository
	sessions session.Repository
	settings syscfg.Service
	signer   *TokenSigner
}

// NewIssuer creates a new session issuer
func NewIssuer(users user.Repository, sessions session.Repository, settings syscfg.Service, signer *TokenSigner) *Issuer {
	return &Issuer{
		users:    users,
		sessions: sessions,
		settings: settings,
		signer:   signer,
	}
}

// CreateSession inserts a session row and mints its token. The insert comes
// first with a placeholder token because the signed payload must embed the
// session ID, which only exists once the row does; the real token is written
// back in a second update. Duration comes from system config and falls back
// to the default when the lookup or parse fails.
func (i *Issuer) CreateSession(userID uint, ip, userAgent string) (*IssuedSession, error) {
	hours := i.settings.IntValue(syscfg.KeySessionDurationHours, syscfg.DefaultSessionDurationHours)
	ttl := time.Duration(hours) * time.Hour
	expiresAt := time.Now().UTC().Add(ttl)

	sess := &session.Session{
		UserID: userID,
		// unique placeholder; the token column carries a unique constraint
		Token:     "pending:" + uuid.NewString(),
		ExpiresAt: expiresAt,
		IsActive:  true,
		IPAddress: ip,
		UserAgent: userAgent,
	}

	if err := i.sessions.Create(sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreation, err)
	}

	isGuest := false
	if u, err := i.users.FindByID(userID); err == nil {
		isGuest = u.IsGuest
	}

	token, err := i.signer.Sign(userID, sess.ID, isGuest, ttl)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreation, err)
	}

	if err := i.sessions.UpdateToken(sess.ID, token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreation, err)
	}

	return &IssuedSession{
		Token:     token,
		ExpiresAt: expiresAt,
		SessionID: sess.ID,
	}, nil
}
