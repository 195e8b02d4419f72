package auth

import (
	"log/slog"

	"github.com/healthmate/healthmate/internal/domain/session"
	"github.com/healthmate/healthmate/internal/domain/syscfg"
)

// SessionPolicy enforces the per-user cap on live sessions. When a user is
// at or over the cap, the single least-recently-touched live session is
// retired; repeated requests beyond the cap trim one session at a time.
// The session that just authenticated is never the eviction target.
type SessionPolicy struct {
	sessions session.Repository
	settings syscfg.Service
}

// NewSessionPolicy creates a new session-count policy
func NewSessionPolicy(sessions session.Repository, settings syscfg.Service) *SessionPolicy {
	return &SessionPolicy{sessions: sessions, settings: settings}
}

// Enforce applies the cap for one authenticated request. Failures are
// logged and swallowed; the policy never blocks the request.
func (p *SessionPolicy) Enforce(userID, currentSessionID uint) {
	maxSessions := p.settings.IntValue(syscfg.KeyMaxSessionsPerUser, syscfg.DefaultMaxSessionsPerUser)

	count, err := p.sessions.CountLiveForUser(userID)
	if err != nil {
		slog.Warn("Session policy count failed", "error", err, "user_id", userID)
		return
	}

	if count < int64(maxSessions) {
		return
	}

	if err := p.sessions.DeactivateOldestLive(userID, currentSessionID); err != nil {
		slog.Warn("Session policy eviction failed", "error", err, "user_id", userID)
	}
}
