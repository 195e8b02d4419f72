package session

import (
	"time"

	"github.com/healthmate/healthmate/internal/database"
)

// Session is one authenticated device/browser instance. Rows are never
// deleted on logout; they are retired by flipping IsActive off, so the
// token double-check in the validator can reject revoked-but-unexpired
// tokens.
type Session struct {
	database.BaseModel

	UserID    uint      `gorm:"column:user_id;not null;index" json:"-"`
	Token     string    `gorm:"column:session_token;unique;not null" json:"-"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"-"`

	IPAddress string `gorm:"column:ip_address;type:text" json:"ip_address,omitempty"`
	UserAgent string `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`
}

func (Session) TableName() string {
	return "user_sessions"
}

// Live reports whether the session itself is usable at the given time.
// The owning user's active flag is checked separately by the validator.
func (s *Session) Live(now time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(now)
}
