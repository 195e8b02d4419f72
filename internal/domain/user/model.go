package user

import (
	"time"

	"github.com/healthmate/healthmate/internal/database"
)

// User is a single identity record. Guests carry a generated GuestUUID and
// no credentials; registered users carry username/email/password and no
// GuestUUID. A guest upgrade converts the same row in place.
type User struct {
	database.BaseModel
	Username     *string    `gorm:"column:username;unique" json:"username,omitempty"`
	Email        *string    `gorm:"column:email;unique" json:"email,omitempty"`
	PasswordHash *string    `gorm:"column:password_hash" json:"-"`
	GuestUUID    *string    `gorm:"column:guest_uuid;unique" json:"guest_uuid,omitempty"`
	IsGuest      bool       `gorm:"column:is_guest;not null;default:false" json:"is_guest"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true" json:"-"`
	AvatarURL    *string    `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	LastActiveAt *time.Time `gorm:"column:last_active_at" json:"-"`
}

func (User) TableName() string {
	return "users"
}
