package user

import (
	"time"

	"gorm.io/gorm"
)

// Repository interface for user operations
type Repository interface {
	Create(user *User) error
	FindByID(id uint) (*User, error)
	FindActiveByIdentifier(identifier string) (*User, error)
	FindActiveGuest(id uint) (*User, error)
	ExistsWithCredentials(username, email string, excludeID uint) (bool, error)
	TouchLastActive(id uint) error
	UpdatePassword(id uint, passwordHash string) error
	Upgrade(id uint, username, email, passwordHash string) (*User, error)
}

// repository struct for user operations
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new user repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

// Create creates a new user
func (r *repository) Create(user *User) error {
	return r.db.Create(user).Error
}

// FindByID gets a user by ID
func (r *repository) FindByID(id uint) (*User, error) {
	var user User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByIdentifier gets an active, registered user whose username or
// email equals the identifier. Guests never match.
func (r *repository) FindActiveByIdentifier(identifier string) (*User, error) {
	var user User
	err := r.db.
		Where("(email = ? OR username = ?) AND is_active = true AND is_guest = false", identifier, identifier).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveGuest gets an active guest user by ID
func (r *repository) FindActiveGuest(id uint) (*User, error) {
	var user User
	err := r.db.
		Where("id = ? AND is_guest = true AND is_active = true", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsWithCredentials reports whether any user other than excludeID
// already owns the username or email.
func (r *repository) ExistsWithCredentials(username, email string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&User{}).
		Where("(email = ? OR username = ?) AND id != ?", email, username, excludeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// TouchLastActive updates the user's last activity timestamp
func (r *repository) TouchLastActive(id uint) error {
	return r.db.Model(&User{}).
		Where("id = ?", id).
		Update("last_active_at", time.Now().UTC()).Error
}

// UpdatePassword stores a new password hash for the user
func (r *repository) UpdatePassword(id uint, passwordHash string) error {
	return r.db.Model(&User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

// Upgrade converts a guest row into a registered user in a single update:
// credentials set, guest flag cleared, guest UUID removed. The row ID is
// preserved.
func (r *repository) Upgrade(id uint, username, email, passwordHash string) (*User, error) {
	err := r.db.Model(&User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"username":       username,
			"email":          email,
			"password_hash":  passwordHash,
			"is_guest":       false,
			"guest_uuid":     nil,
			"last_active_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return nil, err
	}
	return r.FindByID(id)
}
