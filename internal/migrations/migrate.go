package migrations

import (
	"fmt"

	"github.com/healthmate/healthmate/internal/domain/preference"
	"github.com/healthmate/healthmate/internal/domain/session"
	"github.com/healthmate/healthmate/internal/domain/syscfg"
	"github.com/healthmate/healthmate/internal/domain/user"
	"gorm.io/gorm"
)

// RunMigrations runs all database migrations
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&user.User{},
		&session.Session{},
		&syscfg.Setting{},
		&preference.Preference{},
	); err != nil {
		return fmt.Errorf("failed to make migrations: %w", err)
	}
	return nil
}
