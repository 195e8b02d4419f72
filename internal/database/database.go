package database

import (
	"fmt"
	"time"

	"github.com/healthmate/healthmate/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	// DB is the global database handle
	DB *gorm.DB
)

// BaseModel holds the columns shared by every table
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConnectDB opens the PostgreSQL connection and stores it in DB
func ConnectDB(cfg *config.Config) error {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	return nil
}
