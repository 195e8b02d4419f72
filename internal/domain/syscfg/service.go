package syscfg

import (
	"log/slog"
	"strconv"

	"gorm.io/gorm"
)

// Service reads runtime configuration values from the system_config table.
// A missing row or an unparsable value falls back to the supplied default;
// configuration lookup never fails a request.
type Service interface {
	IntValue(key string, fallback int) int
}

type service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) Service {
	return &service{db}
}

func (s *service) IntValue(key string, fallback int) int {
	var setting Setting
	if err := s.db.Where("config_key = ?", key).First(&setting).Error; err != nil {
		return fallback
	}

	v, err := strconv.Atoi(setting.ConfigValue)
	if err != nil {
		slog.Warn("Unparsable system config value, using fallback",
			"key", key, "value", setting.ConfigValue, "fallback", fallback)
		return fallback
	}
	return v
}
