package syscfg

import "github.com/healthmate/healthmate/internal/database"

// Setting is one row of the runtime-tunable key/value configuration
type Setting struct {
	database.BaseModel
	ConfigKey   string `gorm:"column:config_key;unique;not null"`
	ConfigValue string `gorm:"column:config_value;not null"`
	Description string `gorm:"column:description;type:text"`
}

func (Setting) TableName() string {
	return "system_config"
}

// Keys and fallbacks used by the auth core
const (
	KeySessionDurationHours = "session_duration_hours"
	KeyMaxSessionsPerUser   = "max_sessions_per_user"

	DefaultSessionDurationHours = 168 // 7 days
	DefaultMaxSessionsPerUser   = 5
)
