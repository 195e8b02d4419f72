package preference

import "github.com/healthmate/healthmate/internal/database"

// Preference is one per-user setting, stored as a JSON document
type Preference struct {
	database.BaseModel
	UserID          uint   `gorm:"column:user_id;not null;uniqueIndex:idx_user_pref"`
	PreferenceKey   string `gorm:"column:preference_key;not null;uniqueIndex:idx_user_pref"`
	PreferenceValue string `gorm:"column:preference_value;type:jsonb;not null"`
	Description     string `gorm:"column:description;type:text"`
}

func (Preference) TableName() string {
	return "user_preferences"
}
