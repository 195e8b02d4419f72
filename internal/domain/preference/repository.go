package preference

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository interface for preference operations
type Repository interface {
	SeedDefaults(userID uint) error
	FindByUser(userID uint) ([]Preference, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

var defaults = []struct {
	Key         string
	Value       string
	Description string
}{
	{"theme", `"light"`, "UI theme"},
	{"language", `"zh-TW"`, "UI language"},
	{"default_project", `null`, "Default project"},
	{"notifications", `{"email": true, "browser": true}`, "Notification settings"},
	{"timezone", `"Asia/Taipei"`, "Time zone"},
}

// SeedDefaults inserts the default preference set for a fresh account.
// Existing rows are left untouched, so re-seeding after a guest upgrade
// keeps whatever the user already customized.
func (r *repository) SeedDefaults(userID uint) error {
	for _, d := range defaults {
		pref := Preference{
			UserID:          userID,
			PreferenceKey:   d.Key,
			PreferenceValue: d.Value,
			Description:     d.Description,
		}
		err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&pref).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) FindByUser(userID uint) ([]Preference, error) {
	var prefs []Preference
	if err := r.db.Where("user_id = ?", userID).Find(&prefs).Error; err != nil {
		return nil, err
	}
	return prefs, nil
}
