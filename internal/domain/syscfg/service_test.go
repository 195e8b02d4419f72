package syscfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmate/healthmate/internal/utils"
)

func TestService_IntValue(t *testing.T) {
	db := utils.SetupTestDB(t, &Setting{})
	db.Exec("DELETE FROM system_config")

	require.NoError(t, db.Create(&Setting{
		ConfigKey:   KeySessionDurationHours,
		ConfigValue: "24",
		Description: "Session lifetime in hours",
	}).Error)
	require.NoError(t, db.Create(&Setting{
		ConfigKey:   KeyMaxSessionsPerUser,
		ConfigValue: "not-a-number",
	}).Error)

	svc := NewService(db)

	tests := []struct {
		name     string
		key      string
		fallback int
		want     int
	}{
		{"configured value", KeySessionDurationHours, DefaultSessionDurationHours, 24},
		{"missing key falls back", "no_such_key", 42, 42},
		{"unparsable value falls back", KeyMaxSessionsPerUser, DefaultMaxSessionsPerUser, DefaultMaxSessionsPerUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.IntValue(tt.key, tt.fallback))
		})
	}
}
