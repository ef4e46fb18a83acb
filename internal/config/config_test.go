package config

import (
	"testing"
	"time"

	"asset-lifecycle-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SCHEDULE_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "assets.db", cfg.Database.Path)
	assert.Equal(t, 30*24*time.Hour, cfg.Lifecycle.NewAssetGrace)
	assert.Equal(t, 1, cfg.Lifecycle.DefectiveRetentionMonths)
	assert.Equal(t, 4*24*time.Hour, cfg.Lifecycle.RepairDueSoonWindow)
	assert.Equal(t, []models.TimeOfDay{{Hour: 8}, {Hour: 12}, {Hour: 16}}, cfg.Schedule.BookValueTimes)
	assert.Equal(t, models.TimeOfDay{Hour: 18}, cfg.Schedule.CatchupEnd)
	assert.Equal(t, "UTC", cfg.Schedule.Location.String())
	assert.False(t, cfg.Formance.Enabled())
	assert.Equal(t, "local", cfg.Documents.Backend)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SCHEDULE_TIMEZONE", "Asia/Manila")
	t.Setenv("NEW_ASSET_GRACE", "72h")
	t.Setenv("DEFECTIVE_RETENTION_MONTHS", "3")
	t.Setenv("SCHEDULE_STATUS_TIMES", "07:45, 19:05")
	t.Setenv("FORMANCE_STACK_URL", "https://stack.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, cfg.Lifecycle.NewAssetGrace)
	assert.Equal(t, 3, cfg.Lifecycle.DefectiveRetentionMonths)
	assert.Equal(t, []models.TimeOfDay{{Hour: 7, Minute: 45}, {Hour: 19, Minute: 5}}, cfg.Schedule.StatusTimes)
	assert.Equal(t, "Asia/Manila", cfg.Schedule.Location.String())
	assert.True(t, cfg.Formance.Enabled())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"NEW_ASSET_GRACE":           "thirty days",
		"SCHEDULE_TIMEZONE":         "Mars/Olympus",
		"SCHEDULE_BOOK_VALUE_TIMES": "8am",
		"SCHEDULE_CATCHUP_START":    "25:00",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay(" 16:15 ")
	require.NoError(t, err)
	assert.Equal(t, models.TimeOfDay{Hour: 16, Minute: 15}, got)

	_, err = ParseTimeOfDay("4pm")
	assert.Error(t, err)
}
