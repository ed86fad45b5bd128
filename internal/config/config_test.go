package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 12*time.Hour, cfg.Scheduling.MaxEventDuration)
	assert.Equal(t, 30*time.Minute, cfg.Scheduling.CheckInWindowBefore)
	assert.Equal(t, 30*time.Minute, cfg.Scheduling.CheckInWindowAfter)
	assert.Equal(t, "AGENCEI", cfg.Scheduling.TokenPrefix)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=agencei sslmode=disable", cfg.DB.DSN())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE", "sqlite")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("CHECKIN_WINDOW_BEFORE", "15m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 15*time.Minute, cfg.Scheduling.CheckInWindowBefore)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown store", "STORE", "mongo"},
		{"bad duration", "MAX_EVENT_DURATION", "soon"},
		{"zero duration", "MAX_EVENT_DURATION", "0s"},
		{"negative window", "CHECKIN_WINDOW_AFTER", "-1m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestMemoryStoreRefusedInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("STORE", "memory")
	_, err := Load()
	assert.Error(t, err)
}

func TestParseEnvError(t *testing.T) {
	var cfg struct {
		Port int `env:"AGENCEI_TEST_PORT" envDefault:"1"`
	}
	t.Setenv("AGENCEI_TEST_PORT", "not-an-int")
	err := ParseEnv(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestProductionRequiresDBPassword(t *testing.T) {
	t.Setenv("ENV", "production")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")

	t.Setenv("STORE", "sqlite")
	_, err = Load()
	require.NoError(t, err, "sqlite needs no database credentials")

	t.Setenv("STORE", "postgres")
	t.Setenv("DB_PASSWORD", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
}
