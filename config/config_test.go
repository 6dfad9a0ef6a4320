package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/policy-engine/config"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := config.FromEnv(env(nil))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "policy.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.AccrualInterval)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := config.FromEnv(env(map[string]string{
		"PORT":             "3000",
		"DB_PATH":          ":memory:",
		"LOG_LEVEL":        "debug",
		"ACCRUAL_INTERVAL": "1h",
		"CATALOG_FILE":     "catalog.json",
		"CORS_ORIGINS":     "https://a.example, https://b.example,",
		"RATE_CACHE_TTL":   "0s",
	}))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.AccrualInterval)
	assert.Equal(t, "catalog.json", cfg.CatalogFile)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Zero(t, cfg.RateCacheTTL)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PORT", "eighty"},
		{"PORT", "70000"},
		{"LOG_LEVEL", "loud"},
		{"ACCRUAL_INTERVAL", "daily"},
		{"RATE_CACHE_TTL", "-1m"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			_, err := config.FromEnv(env(map[string]string{tt.key: tt.value}))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	// GIVEN: A .env file setting DB_PATH and PORT, with PORT also exported
	// THEN: The file fills DB_PATH; the exported PORT wins

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_PATH=from-file.db\nPORT=9999\n"), 0o600))
	t.Setenv("PORT", "4000")
	t.Setenv("DB_PATH", "")
	require.NoError(t, os.Unsetenv("DB_PATH"))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "from-file.db", cfg.DBPath)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
