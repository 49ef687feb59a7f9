package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lending-backend/internal/domain/valueobject"
)

func envOf(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, 30*time.Minute, cfg.PickupTokenTTL)
	assert.Equal(t, int64(100), cfg.RateLimitLimit)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Len(t, cfg.AllowedOrigins, 2)
	assert.Equal(t, valueobject.DefaultPolicy(), cfg.Policy)
}

func TestFromEnv_DatabaseURLFromParts(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"POSTGRESQL_HOST":     "db",
		"POSTGRESQL_USER":     "lender",
		"POSTGRESQL_PASSWORD": "p@ss",
		"POSTGRESQL_DBNAME":   "lending",
	}))
	require.NoError(t, err)
	assert.Equal(t, "postgres://lender:p%40ss@db:5432/lending?sslmode=disable", cfg.DatabaseURL)
}

func TestFromEnv_ProductionChecks(t *testing.T) {
	base := map[string]string{
		"APP_ENV":              EnvProduction,
		"JWT_SECRET":           "0123456789abcdef0123456789abcdef",
		"CORS_ALLOWED_ORIGINS": "https://lending.example.com, https://admin.example.com",
	}

	cfg, err := FromEnv(envOf(base))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://lending.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)

	short := copyEnv(base)
	short["JWT_SECRET"] = "short"
	_, err = FromEnv(envOf(short))
	assert.Error(t, err)

	noCORS := copyEnv(base)
	delete(noCORS, "CORS_ALLOWED_ORIGINS")
	_, err = FromEnv(envOf(noCORS))
	assert.Error(t, err)

	memory := copyEnv(base)
	memory["APP_STORAGE"] = StorageMemory
	_, err = FromEnv(envOf(memory))
	assert.Error(t, err)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	_, err := FromEnv(envOf(map[string]string{"PICKUP_TOKEN_TTL": "полчаса"}))
	assert.Error(t, err)

	_, err = FromEnv(envOf(map[string]string{"PICKUP_TOKEN_TTL": "-5m"}))
	assert.Error(t, err)

	_, err = FromEnv(envOf(map[string]string{"APP_STORAGE": "sqlite"}))
	assert.Error(t, err)
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
late_cancel_window: 48h
overdue_points_per_day: 3
condition_thresholds:
  excellent: 95
  good: 80
  fair: 60
  poor: 30
`), 0o600))

	policy, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, policy.LateCancelWindow)
	assert.Equal(t, 3, policy.OverduePointsPerDay)
	assert.Equal(t, 95.0, policy.ConditionThresholds.Excellent)
	assert.Equal(t, 30, policy.OverduePenaltyCap, "незаданные поля остаются по умолчанию")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("condition_thresholds:\n  excellent: 10\n"), 0o600))
	_, err = LoadPolicy(bad)
	assert.Error(t, err)

	_, err = LoadPolicy(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func copyEnv(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
