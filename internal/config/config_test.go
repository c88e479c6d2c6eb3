package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  port: 9000
  env: development
database:
  driver: sqlite
  url: "file::memory:"
jwt:
  secret: s3cr3t
payments:
  provider: robokassa
  sweep_interval: 10m
  robokassa:
    merchant_login: shop
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CONFIG_PATH", path)

	LoadConfig()
	cfg := AppConfig

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "s3cr3t", cfg.JWT.Secret)
	assert.Equal(t, "robokassa", cfg.Payments.Provider)
	assert.Equal(t, "shop", cfg.Payments.Robokassa.MerchantLogin)
	assert.Equal(t, 10*time.Minute, cfg.Payments.SweepInterval)
	// дефолты
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 90*time.Second, cfg.Analysis.StepTimeout)
	assert.Equal(t, 7*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, "local", cfg.Storage.Type)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/investoriq")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("PAYMENT_SWEEP_INTERVAL", "90s")

	LoadConfig()
	cfg := AppConfig

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "stripe", cfg.Payments.Provider)
	assert.Equal(t, 90*time.Second, cfg.Payments.SweepInterval)
}

func TestLoadConfig_WriteTimeoutCoversAnalysis(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  write_timeout: 1m
analysis:
  step_timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CONFIG_PATH", path)

	LoadConfig()
	cfg := AppConfig

	assert.Equal(t, 30*time.Second, cfg.Analysis.StepTimeout)
	assert.Equal(t, 3*time.Minute, cfg.Server.WriteTimeout)
	assert.GreaterOrEqual(t, cfg.Server.WriteTimeout, 4*cfg.Analysis.StepTimeout)
}

func TestLoadConfig_LongerWriteTimeoutKept(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  write_timeout: 20m
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CONFIG_PATH", path)

	LoadConfig()
	assert.Equal(t, 20*time.Minute, AppConfig.Server.WriteTimeout)
}
