package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"storefront/models"
)

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DB_DRIVER", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, int64(5<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, 300, cfg.RateLimit.General.Max)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.General.Window)
	assert.Equal(t, 20, cfg.RateLimit.Orders.Max)
	assert.Equal(t, time.Hour, cfg.RateLimit.Upload.Window)
	assert.Equal(t, BackendMemory, cfg.Cache.Backend)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlBody := `
env: development
server:
  port: "8080"
database:
  driver: sqlite
  dsn: "file:test?mode=memory"
cache:
  backend: redis
  ttl: 2m
rateLimit:
  auth:
    max: 5
    window: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("APP_ENV", "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 5, cfg.RateLimit.Auth.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Auth.Window)
	// untouched keys keep their defaults
	assert.Equal(t, 300, cfg.RateLimit.General.Max)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	prod := Default()
	prod.Env = EnvProduction
	assert.Error(t, prod.Validate())
	prod.Auth.JWTSecret = "x"
	assert.NoError(t, prod.Validate())

	bad := Default()
	bad.Database.Driver = "oracle"
	assert.Error(t, bad.Validate())

	bad = Default()
	bad.Cache.Backend = "memcached"
	assert.Error(t, bad.Validate())

	bad = Default()
	bad.Auth.CookieSameSite = "sometimes"
	assert.Error(t, bad.Validate())
}

func TestSetupDatabaseSQLite(t *testing.T) {
	db, err := SetupDatabase(DatabaseConfig{Driver: "sqlite", DSN: "file:config_test?mode=memory&cache=shared"}, nil)
	require.NoError(t, err)

	for _, table := range []string{"users", "product", "orders", "settings"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	db, err := SetupDatabase(DatabaseConfig{Driver: "sqlite", DSN: "file:gorm_logger_test?mode=memory&cache=shared"}, zap.New(core))
	require.NoError(t, err)

	var user models.User
	err = db.First(&user, 12345).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.FilterMessage("query failed").Len())

	err = db.Exec("SELECT * FROM no_such_table").Error
	assert.Error(t, err)
	failed := logs.FilterMessage("query failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "gorm", failed[0].LoggerName)
}
