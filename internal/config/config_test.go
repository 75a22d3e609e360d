package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Reset viper state before each test
	resetViper := func() {
		viper.Reset()
	}

	// Ensure tests run in a directory without config files
	chdirTemp := func(t *testing.T) {
		originalDir, _ := os.Getwd()
		require.NoError(t, os.Chdir(t.TempDir()))
		t.Cleanup(func() { _ = os.Chdir(originalDir) })
	}

	t.Run("loads with defaults when no config file exists", func(t *testing.T) {
		resetViper()
		chdirTemp(t)

		cfg, err := Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, false, cfg.Server.Debug)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, "localhost", cfg.Redis.Host)
		assert.Equal(t, 6379, cfg.Redis.Port)
		assert.Equal(t, 0, cfg.Redis.DB)
		assert.Equal(t, "redis", cfg.Storage.Backend)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "json", cfg.Logging.Format)
		assert.Equal(t, 2112, cfg.Metrics.Port)
	})

	t.Run("loads from environment variables", func(t *testing.T) {
		resetViper()
		chdirTemp(t)

		t.Setenv("SERVER_PORT", "3000")
		t.Setenv("SERVER_DEBUG", "true")
		t.Setenv("DB_HOST", "postgres.example.com")
		t.Setenv("DB_PORT", "5433")
		t.Setenv("REDIS_HOST", "redis.example.com")
		t.Setenv("OPENWEATHER_API_KEY", "weather_key_123")
		t.Setenv("STORAGE_BACKEND", "memory")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("PROMETHEUS_PORT", "9090")

		cfg, err := Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, 3000, cfg.Server.Port)
		assert.Equal(t, true, cfg.Server.Debug)
		assert.Equal(t, "postgres.example.com", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "redis.example.com", cfg.Redis.Host)
		assert.Equal(t, "weather_key_123", cfg.Weather.OpenWeatherAPIKey)
		assert.Equal(t, "memory", cfg.Storage.Backend)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, 9090, cfg.Metrics.Port)
	})

	t.Run("loads from YAML config file", func(t *testing.T) {
		resetViper()

		originalDir, _ := os.Getwd()
		tmpDir := t.TempDir()
		require.NoError(t, os.Chdir(tmpDir))
		t.Cleanup(func() { _ = os.Chdir(originalDir) })

		configYAML := `
server:
  port: 4000
storage:
  backend: postgres
logging:
  level: warn
`
		require.NoError(t, os.WriteFile("skycast.yaml", []byte(configYAML), 0o644))

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 4000, cfg.Server.Port)
		assert.Equal(t, "postgres", cfg.Storage.Backend)
		assert.Equal(t, "warn", cfg.Logging.Level)
		// Untouched keys keep their defaults.
		assert.Equal(t, 6379, cfg.Redis.Port)
	})
}
