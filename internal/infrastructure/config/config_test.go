package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the tests touch; t.Setenv restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ENRICH_APP_NAME",
		"ENRICH_APP_ENV",
		"ENRICH_APP_PORT",
		"ENRICH_DATABASE_DRIVER",
		"ENRICH_DATABASE_HOST",
		"ENRICH_DATABASE_PORT",
		"ENRICH_DATABASE_PASSWORD",
		"ENRICH_DATABASE_SSLMODE",
		"ENRICH_DATABASE_MAX_OPEN_CONNS",
		"ENRICH_DATABASE_MAX_IDLE_CONNS",
		"ENRICH_SCHEDULER_ENABLED",
		"ENRICH_SCHEDULER_NEW_PRODUCTS_CRON",
		"ENRICH_SOURCES_ICECAT_USERNAME",
		"ENRICH_SOURCES_ICECAT_TIMEOUT",
		"ENRICH_SOURCES_RETRY_MAX_ATTEMPTS",
		"ENRICH_SOURCES_IMAGE_JPEG_QUALITY",
		"ENRICH_TELEMETRY_SAMPLING_RATIO",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "enrichment-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "enrichment", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)

		assert.True(t, cfg.Scheduler.Enabled)
		assert.Equal(t, "@every 1h", cfg.Scheduler.NewProductsCron)
		assert.Equal(t, "0 2 * * *", cfg.Scheduler.UpdateCron)

		assert.Equal(t, "https://live.icecat.biz/api", cfg.Sources.Icecat.APIURL)
		assert.Equal(t, 30*time.Second, cfg.Sources.Icecat.Timeout)
		assert.Equal(t, 2.0, cfg.Sources.Icecat.RateLimit)
		assert.Equal(t, 1.0, cfg.Sources.BarcodeLookup.RateLimit)
		assert.Equal(t, 15*time.Second, cfg.Sources.Image.Timeout)
		assert.Equal(t, 2000, cfg.Sources.Image.MaxDimension)
		assert.Equal(t, 85, cfg.Sources.Image.JPEGQuality)
		assert.Equal(t, int64(50_000_000), cfg.Sources.Image.MaxPixels)
		assert.Equal(t, 1, cfg.Sources.Retry.MaxAttempts)

		assert.False(t, cfg.Telemetry.Profiling.Enabled)
		assert.Equal(t, "http://localhost:4040", cfg.Telemetry.Profiling.ServerAddress)
		assert.Equal(t, cfg.Telemetry.ServiceName, cfg.Telemetry.Profiling.ApplicationName)
	})

	t.Run("loads values from environment variables with ENRICH prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENRICH_APP_NAME", "test-app")
		t.Setenv("ENRICH_DATABASE_DRIVER", "sqlite")
		t.Setenv("ENRICH_DATABASE_PORT", "5433")
		t.Setenv("ENRICH_SCHEDULER_ENABLED", "false")
		t.Setenv("ENRICH_SCHEDULER_NEW_PRODUCTS_CRON", "*/15 8-18 * * *")
		t.Setenv("ENRICH_SOURCES_ICECAT_USERNAME", "shop")
		t.Setenv("ENRICH_SOURCES_ICECAT_TIMEOUT", "10s")
		t.Setenv("ENRICH_SOURCES_RETRY_MAX_ATTEMPTS", "3")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.False(t, cfg.Scheduler.Enabled)
		assert.Equal(t, "*/15 8-18 * * *", cfg.Scheduler.NewProductsCron)
		assert.Equal(t, "shop", cfg.Sources.Icecat.Username)
		assert.Equal(t, 10*time.Second, cfg.Sources.Icecat.Timeout)
		assert.Equal(t, 3, cfg.Sources.Retry.MaxAttempts)
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENRICH_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENRICH_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("ENRICH_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates jpeg quality range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENRICH_SOURCES_IMAGE_JPEG_QUALITY", "150")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jpeg_quality")
	})

	t.Run("validates sampling ratio", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENRICH_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "requires postgres",
			env:     map[string]string{"ENRICH_DATABASE_DRIVER": "sqlite"},
			wantErr: "must be postgres in production",
		},
		{
			name:    "requires database password",
			env:     map[string]string{"ENRICH_DATABASE_SSLMODE": "require"},
			wantErr: "database.password is required",
		},
		{
			name:    "rejects disabled sslmode",
			env:     map[string]string{"ENRICH_DATABASE_PASSWORD": "secret"},
			wantErr: "sslmode cannot be 'disable'",
		},
		{
			name: "accepts a valid production setup",
			env: map[string]string{
				"ENRICH_DATABASE_PASSWORD": "secret",
				"ENRICH_DATABASE_SSLMODE":  "require",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("ENRICH_APP_ENV", "production")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, cfg.IsProduction())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "app",
		Password: "p@ss word",
		DBName:   "enrichment",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://app:p%40ss%20word@db:5432/enrichment?sslmode=disable", d.DSN())
}
