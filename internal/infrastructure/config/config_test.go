package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearAppEnv unsets every APP_ variable for the duration of the test.
func clearAppEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "APP_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearAppEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "oxapampa", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Empty(t, cfg.Redis.Host)
		assert.Equal(t, "admin_session", cfg.JWT.CookieName)
		assert.Equal(t, "token", cfg.Invoicing.AuthScheme)
		assert.True(t, decimal.RequireFromString("0.18").Equal(cfg.Invoicing.TaxRate))
		assert.Equal(t, "F001", cfg.Invoicing.InvoiceSeries)
		assert.Equal(t, "B001", cfg.Invoicing.ReceiptSeries)
		assert.Equal(t, 30*time.Second, cfg.Invoicing.Timeout)
		assert.Equal(t, 10, cfg.Import.BatchSize)
		assert.Equal(t, "oxapampa", cfg.Telemetry.ServiceName)
		assert.False(t, cfg.Storage.Enabled())
		assert.Equal(t, 15*time.Minute, cfg.Storage.PresignExpiration)
		assert.False(t, cfg.Telemetry.ProfilingEnabled)
		assert.Equal(t, []string{"cpu", "alloc_space", "inuse_space", "goroutines"}, cfg.Telemetry.ProfilingTypes)
		assert.False(t, cfg.HTTP.SwaggerEnabled)
	})

	t.Run("storage needs credentials when a bucket is set", func(t *testing.T) {
		clearAppEnv(t)
		t.Setenv("APP_STORAGE_BUCKET", "imports")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.access_key")

		t.Setenv("APP_STORAGE_ACCESS_KEY", "minio")
		t.Setenv("APP_STORAGE_SECRET_KEY", "minio-secret")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Storage.Enabled())
		assert.Equal(t, "us-east-1", cfg.Storage.Region)
	})

	t.Run("loads values from environment variables with APP prefix", func(t *testing.T) {
		clearAppEnv(t)
		t.Setenv("APP_APP_PORT", "9000")
		t.Setenv("APP_DATABASE_HOST", "testdb.local")
		t.Setenv("APP_DATABASE_PORT", "5433")
		t.Setenv("APP_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("APP_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("APP_REDIS_HOST", "cache.local")
		t.Setenv("APP_INVOICING_URL", "https://api.nubefact.com/api/v1/abc")
		t.Setenv("APP_INVOICING_TOKEN", "secret")
		t.Setenv("APP_INVOICING_AUTH_SCHEME", "Bearer")
		t.Setenv("APP_INVOICING_TAX_RATE", "0.10")
		t.Setenv("APP_INVOICING_TIMEOUT", "5s")
		t.Setenv("APP_IMPORT_BATCH_SIZE", "25")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
		assert.Equal(t, "bearer", cfg.Invoicing.AuthScheme)
		assert.Equal(t, "secret", cfg.Invoicing.Token)
		assert.True(t, decimal.RequireFromString("0.10").Equal(cfg.Invoicing.TaxRate))
		assert.Equal(t, 5*time.Second, cfg.Invoicing.Timeout)
		assert.Equal(t, 25, cfg.Import.BatchSize)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearAppEnv(t)
		t.Setenv("APP_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("APP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearAppEnv(t)
		t.Setenv("APP_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("rejects unknown auth scheme", func(t *testing.T) {
		clearAppEnv(t)
		t.Setenv("APP_INVOICING_AUTH_SCHEME", "basic")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invoicing.auth_scheme")
	})

	t.Run("rejects malformed tax rate", func(t *testing.T) {
		clearAppEnv(t)
		t.Setenv("APP_INVOICING_TAX_RATE", "eighteen")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invoicing.tax_rate")
	})

	t.Run("rejects tax rate of one or more", func(t *testing.T) {
		clearAppEnv(t)
		t.Setenv("APP_INVOICING_TAX_RATE", "18")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("rejects relative provider url", func(t *testing.T) {
		clearAppEnv(t)
		t.Setenv("APP_INVOICING_URL", "/api/v1/abc")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invoicing.url")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearAppEnv(t)
		t.Setenv("APP_APP_ENV", "production")
		t.Setenv("APP_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("APP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("APP_DATABASE_SSLMODE", "require")
		t.Setenv("APP_INVOICING_URL", "https://api.nubefact.com/api/v1/abc")
		t.Setenv("APP_INVOICING_TOKEN", "tok")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"short jwt secret", "APP_JWT_SECRET", "short-secret", "jwt.secret must be at least 32 characters"},
		{"missing database password", "APP_DATABASE_PASSWORD", "", "database.password is required in production"},
		{"ssl disabled", "APP_DATABASE_SSLMODE", "disable", "database.sslmode cannot be 'disable' in production"},
		{"missing provider token", "APP_INVOICING_TOKEN", "", "invoicing.url and invoicing.token are required"},
		{"wildcard cors", "APP_HTTP_CORS_ALLOW_ORIGINS", "*", "cors_allow_origins cannot be '*'"},
		{"swagger exposed", "APP_HTTP_SWAGGER_ENABLED", "true", "http.swagger_enabled must be false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setValidProductionBase(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
