package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"BILLKIT_APP_NAME":                       os.Getenv("BILLKIT_APP_NAME"),
		"BILLKIT_APP_ENV":                        os.Getenv("BILLKIT_APP_ENV"),
		"BILLKIT_APP_PORT":                       os.Getenv("BILLKIT_APP_PORT"),
		"BILLKIT_DATABASE_HOST":                  os.Getenv("BILLKIT_DATABASE_HOST"),
		"BILLKIT_DATABASE_PORT":                  os.Getenv("BILLKIT_DATABASE_PORT"),
		"BILLKIT_DATABASE_USER":                  os.Getenv("BILLKIT_DATABASE_USER"),
		"BILLKIT_DATABASE_PASSWORD":              os.Getenv("BILLKIT_DATABASE_PASSWORD"),
		"BILLKIT_DATABASE_DBNAME":                os.Getenv("BILLKIT_DATABASE_DBNAME"),
		"BILLKIT_DATABASE_SSLMODE":               os.Getenv("BILLKIT_DATABASE_SSLMODE"),
		"BILLKIT_DATABASE_MAX_OPEN_CONNS":        os.Getenv("BILLKIT_DATABASE_MAX_OPEN_CONNS"),
		"BILLKIT_DATABASE_MAX_IDLE_CONNS":        os.Getenv("BILLKIT_DATABASE_MAX_IDLE_CONNS"),
		"BILLKIT_INVOICE_MAX_TARGET_DATE_MONTHS": os.Getenv("BILLKIT_INVOICE_MAX_TARGET_DATE_MONTHS"),
		"BILLKIT_INVOICE_DEFAULT_CURRENCY":       os.Getenv("BILLKIT_INVOICE_DEFAULT_CURRENCY"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "billkit-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "billkit", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 36, cfg.Invoice.MaxTargetDateMonths)
		assert.Equal(t, "USD", cfg.Invoice.DefaultCurrency)
		assert.Equal(t, 30*time.Second, cfg.Invoice.LockTTL)
	})

	t.Run("loads values from environment variables with BILLKIT prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("BILLKIT_APP_NAME", "test-app")
		os.Setenv("BILLKIT_APP_ENV", "testing")
		os.Setenv("BILLKIT_APP_PORT", "9000")
		os.Setenv("BILLKIT_DATABASE_HOST", "testdb.local")
		os.Setenv("BILLKIT_DATABASE_PORT", "5433")
		os.Setenv("BILLKIT_DATABASE_USER", "testuser")
		os.Setenv("BILLKIT_DATABASE_PASSWORD", "testpass")
		os.Setenv("BILLKIT_DATABASE_DBNAME", "testdb")
		os.Setenv("BILLKIT_DATABASE_SSLMODE", "require")
		os.Setenv("BILLKIT_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("BILLKIT_DATABASE_MAX_IDLE_CONNS", "10")
		os.Setenv("BILLKIT_INVOICE_MAX_TARGET_DATE_MONTHS", "12")
		os.Setenv("BILLKIT_INVOICE_DEFAULT_CURRENCY", "EUR")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 12, cfg.Invoice.MaxTargetDateMonths)
		assert.Equal(t, "EUR", cfg.Invoice.DefaultCurrency)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("BILLKIT_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("BILLKIT_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("BILLKIT_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		// 0 is treated as "not set", so default (25) is used
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv()
		os.Setenv("BILLKIT_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("negative target date horizon is rejected", func(t *testing.T) {
		clearEnv()
		os.Setenv("BILLKIT_INVOICE_MAX_TARGET_DATE_MONTHS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_target_date_months")
	})

	t.Run("production requires a database password", func(t *testing.T) {
		clearEnv()
		os.Setenv("BILLKIT_APP_ENV", "production")
		os.Setenv("BILLKIT_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password")
	})
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p@ss/word",
		DBName:   "billkit",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "localhost:5432")
	assert.Contains(t, dsn, "billkit")
	assert.Contains(t, dsn, "sslmode=disable")
	// Special characters must be escaped
	assert.NotContains(t, dsn, "p@ss/word")
}

func TestRedisConfigAddr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", cfg.Addr())
}
