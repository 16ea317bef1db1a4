package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("JWTTTL converts hours to duration", func(t *testing.T) {
		cfg := &Config{JWTExpiresInHrs: 24}
		assert.Equal(t, 24*time.Hour, cfg.JWTTTL())
	})

	t.Run("CookieTTL converts hours to duration", func(t *testing.T) {
		cfg := &Config{CookieExpiresHrs: 12}
		assert.Equal(t, 12*time.Hour, cfg.CookieTTL())
	})

	t.Run("IsProduction", func(t *testing.T) {
		assert.True(t, (&Config{Env: "production"}).IsProduction())
		assert.False(t, (&Config{Env: "development"}).IsProduction())
	})
}

func TestLoad(t *testing.T) {
	setRequired := func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		t.Setenv("REDIS_URL", "redis://localhost:6379")
		t.Setenv("JWT_SECRET", "test-secret")
	}

	t.Run("loads config with defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "development", cfg.Env)
		assert.Equal(t, 24, cfg.JWTExpiresInHrs)
		assert.Equal(t, "cookie", cfg.TokenCarrier)
		assert.Equal(t, 10, cfg.BcryptCost)
		assert.True(t, cfg.PublicReads)
		assert.Equal(t, 100, cfg.RateLimitPerMin)
	})

	t.Run("missing required values fail", func(t *testing.T) {
		setRequired(t)
		os.Unsetenv("DATABASE_URL")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("env is normalized to lowercase", func(t *testing.T) {
		setRequired(t)
		t.Setenv("APP_ENV", "Production")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.Env)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:          "development",
			JWTSecret:    "test-secret",
			TokenCarrier: "cookie",
			BcryptCost:   10,
		}
	}

	t.Run("accepts both carriers", func(t *testing.T) {
		cfg := base()
		require.NoError(t, cfg.Validate())

		cfg.TokenCarrier = "header"
		require.NoError(t, cfg.Validate())
	})

	t.Run("rejects an unknown carrier", func(t *testing.T) {
		cfg := base()
		cfg.TokenCarrier = "querystring"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects an out-of-range bcrypt cost", func(t *testing.T) {
		cfg := base()
		cfg.BcryptCost = 3
		assert.Error(t, cfg.Validate())

		cfg.BcryptCost = 19
		assert.Error(t, cfg.Validate())
	})

	t.Run("production requires a strong jwt secret", func(t *testing.T) {
		cfg := base()
		cfg.Env = "production"
		assert.Error(t, cfg.Validate())

		cfg.JWTSecret = "secret"
		assert.Error(t, cfg.Validate())

		cfg.JWTSecret = "a-proper-secret-with-enough-length-0000"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("development tolerates a weak secret", func(t *testing.T) {
		cfg := base()
		cfg.JWTSecret = "secret"
		assert.NoError(t, cfg.Validate())
	})
}
