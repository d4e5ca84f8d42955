package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Env)
	assert.Equal(t, "mongo", cfg.App.Store)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, "http://localhost:3000", cfg.CORS.FrontendURL)
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("STORE", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, "memory", cfg.App.Store)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			App: App{Env: EnvTest, Store: "memory"},
			JWT: JWT{Secret: "s", ExpiresIn: time.Hour},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"unknown env", func(c *Config) { c.App.Env = "staging" }, false},
		{"unknown store", func(c *Config) { c.App.Store = "postgres" }, false},
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }, false},
		{"zero expiry", func(c *Config) { c.JWT.ExpiresIn = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
