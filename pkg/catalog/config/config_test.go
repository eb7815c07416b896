package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithValues(func(c *ServerConfig) {
		c.JWTSecret = "test-secret"
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "memory", cfg.DatabaseType)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.EnrichmentEnabled)
	assert.True(t, cfg.PublishedOnlySearch)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{
			name:    "missing jwt secret",
			mutate:  func(c *ServerConfig) {},
			wantErr: "jwt secret is required",
		},
		{
			name: "postgres without url",
			mutate: func(c *ServerConfig) {
				c.JWTSecret = "test-secret"
				c.DatabaseType = "postgres"
			},
			wantErr: "database_url is required",
		},
		{
			name: "unknown database type",
			mutate: func(c *ServerConfig) {
				c.JWTSecret = "test-secret"
				c.DatabaseType = "sqlite"
			},
			wantErr: "database_type must be",
		},
		{
			name: "non-positive ttl",
			mutate: func(c *ServerConfig) {
				c.JWTSecret = "test-secret"
				c.TokenTTL = -time.Minute
			},
			wantErr: "token ttl must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(WithValues(tt.mutate))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWithEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgresql://localhost/catalog")
	t.Setenv("JWT_SECRET_KEY", "env-secret")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("ENRICHMENT_ENABLED", "false")
	t.Setenv("SEARCH_PUBLISHED_ONLY", "false")

	cfg, err := Load(WithEnv(""))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.DatabaseType)
	assert.Equal(t, "postgresql://localhost/catalog", cfg.DatabaseURL)
	assert.Equal(t, "env-secret", cfg.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.False(t, cfg.EnrichmentEnabled)
	assert.False(t, cfg.PublishedOnlySearch)
}

func TestWithEnvPrefix(t *testing.T) {
	t.Setenv("CATALOG_PORT", "9191")
	t.Setenv("CATALOG_JWT_SECRET_KEY", "prefixed-secret")

	cfg, err := Load(WithEnv("CATALOG_"))
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.Port)
	assert.Equal(t, "prefixed-secret", cfg.JWTSecret)
}

func TestWithEnvRejectsUnsupportedDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "mysql://localhost/catalog")
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	_, err := Load(WithEnv(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DATABASE_URL")
}

func TestWithEnvRejectsBadDurations(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("TOKEN_TTL", "soon")

	_, err := Load(WithEnv(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid TOKEN_TTL")
}

func TestBuildServiceMemory(t *testing.T) {
	cfg, err := Load(WithValues(func(c *ServerConfig) {
		c.JWTSecret = "test-secret"
	}))
	require.NoError(t, err)

	service, tokens, err := cfg.BuildService(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, service)
	assert.NotNil(t, tokens)
}
