package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com/, http://localhost:5173")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "travel", cfg.MongoDatabase)
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.False(t, cfg.Production())
	assert.Equal(t, http.SameSiteLaxMode, cfg.SameSite())
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoadTrustedProxies(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 172.16.0.0/12,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.TrustedProxies)
}

func TestValidateRejectsBadTrustedProxy(t *testing.T) {
	for _, proxy := range []string{"proxy.internal", "10.0.0.0/33", "*"} {
		cfg := validConfig()
		cfg.TrustedProxies = []string{proxy}
		assert.Error(t, cfg.Validate(), "proxy %q", proxy)
	}

	cfg := validConfig()
	cfg.TrustedProxies = []string{"::1", "10.0.0.0/8"}
	assert.NoError(t, cfg.Validate())
}

func TestLoadProductionRequiresStoreAndSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("MONGO_DB_URI", "")
	t.Setenv("SESSION_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_DB_URI")
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestValidateSameSiteNoneNeedsProduction(t *testing.T) {
	cfg := validConfig()
	cfg.CookieSameSite = "none"

	require.Error(t, cfg.Validate())

	cfg.AppEnv = "production"
	cfg.MongoURI = "mongodb://localhost:27017"
	cfg.SessionSecret = "0123456789abcdef0123456789abcdef"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, http.SameSiteNoneMode, cfg.SameSite())
}

func TestValidateRejectsBadOrigins(t *testing.T) {
	for _, origin := range []string{"*", "example.com", "https://example.com/app", "ftp://example.com"} {
		cfg := validConfig()
		cfg.CORSAllowedOrigins = []string{origin}
		assert.Error(t, cfg.Validate(), "origin %q", origin)
	}
}

func TestValidateRejectsUnknownSameSite(t *testing.T) {
	cfg := validConfig()
	cfg.CookieSameSite = "sometimes"
	assert.Error(t, cfg.Validate())
}

func TestProductionFromGinMode(t *testing.T) {
	cfg := validConfig()
	cfg.GinMode = "release"
	assert.True(t, cfg.Production())
}

func validConfig() *Config {
	return &Config{
		MongoDatabase:      "travel",
		CookieSameSite:     "lax",
		Port:               "3000",
		GinMode:            "debug",
		AppEnv:             "development",
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		LoginMaxAttempts:   5,
		SessionMaxAge:      12 * time.Hour,
		SessionIdleTimeout: 30 * time.Minute,
	}
}
