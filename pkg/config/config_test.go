package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ModeRapidAPI, cfg.Provider.Mode)
	assert.Equal(t, "instagram120.p.rapidapi.com", cfg.Provider.RapidAPIHost)
	assert.Equal(t, 30*time.Second, cfg.Provider.RequestTimeout)
	assert.Equal(t, 3, cfg.Provider.MaxRetries)
	assert.InDelta(t, 0.1, cfg.Provider.MockFailureRate, 0.0001)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INSTAVIEW_API_MODE", "custom")
	t.Setenv("INSTAVIEW_CUSTOM_API_URL", "https://api.example.com")
	t.Setenv("INSTAVIEW_CUSTOM_API_KEY", "secret")
	t.Setenv("INSTAVIEW_REQUEST_TIMEOUT", "5s")
	t.Setenv("INSTAVIEW_MAX_RETRIES", "1")
	t.Setenv("INSTAVIEW_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, ModeCustom, cfg.Provider.Mode)
	assert.Equal(t, "https://api.example.com", cfg.Provider.CustomBaseURL)
	assert.Equal(t, "secret", cfg.Provider.CustomAPIKey)
	assert.Equal(t, 5*time.Second, cfg.Provider.RequestTimeout)
	assert.Equal(t, 1, cfg.Provider.MaxRetries)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidTimeout(t *testing.T) {
	t.Setenv("INSTAVIEW_REQUEST_TIMEOUT", "not-a-duration")

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromEnv())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
provider:
  mode: mock
  mock_failure_rate: 0.5
  mock_locale: zh
server:
  port: 9090
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, ModeMock, cfg.Provider.Mode)
	assert.InDelta(t, 0.5, cfg.Provider.MockFailureRate, 0.0001)
	assert.Equal(t, "zh", cfg.Provider.MockLocale)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Defaults not named in the file survive the merge.
	assert.Equal(t, "instagram120.p.rapidapi.com", cfg.Provider.RapidAPIHost)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"unknown mode", func(c *Config) { c.Provider.Mode = "graphql" }, true},
		{"zero timeout", func(c *Config) { c.Provider.RequestTimeout = 0 }, true},
		{"negative retries", func(c *Config) { c.Provider.MaxRetries = -1 }, true},
		{"failure rate above one", func(c *Config) { c.Provider.MockFailureRate = 1.5 }, true},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"missing rapidapi key is allowed", func(c *Config) { c.Provider.RapidAPIKey = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Provider.Mode = ModeMock
	cfg.Server.Port = 3000
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, ModeMock, loaded.Provider.Mode)
	assert.Equal(t, 3000, loaded.Server.Port)
}
