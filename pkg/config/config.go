// Package config handles loading and merging configuration from defaults,
// YAML files, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider modes. Exactly one is active for the lifetime of the process.
const (
	ModeMock     = "mock"
	ModeRapidAPI = "rapidapi"
	ModeCustom   = "custom"
)

// Config holds all configuration options for the profile viewer
type Config struct {
	// Profile data provider selection and credentials
	Provider ProviderConfig `yaml:"provider" json:"provider"`

	// Auth provider (GoTrue-style) settings
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// HTTP server settings
	Server ServerConfig `yaml:"server" json:"server"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ProviderConfig selects the profile data backend and carries its credentials.
// Missing credentials for the selected mode are not a startup error; they
// surface as an API_NOT_CONFIGURED failure on first lookup.
type ProviderConfig struct {
	Mode            string        `yaml:"mode" json:"mode"`
	RapidAPIKey     string        `yaml:"rapidapi_key" json:"rapidapi_key"`
	RapidAPIHost    string        `yaml:"rapidapi_host" json:"rapidapi_host"`
	CustomBaseURL   string        `yaml:"custom_base_url" json:"custom_base_url"`
	CustomAPIKey    string        `yaml:"custom_api_key" json:"custom_api_key"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
	MaxRetries      int           `yaml:"max_retries" json:"max_retries"`
	MockFailureRate float64       `yaml:"mock_failure_rate" json:"mock_failure_rate"`
	MockLocale      string        `yaml:"mock_locale" json:"mock_locale"`
}

// AuthConfig holds the email/password auth provider settings
type AuthConfig struct {
	URL         string `yaml:"url" json:"url"`
	AnonKey     string `yaml:"anon_key" json:"anon_key"`
	RedirectURL string `yaml:"redirect_url" json:"redirect_url"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host              string `yaml:"host" json:"host"`
	Port              int    `yaml:"port" json:"port"`
	RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Mode:            ModeRapidAPI,
			RapidAPIHost:    "instagram120.p.rapidapi.com",
			RequestTimeout:  30 * time.Second,
			MaxRetries:      3,
			MockFailureRate: 0.1,
			MockLocale:      "en",
		},
		Auth: AuthConfig{
			RedirectURL: "/reset-password",
		},
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8080,
			RequestsPerMinute: 120,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the effective configuration: defaults, then the config file,
// then environment variables. A .env file is honored if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if mode := os.Getenv("INSTAVIEW_API_MODE"); mode != "" {
		c.Provider.Mode = strings.ToLower(mode)
	}
	if key := os.Getenv("INSTAVIEW_RAPIDAPI_KEY"); key != "" {
		c.Provider.RapidAPIKey = key
	}
	if host := os.Getenv("INSTAVIEW_RAPIDAPI_HOST"); host != "" {
		c.Provider.RapidAPIHost = host
	}
	if baseURL := os.Getenv("INSTAVIEW_CUSTOM_API_URL"); baseURL != "" {
		c.Provider.CustomBaseURL = baseURL
	}
	if key := os.Getenv("INSTAVIEW_CUSTOM_API_KEY"); key != "" {
		c.Provider.CustomAPIKey = key
	}
	if timeout := os.Getenv("INSTAVIEW_REQUEST_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid INSTAVIEW_REQUEST_TIMEOUT: %w", err)
		}
		c.Provider.RequestTimeout = d
	}
	if retries := os.Getenv("INSTAVIEW_MAX_RETRIES"); retries != "" {
		val, err := strconv.Atoi(retries)
		if err != nil || val < 0 {
			return fmt.Errorf("invalid INSTAVIEW_MAX_RETRIES: %q", retries)
		}
		c.Provider.MaxRetries = val
	}
	if locale := os.Getenv("INSTAVIEW_MOCK_LOCALE"); locale != "" {
		c.Provider.MockLocale = strings.ToLower(locale)
	}

	if url := os.Getenv("INSTAVIEW_AUTH_URL"); url != "" {
		c.Auth.URL = url
	}
	if key := os.Getenv("INSTAVIEW_AUTH_ANON_KEY"); key != "" {
		c.Auth.AnonKey = key
	}
	if redirect := os.Getenv("INSTAVIEW_AUTH_REDIRECT_URL"); redirect != "" {
		c.Auth.RedirectURL = redirect
	}

	if port := os.Getenv("INSTAVIEW_PORT"); port != "" {
		val, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid INSTAVIEW_PORT: %q", port)
		}
		c.Server.Port = val
	}
	if rpm := os.Getenv("INSTAVIEW_REQUESTS_PER_MINUTE"); rpm != "" {
		if val, err := strconv.Atoi(rpm); err == nil && val > 0 {
			c.Server.RequestsPerMinute = val
		}
	}

	if level := os.Getenv("INSTAVIEW_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("INSTAVIEW_LOG_FILE"); file != "" {
		c.Logging.File = file
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".instaview.yaml",
		".instaview.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "instaview", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "instaview", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".instaview.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	switch c.Provider.Mode {
	case ModeMock, ModeRapidAPI, ModeCustom:
	default:
		errs = append(errs, fmt.Errorf("unknown provider mode: %q", c.Provider.Mode))
	}

	if c.Provider.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Provider.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Provider.MockFailureRate < 0 || c.Provider.MockFailureRate > 1 {
		errs = append(errs, errors.New("mock failure rate must be between 0 and 1"))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, errors.New("server port must be between 1 and 65535"))
	}
	if c.Server.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
