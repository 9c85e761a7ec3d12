// Package config handles loading and saving application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "todoify"

// Environment variables that override the config file.
const (
	EnvAPIURL            = "TODOIFY_API_URL"
	EnvConfigPath        = "TODOIFY_CONFIG"
	EnvOAuthClientID     = "TODOIFY_OAUTH_CLIENT_ID"
	EnvOAuthClientSecret = "TODOIFY_OAUTH_CLIENT_SECRET"
)

// DefaultAPIURL is the backend address used when nothing else is configured.
const DefaultAPIURL = "http://localhost:8000/api"

// Config represents the application configuration.
type Config struct {
	API  APIConfig  `yaml:"api"`
	Auth AuthConfig `yaml:"auth"`
	UI   UIConfig   `yaml:"ui"`
	Log  LogConfig  `yaml:"log"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL string        `yaml:"base_url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// AuthConfig holds authentication-related settings.
type AuthConfig struct {
	OAuth OAuthConfig `yaml:"oauth,omitempty"`
}

// OAuthConfig holds the OAuth2 client registration used by `todoify oauth`.
type OAuthConfig struct {
	ClientID     string `yaml:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret,omitempty"`
	AuthorizeURL string `yaml:"authorize_url,omitempty"`
	TokenURL     string `yaml:"token_url,omitempty"`
	Scope        string `yaml:"scope,omitempty"`
}

// UIConfig holds UI-related settings.
type UIConfig struct {
	DefaultView   string `yaml:"default_view,omitempty"`   // "grid" or "calendar"
	DefaultFilter string `yaml:"default_filter,omitempty"` // "all", "active" or "completed"
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level,omitempty"` // debug, info, warn, error
	File  string `yaml:"file,omitempty"`
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Timeout: 30 * time.Second,
		},
		UI: UIConfig{
			DefaultView:   "grid",
			DefaultFilter: "all",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the path to the configuration directory.
// Creates the directory if it doesn't exist.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(homeDir, ".config")
	}

	configDir := filepath.Join(base, appName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// ConfigPath returns the full path to the configuration file.
// TODOIFY_CONFIG takes precedence over the default location.
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the configuration from the default config file.
// If the file doesn't exist, returns a default configuration.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration at path and applies environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the default config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(cfg, path)
}

// SaveFile writes the configuration to path.
func SaveFile(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	// Write with restricted permissions (owner read/write only)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvOAuthClientID); v != "" {
		c.Auth.OAuth.ClientID = v
	}
	if v := os.Getenv(EnvOAuthClientSecret); v != "" {
		c.Auth.OAuth.ClientSecret = v
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.UI.DefaultView {
	case "", "grid", "calendar":
	default:
		return fmt.Errorf("invalid ui.default_view %q (want grid or calendar)", c.UI.DefaultView)
	}
	switch c.UI.DefaultFilter {
	case "", "all", "active", "completed":
	default:
		return fmt.Errorf("invalid ui.default_filter %q (want all, active or completed)", c.UI.DefaultFilter)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("invalid api.timeout %s", c.API.Timeout)
	}
	return nil
}

// APIBaseURL returns the configured backend address, falling back to the default.
func (c *Config) APIBaseURL() string {
	if c.API.BaseURL != "" {
		return strings.TrimRight(c.API.BaseURL, "/")
	}
	return DefaultAPIURL
}

// HasOAuthCredentials returns true if an OAuth client is fully configured.
func (c *Config) HasOAuthCredentials() bool {
	o := c.Auth.OAuth
	return o.ClientID != "" && o.ClientSecret != "" && o.AuthorizeURL != "" && o.TokenURL != ""
}
