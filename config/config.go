package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings mirrors settings.toml.
type Settings struct {
	UserEmail     string          `toml:"user_email"`
	DataDirectory string          `toml:"data_directory"`
	Backend       BackendSettings `toml:"backend"`
	Proxy         ProxySettings   `toml:"proxy"`
}

type BackendSettings struct {
	URL            string `toml:"url"`
	APIPrefix      string `toml:"api_prefix"`
	APIKey         string `toml:"api_key,omitempty"`
	RequestTimeout string `toml:"request_timeout"`
	RetryAttempts  int    `toml:"retry_attempts"`
}

type ProxySettings struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	Path    string `toml:"path"`
}

// Config is the resolved runtime configuration.
type Config struct {
	UserEmail      string
	DataDirectory  string
	BackendURL     string
	APIPrefix      string
	APIKey         string
	RequestTimeout time.Duration
	RetryAttempts  int
	UseProxy       bool
	ProxyURL       string
	ProxyPath      string
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// AssistantBaseURL resolves where the /assistant endpoints live. Through the
// proxy and directly they are the same logical endpoints.
func (c *Config) AssistantBaseURL() string {
	if c.UseProxy {
		return joinURL(c.ProxyURL, c.ProxyPath)
	}
	return joinURL(c.BackendURL, c.APIPrefix)
}

func joinURL(base, path string) string {
	base = strings.TrimRight(base, "/")
	path = strings.Trim(path, "/")
	if path == "" {
		return base
	}
	return base + "/" + path
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DESKMATE_BACKEND_URL"); v != "" {
		c.BackendURL = v
	}
	if v := os.Getenv("DESKMATE_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("DESKMATE_USER_EMAIL"); v != "" {
		c.UserEmail = v
	}
	if v := os.Getenv("DESKMATE_DATA_DIR"); v != "" {
		c.DataDirectory = v
	}
	if v := os.Getenv("DESKMATE_USE_PROXY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.UseProxy = b
		}
	}
}

// Validate checks the settings needed to talk to the assistant. Load does
// not require user_email so command-line flags can still supply it.
func (c *Config) Validate() error {
	if c.UserEmail == "" {
		return fmt.Errorf("user_email is required (set it in %s or DESKMATE_USER_EMAIL)", GetSettingsFilePath())
	}
	return c.validateEndpoints()
}

func (c *Config) validateEndpoints() error {
	for _, ep := range []struct{ name, raw string }{
		{"backend url", c.BackendURL},
		{"proxy url", c.ProxyURL},
	} {
		u, err := url.Parse(ep.raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid %s %q", ep.name, ep.raw)
		}
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry_attempts must not be negative")
	}
	return nil
}

// Load reads settings.toml (creating it on first run), applies environment
// overrides and makes sure the data directory exists.
func Load() (*Config, error) {
	settings, err := LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	cfg, err := settings.resolve()
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.validateEndpoints(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dataDir := cfg.DataDir()
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	return cfg, nil
}

func (s *Settings) resolve() (*Config, error) {
	timeout := DefaultRequestTimeout
	if s.Backend.RequestTimeout != "" {
		d, err := time.ParseDuration(s.Backend.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid request_timeout %q: %w", s.Backend.RequestTimeout, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("request_timeout must be positive, got %s", d)
		}
		timeout = d
	}

	return &Config{
		UserEmail:      s.UserEmail,
		DataDirectory:  s.DataDirectory,
		BackendURL:     s.Backend.URL,
		APIPrefix:      s.Backend.APIPrefix,
		APIKey:         s.Backend.APIKey,
		RequestTimeout: timeout,
		RetryAttempts:  s.Backend.RetryAttempts,
		UseProxy:       s.Proxy.Enabled,
		ProxyURL:       s.Proxy.URL,
		ProxyPath:      s.Proxy.Path,
	}, nil
}
