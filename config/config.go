// Package config provides loading and parsing of agentlens.yaml
// configuration files for the HTTP service and CLI defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents an agentlens.yaml configuration file.
type Config struct {
	// Server configures the HTTP API surface.
	Server ServerConfig `yaml:"server,omitempty"`

	// Fetch configures outbound document and handshake requests.
	Fetch FetchConfig `yaml:"fetch,omitempty"`

	// Scan configures the security detection passes.
	Scan ScanConfig `yaml:"scan,omitempty"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log,omitempty"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8080".
	Addr string `yaml:"addr,omitempty"`

	// ShutdownTimeout is the graceful shutdown grace period.
	// Format: Go duration string (e.g. "10s"). Default: 10s.
	ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`

	// RedisURL enables the fixed-window rate limiter when set,
	// e.g. "redis://localhost:6379/0". Only request counters are stored;
	// no fetched document or result ever reaches Redis.
	RedisURL string `yaml:"redis_url,omitempty"`

	// RateLimit is the allowed requests per client per minute when the
	// rate limiter is enabled. Default: 60.
	RateLimit int `yaml:"rate_limit,omitempty"`
}

// FetchConfig configures outbound requests to scanned targets.
type FetchConfig struct {
	// Timeout bounds each outbound request.
	// Format: Go duration string. Default: 10s.
	Timeout string `yaml:"timeout,omitempty"`
}

// ScanConfig configures the detection passes.
type ScanConfig struct {
	// Probe enables the live unauthenticated probe during agent scans.
	// Default: true.
	Probe *bool `yaml:"probe,omitempty"`

	// SurfaceThreshold overrides the declared-entity count above which a
	// surface-area finding is raised.
	SurfaceThreshold int `yaml:"surface_threshold,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: info.
	Level string `yaml:"level,omitempty"`

	// Format is "json" or "text". Default: text.
	Format string `yaml:"format,omitempty"`
}

// GetAddr returns the configured listen address or the default.
func (s ServerConfig) GetAddr() string {
	if s.Addr == "" {
		return ":8080"
	}
	return s.Addr
}

// GetShutdownTimeout parses the shutdown grace period, defaulting to 10s.
func (s ServerConfig) GetShutdownTimeout() time.Duration {
	if s.ShutdownTimeout == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetRateLimit returns the per-client request budget per minute.
func (s ServerConfig) GetRateLimit() int {
	if s.RateLimit <= 0 {
		return 60
	}
	return s.RateLimit
}

// GetTimeout parses the outbound request timeout, defaulting to 10s.
func (f FetchConfig) GetTimeout() time.Duration {
	if f.Timeout == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(f.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ProbeEnabled reports whether the live probe should run. Defaults to
// true when unset.
func (s ScanConfig) ProbeEnabled() bool {
	if s.Probe == nil {
		return true
	}
	return *s.Probe
}

// Load reads a configuration from the given path. If path is a
// directory, agentlens.yaml then agentlens.yml inside it are tried.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		yamlPath := filepath.Join(path, "agentlens.yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			ymlPath := filepath.Join(path, "agentlens.yml")
			if _, err := os.Stat(ymlPath); err != nil {
				return nil, fmt.Errorf("no agentlens.yaml or agentlens.yml found in %s", path)
			}
			configPath = ymlPath
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads the configuration at path, or returns the zero
// configuration (all defaults) when path is empty or absent.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return Load(path)
}
