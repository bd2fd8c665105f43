// Package config handles lcmws configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// searchPathsFunc is overridden in tests to avoid matching real config
// files on developer/deploy machines.
var searchPathsFunc = DefaultSearchPaths

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/lcmws/config.yaml, /config/config.yaml,
// /etc/lcmws/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "lcmws", "config.yaml"))
	}

	paths = append(paths, "/config/config.yaml") // Container convention
	paths = append(paths, "/etc/lcmws/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches searchPathsFunc() and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range searchPathsFunc() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", searchPathsFunc())
}

// Config holds all lcmws configuration. Flags set on the command line
// always override the corresponding field loaded from a config file.
type Config struct {
	Serve    ServeConfig `yaml:"serve"`
	LogLevel string      `yaml:"log_level"`
}

// ServeConfig defines the bridge server's bus subscription, HTTP
// listener, and default handler settings.
type ServeConfig struct {
	// Host and Port are the WebSocket listener's bind address.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// BusURL is the LCM UDP multicast provider URL, e.g.
	// "udpm://239.255.76.67:7667?ttl=1".
	BusURL string `yaml:"bus_url"`

	// Channel is the default regex used when a connecting client
	// supplies no channel filter of its own.
	Channel string `yaml:"channel"`

	// Packages lists the LCM type packages to discover at startup
	// (e.g. "stdlcm", "senlcm"). At least one type must be discovered
	// or the process refuses to start.
	Packages []string `yaml:"packages"`

	// Handler selects the default frame handler: "json", "jpeg", or "dial".
	Handler string `yaml:"handler"`

	// Scale downsamples image handler output; 1.0 means no resizing.
	Scale float64 `yaml:"scale"`

	// Quality is the JPEG quality (1-100) used by the jpeg and dial handlers.
	Quality int `yaml:"quality"`

	// MailboxSize bounds each client's pending-frame queue before the
	// oldest queued frame is dropped to make room for the newest.
	MailboxSize int `yaml:"mailbox_size"`

	// SpyIntervalMS is the tick period of the Spy Collector's
	// per-channel statistics publication, in milliseconds.
	SpyIntervalMS int `yaml:"spy_interval_ms"`
}

// Load reads configuration from a YAML file, expands environment
// variables, applies defaults for any unset fields, and validates
// the result. Host, Packages and LogLevel are not defaulted and may be
// empty after Load returns.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${LCMWS_BUS_URL}). This is a
	// convenience for container deployments; the recommended approach
	// is to put values directly in the config file.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in zero-value fields with sensible defaults.
// Called automatically by Load. Host, Packages and LogLevel are left
// as given.
func (c *Config) applyDefaults() {
	if c.Serve.Port == 0 {
		c.Serve.Port = 8765
	}
	if c.Serve.BusURL == "" {
		c.Serve.BusURL = "udpm://239.255.76.67:7667?ttl=1"
	}
	if c.Serve.Channel == "" {
		c.Serve.Channel = ".*"
	}
	if c.Serve.Handler == "" {
		c.Serve.Handler = "json"
	}
	if c.Serve.Scale == 0 {
		c.Serve.Scale = 1.0
	}
	if c.Serve.Quality == 0 {
		c.Serve.Quality = 80
	}
	if c.Serve.MailboxSize == 0 {
		c.Serve.MailboxSize = 64
	}
	if c.Serve.SpyIntervalMS == 0 {
		c.Serve.SpyIntervalMS = 1000
	}
}

// Validate checks that the configuration is internally consistent.
// It runs after applyDefaults, so it can assume defaults are populated.
// Returns an error describing the first problem found, or nil.
func (c *Config) Validate() error {
	if c.Serve.Port < 1 || c.Serve.Port > 65535 {
		return fmt.Errorf("serve.port %d out of range (1-65535)", c.Serve.Port)
	}
	if _, err := regexp.Compile(c.Serve.Channel); err != nil {
		return fmt.Errorf("serve.channel: %w", err)
	}
	switch c.Serve.Handler {
	case "json", "jpeg", "dial":
	default:
		return fmt.Errorf("serve.handler %q must be one of json, jpeg, dial", c.Serve.Handler)
	}
	if c.Serve.Quality < 1 || c.Serve.Quality > 100 {
		return fmt.Errorf("serve.quality %d out of range (1-100)", c.Serve.Quality)
	}
	if c.Serve.Scale <= 0 {
		return fmt.Errorf("serve.scale %v must be positive", c.Serve.Scale)
	}
	if c.Serve.MailboxSize < 1 {
		return fmt.Errorf("serve.mailbox_size %d must be at least 1", c.Serve.MailboxSize)
	}
	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

// Default returns a default configuration suitable for local development.
// All defaults are already applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
