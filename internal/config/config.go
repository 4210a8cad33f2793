// Package config loads tempo's runtime settings from TEMPO_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix, e.g. TEMPO_API_URL.
const Prefix = "TEMPO"

// Config holds the client configuration.
type Config struct {
	APIURL   string `envconfig:"API_URL" default:"http://localhost:8000"`
	StateDir string `envconfig:"STATE_DIR"`

	ProbeInterval   time.Duration `envconfig:"PROBE_INTERVAL" default:"30s"`
	ProbeTimeout    time.Duration `envconfig:"PROBE_TIMEOUT" default:"5s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	RetryMaxElapsed time.Duration `envconfig:"RETRY_MAX_ELAPSED" default:"2s"`

	RecentCapacity int `envconfig:"RECENT_CAPACITY" default:"10"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	DebugHTTP bool   `envconfig:"DEBUG_HTTP" default:"false"`
}

// New parses the environment and validates the result. An empty STATE_DIR
// resolves to ~/.tempo.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if cfg.StateDir == "" {
		dir, err := DefaultStateDir()
		if err != nil {
			return nil, err
		}
		cfg.StateDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewForTesting returns a valid config rooted at stateDir.
func NewForTesting(stateDir string) *Config {
	return &Config{
		APIURL:          "http://localhost:8000",
		StateDir:        stateDir,
		ProbeInterval:   30 * time.Second,
		ProbeTimeout:    5 * time.Second,
		RequestTimeout:  10 * time.Second,
		RetryMaxElapsed: 0,
		RecentCapacity:  10,
		LogLevel:        "debug",
		LogFormat:       "console",
	}
}

// DefaultStateDir returns ~/.tempo.
func DefaultStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: home dir: %w", err)
	}
	return filepath.Join(home, ".tempo"), nil
}

// Validate rejects settings the stores cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIURL) == "" {
		errs = append(errs, errors.New("API_URL must be set"))
	}
	if c.StateDir == "" {
		errs = append(errs, errors.New("STATE_DIR must be set"))
	}
	if c.ProbeInterval <= 0 {
		errs = append(errs, fmt.Errorf("PROBE_INTERVAL must be > 0, got %s", c.ProbeInterval))
	}
	if c.ProbeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("PROBE_TIMEOUT must be > 0, got %s", c.ProbeTimeout))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be > 0, got %s", c.RequestTimeout))
	}
	if c.RetryMaxElapsed < 0 {
		errs = append(errs, fmt.Errorf("RETRY_MAX_ELAPSED must be >= 0, got %s", c.RetryMaxElapsed))
	}
	if c.RecentCapacity <= 0 {
		errs = append(errs, fmt.Errorf("RECENT_CAPACITY must be > 0, got %d", c.RecentCapacity))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// StatePath joins name onto the state directory.
func (c *Config) StatePath(name string) string {
	return filepath.Join(c.StateDir, name)
}
