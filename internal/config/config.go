// Package config provides configuration management for vspreview.
// Configuration is loaded from environment variables with sensible defaults;
// command line flags override it in cmd/vspreview.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort          = 8788
	DefaultLogLevel      = "info"
	DefaultDataDir       = ".vspreview"
	DefaultWatchInterval = time.Second

	// Environment variable names
	EnvPort          = "VSPREVIEW_PORT"
	EnvLogLevel      = "VSPREVIEW_LOG_LEVEL"
	EnvDataDir       = "VSPREVIEW_DATA_DIR"
	EnvHeadless      = "VSPREVIEW_HEADLESS"
	EnvWatchInterval = "VSPREVIEW_WATCH_INTERVAL"

	// Database filename
	DBFilename = "vspreview.db"

	// Plugin probe cache lifetime
	DoctorTTL = 30 * time.Second
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	Headless() bool
	WatchInterval() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port          int
	logLevel      string
	dataDir       string
	headless      bool
	watchInterval time.Duration
}

var _ Config = (*EnvConfig)(nil)

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:          DefaultPort,
		logLevel:      DefaultLogLevel,
		dataDir:       defaultDataDir(),
		watchInterval: DefaultWatchInterval,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if err := cfg.SetPort(port); err != nil {
			return nil, err
		}
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	if wi := os.Getenv(EnvWatchInterval); wi != "" {
		d, err := time.ParseDuration(wi)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvWatchInterval, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid %s: interval must be positive", EnvWatchInterval)
		}
		cfg.watchInterval = d
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// SetPort overrides the port, as the --port flag does.
func (c *EnvConfig) SetPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}
	c.port = port
	return nil
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

func (c *EnvConfig) SetLogLevel(level string) {
	c.logLevel = level
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// Headless reports whether to run without the tray.
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) SetHeadless(headless bool) {
	c.headless = headless
}

func (c *EnvConfig) WatchInterval() time.Duration {
	return c.watchInterval
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
