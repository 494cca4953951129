package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Tracker configuration
	Tracker TrackerConfig `yaml:"tracker"`

	// Session readiness configuration
	Session SessionConfig `yaml:"session"`

	// Daemon configuration
	Daemon DaemonConfig `yaml:"daemon"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Web server configuration
	Web WebConfig `yaml:"web"`
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	DataDir      string        `yaml:"data_dir"`      // Empty means $XDG_DATA_HOME/ctvtcntr
	Backend      string        `yaml:"backend"`       // "sqlite" or "csv"
	DatabasePath string        `yaml:"database_path"` // Empty means <data_dir>/ctvtcntr.db
	TablePath    string        `yaml:"table_path"`    // Empty means <data_dir>/usage.csv
	WriteTimeout time.Duration `yaml:"write_timeout"` // Upper bound for a single write
}

// TrackerConfig holds tracking behavior configuration
type TrackerConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`     // How often to check the focused window
	MinPollInterval time.Duration `yaml:"-"`                 // Minimum allowed poll interval
	MaxPollInterval time.Duration `yaml:"-"`                 // Maximum allowed poll interval
	Provider        string        `yaml:"provider"`          // "auto", "hyprland" or "x11"
	UseInitialTitle bool          `yaml:"use_initial_title"` // Normalize the title a window opened with
	SplitAtMidnight bool          `yaml:"split_at_midnight"` // Split intervals that cross midnight
}

// SessionConfig controls the wait for the windowing session
type SessionConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	CheckInterval time.Duration `yaml:"check_interval"`
	Required      bool          `yaml:"required"` // Exit instead of starting degraded on timeout
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string `yaml:"pid_file"` // Path to PID file for daemon management
	LogFile string `yaml:"log_file"` // Empty means <data_dir>/ctvtcntr.log
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn or error
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string `yaml:"host"` // Host to bind web server to
	Port int    `yaml:"port"` // Port for web server
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:      "sqlite",
			WriteTimeout: 5 * time.Second,
		},
		Tracker: TrackerConfig{
			PollInterval:    500 * time.Millisecond,
			MinPollInterval: 100 * time.Millisecond,
			MaxPollInterval: 5 * time.Second,
			Provider:        "auto",
		},
		Session: SessionConfig{
			Timeout:       30 * time.Second,
			CheckInterval: 2 * time.Second,
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/ctvtcntr-%d.pid", os.Getuid()),
		},
		Log: LogConfig{
			Level: "info",
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 10000 + os.Getuid(), // Default port based on user ID
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Tracker.PollInterval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be less than minimum (%v)",
			c.Tracker.PollInterval, c.Tracker.MinPollInterval)
	}

	if c.Tracker.PollInterval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be greater than maximum (%v)",
			c.Tracker.PollInterval, c.Tracker.MaxPollInterval)
	}

	switch c.Tracker.Provider {
	case "auto", "hyprland", "x11":
	default:
		return fmt.Errorf("unknown provider %q (want auto, hyprland or x11)", c.Tracker.Provider)
	}

	switch c.Storage.Backend {
	case "sqlite", "csv":
	default:
		return fmt.Errorf("unknown storage backend %q (want sqlite or csv)", c.Storage.Backend)
	}

	if c.Storage.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive, got %v", c.Storage.WriteTimeout)
	}

	if c.Session.Timeout < 0 {
		return fmt.Errorf("session timeout cannot be negative")
	}

	if c.Session.CheckInterval <= 0 {
		return fmt.Errorf("session check interval must be positive, got %v", c.Session.CheckInterval)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	// Validate web config
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	// Validate daemon config
	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

// SetPollInterval sets the poll interval with validation
func (c *Config) SetPollInterval(interval time.Duration) error {
	if interval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval cannot be less than %v", c.Tracker.MinPollInterval)
	}
	if interval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval cannot be greater than %v", c.Tracker.MaxPollInterval)
	}
	c.Tracker.PollInterval = interval
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// ResolvePaths fills empty file locations from the resolved data directory.
func (c *Config) ResolvePaths(dataDir string) {
	c.Storage.DataDir = dataDir
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = filepath.Join(dataDir, "ctvtcntr.db")
	}
	if c.Storage.TablePath == "" {
		c.Storage.TablePath = filepath.Join(dataDir, "usage.csv")
	}
	if c.Daemon.LogFile == "" {
		c.Daemon.LogFile = filepath.Join(dataDir, "ctvtcntr.log")
	}
}

// StoragePath returns the file used by the configured backend.
func (c *Config) StoragePath() string {
	if c.Storage.Backend == "csv" {
		return c.Storage.TablePath
	}
	return c.Storage.DatabasePath
}

// LogLevel returns the configured slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Storage:
    Data Dir: %s
    Backend: %s
    Database Path: %s
    Table Path: %s
    Write Timeout: %v
  Tracker:
    Poll Interval: %v
    Provider: %s
    Use Initial Title: %v
    Split At Midnight: %v
  Session:
    Timeout: %v
    Check Interval: %v
    Required: %v
  Daemon:
    PID File: %s
    Log File: %s
  Log:
    Level: %s
  Web:
    Host: %s
    Port: %d`,
		c.Storage.DataDir,
		c.Storage.Backend,
		c.Storage.DatabasePath,
		c.Storage.TablePath,
		c.Storage.WriteTimeout,
		c.Tracker.PollInterval,
		c.Tracker.Provider,
		c.Tracker.UseInitialTitle,
		c.Tracker.SplitAtMidnight,
		c.Session.Timeout,
		c.Session.CheckInterval,
		c.Session.Required,
		c.Daemon.PIDFile,
		c.Daemon.LogFile,
		c.Log.Level,
		c.Web.Host,
		c.Web.Port,
	)
}
