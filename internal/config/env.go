package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override default values and the config file
func LoadFromEnv(cfg *Config) {
	// Storage configuration
	if dataDir := os.Getenv("CTVTCNTR_DATA_DIR"); dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}

	if backend := os.Getenv("CTVTCNTR_BACKEND"); backend != "" {
		cfg.Storage.Backend = backend
	}

	if dbPath := os.Getenv("CTVTCNTR_DB_PATH"); dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}

	if tablePath := os.Getenv("CTVTCNTR_TABLE_PATH"); tablePath != "" {
		cfg.Storage.TablePath = tablePath
	}

	if d, ok := envDuration("CTVTCNTR_WRITE_TIMEOUT"); ok && d > 0 {
		cfg.Storage.WriteTimeout = d
	}

	// Tracker configuration
	if d, ok := envDuration("CTVTCNTR_POLL_INTERVAL"); ok {
		if d >= cfg.Tracker.MinPollInterval && d <= cfg.Tracker.MaxPollInterval {
			cfg.Tracker.PollInterval = d
		}
	}

	if provider := os.Getenv("CTVTCNTR_PROVIDER"); provider != "" {
		cfg.Tracker.Provider = provider
	}

	if v, ok := envBool("CTVTCNTR_USE_INITIAL_TITLE"); ok {
		cfg.Tracker.UseInitialTitle = v
	}

	if v, ok := envBool("CTVTCNTR_SPLIT_AT_MIDNIGHT"); ok {
		cfg.Tracker.SplitAtMidnight = v
	}

	// Session configuration
	if d, ok := envDuration("CTVTCNTR_SESSION_TIMEOUT"); ok && d >= 0 {
		cfg.Session.Timeout = d
	}

	if v, ok := envBool("CTVTCNTR_SESSION_REQUIRED"); ok {
		cfg.Session.Required = v
	}

	// Daemon configuration
	if pidFile := os.Getenv("CTVTCNTR_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	if logFile := os.Getenv("CTVTCNTR_LOG_FILE"); logFile != "" {
		cfg.Daemon.LogFile = logFile
	}

	if level := os.Getenv("CTVTCNTR_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	// Web configuration
	if webHost := os.Getenv("CTVTCNTR_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("CTVTCNTR_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}
}

// envDuration accepts a Go duration ("750ms") or plain milliseconds ("750").
func envDuration(key string) (time.Duration, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return d, true
}

func envBool(key string) (bool, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
