package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: csv
  table_path: /tmp/usage.csv
tracker:
  poll_interval: 750ms
  split_at_midnight: true
session:
  required: true
log:
  level: debug
`)

	cfg := Default()
	if err := LoadFile(cfg, path); err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if cfg.Storage.Backend != "csv" || cfg.Storage.TablePath != "/tmp/usage.csv" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Tracker.PollInterval != 750*time.Millisecond {
		t.Errorf("PollInterval = %v, want 750ms", cfg.Tracker.PollInterval)
	}
	if !cfg.Tracker.SplitAtMidnight || !cfg.Session.Required {
		t.Errorf("bools not applied: %+v %+v", cfg.Tracker, cfg.Session)
	}
	if cfg.Session.Timeout != 30*time.Second {
		t.Errorf("Session.Timeout = %v, default should survive", cfg.Session.Timeout)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, want debug", cfg.LogLevel())
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "tracker:\n  pol_interval: 1s\n")
	if err := LoadFile(Default(), path); err == nil {
		t.Error("LoadFile() accepted a misspelled key")
	}
}

func TestLoadFileEmpty(t *testing.T) {
	path := writeConfig(t, "")
	cfg := Default()
	if err := LoadFile(cfg, path); err != nil {
		t.Errorf("LoadFile(empty) error: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() without a config file error: %v", err)
	}
	if cfg.Tracker.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want default", cfg.Tracker.PollInterval)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() accepted a missing explicit config file")
	}

	path := writeConfig(t, "tracker:\n  poll_interval: 1m\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "poll interval") {
		t.Errorf("Load() error = %v, want a poll interval validation error", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("CTVTCNTR_POLL_INTERVAL", "200")
	t.Setenv("CTVTCNTR_BACKEND", "csv")
	t.Setenv("CTVTCNTR_SESSION_REQUIRED", "true")
	t.Setenv("CTVTCNTR_WEB_PORT", "8123")

	path := writeConfig(t, "tracker:\n  poll_interval: 1s\nstorage:\n  backend: sqlite\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Tracker.PollInterval != 200*time.Millisecond {
		t.Errorf("PollInterval = %v, want 200ms from env", cfg.Tracker.PollInterval)
	}
	if cfg.Storage.Backend != "csv" {
		t.Errorf("Backend = %s, want csv from env", cfg.Storage.Backend)
	}
	if !cfg.Session.Required {
		t.Error("Session.Required not set from env")
	}
	if cfg.Web.Port != 8123 {
		t.Errorf("Web.Port = %d, want 8123", cfg.Web.Port)
	}
}

func TestLoadFromEnvIgnoresBadValues(t *testing.T) {
	t.Setenv("CTVTCNTR_POLL_INTERVAL", "10ms")
	t.Setenv("CTVTCNTR_WEB_PORT", "99999")
	t.Setenv("CTVTCNTR_SPLIT_AT_MIDNIGHT", "maybe")

	cfg := New()
	if cfg.Tracker.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, out-of-range env should be ignored", cfg.Tracker.PollInterval)
	}
	if cfg.Web.Port == 99999 {
		t.Error("invalid web port accepted")
	}
	if cfg.Tracker.SplitAtMidnight {
		t.Error("unparsable bool accepted")
	}
}

func TestResolvePaths(t *testing.T) {
	cfg := Default()
	cfg.Storage.TablePath = "/elsewhere/usage.csv"
	cfg.ResolvePaths("/data")

	if cfg.Storage.DatabasePath != "/data/ctvtcntr.db" {
		t.Errorf("DatabasePath = %s", cfg.Storage.DatabasePath)
	}
	if cfg.Storage.TablePath != "/elsewhere/usage.csv" {
		t.Errorf("TablePath = %s, explicit value should be kept", cfg.Storage.TablePath)
	}
	if cfg.Daemon.LogFile != "/data/ctvtcntr.log" {
		t.Errorf("LogFile = %s", cfg.Daemon.LogFile)
	}
	if cfg.StoragePath() != "/data/ctvtcntr.db" {
		t.Errorf("StoragePath() = %s", cfg.StoragePath())
	}

	cfg.Storage.Backend = "csv"
	if cfg.StoragePath() != "/elsewhere/usage.csv" {
		t.Errorf("StoragePath() = %s for csv", cfg.StoragePath())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Tracker.UseInitialTitle = true

	data, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	path := writeConfig(t, string(data))

	back := Default()
	if err := LoadFile(back, path); err != nil {
		t.Fatalf("LoadFile(Marshal()) error: %v\n%s", err, data)
	}
	if back.String() != cfg.String() {
		t.Errorf("round trip changed config:\n%s\nvs\n%s", back, cfg)
	}
}
