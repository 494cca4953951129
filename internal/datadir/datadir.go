// Package datadir resolves and creates the per-user data directory.
package datadir

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppName is the directory name used under the XDG data home.
const AppName = "ctvtcntr"

// Path returns the data directory without creating it: override when set,
// else $XDG_DATA_HOME/ctvtcntr, else ~/.local/share/ctvtcntr.
func Path(override string, getenv func(string) string) (string, error) {
	if override != "" {
		return override, nil
	}
	if xdg := getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home := getenv("HOME")
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot locate data directory: %w", err)
		}
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}

// Resolve returns the data directory and creates it if needed.
func Resolve(override string) (string, error) {
	dir, err := Path(override, os.Getenv)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create data directory %s: %w", dir, err)
	}
	return dir, nil
}
