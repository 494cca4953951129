// Package session waits for the windowing session to come up before the
// tracker starts polling.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/actionsum/ctvtcntr/pkg/detector"
	"github.com/actionsum/ctvtcntr/pkg/integrations/hyprland"

	"github.com/fsnotify/fsnotify"
)

var (
	// ErrTimeout is returned when the session did not appear in time.
	ErrTimeout = errors.New("session not ready before timeout")
	// ErrNoSession is returned when the environment names no session at all.
	ErrNoSession = errors.New("no session in environment")
)

const x11SocketDir = "/tmp/.X11-unix"

// Target is the file whose existence means the session accepts clients. An
// empty Path means there is nothing local to wait for.
type Target struct {
	Kind string
	Path string
}

// TargetFor resolves the readiness target for a provider kind.
func TargetFor(kind string, getenv func(string) string) (Target, error) {
	if kind == "" || kind == detector.KindAuto {
		kind = detector.Detect(getenv)
	}

	switch kind {
	case detector.KindHyprland:
		path, err := hyprland.SocketPath(getenv)
		if err != nil {
			return Target{Kind: kind}, fmt.Errorf("%w: %v", ErrNoSession, err)
		}
		return Target{Kind: kind, Path: path}, nil
	case detector.KindX11:
		display := getenv("DISPLAY")
		if display == "" {
			return Target{Kind: kind}, fmt.Errorf("%w: DISPLAY is not set", ErrNoSession)
		}
		return Target{Kind: kind, Path: x11Socket(display)}, nil
	default:
		return Target{}, fmt.Errorf("%w: neither %s nor DISPLAY is set", ErrNoSession, hyprland.EnvSignature)
	}
}

// x11Socket maps a local display such as ":0" or ":1.0" to its socket.
// Remote displays have no local socket to wait for.
func x11Socket(display string) string {
	if !strings.HasPrefix(display, ":") {
		return ""
	}
	num := strings.TrimPrefix(display, ":")
	if i := strings.IndexByte(num, '.'); i >= 0 {
		num = num[:i]
	}
	if num == "" {
		return ""
	}
	return filepath.Join(x11SocketDir, "X"+num)
}

// Gate polls for the target and also wakes on filesystem events in its
// directory, so a socket created between checks is noticed immediately.
type Gate struct {
	Target   Target
	Timeout  time.Duration
	Interval time.Duration
	Logger   *slog.Logger
}

// Wait blocks until the target exists, the timeout passes (ErrTimeout) or
// ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	if g.Target.Path == "" || exists(g.Target.Path) {
		return nil
	}

	logger := g.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	interval := g.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	logger.Info("waiting for session", "kind", g.Target.Kind, "path", g.Target.Path, "timeout", g.Timeout)

	var events <-chan fsnotify.Event
	var errs <-chan error
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(g.Target.Path)); err == nil {
			events, errs = watcher.Events, watcher.Errors
		} else {
			logger.Debug("session directory not watchable", "dir", filepath.Dir(g.Target.Path), "error", err)
		}
	}

	return g.await(ctx, logger, interval, events, errs)
}

// await returns once the target exists, checking on every watch event and
// every interval tick. Watch errors are logged and do not end the wait.
func (g *Gate) await(ctx context.Context, logger *slog.Logger, interval time.Duration, events <-chan fsnotify.Event, errs <-chan error) error {
	deadline := time.NewTimer(g.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: %s after %v", ErrTimeout, g.Target.Path, g.Timeout)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Name == g.Target.Path && exists(g.Target.Path) {
				logger.Info("session ready", "path", g.Target.Path)
				return nil
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Debug("session watch error", "error", err)
		case <-ticker.C:
			if exists(g.Target.Path) {
				logger.Info("session ready", "path", g.Target.Path)
				return nil
			}
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
