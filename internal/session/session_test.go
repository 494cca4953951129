package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTargetFor(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		env      map[string]string
		wantKind string
		wantPath string
		wantErr  bool
	}{
		{
			name:     "hyprland",
			kind:     "auto",
			env:      map[string]string{"XDG_RUNTIME_DIR": "/run/user/1000", "HYPRLAND_INSTANCE_SIGNATURE": "sig"},
			wantKind: "hyprland",
			wantPath: "/run/user/1000/hypr/sig/.socket.sock",
		},
		{
			name:     "local display",
			kind:     "x11",
			env:      map[string]string{"DISPLAY": ":1.0"},
			wantKind: "x11",
			wantPath: "/tmp/.X11-unix/X1",
		},
		{
			name:     "remote display",
			kind:     "auto",
			env:      map[string]string{"DISPLAY": "host:0"},
			wantKind: "x11",
			wantPath: "",
		},
		{
			name:     "hyprland without signature",
			kind:     "hyprland",
			env:      map[string]string{"XDG_RUNTIME_DIR": "/run/user/1000"},
			wantKind: "hyprland",
			wantErr:  true,
		},
		{
			name:    "nothing",
			kind:    "",
			env:     map[string]string{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := TargetFor(tt.kind, func(k string) string { return tt.env[k] })
			if tt.wantErr {
				if !errors.Is(err, ErrNoSession) {
					t.Fatalf("TargetFor() error = %v, want ErrNoSession", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("TargetFor() error: %v", err)
			}
			if target.Kind != tt.wantKind || target.Path != tt.wantPath {
				t.Errorf("TargetFor() = %+v, want kind %s path %s", target, tt.wantKind, tt.wantPath)
			}
		})
	}
}

func TestWaitReadyImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".socket.sock")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	g := &Gate{Target: Target{Kind: "hyprland", Path: path}, Timeout: time.Second, Logger: quietLogger()}
	if err := g.Wait(context.Background()); err != nil {
		t.Errorf("Wait() error: %v", err)
	}
}

func TestWaitNothingToWaitFor(t *testing.T) {
	g := &Gate{Target: Target{Kind: "x11"}, Timeout: time.Millisecond}
	if err := g.Wait(context.Background()); err != nil {
		t.Errorf("Wait() error: %v", err)
	}
}

func TestWaitSocketAppears(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".socket.sock")
	g := &Gate{
		Target:   Target{Kind: "hyprland", Path: path},
		Timeout:  5 * time.Second,
		Interval: 50 * time.Millisecond,
		Logger:   quietLogger(),
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		os.WriteFile(path, nil, 0o600)
	}()

	start := time.Now()
	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	t.Logf("session ready after %v", time.Since(start))
}

func TestWaitTimeout(t *testing.T) {
	g := &Gate{
		Target:   Target{Kind: "hyprland", Path: filepath.Join(t.TempDir(), "never.sock")},
		Timeout:  100 * time.Millisecond,
		Interval: 20 * time.Millisecond,
		Logger:   quietLogger(),
	}

	if err := g.Wait(context.Background()); !errors.Is(err, ErrTimeout) {
		t.Errorf("Wait() error = %v, want ErrTimeout", err)
	}
}

func TestWaitCancelled(t *testing.T) {
	g := &Gate{
		Target:   Target{Kind: "hyprland", Path: filepath.Join(t.TempDir(), "never.sock")},
		Timeout:  time.Minute,
		Interval: 20 * time.Millisecond,
		Logger:   quietLogger(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := g.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestWaitLogsWatchErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".socket.sock")
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	g := &Gate{Target: Target{Kind: "hyprland", Path: path}, Timeout: 5 * time.Second}

	events := make(chan fsnotify.Event)
	errs := make(chan error)
	done := make(chan error, 1)
	go func() { done <- g.await(context.Background(), logger, time.Minute, events, errs) }()

	errs <- fsnotify.ErrEventOverflow
	close(errs)
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	events <- fsnotify.Event{Name: path, Op: fsnotify.Create}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("await() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("await() stalled after a watch error")
	}
	if !strings.Contains(logs.String(), "session watch error") {
		t.Errorf("watch error not logged:\n%s", logs.String())
	}
}
