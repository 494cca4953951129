// Package x11 reads the focused window from an X server through the
// EWMH properties the window manager maintains.
package x11

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/actionsum/ctvtcntr/pkg/window"

	"github.com/jezek/xgb/xproto"
	"github.com/shirou/gopsutil/process"
)

// maxTitleLength is the property length in 32-bit units requested for names.
const maxTitleLength = 256

// source is what the provider needs from an X connection.
type source interface {
	activeWindow() (xproto.Window, error)
	name(w xproto.Window, length uint32) string
	class(w xproto.Window) (instance, class string)
	pid(w xproto.Window) int
	close()
}

// Provider keeps one X connection open and re-dials after a failure.
type Provider struct {
	display string
	dial    func(display string) (source, error)

	mu     sync.Mutex
	client source

	// processName resolves a PID when the window has no WM_CLASS.
	processName func(pid int) string
}

// New returns a provider for display; an empty display uses $DISPLAY.
func New(display string) (*Provider, error) {
	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	if display == "" {
		return nil, fmt.Errorf("x11: DISPLAY is not set")
	}

	return &Provider{display: display, dial: dialSource, processName: ProcessName}, nil
}

func (p *Provider) Name() string {
	return "x11"
}

// ActiveWindow returns the focused top-level window.
func (p *Provider) ActiveWindow(ctx context.Context) (*window.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		c, err := p.dial(p.display)
		if err != nil {
			return nil, fmt.Errorf("x11: connect to %s: %w", p.display, err)
		}
		p.client = c
	}

	w, err := p.client.activeWindow()
	if errors.Is(err, errNoActiveWindow) {
		return nil, nil
	}
	if err != nil {
		p.resetLocked()
		return nil, fmt.Errorf("x11: query active window: %w", err)
	}

	instance, class := p.client.class(w)
	obs := &window.Observation{
		Title: p.client.name(w, maxTitleLength),
		Class: class,
		PID:   p.client.pid(w),
	}
	if obs.Class == "" {
		obs.Class = instance
	}
	if obs.Class == "" && obs.PID > 0 {
		obs.Class = p.processName(obs.PID)
	}
	return obs, nil
}

func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}

func dialSource(display string) (source, error) {
	c, err := dial(display)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Provider) resetLocked() {
	if p.client != nil {
		p.client.close()
		p.client = nil
	}
}

// ProcessName returns the executable name of pid, or "" if the process is
// gone or unreadable.
func ProcessName(pid int) string {
	if pid <= 0 {
		return ""
	}
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return ""
	}
	name, err := proc.Name()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(name)
}
