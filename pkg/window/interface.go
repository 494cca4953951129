package window

import (
	"context"
	"errors"
)

// ErrNoWindow is returned by helpers that need a window when the provider
// reports none.
var ErrNoWindow = errors.New("no active window")

// Observation is the focused window as seen in one poll.
type Observation struct {
	Title        string
	Class        string
	InitialTitle string // title when the window was mapped, if the provider knows it
	InitialClass string
	PID          int
}

// RawTitle returns the title to normalize. With useInitial set the initial
// title is preferred when the provider reported one.
func (o *Observation) RawTitle(useInitial bool) string {
	if useInitial && o.InitialTitle != "" {
		return o.InitialTitle
	}
	return o.Title
}

// RawClass returns the window class, falling back to the initial class.
func (o *Observation) RawClass() string {
	if o.Class != "" {
		return o.Class
	}
	return o.InitialClass
}

// Provider reports the currently focused window.
type Provider interface {
	// ActiveWindow returns the focused window. A nil observation with a nil
	// error means no window has focus. Errors are transient.
	ActiveWindow(ctx context.Context) (*Observation, error)

	// Name identifies the provider in logs ("hyprland", "x11").
	Name() string

	// Close releases any connection held by the provider.
	Close() error
}

// Require calls p.ActiveWindow and turns "no window" into ErrNoWindow.
func Require(ctx context.Context, p Provider) (*Observation, error) {
	obs, err := p.ActiveWindow(ctx)
	if err != nil {
		return nil, err
	}
	if obs == nil {
		return nil, ErrNoWindow
	}
	return obs, nil
}
