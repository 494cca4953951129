package detector

import (
	"fmt"
	"os"

	"github.com/actionsum/ctvtcntr/pkg/integrations/hyprland"
	"github.com/actionsum/ctvtcntr/pkg/integrations/x11"
	"github.com/actionsum/ctvtcntr/pkg/window"
)

const (
	KindAuto     = "auto"
	KindHyprland = "hyprland"
	KindX11      = "x11"
)

// Detect picks a provider kind from the environment: Hyprland when its
// instance variables are set, X11 when DISPLAY is set, "" otherwise.
func Detect(getenv func(string) string) string {
	if hyprland.Available(getenv) {
		return KindHyprland
	}
	if getenv("DISPLAY") != "" {
		return KindX11
	}
	return ""
}

// New returns the provider for kind. KindAuto (or "") detects it from the
// process environment.
func New(kind string) (window.Provider, error) {
	if kind == "" || kind == KindAuto {
		kind = Detect(os.Getenv)
		if kind == "" {
			return nil, fmt.Errorf("no supported session found (set %s or DISPLAY)", hyprland.EnvSignature)
		}
	}

	switch kind {
	case KindHyprland:
		p, err := hyprland.New()
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindX11:
		p, err := x11.New("")
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s, %s or %s)", kind, KindAuto, KindHyprland, KindX11)
	}
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
