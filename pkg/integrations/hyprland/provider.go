// Package hyprland reads the focused window from Hyprland's IPC socket.
package hyprland

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/actionsum/ctvtcntr/pkg/window"
)

const (
	// EnvSignature names the running Hyprland instance.
	EnvSignature = "HYPRLAND_INSTANCE_SIGNATURE"
	// EnvRuntimeDir holds the per-user runtime directory.
	EnvRuntimeDir = "XDG_RUNTIME_DIR"

	socketName     = ".socket.sock"
	requestTimeout = 2 * time.Second
)

// SocketPath returns the request socket for the running instance, or an
// error naming the missing variable.
func SocketPath(getenv func(string) string) (string, error) {
	runtimeDir := getenv(EnvRuntimeDir)
	if runtimeDir == "" {
		return "", fmt.Errorf("%s is not set", EnvRuntimeDir)
	}
	signature := getenv(EnvSignature)
	if signature == "" {
		return "", fmt.Errorf("%s is not set", EnvSignature)
	}

	path := filepath.Join(runtimeDir, "hypr", signature, socketName)
	return path, nil
}

// Available reports whether the environment points at a Hyprland session.
func Available(getenv func(string) string) bool {
	_, err := SocketPath(getenv)
	return err == nil
}

type Provider struct {
	socket string
	dialer net.Dialer
}

// New returns a provider for the instance described by the environment.
func New() (*Provider, error) {
	socket, err := SocketPath(os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("hyprland: %w", err)
	}
	return NewWithSocket(socket), nil
}

// NewWithSocket returns a provider talking to socket.
func NewWithSocket(socket string) *Provider {
	return &Provider{socket: socket}
}

func (p *Provider) Name() string {
	return "hyprland"
}

// Socket returns the socket path the provider talks to.
func (p *Provider) Socket() string {
	return p.socket
}

// ActiveWindow sends "j/activewindow" over a fresh connection; Hyprland
// closes the socket after each reply.
func (p *Provider) ActiveWindow(ctx context.Context) (*window.Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "unix", p.socket)
	if err != nil {
		return nil, fmt.Errorf("hyprland: dial %s: %w", p.socket, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if _, err := io.WriteString(conn, "j/activewindow"); err != nil {
		return nil, fmt.Errorf("hyprland: write request: %w", err)
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("hyprland: read reply: %w", err)
	}

	return ParseActiveWindow(reply)
}

func (p *Provider) Close() error {
	return nil
}

type activeWindow struct {
	Class        string `json:"class"`
	Title        string `json:"title"`
	InitialClass string `json:"initialClass"`
	InitialTitle string `json:"initialTitle"`
	PID          int    `json:"pid"`
}

// ParseActiveWindow decodes an activewindow reply. An empty object means no
// window has focus.
func ParseActiveWindow(reply []byte) (*window.Observation, error) {
	reply = bytes.TrimSpace(reply)
	if len(reply) == 0 || bytes.Equal(reply, []byte("{}")) {
		return nil, nil
	}

	var aw activeWindow
	if err := json.Unmarshal(reply, &aw); err != nil {
		return nil, fmt.Errorf("hyprland: decode activewindow: %w", err)
	}

	if aw.Class == "" && aw.Title == "" && aw.InitialClass == "" && aw.InitialTitle == "" {
		return nil, nil
	}

	return &window.Observation{
		Title:        aw.Title,
		Class:        aw.Class,
		InitialTitle: aw.InitialTitle,
		InitialClass: aw.InitialClass,
		PID:          aw.PID,
	}, nil
}
