package x11

import (
	"encoding/binary"
	"errors"
	"strings"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

var errNoActiveWindow = errors.New("x11: no active window")

var atomNames = []string{
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_NAME",
	"_NET_WM_PID",
	"WM_NAME",
	"WM_CLASS",
	"UTF8_STRING",
}

// client is one connection to the X server with the atoms the provider
// needs already interned.
type client struct {
	conn  *xgb.Conn
	root  xproto.Window
	atoms map[string]xproto.Atom
}

func dial(display string) (*client, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, err
	}

	setup := xproto.Setup(conn)
	c := &client{
		conn:  conn,
		root:  setup.DefaultScreen(conn).Root,
		atoms: make(map[string]xproto.Atom, len(atomNames)),
	}

	for _, name := range atomNames {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			conn.Close()
			return nil, err
		}
		c.atoms[name] = reply.Atom
	}

	return c, nil
}

func (c *client) close() {
	c.conn.Close()
}

func (c *client) property(w xproto.Window, atom, typ xproto.Atom, length uint32) ([]byte, error) {
	reply, err := xproto.GetProperty(c.conn, false, w, atom, typ, 0, length).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (c *client) activeFromProperty() (xproto.Window, error) {
	data, err := c.property(c.root, c.atoms["_NET_ACTIVE_WINDOW"], xproto.AtomWindow, 1)
	if err != nil {
		return 0, err
	}
	return xproto.Window(decodeCardinal(data)), nil
}

func (c *client) activeFromInputFocus() (xproto.Window, error) {
	reply, err := xproto.GetInputFocus(c.conn).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Focus, nil
}

func (c *client) topLevel(w xproto.Window) xproto.Window {
	for {
		reply, err := xproto.QueryTree(c.conn, w).Reply()
		if err != nil || reply.Parent == c.root || reply.Parent == 0 {
			return w
		}
		w = reply.Parent
	}
}

func (c *client) hasName(w xproto.Window) bool {
	return c.name(w, 1) != ""
}

// activeWindow asks the window manager first and falls back to the input
// focus. Right after a switch the new window may not have its name set yet,
// so a few short retries are made. X protocol errors, such as a window
// destroyed between two requests, count as no window; any other error means
// the connection is unusable and is returned.
func (c *client) activeWindow() (xproto.Window, error) {
	for i := 0; i < 3; i++ {
		w, err := c.activeFromProperty()
		if err != nil && !isProtocolError(err) {
			return 0, err
		}
		if err == nil && w != 0 && c.hasName(w) {
			return w, nil
		}

		w, err = c.activeFromInputFocus()
		if err != nil && !isProtocolError(err) {
			return 0, err
		}
		if err == nil && w != 0 && w != c.root {
			if top := c.topLevel(w); top != 0 && c.hasName(top) {
				return top, nil
			}
		}

		time.Sleep(20 * time.Millisecond)
	}
	return 0, errNoActiveWindow
}

// isProtocolError reports whether err is an error reply from the server
// rather than a failure of the connection itself.
func isProtocolError(err error) bool {
	var xerr xgb.Error
	return errors.As(err, &xerr)
}

func (c *client) name(w xproto.Window, length uint32) string {
	data, err := c.property(w, c.atoms["_NET_WM_NAME"], c.atoms["UTF8_STRING"], length)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}

	data, err = c.property(w, c.atoms["WM_NAME"], xproto.AtomString, length)
	if err == nil && len(data) > 0 {
		return strings.TrimRight(string(data), "\x00")
	}
	return ""
}

func (c *client) class(w xproto.Window) (instance, class string) {
	data, err := c.property(w, c.atoms["WM_CLASS"], xproto.AtomString, 256)
	if err != nil {
		return "", ""
	}
	return parseWMClass(data)
}

func (c *client) pid(w xproto.Window) int {
	data, err := c.property(w, c.atoms["_NET_WM_PID"], xproto.AtomCardinal, 1)
	if err != nil {
		return 0
	}
	return int(decodeCardinal(data))
}

// parseWMClass splits a WM_CLASS value, two NUL-terminated strings holding
// the instance and the class.
func parseWMClass(data []byte) (instance, class string) {
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	if len(parts) >= 1 {
		instance = parts[0]
	}
	if len(parts) >= 2 {
		class = parts[1]
	}
	return instance, class
}

// decodeCardinal reads a 32-bit property value. X servers reply in the
// client's byte order, which xgb always negotiates as little-endian.
func decodeCardinal(data []byte) uint32 {
	if len(data) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(data)
}
