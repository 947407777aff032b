//go:build linux

package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// x11 is a short-lived connection to the X server with an atom cache.
type x11 struct {
	conn   *xgb.Conn
	root   xproto.Window
	screen int
	atoms  map[string]xproto.Atom
}

func dialX11() (*x11, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, err
	}
	setup := xproto.Setup(conn)
	if conn.DefaultScreen >= len(setup.Roots) {
		conn.Close()
		return nil, errors.New("x11: no root window for the default screen")
	}
	return &x11{
		conn:   conn,
		root:   setup.Roots[conn.DefaultScreen].Root,
		screen: conn.DefaultScreen,
		atoms:  make(map[string]xproto.Atom),
	}, nil
}

func (x *x11) Close() { x.conn.Close() }

func (x *x11) atom(name string) (xproto.Atom, error) {
	if a, ok := x.atoms[name]; ok {
		return a, nil
	}
	reply, err := xproto.InternAtom(x.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern %s: %w", name, err)
	}
	x.atoms[name] = reply.Atom
	return reply.Atom, nil
}

// list32 reads a property holding 32-bit values.
func (x *x11) list32(w xproto.Window, prop string, typ xproto.Atom) ([]uint32, error) {
	p, err := x.atom(prop)
	if err != nil {
		return nil, err
	}
	reply, err := xproto.GetProperty(x.conn, false, w, p, typ, 0, 1024).Reply()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, 0, len(reply.Value)/4)
	for i := 0; i+4 <= len(reply.Value); i += 4 {
		out = append(out, xgb.Get32(reply.Value[i:]))
	}
	return out, nil
}

func (x *x11) windowName(w xproto.Window) string {
	if name, err := x.atom("_NET_WM_NAME"); err == nil {
		if utf8, err := x.atom("UTF8_STRING"); err == nil {
			r, err := xproto.GetProperty(x.conn, false, w, name, utf8, 0, 256).Reply()
			if err == nil && len(r.Value) > 0 {
				return string(r.Value)
			}
		}
	}
	r, err := xproto.GetProperty(x.conn, false, w, xproto.AtomWmName, xproto.AtomString, 0, 256).Reply()
	if err != nil {
		return ""
	}
	return string(r.Value)
}

// findWindow returns the managed window titled title. Without a match it
// falls back to the active window, then to the input focus.
func (x *x11) findWindow(title string) xproto.Window {
	if title != "" {
		if clients, err := x.list32(x.root, "_NET_CLIENT_LIST", xproto.AtomWindow); err == nil {
			for _, c := range clients {
				if w := xproto.Window(c); x.windowName(w) == title {
					return w
				}
			}
		}
	}
	if active, err := x.list32(x.root, "_NET_ACTIVE_WINDOW", xproto.AtomWindow); err == nil && len(active) > 0 && active[0] != 0 {
		return xproto.Window(active[0])
	}
	if focus, err := xproto.GetInputFocus(x.conn).Reply(); err == nil {
		return focus.Focus
	}
	return xproto.WindowNone
}

// addStates merges names into the window's _NET_WM_STATE property and asks
// the window manager to apply them to the mapped window.
func (x *x11) addStates(w xproto.Window, names []string) error {
	state, err := x.atom("_NET_WM_STATE")
	if err != nil {
		return err
	}
	add := make([]xproto.Atom, 0, len(names))
	for _, n := range names {
		a, err := x.atom(n)
		if err != nil {
			return err
		}
		add = append(add, a)
	}

	cur, _ := x.list32(w, "_NET_WM_STATE", xproto.AtomAtom)
	merged := mergeAtoms(cur, add)
	data := make([]byte, 4*len(merged))
	for i, a := range merged {
		xgb.Put32(data[4*i:], uint32(a))
	}
	if err := xproto.ChangePropertyChecked(x.conn, xproto.PropModeReplace, w,
		state, xproto.AtomAtom, 32, uint32(len(merged)), data).Check(); err != nil {
		return fmt.Errorf("set _NET_WM_STATE: %w", err)
	}

	// A client message carries at most two states.
	const netWMStateAdd = 1
	for i := 0; i < len(add); i += 2 {
		var second uint32
		if i+1 < len(add) {
			second = uint32(add[i+1])
		}
		ev := xproto.ClientMessageEvent{
			Format: 32,
			Window: w,
			Type:   state,
			Data:   xproto.ClientMessageDataUnionData32New([]uint32{netWMStateAdd, uint32(add[i]), second, 1, 0}),
		}
		xproto.SendEvent(x.conn, false, x.root,
			xproto.EventMaskSubstructureNotify|xproto.EventMaskSubstructureRedirect, string(ev.Bytes()))
	}
	return nil
}

// mergeAtoms appends the atoms of add missing from cur, keeping order.
func mergeAtoms(cur []uint32, add []xproto.Atom) []xproto.Atom {
	out := make([]xproto.Atom, 0, len(cur)+len(add))
	for _, a := range cur {
		out = append(out, xproto.Atom(a))
	}
	for _, a := range add {
		if !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}

// ApplyWindowHints adds the EWMH states h requests to the chart window
// titled title. Without an X server it does nothing.
func ApplyWindowHints(title string, h Hints) error {
	if !h.Any() {
		return nil
	}
	x, err := dialX11()
	if err != nil {
		return nil
	}
	defer x.Close()
	w := x.findWindow(title)
	if w == xproto.WindowNone {
		return nil
	}
	return x.addStates(w, h.stateAtoms())
}

// DetectCompositor reports whether the desktop composites translucent
// windows. Wayland sessions always do. On X11 the owner of
// _NET_WM_CM_S<screen> decides; without a connection, known compositor
// processes are looked up instead.
func DetectCompositor() CompositorStatus {
	if waylandSession() {
		return CompositorActive
	}
	x, err := dialX11()
	if err != nil {
		return compositorProcess("/proc")
	}
	defer x.Close()

	sel, err := x.atom(fmt.Sprintf("_NET_WM_CM_S%d", x.screen))
	if err != nil {
		return CompositorUnknown
	}
	owner, err := xproto.GetSelectionOwner(x.conn, sel).Reply()
	if err != nil {
		return CompositorUnknown
	}
	if owner.Owner != xproto.WindowNone {
		return CompositorActive
	}
	return CompositorInactive
}

func waylandSession() bool {
	return strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland") || os.Getenv("WAYLAND_DISPLAY") != ""
}

var knownCompositors = []string{
	"picom", "compton", "compiz", "mutter", "kwin_x11", "xfwm4", "marco", "muffin",
}

// compositorProcess scans procRoot/<pid>/comm for a known compositor.
func compositorProcess(procRoot string) CompositorStatus {
	comms, err := filepath.Glob(filepath.Join(procRoot, "[0-9]*", "comm"))
	if err != nil || len(comms) == 0 {
		return CompositorUnknown
	}
	for _, path := range comms {
		b, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if slices.Contains(knownCompositors, strings.TrimSpace(string(b))) {
			return CompositorActive
		}
	}
	return CompositorInactive
}
