// Package render hosts charts in an Ebiten window. Surface implements the
// chart's visual layer and draws its elements; Game drives the pipeline
// from Ebiten's update loop.
package render

import (
	"fmt"
	"image/color"
)

// Config holds the rendering configuration options.
type Config struct {
	// Width is the initial window width in pixels.
	Width int
	// Height is the initial window height in pixels.
	Height int
	// Title is the window title.
	Title string
	// BackgroundColor clears the screen every frame. A translucent color
	// enables screen transparency.
	BackgroundColor color.RGBA
	// Resizable lets the user resize the window; the chart relayouts.
	Resizable bool
	// Hints are EWMH window states applied once the window exists.
	Hints Hints
}

// Hints selects window manager states.
type Hints struct {
	Undecorated bool
	Above       bool
	Below       bool
	Sticky      bool
	SkipTaskbar bool
	SkipPager   bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Width:           800,
		Height:          480,
		Title:           "go-chart",
		BackgroundColor: color.RGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff},
		Resizable:       true,
	}
}

// Validate checks if the Config has valid values.
// Returns an error if Width or Height are not positive.
func (c Config) Validate() error {
	if c.Width <= 0 {
		return fmt.Errorf("width must be positive, got %d", c.Width)
	}
	if c.Height <= 0 {
		return fmt.Errorf("height must be positive, got %d", c.Height)
	}
	return nil
}

// Transparent reports whether the background lets the desktop through.
func (c Config) Transparent() bool {
	return c.BackgroundColor.A < 0xff
}

// Any reports whether any hint needs the window manager.
func (h Hints) Any() bool {
	return h.Above || h.Below || h.Sticky || h.SkipTaskbar || h.SkipPager
}

// stateAtoms returns the _NET_WM_STATE atom names h requests. Undecorated
// is handled by Ebiten and has no state atom.
func (h Hints) stateAtoms() []string {
	var names []string
	for _, s := range []struct {
		on   bool
		name string
	}{
		{h.Above, "_NET_WM_STATE_ABOVE"},
		{h.Below, "_NET_WM_STATE_BELOW"},
		{h.Sticky, "_NET_WM_STATE_STICKY"},
		{h.SkipTaskbar, "_NET_WM_STATE_SKIP_TASKBAR"},
		{h.SkipPager, "_NET_WM_STATE_SKIP_PAGER"},
	} {
		if s.on {
			names = append(names, s.name)
		}
	}
	return names
}
