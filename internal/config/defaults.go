package config

import (
	"image/color"
	"time"
)

// Default values for configuration options.
const (
	// DefaultUpdateInterval is the default time between headless ticks.
	DefaultUpdateInterval = 500 * time.Millisecond
	// DefaultWidth is the default window width in pixels.
	DefaultWidth = 800
	// DefaultHeight is the default window height in pixels.
	DefaultHeight = 480
	// DefaultPadding is the default chart padding in pixels.
	DefaultPadding = 8.0
	// DefaultFontSize is the default label size in pixels.
	DefaultFontSize = 12.0
)

// DefaultBackground is the default window clear color.
var DefaultBackground = color.RGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff}

// DefaultConfig returns a Config with default window settings and no
// sources, axes or series.
func DefaultConfig() Config {
	return Config{
		Window: DefaultWindowConfig(),
	}
}

// DefaultWindowConfig returns a WindowConfig with default values.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:          DefaultWidth,
		Height:         DefaultHeight,
		Background:     DefaultBackground,
		UpdateInterval: DefaultUpdateInterval,
		Padding:        DefaultPadding,
		FontSize:       DefaultFontSize,
	}
}
