// Package config provides the chart declaration data structures and the
// Lua parser that produces them.
package config

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"time"

	"github.com/opd-ai/go-chart/internal/axis"
	"github.com/opd-ai/go-chart/internal/data"
	"github.com/opd-ai/go-chart/internal/geom"
	"github.com/opd-ai/go-chart/internal/series"
)

// Config represents a complete chart declaration.
type Config struct {
	// Window contains the window and chart-wide settings.
	Window WindowConfig
	// Sources declares the data sources by name.
	Sources []SourceConfig
	// Axes declares the axes in declaration order.
	Axes []AxisConfig
	// Series declares the data series.
	Series []series.Config
	// Decorations declares titles, legends and reference lines.
	Decorations []DecorationConfig
}

// WindowConfig holds window-related configuration options.
type WindowConfig struct {
	// Width and Height are the initial window size in pixels.
	Width  int
	Height int
	// Title is the chart title. A non-empty title adds a title decoration
	// unless one is declared explicitly.
	Title string
	// Background is the window clear color.
	Background color.RGBA
	// UpdateInterval is the time between ticks in headless mode.
	UpdateInterval time.Duration
	// Padding is kept clear around the chart's edges.
	Padding float64
	// FontSize is the default text size for axis labels.
	FontSize float64
	// Hints contains window manager hints.
	Hints []WindowHint
}

// SourceConfig declares one data source.
type SourceConfig struct {
	Name   string
	File   string
	Sheet  string
	Header bool
	Rows   []data.Item
}

// Spec converts the declaration for the data loader.
func (s SourceConfig) Spec() data.Spec {
	return data.Spec{Name: s.Name, File: s.File, Sheet: s.Sheet, Header: s.Header, Rows: s.Rows}
}

// AxisConfig declares one axis and its view.
type AxisConfig struct {
	Name        string
	Kind        axis.Kind
	Orientation geom.Orientation
	Side        geom.Side
	// Minimum and Maximum fix the limits; NaN leaves them automatic.
	Minimum float64
	Maximum float64
	Ticks   axis.TickMode
	// MaxTicks bounds the nice and log tick modes. Zero uses the default.
	MaxTicks int
	LogBase  float64
	// LabelPath is the default category label path of series on this axis.
	LabelPath string
	// Grid draws grid lines across the series area.
	Grid bool
	// Hidden suppresses the axis view; the axis still maps values.
	Hidden bool
	// Size overrides the depth of the axis view.
	Size float64
}

// DefaultAxisConfig returns an automatic value axis with the given
// orientation on its default side.
func DefaultAxisConfig(name string, o geom.Orientation) AxisConfig {
	side := geom.SideBottom
	if o == geom.Vertical {
		side = geom.SideLeft
	}
	return AxisConfig{
		Name:        name,
		Kind:        axis.Value,
		Orientation: o,
		Side:        side,
		Minimum:     math.NaN(),
		Maximum:     math.NaN(),
	}
}

// DecorationKind selects a decoration.
type DecorationKind int

const (
	// DecorationTitle draws a text title.
	DecorationTitle DecorationKind = iota
	// DecorationLegend lists the series.
	DecorationLegend
	// DecorationReferenceLine marks a fixed value on an axis.
	DecorationReferenceLine
)

// String returns the string representation of a DecorationKind.
func (k DecorationKind) String() string {
	switch k {
	case DecorationTitle:
		return "title"
	case DecorationLegend:
		return "legend"
	case DecorationReferenceLine:
		return "reference_line"
	default:
		return "unknown"
	}
}

// ParseDecorationKind parses a string into a DecorationKind.
func ParseDecorationKind(s string) (DecorationKind, error) {
	switch strings.ToLower(s) {
	case "title":
		return DecorationTitle, nil
	case "legend":
		return DecorationLegend, nil
	case "reference_line", "reference", "rule":
		return DecorationReferenceLine, nil
	default:
		return DecorationTitle, fmt.Errorf("unknown decoration kind: %s", s)
	}
}

// DecorationConfig declares one decoration. Fields that do not apply to
// the kind are ignored.
type DecorationConfig struct {
	Kind DecorationKind
	// Text is the title text.
	Text string
	// Axis and Value place a reference line.
	Axis  string
	Value float64
	// Label annotates a reference line.
	Label    string
	Side     geom.Side
	FontSize float64
	// Size is the depth of a legend strip.
	Size float64
	// Color overrides the default color when its alpha is non-zero.
	Color color.RGBA
}

// WindowHint represents a window manager hint.
type WindowHint int

const (
	// WindowHintUndecorated removes window decorations.
	WindowHintUndecorated WindowHint = iota
	// WindowHintBelow keeps the window below others.
	WindowHintBelow
	// WindowHintAbove keeps the window above others.
	WindowHintAbove
	// WindowHintSticky makes the window visible on all desktops.
	WindowHintSticky
	// WindowHintSkipTaskbar hides the window from the taskbar.
	WindowHintSkipTaskbar
	// WindowHintSkipPager hides the window from the pager.
	WindowHintSkipPager
)

// String returns the string representation of a WindowHint.
func (wh WindowHint) String() string {
	switch wh {
	case WindowHintUndecorated:
		return "undecorated"
	case WindowHintBelow:
		return "below"
	case WindowHintAbove:
		return "above"
	case WindowHintSticky:
		return "sticky"
	case WindowHintSkipTaskbar:
		return "skip_taskbar"
	case WindowHintSkipPager:
		return "skip_pager"
	default:
		return "unknown"
	}
}

// ParseWindowHint parses a string into a WindowHint.
func ParseWindowHint(s string) (WindowHint, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "undecorated":
		return WindowHintUndecorated, nil
	case "below":
		return WindowHintBelow, nil
	case "above":
		return WindowHintAbove, nil
	case "sticky":
		return WindowHintSticky, nil
	case "skip_taskbar":
		return WindowHintSkipTaskbar, nil
	case "skip_pager":
		return WindowHintSkipPager, nil
	default:
		return WindowHintUndecorated, fmt.Errorf("unknown window hint: %s", s)
	}
}

// parseWindowHints parses a comma-separated hint list.
func parseWindowHints(s string) ([]WindowHint, error) {
	var hints []WindowHint
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		h, err := ParseWindowHint(part)
		if err != nil {
			return nil, err
		}
		hints = append(hints, h)
	}
	return hints, nil
}

// HasHint reports whether the window declares hint.
func (wc WindowConfig) HasHint(hint WindowHint) bool {
	for _, h := range wc.Hints {
		if h == hint {
			return true
		}
	}
	return false
}

// Axis returns the declaration of the named axis.
func (c *Config) Axis(name string) (AxisConfig, bool) {
	for _, a := range c.Axes {
		if a.Name == name {
			return a, true
		}
	}
	return AxisConfig{}, false
}

// SourceSpecs returns the loader specs of every declared source.
func (c *Config) SourceSpecs() []data.Spec {
	specs := make([]data.Spec, 0, len(c.Sources))
	for _, s := range c.Sources {
		specs = append(specs, s.Spec())
	}
	return specs
}

// Validate checks the Config with the default validator and returns the
// combined errors, or nil.
func (c *Config) Validate() error {
	return NewValidator().Validate(c).Error()
}
