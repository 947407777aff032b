package series

import (
	"fmt"
	"image/color"
	"math"

	"github.com/opd-ai/go-chart/internal/visual"
)

// Kind selects how a series draws its items.
type Kind int

const (
	// Line draws one polyline per channel with optional markers and area
	// fill.
	Line Kind = iota
	// Column draws grouped bars, one per channel within each cell.
	Column
	// Scatter draws one marker per item.
	Scatter
	// Candlestick draws open/high/low/close glyphs.
	Candlestick
	// Heatmap draws one colored cell per item at (category, row).
	Heatmap
	// Pie draws wedges proportional to the values. It uses no axes.
	Pie
)

var kindNames = map[Kind]string{
	Line:        "line",
	Column:      "column",
	Scatter:     "marker",
	Candlestick: "candlestick",
	Heatmap:     "heatmap",
	Pie:         "pie",
}

// String returns the configuration name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses a series kind name.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "line", "":
		return Line, nil
	case "column", "bar":
		return Column, nil
	case "marker", "scatter":
		return Scatter, nil
	case "candlestick", "ohlc":
		return Candlestick, nil
	case "heatmap":
		return Heatmap, nil
	case "pie", "donut":
		return Pie, nil
	default:
		return Line, fmt.Errorf("unknown series kind: %s", s)
	}
}

// Config declares a series.
type Config struct {
	Name   string
	Kind   Kind
	Source string
	XAxis  string
	YAxis  string

	// XPath reads the x value. Empty, or a category x axis, makes the
	// series index-driven.
	XPath string
	// LabelPath reads the category label cached on the x axis.
	LabelPath string
	// ValuePaths read the values; each path is one channel.
	ValuePaths []string
	// OpenPath, HighPath, LowPath and ClosePath are used by candlesticks.
	OpenPath, HighPath, LowPath, ClosePath string
	// RowPath reads the heatmap row.
	RowPath string

	// Colors holds one color per channel; the palette fills the rest.
	Colors      []color.RGBA
	StrokeWidth float32
	// MarkerSize is the device size of line and scatter markers. Zero hides
	// line markers.
	MarkerSize float64
	// Area fills the region between a line and the baseline.
	Area bool
	// Baseline anchors columns and area fills. NaN anchors at zero, or at
	// the axis minimum when zero is outside the axis.
	Baseline float64
	// BarWidth is the share of a cell the column group covers.
	BarWidth float64
	// RampLow and RampHigh color the lowest and highest heatmap values.
	RampLow, RampHigh color.RGBA
	// InnerRadius turns a pie into a donut, as a share of the radius.
	InnerRadius float64
	Z           int
}

// DefaultConfig returns a line series configuration with default styling.
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		Kind:        Line,
		StrokeWidth: 2,
		Baseline:    math.NaN(),
		BarWidth:    0.8,
		RampLow:     color.RGBA{R: 0x20, G: 0x30, B: 0x80, A: 0xff},
		RampHigh:    color.RGBA{R: 0xf0, G: 0xd0, B: 0x30, A: 0xff},
	}
}

// ChannelName names a channel in legends.
func (c Config) ChannelName(channel int) string {
	if len(c.ValuePaths) <= 1 || channel >= len(c.ValuePaths) {
		return c.Name
	}
	return c.Name + " " + c.ValuePaths[channel]
}

// ChannelColor returns the color of a channel.
func (c Config) ChannelColor(channel int) color.RGBA {
	if channel < len(c.Colors) {
		return c.Colors[channel]
	}
	return visual.PaletteColor(channel)
}
