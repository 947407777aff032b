// Package visual defines the retained visual elements a chart produces and
// the Layer contract of the host that displays them.
//
// Elements keep their geometry in model space together with the matrix
// that maps it into device space, so a transforms-only pass only has to
// replace matrices.
package visual

import (
	"math"

	"github.com/opd-ai/go-chart/internal/geom"
	"github.com/opd-ai/go-chart/internal/transform"
)

// Base carries the state every element shares.
type Base struct {
	Style     Style
	Transform transform.Matrix
	Hidden    bool
	// Z orders drawing; lower values are drawn first.
	Z int
	// Owner is the component slot that created the element.
	Owner int
}

// Node returns the shared element state.
func (b *Base) Node() *Base { return b }

// Element is implemented by every visual element type.
type Element interface {
	Node() *Base
}

// Path is a polyline or polygon. Line series and area fills use it.
type Path struct {
	Base
	Points []geom.Point
	Closed bool
	Filled bool
}

// NewPath returns an empty path with an identity transform.
func NewPath() *Path {
	return &Path{Base: Base{Transform: transform.Identity(), Style: DefaultStyle()}}
}

// DevicePoints returns the path's points in device space. Points with a
// NaN coordinate are returned as breaks (NaN) so gaps survive.
func (p *Path) DevicePoints() []geom.Point {
	out := make([]geom.Point, len(p.Points))
	for i, pt := range p.Points {
		if math.IsNaN(pt.X) || math.IsNaN(pt.Y) {
			out[i] = geom.Point{X: math.NaN(), Y: math.NaN()}
			continue
		}
		out[i] = p.Transform.Apply(pt)
	}
	return out
}

// Rect is a filled rectangle, used for columns and heatmap cells.
type Rect struct {
	Base
	Rect geom.Rect
}

// NewRect returns a zero rectangle with an identity transform.
func NewRect() *Rect {
	return &Rect{Base: Base{Transform: transform.Identity(), Style: DefaultStyle()}}
}

// Device returns the rectangle in device space.
func (r *Rect) Device() geom.Rect { return r.Transform.ApplyRect(r.Rect) }

// MarkerShape selects the glyph a Marker draws.
type MarkerShape int

const (
	// Circle markers.
	Circle MarkerShape = iota
	// Square markers.
	Square
	// Diamond markers.
	Diamond
)

// Marker is a fixed-size glyph placed at a model-space point. Only the
// position is transformed; Size is in device units.
type Marker struct {
	Base
	Center geom.Point
	Size   float64
	Shape  MarkerShape
}

// NewMarker returns a circle marker of the given device size.
func NewMarker(size float64) *Marker {
	return &Marker{Base: Base{Transform: transform.Identity(), Style: DefaultStyle()}, Size: size}
}

// DeviceCenter returns the marker position in device space.
func (m *Marker) DeviceCenter() geom.Point { return m.Transform.Apply(m.Center) }

// Anchor positions a text label relative to its point.
type Anchor int

const (
	// AnchorStart places the text to the right of the point.
	AnchorStart Anchor = iota
	// AnchorMiddle centers the text horizontally on the point.
	AnchorMiddle
	// AnchorEnd places the text to the left of the point.
	AnchorEnd
)

// Text is a label anchored at a model-space point.
type Text struct {
	Base
	Text   string
	At     geom.Point
	Anchor Anchor
	// Baseline centers the text vertically on the point when false.
	Baseline bool
}

// NewText returns a text element.
func NewText(s string) *Text {
	return &Text{Base: Base{Transform: transform.Identity(), Style: DefaultStyle()}, Text: s}
}

// DeviceAt returns the anchor point in device space.
func (t *Text) DeviceAt() geom.Point { return t.Transform.Apply(t.At) }

// Line is a single segment: tick marks, grid lines, reference lines.
type Line struct {
	Base
	From, To geom.Point
}

// NewLine returns a zero-length line.
func NewLine() *Line {
	return &Line{Base: Base{Transform: transform.Identity(), Style: DefaultStyle()}}
}

// Device returns the endpoints in device space.
func (l *Line) Device() (geom.Point, geom.Point) {
	return l.Transform.Apply(l.From), l.Transform.Apply(l.To)
}

// Candle is an open/high/low/close glyph centered on X with a body of
// Width, all in model space.
type Candle struct {
	Base
	X, Width               float64
	Open, High, Low, Close float64
}

// NewCandle returns an empty candle.
func NewCandle() *Candle {
	return &Candle{Base: Base{Transform: transform.Identity(), Style: DefaultStyle()}}
}

// Rising reports whether the close is above the open.
func (c *Candle) Rising() bool { return c.Close >= c.Open }

// DeviceBody returns the body rectangle in device space.
func (c *Candle) DeviceBody() geom.Rect {
	lo, hi := math.Min(c.Open, c.Close), math.Max(c.Open, c.Close)
	return c.Transform.ApplyRect(geom.Rect{X: c.X - c.Width/2, Y: lo, W: c.Width, H: hi - lo})
}

// DeviceWick returns the high-low segment in device space.
func (c *Candle) DeviceWick() (geom.Point, geom.Point) {
	return c.Transform.Apply(geom.Point{X: c.X, Y: c.High}), c.Transform.Apply(geom.Point{X: c.X, Y: c.Low})
}

// Wedge is a pie or donut slice. Center and radii are in device units
// relative to the transform; angles are radians clockwise from twelve
// o'clock.
type Wedge struct {
	Base
	Center        geom.Point
	Radius, Inner float64
	Start, Sweep  float64
}

// NewWedge returns an empty wedge.
func NewWedge() *Wedge {
	return &Wedge{Base: Base{Transform: transform.Identity(), Style: DefaultStyle()}}
}

// Outline returns the wedge boundary in device space, approximating the
// arcs with segments no longer than step radians.
func (w *Wedge) Outline(step float64) []geom.Point {
	if step <= 0 {
		step = math.Pi / 90
	}
	n := int(math.Ceil(math.Abs(w.Sweep)/step)) + 1
	arc := func(r, from, sweep float64) []geom.Point {
		pts := make([]geom.Point, 0, n)
		for i := 0; i < n; i++ {
			a := from + sweep*float64(i)/float64(n-1)
			pts = append(pts, geom.Point{X: w.Center.X + r*math.Sin(a), Y: w.Center.Y - r*math.Cos(a)})
		}
		return pts
	}
	var pts []geom.Point
	pts = append(pts, arc(w.Radius, w.Start, w.Sweep)...)
	if w.Inner > 0 {
		pts = append(pts, arc(w.Inner, w.Start+w.Sweep, -w.Sweep)...)
	} else {
		pts = append(pts, w.Center)
	}
	for i, p := range pts {
		pts[i] = w.Transform.Apply(p)
	}
	return pts
}

// Mid returns the point halfway along the wedge's angular span at the
// given radius, in device space. Legends and labels anchor on it.
func (w *Wedge) Mid(radius float64) geom.Point {
	a := w.Start + w.Sweep/2
	return w.Transform.Apply(geom.Point{X: w.Center.X + radius*math.Sin(a), Y: w.Center.Y - radius*math.Cos(a)})
}
