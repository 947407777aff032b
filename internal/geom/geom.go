// Package geom provides the small geometric vocabulary shared by the chart
// packages: points, sizes, rectangles, extents, sides and orientations.
package geom

import (
	"fmt"
	"math"
)

// Point is a position in some 2D coordinate space.
type Point struct {
	X, Y float64
}

// Size is a width/height pair in device units.
type Size struct {
	W, H float64
}

// Empty reports whether the size has no positive area.
func (s Size) Empty() bool {
	return !(s.W > 0 && s.H > 0)
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X, Y float64
	W, H float64
}

// RectFromSize returns a rectangle anchored at the origin with the given size.
func RectFromSize(s Size) Rect {
	return Rect{W: s.W, H: s.H}
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Empty reports whether the rectangle has no positive area.
func (r Rect) Empty() bool {
	return !(r.W > 0 && r.H > 0)
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Inset shrinks the rectangle by d on every side. The result never has a
// negative width or height.
func (r Rect) Inset(d float64) Rect {
	out := Rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
	if out.W < 0 {
		out.X, out.W = r.X+r.W/2, 0
	}
	if out.H < 0 {
		out.Y, out.H = r.Y+r.H/2, 0
	}
	return out
}

// String implements fmt.Stringer.
func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g %gx%g)", r.X, r.Y, r.W, r.H)
}

// Extent is a closed numeric interval. Either bound may be NaN when unset.
type Extent struct {
	Min, Max float64
}

// Range returns Max-Min.
func (e Extent) Range() float64 { return e.Max - e.Min }

// Valid reports whether both bounds are finite and Min <= Max.
func (e Extent) Valid() bool {
	return !math.IsNaN(e.Min) && !math.IsNaN(e.Max) &&
		!math.IsInf(e.Min, 0) && !math.IsInf(e.Max, 0) && e.Min <= e.Max
}

// Side identifies an edge of a rectangle.
type Side int

const (
	// SideLeft is the left edge.
	SideLeft Side = iota
	// SideTop is the top edge.
	SideTop
	// SideRight is the right edge.
	SideRight
	// SideBottom is the bottom edge.
	SideBottom
)

// String returns the configuration name of the side.
func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideTop:
		return "top"
	case SideRight:
		return "right"
	case SideBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// ParseSide parses a side name.
func ParseSide(s string) (Side, error) {
	switch s {
	case "left":
		return SideLeft, nil
	case "top":
		return SideTop, nil
	case "right":
		return SideRight, nil
	case "bottom", "":
		return SideBottom, nil
	default:
		return SideBottom, fmt.Errorf("unknown side: %s", s)
	}
}

// Horizontal reports whether the side is the top or bottom edge.
func (s Side) Horizontal() bool {
	return s == SideTop || s == SideBottom
}

// Orientation is the direction an axis runs in device space.
type Orientation int

const (
	// Horizontal axes run left to right.
	Horizontal Orientation = iota
	// Vertical axes run bottom to top.
	Vertical
)

// String returns the configuration name of the orientation.
func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// ParseOrientation parses an orientation name.
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "horizontal", "":
		return Horizontal, nil
	case "vertical":
		return Vertical, nil
	default:
		return Horizontal, fmt.Errorf("unknown orientation: %s", s)
	}
}
