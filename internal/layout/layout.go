// Package layout divides the chart's bounding rectangle between the
// components that claim space on its edges and hands every component a
// RenderContext describing where it draws.
package layout

import (
	"fmt"
	"math"

	"github.com/opd-ai/go-chart/internal/geom"
)

// PassKind tells a component which kind of pass is running.
type PassKind int

const (
	// Full re-derives axis limits and geometry from raw data.
	Full PassKind = iota
	// TransformsOnly re-applies coordinate transforms after a size change.
	TransformsOnly
	// Incremental applies positional Add/Remove updates.
	Incremental
	// Component re-renders a single component.
	Component
)

// String returns the pass name used in logs and metrics.
func (k PassKind) String() string {
	switch k {
	case Full:
		return "full"
	case TransformsOnly:
		return "transforms"
	case Incremental:
		return "incremental"
	case Component:
		return "component"
	default:
		return fmt.Sprintf("pass(%d)", int(k))
	}
}

type claim struct {
	side geom.Side
	rect geom.Rect
}

// Context holds the layout state for one pass: the claimed rectangle per
// component slot, the remaining series area and the render-context cache.
// A Context is built fresh for every full and transforms-only pass.
type Context struct {
	Dimensions geom.Size
	Pass       PassKind
	Padding    float64

	remaining geom.Rect
	claims    map[int]claim
	order     []int
	finalized bool
	cache     map[int]RenderContext
}

// NewContext returns an initialized Context.
func NewContext(dimensions geom.Size, padding float64, pass PassKind) *Context {
	c := &Context{Padding: padding}
	c.Initialize(dimensions, pass)
	return c
}

// Initialize discards every claim and cached render context and starts a
// new layout over dimensions.
func (c *Context) Initialize(dimensions geom.Size, pass PassKind) {
	c.Dimensions = dimensions
	c.Pass = pass
	c.remaining = geom.RectFromSize(dimensions).Inset(c.Padding)
	c.claims = make(map[int]claim)
	c.order = c.order[:0]
	c.finalized = false
	c.cache = make(map[int]RenderContext)
}

// ClaimSpace carves amount device units off the given side of the
// remaining rectangle for the component in slot. The claim is clamped to
// what remains. A second claim by the same slot is carved in addition and
// replaces the slot's rectangle.
func (c *Context) ClaimSpace(slot int, side geom.Side, amount float64) geom.Rect {
	if amount < 0 || math.IsNaN(amount) {
		amount = 0
	}
	r := c.remaining
	var out geom.Rect
	switch side {
	case geom.SideLeft:
		amount = min(amount, r.W)
		out = geom.Rect{X: r.X, Y: r.Y, W: amount, H: r.H}
		c.remaining.X += amount
		c.remaining.W -= amount
	case geom.SideRight:
		amount = min(amount, r.W)
		out = geom.Rect{X: r.Right() - amount, Y: r.Y, W: amount, H: r.H}
		c.remaining.W -= amount
	case geom.SideTop:
		amount = min(amount, r.H)
		out = geom.Rect{X: r.X, Y: r.Y, W: r.W, H: amount}
		c.remaining.Y += amount
		c.remaining.H -= amount
	default:
		amount = min(amount, r.H)
		out = geom.Rect{X: r.X, Y: r.Bottom() - amount, W: r.W, H: amount}
		c.remaining.H -= amount
	}
	if _, ok := c.claims[slot]; !ok {
		c.order = append(c.order, slot)
	}
	c.claims[slot] = claim{side: side, rect: out}
	return out
}

// Remaining returns the area not yet claimed by any component.
func (c *Context) Remaining() geom.Rect { return c.remaining }

// FinalizeRects aligns every claim with the final remaining area along
// its edge so that axis strips line up with the series area. Claims made
// early would otherwise extend over space claimed later on the
// perpendicular edges.
func (c *Context) FinalizeRects() {
	r := c.remaining
	for _, slot := range c.order {
		cl := c.claims[slot]
		if cl.side.Horizontal() {
			cl.rect.X, cl.rect.W = r.X, r.W
		} else {
			cl.rect.Y, cl.rect.H = r.Y, r.H
		}
		c.claims[slot] = cl
	}
	c.finalized = true
	clear(c.cache)
}

// Finalized reports whether FinalizeRects ran since Initialize.
func (c *Context) Finalized() bool { return c.finalized }

// Claimed returns the rectangle claimed by slot.
func (c *Context) Claimed(slot int) (geom.Rect, bool) {
	cl, ok := c.claims[slot]
	return cl.rect, ok
}

// SeriesArea returns the area left for series once every claim is made.
func (c *Context) SeriesArea() geom.Rect { return c.remaining }

// RenderContext returns the cached render context for slot, building it
// on first use. Components without a claim get the series area as their
// Area.
func (c *Context) RenderContext(slot int) RenderContext {
	if rc, ok := c.cache[slot]; ok {
		return rc
	}
	area := c.remaining
	if cl, ok := c.claims[slot]; ok {
		area = cl.rect
	}
	rc := RenderContext{
		Slot:       slot,
		Dimensions: c.Dimensions,
		Area:       area,
		SeriesArea: c.remaining,
		Pass:       c.Pass,
	}
	c.cache[slot] = rc
	return rc
}

// Forget drops the claim and cached context of a detached slot so a new
// component reusing the slot never sees stale geometry.
func (c *Context) Forget(slot int) {
	delete(c.claims, slot)
	delete(c.cache, slot)
	for i, s := range c.order {
		if s == slot {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// RenderContext is the per-component snapshot a component renders with.
type RenderContext struct {
	Slot       int
	Dimensions geom.Size
	// Area is the rectangle the component claimed, or the series area.
	Area       geom.Rect
	SeriesArea geom.Rect
	Pass       PassKind
}

// WithPass returns a copy of rc for a different pass kind.
func (rc RenderContext) WithPass(kind PassKind) RenderContext {
	rc.Pass = kind
	return rc
}
