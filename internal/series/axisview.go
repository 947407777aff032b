package series

import (
	"fmt"
	"image/color"
	"math"

	"github.com/opd-ai/go-chart/internal/axis"
	"github.com/opd-ai/go-chart/internal/geom"
	"github.com/opd-ai/go-chart/internal/layout"
	"github.com/opd-ai/go-chart/internal/pipeline"
	"github.com/opd-ai/go-chart/internal/recycler"
	"github.com/opd-ai/go-chart/internal/transform"
	"github.com/opd-ai/go-chart/internal/visual"
)

const (
	tickLength   = 5
	labelGap     = 8
	labelSpacing = 40 // minimum device distance between horizontal labels
	labelHeight  = 18
)

// AxisView draws the tick marks, tick labels and optional grid lines of
// one axis on the side the axis declares.
//
// Tick geometry is expressed as (along, across): along is the tick value
// in axis space, across a device offset from the claimed area's origin.
type AxisView struct {
	axisName string
	// Size is the depth of the claimed strip. Zero picks a default for the
	// axis orientation.
	Size float64
	// Grid draws a line across the series area at every tick.
	Grid      bool
	Color     color.RGBA
	GridColor color.RGBA

	host  pipeline.Host
	axis  *axis.Axis
	ticks []float64

	marks  []visual.Element
	labels []visual.Element
	grid   []visual.Element
}

// NewAxisView returns a view of the named axis.
func NewAxisView(axisName string) *AxisView {
	return &AxisView{
		axisName:  axisName,
		Color:     color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff},
		GridColor: color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0x80},
	}
}

func (v *AxisView) Name() string { return "axis:" + v.axisName }

// AxisName implements pipeline.AxisRenderer.
func (v *AxisView) AxisName() string { return v.axisName }

// Ticks returns the tick values of the last render.
func (v *AxisView) Ticks() []float64 { return v.ticks }

// Labels returns the label elements of the last render.
func (v *AxisView) Labels() []*visual.Text {
	out := make([]*visual.Text, 0, len(v.labels))
	for _, e := range v.labels {
		out = append(out, e.(*visual.Text))
	}
	return out
}

func (v *AxisView) Enter(h pipeline.Host) {
	v.host = h
	a, ok := h.Axis(v.axisName)
	if !ok {
		h.Report(fmt.Sprintf("unknown axis %q", v.axisName), "axis")
		return
	}
	v.axis = a
}

func (v *AxisView) Leave(h pipeline.Host) {
	layer := h.Layer()
	layer.Detach(v.marks...)
	layer.Detach(v.labels...)
	layer.Detach(v.grid...)
	v.marks, v.labels, v.grid, v.ticks = nil, nil, nil, nil
}

func (v *AxisView) size() float64 {
	if v.Size > 0 {
		return v.Size
	}
	if v.axis.Orientation == geom.Vertical {
		return 40
	}
	return 30
}

// ClaimLayout claims a strip on the axis' side.
func (v *AxisView) ClaimLayout(lc *layout.Context, slot int) {
	if v.axis == nil {
		return
	}
	lc.ClaimSpace(slot, v.axis.Side, v.size())
}

// Render rebuilds the tick elements from the finalized axis.
func (v *AxisView) Render(rc layout.RenderContext) {
	if v.axis == nil {
		return
	}
	ticks, err := v.axis.TickValues()
	if err != nil {
		v.host.Report(fmt.Sprintf("cannot compute ticks: %v", err), "axis")
		ticks = nil
	}
	v.ticks = ticks

	depth := rc.Area.W
	if v.axis.Side.Horizontal() {
		depth = rc.Area.H
	}
	// The edge touching the series area is across 0 for bottom and right
	// axes and across depth for top and left ones.
	edge, dir, anchor := 0.0, 1.0, visual.AnchorMiddle
	switch v.axis.Side {
	case geom.SideTop:
		edge, dir = depth, -1
	case geom.SideLeft:
		edge, dir, anchor = depth, -1, visual.AnchorEnd
	case geom.SideRight:
		anchor = visual.AnchorStart
	}
	stride := v.labelStride(rc, len(ticks))

	slot := v.host.Slot()
	marks := recycler.New(v.marks, func() visual.Element { return visual.NewLine() })
	labels := recycler.New(v.labels, func() visual.Element { return visual.NewText("") })
	grid := recycler.New(v.grid, func() visual.Element { return visual.NewLine() })
	for i, t := range ticks {
		m := marks.Next().(*visual.Line)
		m.From = geom.Point{X: t, Y: edge}
		m.To = geom.Point{X: t, Y: edge + dir*tickLength}
		m.Style.Stroke = v.Color
		m.Owner = slot

		if i%stride == 0 {
			l := labels.Next().(*visual.Text)
			l.Text = v.axis.TickLabel(t)
			l.At = geom.Point{X: t, Y: edge + dir*labelGap}
			l.Anchor = anchor
			l.Baseline = false
			l.Style.Stroke = v.Color
			l.Owner = slot
		}

		if v.Grid {
			g := grid.Next().(*visual.Line)
			g.From = geom.Point{X: t, Y: 0}
			g.To = geom.Point{X: t, Y: 1}
			g.Style.Stroke = v.GridColor
			g.Owner = slot
			g.Z = -10
		}
	}
	v.marks = reconcile(v.host.Layer(), marks)
	v.labels = reconcile(v.host.Layer(), labels)
	v.grid = reconcile(v.host.Layer(), grid)
}

// labelStride thins labels that would not fit along the axis.
func (v *AxisView) labelStride(rc layout.RenderContext, n int) int {
	length, spacing := rc.SeriesArea.W, float64(labelSpacing)
	if v.axis.Orientation == geom.Vertical {
		length, spacing = rc.SeriesArea.H, labelHeight
	}
	fit := int(length / spacing)
	if fit <= 0 || n <= fit {
		return 1
	}
	return int(math.Ceil(float64(n) / float64(fit)))
}

// reconcile detaches what a recycler did not reuse, attaches what it
// created and returns the elements now in use.
func reconcile(layer visual.Layer, r *recycler.Recycler[visual.Element]) []visual.Element {
	layer.Detach(r.Unused()...)
	layer.Attach(r.Created()...)
	return append(append([]visual.Element(nil), r.Reused()...), r.Created()...)
}

// ApplyTransforms maps ticks and labels into the claimed strip and grid
// lines across the series area.
func (v *AxisView) ApplyTransforms(rc layout.RenderContext) {
	if v.axis == nil {
		return
	}
	m, err := transform.AxisTransform(v.axis.Orientation, v.axis.Extent(), rc.SeriesArea, rc.Area)
	if err != nil {
		v.host.Report(fmt.Sprintf("cannot map axis: %v", err), "axis")
		return
	}
	for _, e := range v.marks {
		e.Node().Transform = m
	}
	for _, e := range v.labels {
		e.Node().Transform = m
	}
	if len(v.grid) == 0 {
		return
	}
	g, err := acrossSeries(v.axis, rc.SeriesArea)
	if err != nil {
		return
	}
	for _, e := range v.grid {
		e.Node().Transform = g
	}
}

// acrossSeries maps (along, t) with t in [0,1] onto a line crossing the
// whole series area at along.
func acrossSeries(a *axis.Axis, series geom.Rect) (transform.Matrix, error) {
	m, err := transform.AxisTransform(a.Orientation, a.Extent(), series, series)
	if err != nil {
		return transform.Matrix{}, err
	}
	across := series.H
	if a.Orientation == geom.Vertical {
		across = series.W
	}
	return transform.Multiply(m, transform.Scale(1, across)), nil
}
