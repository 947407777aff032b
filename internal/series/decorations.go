package series

import (
	"fmt"
	"image/color"

	"github.com/opd-ai/go-chart/internal/axis"
	"github.com/opd-ai/go-chart/internal/geom"
	"github.com/opd-ai/go-chart/internal/layout"
	"github.com/opd-ai/go-chart/internal/pipeline"
	"github.com/opd-ai/go-chart/internal/recycler"
	"github.com/opd-ai/go-chart/internal/transform"
	"github.com/opd-ai/go-chart/internal/visual"
)

// LegendEntry is one labelled swatch.
type LegendEntry struct {
	Label string
	Color color.RGBA
}

// LegendSource is implemented by components that appear in legends.
type LegendSource interface {
	LegendEntries() []LegendEntry
}

// Title is a single line of text centered in a strip on one side.
type Title struct {
	Side     geom.Side
	FontSize float64
	Color    color.RGBA

	text string
	host pipeline.Host
	el   *visual.Text
}

// NewTitle returns a title on the top side.
func NewTitle(text string) *Title {
	return &Title{
		Side:     geom.SideTop,
		FontSize: 16,
		Color:    color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff},
		text:     text,
	}
}

func (t *Title) Name() string { return "title" }

// Text returns the current title text.
func (t *Title) Text() string { return t.text }

// SetText replaces the title text. It must be called on the update
// thread; the change is drawn by the next Update.
func (t *Title) SetText(s string) {
	if s == t.text {
		return
	}
	t.text = s
	if t.host != nil {
		t.host.Refresh(pipeline.RefreshRender)
	}
}

// Element returns the text element, nil before the first render.
func (t *Title) Element() *visual.Text { return t.el }

func (t *Title) Enter(h pipeline.Host) { t.host = h }

func (t *Title) Leave(h pipeline.Host) {
	if t.el != nil {
		h.Layer().Detach(t.el)
		t.el = nil
	}
}

func (t *Title) ClaimLayout(lc *layout.Context, slot int) {
	if t.text == "" {
		return
	}
	lc.ClaimSpace(slot, t.Side, t.FontSize*2)
}

func (t *Title) Render(rc layout.RenderContext) {
	if t.el == nil {
		t.el = visual.NewText("")
		t.el.Owner = t.host.Slot()
		t.host.Layer().Attach(t.el)
	}
	t.el.Text = t.text
	t.el.Hidden = t.text == ""
	t.el.Anchor = visual.AnchorMiddle
	t.el.Style.Stroke = t.Color
	t.el.Style.FontSize = t.FontSize
}

func (t *Title) ApplyTransforms(rc layout.RenderContext) {
	if t.el == nil {
		return
	}
	t.el.At = rc.Area.Center()
}

// Legend lists the entries of every LegendSource component in a strip on
// one side.
type Legend struct {
	Side geom.Side
	// Size is the depth of the claimed strip.
	Size     float64
	FontSize float64
	Color    color.RGBA

	host     pipeline.Host
	entries  []LegendEntry
	swatches []visual.Element
	labels   []visual.Element
}

// NewLegend returns a legend on the right side.
func NewLegend() *Legend {
	return &Legend{
		Side:     geom.SideRight,
		Size:     120,
		FontSize: 12,
		Color:    color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff},
	}
}

func (l *Legend) Name() string { return "legend" }

// Entries returns the entries of the last render.
func (l *Legend) Entries() []LegendEntry { return l.entries }

func (l *Legend) Enter(h pipeline.Host) { l.host = h }

func (l *Legend) Leave(h pipeline.Host) {
	h.Layer().Detach(l.swatches...)
	h.Layer().Detach(l.labels...)
	l.swatches, l.labels, l.entries = nil, nil, nil
}

func (l *Legend) ClaimLayout(lc *layout.Context, slot int) {
	size := l.Size
	if l.Side.Horizontal() {
		size = l.FontSize * 2
	}
	lc.ClaimSpace(slot, l.Side, size)
}

// Render collects the entries. It runs after every data series has
// traversed its source.
func (l *Legend) Render(rc layout.RenderContext) {
	l.entries = l.entries[:0]
	for _, c := range l.host.Components() {
		if src, ok := c.(LegendSource); ok {
			l.entries = append(l.entries, src.LegendEntries()...)
		}
	}
	swatches := recycler.New(l.swatches, func() visual.Element { return visual.NewRect() })
	labels := recycler.New(l.labels, func() visual.Element { return visual.NewText("") })
	slot := l.host.Slot()
	for _, e := range l.entries {
		sw := swatches.Next().(*visual.Rect)
		sw.Style.Fill = e.Color
		sw.Style.StrokeWidth = 0
		sw.Owner = slot
		tx := labels.Next().(*visual.Text)
		tx.Text = e.Label
		tx.Anchor = visual.AnchorStart
		tx.Style.Stroke = l.Color
		tx.Style.FontSize = l.FontSize
		tx.Owner = slot
	}
	l.swatches = reconcile(l.host.Layer(), swatches)
	l.labels = reconcile(l.host.Layer(), labels)
}

// ApplyTransforms stacks the entries vertically on the left and right
// sides and in a row on the top and bottom sides. Geometry is relative to
// the claimed area's origin.
func (l *Legend) ApplyTransforms(rc layout.RenderContext) {
	m := transform.Translate(rc.Area.X, rc.Area.Y)
	row := l.FontSize * 1.5
	box := l.FontSize * 0.8
	for i := range l.swatches {
		pos := geom.Point{X: 8, Y: 8 + float64(i)*row}
		if l.Side.Horizontal() {
			pos = geom.Point{X: 8 + float64(i)*l.Size, Y: (rc.Area.H - box) / 2}
		}
		sw := l.swatches[i].(*visual.Rect)
		sw.Rect = geom.Rect{X: pos.X, Y: pos.Y, W: box, H: box}
		sw.Transform = m
		tx := l.labels[i].(*visual.Text)
		tx.At = geom.Point{X: pos.X + box + 6, Y: pos.Y + box/2}
		tx.Transform = m
	}
}

// ReferenceLine marks a fixed value across the series area and keeps
// that value inside its axis.
type ReferenceLine struct {
	AxisName string
	Label    string
	Color    color.RGBA

	value float64
	host  pipeline.Host
	axis  *axis.Axis
	line  *visual.Line
	text  *visual.Text
}

// NewReferenceLine returns a reference line at value on the named axis.
func NewReferenceLine(axisName string, value float64) *ReferenceLine {
	return &ReferenceLine{
		AxisName: axisName,
		Color:    color.RGBA{R: 0xe7, G: 0x4c, B: 0x3c, A: 0xff},
		value:    value,
	}
}

func (r *ReferenceLine) Name() string { return "reference:" + r.AxisName }

// Value returns the marked value.
func (r *ReferenceLine) Value() float64 { return r.value }

// SetValue moves the line. It must be called on the update thread; the
// axis is refolded by the next Update.
func (r *ReferenceLine) SetValue(v float64) {
	if v == r.value {
		return
	}
	r.value = v
	if r.host != nil {
		r.host.Refresh(pipeline.RefreshAxes)
	}
}

// Line returns the line element, nil before the first render.
func (r *ReferenceLine) Line() *visual.Line { return r.line }

func (r *ReferenceLine) Enter(h pipeline.Host) {
	r.host = h
	a, ok := h.Axis(r.AxisName)
	if !ok {
		h.Report(fmt.Sprintf("unknown axis %q", r.AxisName), "axis")
		return
	}
	r.axis = a
}

func (r *ReferenceLine) Leave(h pipeline.Host) {
	if r.line != nil {
		h.Layer().Detach(r.line, r.text)
		r.line, r.text = nil, nil
	}
}

func (r *ReferenceLine) FoldExtents() {
	if r.axis == nil {
		return
	}
	r.axis.UpdateLimits(r.axis.For(r.value))
}

func (r *ReferenceLine) Render(rc layout.RenderContext) {
	if r.axis == nil {
		return
	}
	if r.line == nil {
		r.line = visual.NewLine()
		r.text = visual.NewText("")
		r.line.Owner, r.text.Owner = r.host.Slot(), r.host.Slot()
		r.line.Z, r.text.Z = 5, 5
		r.host.Layer().Attach(r.line, r.text)
	}
	v := r.axis.For(r.value)
	r.line.From = geom.Point{X: v, Y: 0}
	r.line.To = geom.Point{X: v, Y: 1}
	r.line.Style.Stroke = r.Color
	r.text.Text = r.Label
	r.text.Hidden = r.Label == ""
	r.text.At = geom.Point{X: v, Y: 0}
	r.text.Anchor = visual.AnchorStart
	r.text.Style.Stroke = r.Color
}

func (r *ReferenceLine) ApplyTransforms(rc layout.RenderContext) {
	if r.line == nil {
		return
	}
	m, err := acrossSeries(r.axis, rc.SeriesArea)
	if err != nil {
		r.host.Report(fmt.Sprintf("cannot map reference line: %v", err), "axis")
		return
	}
	r.line.Transform = m
	r.text.Transform = m
}
