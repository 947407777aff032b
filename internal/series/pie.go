package series

import (
	"fmt"
	"image/color"
	"math"

	"github.com/opd-ai/go-chart/internal/data"
	"github.com/opd-ai/go-chart/internal/geom"
	"github.com/opd-ai/go-chart/internal/layout"
	"github.com/opd-ai/go-chart/internal/pipeline"
	"github.com/opd-ai/go-chart/internal/recycler"
	"github.com/opd-ai/go-chart/internal/transform"
	"github.com/opd-ai/go-chart/internal/visual"
)

// PieSeries draws one wedge per item in a unit circle that is scaled
// into the series area. It takes no part in axis extents and rebuilds on
// every source change.
type PieSeries struct {
	cfg    Config
	host   pipeline.Host
	valid  bool
	states []*ItemState
}

// NewPie returns a pie series. InnerRadius turns it into a donut.
func NewPie(cfg Config) *PieSeries {
	cfg.InnerRadius = min(max(cfg.InnerRadius, 0), 0.95)
	return &PieSeries{cfg: cfg}
}

func (p *PieSeries) Name() string { return p.cfg.Name }

func (p *PieSeries) SourceName() string { return p.cfg.Source }

// States returns the wedge states in index order.
func (p *PieSeries) States() []*ItemState { return p.states }

func (p *PieSeries) Enter(h pipeline.Host) {
	p.host = h
	p.valid = len(p.cfg.ValuePaths) > 0
	if !p.valid {
		h.Report("missing value_path", "value_path")
	}
}

func (p *PieSeries) Leave(h pipeline.Host) {
	h.Layer().Detach(elements(p.states)...)
	p.states = nil
}

func (p *PieSeries) Preamble(rc layout.RenderContext) pipeline.RenderPass {
	if !p.valid {
		return nil
	}
	return &piePass{p: p, rec: recycler.New(elements(p.states), func() visual.Element { return visual.NewWedge() })}
}

type piePass struct {
	p       *PieSeries
	rec     *recycler.Recycler[visual.Element]
	states  []*ItemState
	skipped int
}

func (pp *piePass) Render(index int, item data.Item) {
	v, ok := data.Float(item, pp.p.cfg.ValuePaths[0])
	if !ok || v < 0 {
		pp.skipped++
		return
	}
	st := &ItemState{Index: index, Category: float64(index), Offset: float64(index), Value: v}
	if pp.p.cfg.LabelPath != "" {
		st.Label = data.String(item, pp.p.cfg.LabelPath)
	}
	st.Element = pp.rec.Next()
	n := st.Element.Node()
	n.Owner = pp.p.host.Slot()
	n.Z = pp.p.cfg.Z
	pp.states = append(pp.states, st)
}

func (pp *piePass) RenderComplete() {
	layer := pp.p.host.Layer()
	layer.Detach(pp.rec.Unused()...)
	layer.Attach(pp.rec.Created()...)
	pp.p.states = pp.states
	if pp.skipped > 0 {
		pp.p.host.Report(fmt.Sprintf("%d items skipped: missing or negative values", pp.skipped), "value_path")
	}
}

// Postamble lays the wedges out clockwise from twelve o'clock.
func (pp *piePass) Postamble() {
	p := pp.p
	var total float64
	for _, st := range p.states {
		total += st.Value
	}
	angle := 0.0
	for i, st := range p.states {
		w := st.Element.(*visual.Wedge)
		sweep := 0.0
		if total > 0 {
			sweep = 2 * math.Pi * st.Value / total
		}
		w.Center = geom.Point{}
		w.Radius = 1
		w.Inner = p.cfg.InnerRadius
		w.Start, w.Sweep = angle, sweep
		w.Hidden = sweep == 0
		w.Style.Fill = p.color(i)
		w.Style.StrokeWidth = 1
		angle += sweep
	}
}

func (p *PieSeries) color(i int) color.RGBA {
	return p.cfg.ChannelColor(i)
}

// ApplyTransforms centers the unit circle in the series area.
func (p *PieSeries) ApplyTransforms(rc layout.RenderContext) {
	area := rc.SeriesArea
	r := math.Min(area.W, area.H) / 2 * 0.9
	c := area.Center()
	m := transform.Multiply(transform.Translate(c.X, c.Y), transform.Scale(r, r))
	for _, st := range p.states {
		st.Element.Node().Transform = m
	}
}

// LegendEntries implements LegendSource with one entry per wedge.
func (p *PieSeries) LegendEntries() []LegendEntry {
	out := make([]LegendEntry, 0, len(p.states))
	for i, st := range p.states {
		label := st.Label
		if label == "" {
			label = fmt.Sprintf("%s %d", p.cfg.Name, st.Index)
		}
		out = append(out, LegendEntry{Label: label, Color: p.color(i)})
	}
	return out
}
