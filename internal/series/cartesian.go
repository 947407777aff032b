package series

import (
	"fmt"
	"math"

	"github.com/opd-ai/go-chart/internal/axis"
	"github.com/opd-ai/go-chart/internal/data"
	"github.com/opd-ai/go-chart/internal/layout"
	"github.com/opd-ai/go-chart/internal/pipeline"
	"github.com/opd-ai/go-chart/internal/recycler"
	"github.com/opd-ai/go-chart/internal/transform"
	"github.com/opd-ai/go-chart/internal/visual"
)

// shape implements one cartesian series kind. The Series owns traversal,
// extents, incremental reconciliation and transforms; the shape owns the
// per-kind values and geometry.
type shape interface {
	// missing lists the configuration properties the kind needs but cfg
	// lacks.
	missing(cfg *Config) []string
	channels(cfg *Config) int
	// offset is the position of a channel inside its unit cell.
	offset(cfg *Config, channel int) float64
	// evaluate reads the channel's values from item into st. It reports
	// false for items that cannot be drawn.
	evaluate(s *Series, st *ItemState, item data.Item) bool
	newElement(s *Series, channel int) visual.Element
	// place positions the state's element in model space.
	place(s *Series, st *ItemState)
	// fold widens the value axis with the state.
	fold(s *Series, st *ItemState)
	// finish builds geometry spanning every state.
	finish(s *Series)
}

// Series is a cartesian data series bound to an x and a y axis.
type Series struct {
	cfg   Config
	shape shape

	host    pipeline.Host
	x, y    *axis.Axis
	valid   bool
	indexed bool

	// states are ordered by Index, then Channel.
	states []*ItemState
	// spans hold elements covering all states, such as line paths.
	spans  []visual.Element
	base   float64
	matrix transform.Matrix
}

// New returns the component drawing cfg: a pie for Pie series, a
// cartesian Series for every other kind.
func New(cfg Config) pipeline.Component {
	if cfg.Kind == Pie {
		return NewPie(cfg)
	}
	return NewCartesian(cfg)
}

// NewCartesian returns a cartesian series.
func NewCartesian(cfg Config) *Series {
	if cfg.BarWidth <= 0 || cfg.BarWidth > 1 {
		cfg.BarWidth = 0.8
	}
	return &Series{cfg: cfg, shape: newShape(cfg.Kind), matrix: transform.Identity()}
}

func newShape(k Kind) shape {
	switch k {
	case Column:
		return columnShape{}
	case Scatter:
		return scatterShape{}
	case Candlestick:
		return candleShape{}
	case Heatmap:
		return heatmapShape{}
	default:
		return &lineShape{}
	}
}

// Name implements pipeline.Component.
func (s *Series) Name() string { return s.cfg.Name }

// Config returns the series configuration.
func (s *Series) Config() Config { return s.cfg }

// States returns the current item states in index order. The slice must
// not be modified.
func (s *Series) States() []*ItemState { return s.states }

// Enter resolves the axes and checks the configuration.
func (s *Series) Enter(h pipeline.Host) {
	s.host = h
	s.valid = true
	if x, ok := h.Axis(s.cfg.XAxis); ok {
		s.x = x
	} else {
		h.Report(fmt.Sprintf("unknown x axis %q", s.cfg.XAxis), "x_axis")
		s.valid = false
	}
	if y, ok := h.Axis(s.cfg.YAxis); ok {
		s.y = y
	} else {
		h.Report(fmt.Sprintf("unknown y axis %q", s.cfg.YAxis), "y_axis")
		s.valid = false
	}
	if s.x != nil && s.y != nil && s.x.Orientation == s.y.Orientation {
		h.Report(fmt.Sprintf("x axis %q and y axis %q are both %s", s.x.Name, s.y.Name, s.x.Orientation), "x_axis", "y_axis")
		s.valid = false
	}
	for _, prop := range s.shape.missing(&s.cfg) {
		h.Report("missing "+prop, prop)
		s.valid = false
	}
	if s.x != nil {
		s.indexed = s.x.Kind == axis.Category || s.cfg.XPath == ""
	}
}

// Leave detaches every element of the series.
func (s *Series) Leave(h pipeline.Host) {
	h.Layer().Detach(s.elements()...)
	s.states = nil
	s.spans = nil
	s.shape = newShape(s.cfg.Kind)
}

// SourceName implements pipeline.DataSeries.
func (s *Series) SourceName() string { return s.cfg.Source }

func (s *Series) elements() []visual.Element {
	return append(elements(s.states), s.spans...)
}

func (s *Series) adopt(e visual.Element, z int) {
	n := e.Node()
	n.Owner = s.host.Slot()
	n.Z = z
	n.Transform = s.matrix
}

// value reads path from item and maps it through the y axis.
func (s *Series) value(item data.Item, path string) (float64, bool) {
	v, ok := data.Float(item, path)
	if !ok {
		return math.NaN(), false
	}
	v = s.y.For(v)
	return v, !math.IsNaN(v)
}

// evaluate turns one item into a state per drawable channel.
func (s *Series) evaluate(index int, item data.Item) []*ItemState {
	cat := float64(index)
	if !s.indexed {
		v, ok := data.Float(item, s.cfg.XPath)
		if !ok {
			return nil
		}
		if cat = s.x.For(v); math.IsNaN(cat) {
			return nil
		}
	}
	var label string
	if s.cfg.LabelPath != "" {
		label = data.String(item, s.cfg.LabelPath)
	}
	n := s.shape.channels(&s.cfg)
	out := make([]*ItemState, 0, n)
	for ch := 0; ch < n; ch++ {
		st := &ItemState{Index: index, Category: cat, Channel: ch, Label: label}
		st.Offset = cat + s.shape.offset(&s.cfg, ch)
		if !s.indexed {
			// Non-indexed states are centered on their x value.
			st.Offset -= 0.5
		}
		if s.shape.evaluate(s, st, item) {
			out = append(out, st)
		}
	}
	return out
}

// baseline returns the value-axis position columns and area fills are
// anchored on, clamped into the finalized axis.
func (s *Series) baseline() float64 {
	b := s.cfg.Baseline
	switch {
	case !math.IsNaN(b):
		b = s.y.For(b)
	case s.y.Kind != axis.Log:
		b = 0
	}
	lo, hi := s.y.Minimum(), s.y.Maximum()
	if math.IsNaN(b) {
		return lo
	}
	return min(max(b, lo), hi)
}

// anchored reports whether the kind draws down to the baseline.
func (s *Series) anchored() bool {
	return s.cfg.Kind == Column || (s.cfg.Kind == Line && s.cfg.Area)
}

// Preamble starts a full traversal, recycling the previous elements.
func (s *Series) Preamble(rc layout.RenderContext) pipeline.RenderPass {
	if !s.valid {
		return nil
	}
	prev := elements(s.states)
	return &cartesianPass{
		s: s,
		rec: recycler.NewWithState(prev, func(ch int) visual.Element {
			return s.shape.newElement(s, ch)
		}),
	}
}

type cartesianPass struct {
	s       *Series
	rec     *recycler.StateRecycler[visual.Element, int]
	states  []*ItemState
	skipped int
}

func (p *cartesianPass) Render(index int, item data.Item) {
	states := p.s.evaluate(index, item)
	if len(states) == 0 {
		p.skipped++
		return
	}
	for _, st := range states {
		st.Element = p.rec.Next(st.Channel)
		p.s.adopt(st.Element, p.s.cfg.Z+1)
		p.states = append(p.states, st)
	}
}

func (p *cartesianPass) RenderComplete() {
	s := p.s
	layer := s.host.Layer()
	layer.Detach(p.rec.Unused()...)
	layer.Attach(p.rec.Created()...)
	s.states = p.states
	if p.skipped > 0 {
		s.host.Report(fmt.Sprintf("%d items skipped: missing or non-numeric values", p.skipped), "value_path")
	}
}

func (p *cartesianPass) Postamble() {
	s := p.s
	s.base = s.baseline()
	for _, st := range s.states {
		s.shape.place(s, st)
	}
}

// FoldExtents widens both axes with the current states.
func (s *Series) FoldExtents() {
	if !s.valid || len(s.states) == 0 {
		return
	}
	for _, st := range s.states {
		if s.indexed {
			if s.cfg.LabelPath != "" {
				s.x.ForLabel(st.Category, st.Label)
			}
			s.x.UpdateLimits(st.Category)
			s.x.UpdateLimits(st.Category + 1)
		} else {
			s.x.UpdateLimits(st.Offset)
		}
		s.shape.fold(s, st)
	}
	if s.anchored() {
		switch {
		case !math.IsNaN(s.cfg.Baseline):
			s.y.UpdateLimits(s.y.For(s.cfg.Baseline))
		case s.y.Kind != axis.Log:
			s.y.UpdateLimits(0)
		}
	}
}

// AxesFinalized re-anchors baseline geometry and rebuilds spans.
func (s *Series) AxesFinalized(rc layout.RenderContext) {
	if !s.valid {
		return
	}
	if b := s.baseline(); b != s.base {
		s.base = b
		for _, st := range s.states {
			s.shape.place(s, st)
		}
	}
	s.shape.finish(s)
}

// ApplyTransforms maps every element of the series into the series area.
func (s *Series) ApplyTransforms(rc layout.RenderContext) {
	if !s.valid {
		return
	}
	m, err := transform.SeriesTransform(rc.SeriesArea, s.x.Orientation, s.x.Extent(), s.y.Extent())
	if err != nil {
		s.host.Report(fmt.Sprintf("cannot map series: %v", err), "x_axis", "y_axis")
		return
	}
	s.matrix = m
	for _, e := range s.elements() {
		e.Node().Transform = m
	}
}

// Add inserts the states of items before index start and shifts the
// states after them.
func (s *Series) Add(rc layout.RenderContext, start int, items []data.Item) {
	if !s.valid {
		return
	}
	var fresh []*ItemState
	skipped := 0
	for i, it := range items {
		states := s.evaluate(start+i, it)
		if len(states) == 0 {
			skipped++
		}
		fresh = append(fresh, states...)
	}
	s.states = insertRange(s.states, start, len(items), fresh, s.indexed, s.replace)
	created := make([]visual.Element, 0, len(fresh))
	for _, st := range fresh {
		st.Element = s.shape.newElement(s, st.Channel)
		s.adopt(st.Element, s.cfg.Z+1)
		s.shape.place(s, st)
		created = append(created, st.Element)
	}
	s.host.Layer().Attach(created...)
	if skipped > 0 {
		s.host.Report(fmt.Sprintf("%d items skipped: missing or non-numeric values", skipped), "value_path")
	}
}

// Remove drops the states of items removed at start and shifts the
// states after them.
func (s *Series) Remove(rc layout.RenderContext, start int, items []data.Item) {
	if !s.valid {
		return
	}
	kept, removed := removeRange(s.states, start, len(items), s.indexed, s.replace)
	s.host.Layer().Detach(elements(removed)...)
	s.states = kept
}

// replace re-places index-derived geometry after a shift.
func (s *Series) replace(st *ItemState) {
	if s.indexed {
		s.shape.place(s, st)
	}
}

// LegendEntries implements LegendSource.
func (s *Series) LegendEntries() []LegendEntry {
	if !s.valid {
		return nil
	}
	switch s.cfg.Kind {
	case Candlestick:
		return []LegendEntry{{Label: s.cfg.Name, Color: s.cfg.ChannelColor(0)}}
	case Heatmap:
		return []LegendEntry{{Label: s.cfg.Name, Color: s.cfg.RampHigh}}
	}
	n := s.shape.channels(&s.cfg)
	out := make([]LegendEntry, n)
	for ch := range n {
		out[ch] = LegendEntry{Label: s.cfg.ChannelName(ch), Color: s.cfg.ChannelColor(ch)}
	}
	return out
}
