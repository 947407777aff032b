package series

import (
	"math"

	"github.com/aclements/go-moremath/stats"

	"github.com/opd-ai/go-chart/internal/data"
	"github.com/opd-ai/go-chart/internal/geom"
	"github.com/opd-ai/go-chart/internal/visual"
)

const defaultMarkerSize = 6

func needValues(cfg *Config) []string {
	if len(cfg.ValuePaths) == 0 {
		return []string{"value_path"}
	}
	return nil
}

func valueChannels(cfg *Config) int { return len(cfg.ValuePaths) }

func readValue(s *Series, st *ItemState, item data.Item) bool {
	v, ok := s.value(item, s.cfg.ValuePaths[st.Channel])
	st.Value = v
	return ok
}

// lineShape draws a polyline per channel through optional markers.
type lineShape struct {
	paths []*visual.Path
	fills []*visual.Path
}

func (*lineShape) missing(cfg *Config) []string  { return needValues(cfg) }
func (*lineShape) channels(cfg *Config) int      { return valueChannels(cfg) }
func (*lineShape) offset(*Config, int) float64   { return 0.5 }
func (*lineShape) fold(s *Series, st *ItemState) { s.y.UpdateLimits(st.Value) }
func (*lineShape) evaluate(s *Series, st *ItemState, item data.Item) bool {
	return readValue(s, st, item)
}

func (*lineShape) newElement(s *Series, channel int) visual.Element {
	return visual.NewMarker(s.cfg.MarkerSize)
}

func (*lineShape) place(s *Series, st *ItemState) {
	m := st.Element.(*visual.Marker)
	m.Center = geom.Point{X: st.Offset, Y: st.Value}
	m.Size = s.cfg.MarkerSize
	m.Hidden = s.cfg.MarkerSize <= 0
	m.Style.Fill = s.cfg.ChannelColor(st.Channel)
	m.Style.Stroke = m.Style.Fill
}

func (l *lineShape) finish(s *Series) {
	n := valueChannels(&s.cfg)
	for len(l.paths) < n {
		p := visual.NewPath()
		s.adopt(p, s.cfg.Z)
		l.paths = append(l.paths, p)
		s.spans = append(s.spans, p)
		s.host.Layer().Attach(p)
		if s.cfg.Area {
			f := visual.NewPath()
			f.Closed, f.Filled = true, true
			s.adopt(f, s.cfg.Z-1)
			l.fills = append(l.fills, f)
			s.spans = append(s.spans, f)
			s.host.Layer().Attach(f)
		}
	}
	for ch, p := range l.paths {
		p.Points = p.Points[:0]
		for _, st := range s.states {
			if st.Channel == ch {
				p.Points = append(p.Points, geom.Point{X: st.Offset, Y: st.Value})
			}
		}
		c := s.cfg.ChannelColor(ch)
		p.Style.Stroke = c
		p.Style.StrokeWidth = s.cfg.StrokeWidth
		if !s.cfg.Area {
			continue
		}
		f := l.fills[ch]
		f.Points = append(f.Points[:0], p.Points...)
		if len(p.Points) > 0 {
			first, last := p.Points[0], p.Points[len(p.Points)-1]
			f.Points = append(f.Points, geom.Point{X: last.X, Y: s.base}, geom.Point{X: first.X, Y: s.base})
		}
		f.Style.Fill = visual.WithOpacity(c, 0.3)
		f.Style.StrokeWidth = 0
	}
}

// columnShape draws grouped bars from the baseline.
type columnShape struct{}

func (columnShape) missing(cfg *Config) []string  { return needValues(cfg) }
func (columnShape) channels(cfg *Config) int      { return valueChannels(cfg) }
func (columnShape) fold(s *Series, st *ItemState) { s.y.UpdateLimits(st.Value) }
func (columnShape) finish(*Series)                {}
func (columnShape) evaluate(s *Series, st *ItemState, item data.Item) bool {
	return readValue(s, st, item)
}

func (columnShape) offset(cfg *Config, channel int) float64 {
	k := float64(max(valueChannels(cfg), 1))
	return 0.5 + cfg.BarWidth*((float64(channel)+0.5)/k-0.5)
}

func (columnShape) newElement(*Series, int) visual.Element { return visual.NewRect() }

func (columnShape) place(s *Series, st *ItemState) {
	r := st.Element.(*visual.Rect)
	w := s.cfg.BarWidth / float64(max(valueChannels(&s.cfg), 1))
	lo, hi := math.Min(s.base, st.Value), math.Max(s.base, st.Value)
	r.Rect = geom.Rect{X: st.Offset - w/2, Y: lo, W: w, H: hi - lo}
	r.Style.Fill = s.cfg.ChannelColor(st.Channel)
	r.Style.StrokeWidth = 0
}

// scatterShape draws one marker per item.
type scatterShape struct{}

func (scatterShape) missing(cfg *Config) []string  { return needValues(cfg) }
func (scatterShape) channels(cfg *Config) int      { return valueChannels(cfg) }
func (scatterShape) offset(*Config, int) float64   { return 0.5 }
func (scatterShape) fold(s *Series, st *ItemState) { s.y.UpdateLimits(st.Value) }
func (scatterShape) finish(*Series)                {}
func (scatterShape) evaluate(s *Series, st *ItemState, item data.Item) bool {
	return readValue(s, st, item)
}

func (scatterShape) newElement(s *Series, channel int) visual.Element {
	m := visual.NewMarker(defaultMarkerSize)
	m.Shape = visual.MarkerShape(channel % 3)
	return m
}

func (scatterShape) place(s *Series, st *ItemState) {
	m := st.Element.(*visual.Marker)
	m.Center = geom.Point{X: st.Offset, Y: st.Value}
	m.Size = s.cfg.MarkerSize
	if m.Size <= 0 {
		m.Size = defaultMarkerSize
	}
	m.Shape = visual.MarkerShape(st.Channel % 3)
	m.Style.Fill = s.cfg.ChannelColor(st.Channel)
	m.Style.Stroke = m.Style.Fill
}

// candleShape draws open/high/low/close glyphs. Values holds the mapped
// open, high, low and close; Value is the close.
type candleShape struct{}

func (candleShape) channels(*Config) int        { return 1 }
func (candleShape) offset(*Config, int) float64 { return 0.5 }
func (candleShape) finish(*Series)              {}

func (candleShape) missing(cfg *Config) []string {
	var out []string
	for _, p := range [][2]string{
		{cfg.OpenPath, "open_path"}, {cfg.HighPath, "high_path"},
		{cfg.LowPath, "low_path"}, {cfg.ClosePath, "close_path"},
	} {
		if p[0] == "" {
			out = append(out, p[1])
		}
	}
	return out
}

func (candleShape) evaluate(s *Series, st *ItemState, item data.Item) bool {
	vals := make([]float64, 4)
	for i, path := range []string{s.cfg.OpenPath, s.cfg.HighPath, s.cfg.LowPath, s.cfg.ClosePath} {
		v, ok := s.value(item, path)
		if !ok {
			return false
		}
		vals[i] = v
	}
	st.Values = vals
	st.Value = vals[3]
	return true
}

func (candleShape) fold(s *Series, st *ItemState) {
	s.y.UpdateLimits(st.Values[2])
	s.y.UpdateLimits(st.Values[1])
}

func (candleShape) newElement(*Series, int) visual.Element { return visual.NewCandle() }

func (candleShape) place(s *Series, st *ItemState) {
	c := st.Element.(*visual.Candle)
	c.X = st.Offset
	c.Width = s.cfg.BarWidth * 0.75
	c.Open, c.High, c.Low, c.Close = st.Values[0], st.Values[1], st.Values[2], st.Values[3]
	col := s.cfg.ChannelColor(0)
	if !c.Rising() {
		col = s.cfg.ChannelColor(1)
	}
	c.Style.Fill = col
	c.Style.Stroke = col
}

// heatmapShape draws a unit cell at (category, row) colored by value.
// Values holds the row; Value is the raw cell value.
type heatmapShape struct{}

func (heatmapShape) channels(*Config) int        { return 1 }
func (heatmapShape) offset(*Config, int) float64 { return 0.5 }

func (heatmapShape) missing(cfg *Config) []string {
	out := needValues(cfg)
	if cfg.RowPath == "" {
		out = append(out, "row_path")
	}
	return out
}

func (heatmapShape) evaluate(s *Series, st *ItemState, item data.Item) bool {
	row, ok := s.value(item, s.cfg.RowPath)
	if !ok {
		return false
	}
	v, ok := data.Float(item, s.cfg.ValuePaths[0])
	if !ok {
		return false
	}
	st.Values = []float64{row}
	st.Value = v
	return true
}

func (heatmapShape) fold(s *Series, st *ItemState) {
	s.y.UpdateLimits(st.Values[0])
	s.y.UpdateLimits(st.Values[0] + 1)
}

func (heatmapShape) newElement(*Series, int) visual.Element { return visual.NewRect() }

func (heatmapShape) place(s *Series, st *ItemState) {
	r := st.Element.(*visual.Rect)
	r.Rect = geom.Rect{X: st.Offset - 0.5, Y: st.Values[0], W: 1, H: 1}
	r.Style.StrokeWidth = 0
}

// finish colors the cells along the ramp between the lowest and highest
// value.
func (heatmapShape) finish(s *Series) {
	if len(s.states) == 0 {
		return
	}
	vals := make([]float64, len(s.states))
	for i, st := range s.states {
		vals[i] = st.Value
	}
	lo, hi := stats.Bounds(vals)
	for _, st := range s.states {
		t := 0.5
		if hi > lo {
			t = (st.Value - lo) / (hi - lo)
		}
		st.Element.Node().Style.Fill = visual.Ramp(s.cfg.RampLow, s.cfg.RampHigh, t)
	}
}
