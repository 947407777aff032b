package render

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/opd-ai/go-chart/internal/geom"
	"github.com/opd-ai/go-chart/internal/visual"
)

// wedgeStep is the arc segment length in radians used to outline wedges.
const wedgeStep = math.Pi / 90

// Surface is the chart's visual layer for an Ebiten screen. Elements are
// retained in the embedded Collection and drawn in Z order every frame.
type Surface struct {
	*visual.Collection

	text      TextDrawer
	antialias bool
	stats     *FrameMetrics
}

// NewSurface creates an empty surface drawing text with td. A nil td uses
// a TextRenderer with the embedded Go Regular font.
func NewSurface(td TextDrawer) *Surface {
	if td == nil {
		td = NewTextRenderer()
	}
	return &Surface{
		Collection: visual.NewCollection(),
		text:       td,
		antialias:  true,
	}
}

// SetAntialias enables or disables anti-aliased fills and strokes.
func (s *Surface) SetAntialias(on bool) { s.antialias = on }

// SetMetrics makes Draw record element counts into m.
func (s *Surface) SetMetrics(m *FrameMetrics) { s.stats = m }

// Draw renders every visible element onto screen.
func (s *Surface) Draw(screen *ebiten.Image) {
	var drawn, skipped int
	for _, e := range s.Elements() {
		if e.Node().Hidden {
			skipped++
			continue
		}
		s.drawElement(screen, e)
		drawn++
	}
	if s.stats != nil {
		s.stats.RecordElements(drawn, skipped)
	}
}

func (s *Surface) drawElement(screen *ebiten.Image, e visual.Element) {
	switch el := e.(type) {
	case *visual.Path:
		s.drawPath(screen, el)
	case *visual.Rect:
		s.drawRect(screen, el)
	case *visual.Marker:
		s.drawMarker(screen, el)
	case *visual.Text:
		s.drawText(screen, el)
	case *visual.Line:
		from, to := el.Device()
		if finite(from) && finite(to) && el.Style.StrokeWidth > 0 {
			vector.StrokeLine(screen, float32(from.X), float32(from.Y), float32(to.X), float32(to.Y),
				el.Style.StrokeWidth, el.Style.Stroke, s.antialias)
		}
	case *visual.Candle:
		s.drawCandle(screen, el)
	case *visual.Wedge:
		s.drawWedge(screen, el)
	}
}

func (s *Surface) drawPath(screen *ebiten.Image, p *visual.Path) {
	runs := polylineRuns(p.DevicePoints())
	for _, run := range runs {
		if p.Filled && len(run) >= 3 {
			s.fillPolygon(screen, run, p.Style.Fill)
		}
		if p.Style.StrokeWidth > 0 && len(run) >= 2 {
			s.strokePolyline(screen, run, p.Closed, p.Style.StrokeWidth, p.Style.Stroke)
		}
	}
}

func (s *Surface) drawRect(screen *ebiten.Image, r *visual.Rect) {
	d := r.Device()
	if !finiteRect(d) || d.Empty() {
		return
	}
	vector.DrawFilledRect(screen, float32(d.X), float32(d.Y), float32(d.W), float32(d.H), r.Style.Fill, s.antialias)
}

func (s *Surface) drawMarker(screen *ebiten.Image, m *visual.Marker) {
	c := m.DeviceCenter()
	if !finite(c) || m.Size <= 0 {
		return
	}
	half := m.Size / 2
	switch m.Shape {
	case visual.Square:
		vector.DrawFilledRect(screen, float32(c.X-half), float32(c.Y-half), float32(m.Size), float32(m.Size), m.Style.Fill, s.antialias)
	case visual.Diamond:
		s.fillPolygon(screen, []geom.Point{
			{X: c.X, Y: c.Y - half},
			{X: c.X + half, Y: c.Y},
			{X: c.X, Y: c.Y + half},
			{X: c.X - half, Y: c.Y},
		}, m.Style.Fill)
	default:
		vector.DrawFilledCircle(screen, float32(c.X), float32(c.Y), float32(half), m.Style.Fill, s.antialias)
	}
}

func (s *Surface) drawText(screen *ebiten.Image, t *visual.Text) {
	at := t.DeviceAt()
	if t.Text == "" || !finite(at) {
		return
	}
	w, h := s.text.MeasureText(t.Text, t.Style.FontSize)
	x, y := textOrigin(at, w, h, t.Anchor, t.Baseline)
	s.text.DrawText(screen, t.Text, x, y, t.Style.FontSize, t.Style.Stroke)
}

func (s *Surface) drawCandle(screen *ebiten.Image, c *visual.Candle) {
	hi, lo := c.DeviceWick()
	if finite(hi) && finite(lo) {
		width := c.Style.StrokeWidth
		if width <= 0 {
			width = 1
		}
		vector.StrokeLine(screen, float32(hi.X), float32(hi.Y), float32(lo.X), float32(lo.Y), width, c.Style.Stroke, s.antialias)
	}
	body := c.DeviceBody()
	if !finiteRect(body) {
		return
	}
	// A flat candle still shows a one pixel body.
	if body.H < 1 {
		body.Y -= (1 - body.H) / 2
		body.H = 1
	}
	vector.DrawFilledRect(screen, float32(body.X), float32(body.Y), float32(body.W), float32(body.H), c.Style.Fill, s.antialias)
}

func (s *Surface) drawWedge(screen *ebiten.Image, w *visual.Wedge) {
	if w.Radius <= 0 || w.Sweep == 0 {
		return
	}
	outline := w.Outline(wedgeStep)
	s.fillPolygon(screen, outline, w.Style.Fill)
	if w.Style.StrokeWidth > 0 {
		s.strokePolyline(screen, outline, true, w.Style.StrokeWidth, w.Style.Stroke)
	}
}

func (s *Surface) fillPolygon(screen *ebiten.Image, pts []geom.Point, clr color.RGBA) {
	var path vector.Path
	tracePath(&path, pts, true)
	vertices, indices := path.AppendVerticesAndIndicesForFilling(nil, nil)
	setVertexColors(vertices, clr)
	screen.DrawTriangles(vertices, indices, emptySubImage, &ebiten.DrawTrianglesOptions{
		AntiAlias: s.antialias,
		FillRule:  ebiten.FillRuleNonZero,
	})
}

func (s *Surface) strokePolyline(screen *ebiten.Image, pts []geom.Point, closed bool, width float32, clr color.RGBA) {
	var path vector.Path
	tracePath(&path, pts, closed)
	vertices, indices := path.AppendVerticesAndIndicesForStroke(nil, nil, &vector.StrokeOptions{
		Width:    width,
		LineCap:  vector.LineCapRound,
		LineJoin: vector.LineJoinRound,
	})
	setVertexColors(vertices, clr)
	screen.DrawTriangles(vertices, indices, emptySubImage, &ebiten.DrawTrianglesOptions{
		AntiAlias: s.antialias,
	})
}

func tracePath(path *vector.Path, pts []geom.Point, closed bool) {
	for i, p := range pts {
		if i == 0 {
			path.MoveTo(float32(p.X), float32(p.Y))
			continue
		}
		path.LineTo(float32(p.X), float32(p.Y))
	}
	if closed {
		path.Close()
	}
}

func setVertexColors(vertices []ebiten.Vertex, clr color.RGBA) {
	r := float32(clr.R) / 255
	g := float32(clr.G) / 255
	b := float32(clr.B) / 255
	a := float32(clr.A) / 255
	for i := range vertices {
		vertices[i].ColorR = r
		vertices[i].ColorG = g
		vertices[i].ColorB = b
		vertices[i].ColorA = a
	}
}

// polylineRuns splits pts at NaN breaks. Single point runs are returned
// too; callers skip runs too short to draw.
func polylineRuns(pts []geom.Point) [][]geom.Point {
	var runs [][]geom.Point
	start := -1
	for i, p := range pts {
		if finite(p) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, pts[start:i])
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, pts[start:])
	}
	return runs
}

// textOrigin returns the top-left corner for a w by h text box anchored
// at p. Without baseline alignment the box is centered vertically on p;
// with it the box sits above p.
func textOrigin(p geom.Point, w, h float64, anchor visual.Anchor, baseline bool) (x, y float64) {
	switch anchor {
	case visual.AnchorMiddle:
		x = p.X - w/2
	case visual.AnchorEnd:
		x = p.X - w
	default:
		x = p.X
	}
	if baseline {
		return x, p.Y - h
	}
	return x, p.Y - h/2
}

func finite(p geom.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func finiteRect(r geom.Rect) bool {
	return finite(geom.Point{X: r.X, Y: r.Y}) && finite(geom.Point{X: r.W, Y: r.H})
}

// emptySubImage is a 1x1 white image used for filling shapes.
var emptySubImage = func() *ebiten.Image {
	img := ebiten.NewImage(1, 1)
	img.Fill(color.White)
	return img
}()
