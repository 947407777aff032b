//go:build !noebiten

package render

import (
	"image/color"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/opd-ai/go-chart/internal/geom"
	"github.com/opd-ai/go-chart/internal/transform"
	"github.com/opd-ai/go-chart/internal/visual"
)

type drawnText struct {
	Text string
	X, Y float64
	Size float64
}

// recordingText implements TextDrawer for testing. Every string measures
// 10 pixels per rune by 16 pixels.
type recordingText struct {
	mu    sync.Mutex
	drawn []drawnText
}

func (r *recordingText) DrawText(_ *ebiten.Image, s string, x, y, size float64, _ color.RGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drawn = append(r.drawn, drawnText{Text: s, X: x, Y: y, Size: size})
}

func (r *recordingText) MeasureText(s string, _ float64) (float64, float64) {
	return float64(len([]rune(s))) * 10, 16
}

func TestPolylineRuns(t *testing.T) {
	nan := geom.Point{X: math.NaN(), Y: math.NaN()}
	p := func(x float64) geom.Point { return geom.Point{X: x, Y: x} }
	tests := []struct {
		name string
		pts  []geom.Point
		want [][]geom.Point
	}{
		{"empty", nil, nil},
		{"single run", []geom.Point{p(1), p(2), p(3)}, [][]geom.Point{{p(1), p(2), p(3)}}},
		{"gap", []geom.Point{p(1), p(2), nan, p(4), p(5)}, [][]geom.Point{{p(1), p(2)}, {p(4), p(5)}}},
		{"leading and trailing breaks", []geom.Point{nan, p(1), nan, nan, p(3), nan}, [][]geom.Point{{p(1)}, {p(3)}}},
		{"all breaks", []geom.Point{nan, nan}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, polylineRuns(tt.pts)); diff != "" {
				t.Errorf("polylineRuns() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTextOrigin(t *testing.T) {
	at := geom.Point{X: 100, Y: 50}
	tests := []struct {
		name     string
		anchor   visual.Anchor
		baseline bool
		wantX    float64
		wantY    float64
	}{
		{"start centered", visual.AnchorStart, false, 100, 42},
		{"middle centered", visual.AnchorMiddle, false, 80, 42},
		{"end centered", visual.AnchorEnd, false, 60, 42},
		{"middle baseline", visual.AnchorMiddle, true, 80, 34},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := textOrigin(at, 40, 16, tt.anchor, tt.baseline)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("textOrigin() = (%v, %v), want (%v, %v)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestSurfaceDrawText(t *testing.T) {
	rec := &recordingText{}
	s := NewSurface(rec)

	label := visual.NewText("abcd")
	label.At = geom.Point{X: 1, Y: 2}
	label.Transform = transform.Translate(99, 48)
	label.Anchor = visual.AnchorMiddle
	label.Style.FontSize = 14

	hidden := visual.NewText("hidden")
	hidden.Hidden = true

	empty := visual.NewText("")
	s.Attach(label, hidden, empty)

	fm := NewFrameMetrics(0)
	s.SetMetrics(fm)
	s.Draw(ebiten.NewImage(200, 100))

	want := []drawnText{{Text: "abcd", X: 80, Y: 42, Size: 14}}
	if diff := cmp.Diff(want, rec.drawn); diff != "" {
		t.Errorf("drawn text mismatch (-want +got):\n%s", diff)
	}
	st := fm.Snapshot()
	if st.ElementsDrawn != 2 || st.ElementsHidden != 1 {
		t.Errorf("element counts = %d drawn, %d hidden; want 2, 1", st.ElementsDrawn, st.ElementsHidden)
	}
}

func TestSurfaceDrawAllElements(t *testing.T) {
	s := NewSurface(&recordingText{})
	s.SetAntialias(false)

	path := visual.NewPath()
	path.Points = []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: math.NaN(), Y: 0}, {X: 20, Y: 0}, {X: 30, Y: 5}, {X: 25, Y: 20}}
	path.Filled = true

	rect := visual.NewRect()
	rect.Rect = geom.Rect{X: 5, Y: 5, W: 10, H: 20}

	var markers []visual.Element
	for _, shape := range []visual.MarkerShape{visual.Circle, visual.Square, visual.Diamond} {
		m := visual.NewMarker(6)
		m.Center = geom.Point{X: 50, Y: 50}
		m.Shape = shape
		markers = append(markers, m)
	}

	line := visual.NewLine()
	line.From, line.To = geom.Point{X: 0, Y: 90}, geom.Point{X: 100, Y: 90}

	candle := visual.NewCandle()
	candle.X, candle.Width = 60, 6
	candle.Open, candle.High, candle.Low, candle.Close = 40, 60, 30, 40

	wedge := visual.NewWedge()
	wedge.Center = geom.Point{X: 50, Y: 50}
	wedge.Radius, wedge.Inner = 30, 10
	wedge.Sweep = math.Pi / 2

	nanRect := visual.NewRect()
	nanRect.Rect = geom.Rect{X: math.NaN(), W: 1, H: 1}

	s.Attach(path, rect, line, candle, wedge, nanRect)
	s.Attach(markers...)
	s.Draw(ebiten.NewImage(100, 100))

	if s.Len() != 9 {
		t.Errorf("Len() = %d, want 9", s.Len())
	}
}
