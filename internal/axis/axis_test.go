package axis

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/opd-ai/go-chart/internal/geom"
)

func TestNewAxisUnset(t *testing.T) {
	a := New("y", Value, geom.Vertical)
	if !math.IsNaN(a.Minimum()) || !math.IsNaN(a.Maximum()) {
		t.Errorf("new axis limits = [%v, %v], want NaN", a.Minimum(), a.Maximum())
	}
	if a.Side != geom.SideLeft {
		t.Errorf("vertical axis side = %v, want left", a.Side)
	}
	if h := New("x", Category, geom.Horizontal); h.Side != geom.SideBottom {
		t.Errorf("horizontal axis side = %v, want bottom", h.Side)
	}
	if !a.Dirty() {
		t.Error("new axis should be dirty")
	}
	if !math.IsNaN(a.ScaleFor(100)) {
		t.Error("ScaleFor on an unset axis should be NaN")
	}
}

func TestUpdateLimitsTracksMinMax(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		a := New("x", Value, geom.Horizontal)
		lo, hi := math.Inf(1), math.Inf(-1)
		n := 1 + r.Intn(40)
		for i := 0; i < n; i++ {
			v := (r.Float64() - 0.5) * 1000
			if r.Intn(10) == 0 {
				a.UpdateLimits([]float64{math.NaN(), math.Inf(1), math.Inf(-1)}[r.Intn(3)])
				continue
			}
			a.UpdateLimits(v)
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		if math.IsInf(lo, 1) {
			continue
		}
		if a.Minimum() != lo || a.Maximum() != hi {
			t.Fatalf("trial %d: limits [%v, %v], want [%v, %v]", trial, a.Minimum(), a.Maximum(), lo, hi)
		}
	}
}

func TestFixedLimits(t *testing.T) {
	a := New("y", Value, geom.Vertical)
	if !a.SetFixedMinimum(0) {
		t.Fatal("SetFixedMinimum(0) reported no change")
	}
	if a.SetFixedMinimum(0) {
		t.Error("repeated SetFixedMinimum(0) reported a change")
	}
	a.ResetLimits()

	a.UpdateLimits(-20)
	if a.Minimum() != 0 {
		t.Errorf("fixed minimum moved to %v", a.Minimum())
	}
	if !math.IsNaN(a.Maximum()) {
		t.Errorf("value below fixed minimum moved maximum to %v", a.Maximum())
	}
	a.UpdateLimits(35)
	if a.Maximum() != 35 {
		t.Errorf("Maximum = %v, want 35", a.Maximum())
	}

	if !a.SetFixedMinimum(math.NaN()) {
		t.Error("clearing the override reported no change")
	}
	a.ResetLimits()
	if !math.IsNaN(a.Minimum()) {
		t.Errorf("Minimum after clearing override = %v, want NaN", a.Minimum())
	}
}

func TestFinalize(t *testing.T) {
	tests := []struct {
		name               string
		kind               Kind
		fixedMin, fixedMax float64
		values             []float64
		want               geom.Extent
	}{
		{"empty", Value, math.NaN(), math.NaN(), nil, geom.Extent{Min: 0, Max: 1}},
		{"single value", Value, math.NaN(), math.NaN(), []float64{5}, geom.Extent{Min: 4, Max: 6}},
		{"single category", Category, math.NaN(), math.NaN(), []float64{3}, geom.Extent{Min: 2.5, Max: 3.5}},
		{"only fixed min", Value, 10, math.NaN(), nil, geom.Extent{Min: 10, Max: 12}},
		{"only fixed max", Value, math.NaN(), 10, nil, geom.Extent{Min: 8, Max: 10}},
		{"spread", Value, math.NaN(), math.NaN(), []float64{1, -2, 7}, geom.Extent{Min: -2, Max: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New("a", tt.kind, geom.Horizontal)
			a.SetFixedMinimum(tt.fixedMin)
			a.SetFixedMaximum(tt.fixedMax)
			a.ResetLimits()
			for _, v := range tt.values {
				a.UpdateLimits(v)
			}
			a.Finalize()
			if diff := cmp.Diff(tt.want, a.Extent()); diff != "" {
				t.Errorf("extent mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestForLabelLastWriteWins(t *testing.T) {
	a := New("x", Category, geom.Horizontal)
	if got := a.ForLabel(2, "Feb"); got != 2 {
		t.Errorf("ForLabel returned %v, want 2", got)
	}
	a.ForLabel(2.7, "Mar")
	if l, _ := a.Label(2); l != "Mar" {
		t.Errorf("Label(2) = %q, want Mar", l)
	}
	if _, ok := a.Label(5); ok {
		t.Error("Label(5) should be unset")
	}
	a.ClearLabels()
	if _, ok := a.Label(2); ok {
		t.Error("ClearLabels left a label behind")
	}
}

func TestLogAxisMapping(t *testing.T) {
	a := New("y", Log, geom.Vertical)
	if got := a.For(1000); math.Abs(got-3) > 1e-12 {
		t.Errorf("For(1000) = %v, want 3", got)
	}
	if !math.IsNaN(a.For(0)) || !math.IsNaN(a.For(-4)) {
		t.Error("non-positive values should map to NaN")
	}
	a.LogBase = 2
	if got := a.For(8); math.Abs(got-3) > 1e-12 {
		t.Errorf("base-2 For(8) = %v, want 3", got)
	}
	if got := a.TickLabel(3); got != "8" {
		t.Errorf("TickLabel(3) = %q, want 8", got)
	}
}

func TestScaleFor(t *testing.T) {
	a := New("x", Value, geom.Horizontal)
	a.UpdateLimits(0)
	a.UpdateLimits(50)
	if got := a.ScaleFor(200); got != 4 {
		t.Errorf("ScaleFor(200) = %v, want 4", got)
	}
	if !math.IsNaN(a.ScaleFor(math.NaN())) {
		t.Error("ScaleFor(NaN) should be NaN")
	}
}

func TestCategoryTickValues(t *testing.T) {
	a := New("x", Category, geom.Horizontal)
	for i := 0; i < 4; i++ {
		a.ForLabel(float64(i), string(rune('A'+i)))
		a.UpdateLimits(float64(i))
		a.UpdateLimits(float64(i + 1))
	}
	a.Finalize()
	ticks, err := a.TickValues()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{0.5, 1.5, 2.5, 3.5}, ticks); diff != "" {
		t.Errorf("category ticks mismatch (-want +got):\n%s", diff)
	}
	if got := a.TickLabel(2.5); got != "C" {
		t.Errorf("TickLabel(2.5) = %q, want C", got)
	}
}

func TestValueTickValuesSorted(t *testing.T) {
	a := New("y", Value, geom.Vertical)
	a.UpdateLimits(-5.25)
	a.UpdateLimits(4)
	a.Finalize()
	ticks, err := a.TickValues()
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{-5, -4, -3, -2, -1, 0, 1, 2, 3, 4}
	if diff := cmp.Diff(want, ticks); diff != "" {
		t.Errorf("sorted ticks mismatch (-want +got):\n%s", diff)
	}

	a.Ticks = TicksNice
	a.MaxTicks = 4
	nice, err := a.TickValues()
	if err != nil {
		t.Fatal(err)
	}
	if len(nice) == 0 || len(nice) > 4 {
		t.Errorf("nice ticks = %v, want 1..4 values", nice)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"category": Category, "": Value, "value": Value, "log": Log} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseKind("polar"); err == nil {
		t.Error("ParseKind(polar) should fail")
	}
}
