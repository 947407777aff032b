package geom

import (
	"math"
	"testing"
)

func TestRectEdges(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 30, H: 40}
	if r.Right() != 40 || r.Bottom() != 60 {
		t.Errorf("edges = (%v, %v), want (40, 60)", r.Right(), r.Bottom())
	}
	if c := r.Center(); c != (Point{X: 25, Y: 40}) {
		t.Errorf("center = %v, want (25, 40)", c)
	}
	if !r.Contains(Point{X: 10, Y: 60}) {
		t.Error("edge point should be contained")
	}
	if r.Contains(Point{X: 9, Y: 30}) {
		t.Error("point left of rect should not be contained")
	}
}

func TestRectInset(t *testing.T) {
	r := Rect{W: 10, H: 4}
	got := r.Inset(3)
	if got.W != 4 || got.H != 0 {
		t.Errorf("Inset(3) = %v, want width 4 and collapsed height", got)
	}
	if got.Y != 2 {
		t.Errorf("collapsed Y = %v, want 2", got.Y)
	}
}

func TestExtentValid(t *testing.T) {
	tests := []struct {
		e    Extent
		want bool
	}{
		{Extent{0, 1}, true},
		{Extent{1, 1}, true},
		{Extent{2, 1}, false},
		{Extent{math.NaN(), 1}, false},
		{Extent{0, math.Inf(1)}, false},
	}
	for _, tt := range tests {
		if got := tt.e.Valid(); got != tt.want {
			t.Errorf("%v.Valid() = %v, want %v", tt.e, got, tt.want)
		}
	}
}

func TestParseSide(t *testing.T) {
	for _, s := range []Side{SideLeft, SideTop, SideRight, SideBottom} {
		got, err := ParseSide(s.String())
		if err != nil || got != s {
			t.Errorf("ParseSide(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseSide("middle"); err == nil {
		t.Error("expected error for unknown side")
	}
	if !SideBottom.Horizontal() || SideLeft.Horizontal() {
		t.Error("Horizontal() misclassifies sides")
	}
}

func TestParseOrientation(t *testing.T) {
	if o, err := ParseOrientation("vertical"); err != nil || o != Vertical {
		t.Errorf("ParseOrientation(vertical) = %v, %v", o, err)
	}
	if _, err := ParseOrientation("diagonal"); err == nil {
		t.Error("expected error for unknown orientation")
	}
}
