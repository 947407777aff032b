package transform

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/opd-ai/go-chart/internal/geom"
)

const eps = 1e-9

var approx = cmpopts.EquateApprox(0, eps)

func TestMultiplyOrder(t *testing.T) {
	// Multiply(a, b) applies b first: scale then translate.
	m := Multiply(Translate(10, 20), Scale(2, 3))
	got := m.Apply(geom.Point{X: 1, Y: 1})
	if diff := cmp.Diff(geom.Point{X: 12, Y: 23}, got, approx); diff != "" {
		t.Errorf("translate∘scale mismatch (-want +got):\n%s", diff)
	}

	m = Multiply(Scale(2, 3), Translate(10, 20))
	got = m.Apply(geom.Point{X: 1, Y: 1})
	if diff := cmp.Diff(geom.Point{X: 22, Y: 63}, got, approx); diff != "" {
		t.Errorf("scale∘translate mismatch (-want +got):\n%s", diff)
	}
}

func TestInvertRoundTrip(t *testing.T) {
	model, err := Model(geom.Extent{Min: -5.25, Max: 4}, geom.Extent{Min: 10, Max: 110})
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	matrices := map[string]Matrix{
		"identity":   Identity(),
		"translate":  Translate(3, -7),
		"scale":      Scale(0.5, 4),
		"rotate":     Rotate(math.Pi / 5),
		"swap":       Swap(),
		"projection": Projection(geom.Rect{X: 40, Y: 10, W: 300, H: 200}),
		"model":      model,
		"composed":   Multiply(Projection(geom.Rect{X: 1, Y: 2, W: 3, H: 4}), model),
	}
	for name, m := range matrices {
		t.Run(name, func(t *testing.T) {
			inv, err := m.Invert()
			if err != nil {
				t.Fatalf("Invert: %v", err)
			}
			if got := Multiply(inv, m); !got.NearlyEqual(Identity(), eps) {
				t.Errorf("Invert(M)*M = %+v, want identity", got)
			}
			if got := Multiply(m, inv); !got.NearlyEqual(Identity(), eps) {
				t.Errorf("M*Invert(M) = %+v, want identity", got)
			}
		})
	}
}

func TestInvertOfProduct(t *testing.T) {
	a := Multiply(Translate(4, 5), Rotate(0.3))
	b := Multiply(Scale(2, -3), Translate(-1, 7))

	ab, err := Multiply(a, b).Invert()
	if err != nil {
		t.Fatal(err)
	}
	ia, _ := a.Invert()
	ib, _ := b.Invert()
	if want := Multiply(ib, ia); !ab.NearlyEqual(want, eps) {
		t.Errorf("Invert(A*B) = %+v, want %+v", ab, want)
	}
}

func TestInvertSingular(t *testing.T) {
	for _, m := range []Matrix{
		{},
		Scale(0, 1),
		{XX: 1, XY: 2, YX: 2, YY: 4},
		{XX: math.NaN(), YY: 1},
	} {
		if _, err := m.Invert(); !errors.Is(err, ErrSingular) {
			t.Errorf("Invert(%+v) error = %v, want ErrSingular", m, err)
		}
	}
}

func TestApplyDistanceIgnoresTranslation(t *testing.T) {
	m := Multiply(Translate(100, 100), Scale(2, 2))
	got := m.ApplyDistance(geom.Point{X: 1, Y: -1})
	if got != (geom.Point{X: 2, Y: -2}) {
		t.Errorf("ApplyDistance = %v, want (2, -2)", got)
	}
}

func TestApplyRect(t *testing.T) {
	m := Matrix{XX: 2, YY: -1, Y0: 10}
	got := m.ApplyRect(geom.Rect{X: 1, Y: 1, W: 2, H: 3})
	want := geom.Rect{X: 2, Y: 6, W: 4, H: 3}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("ApplyRect mismatch (-want +got):\n%s", diff)
	}
}
