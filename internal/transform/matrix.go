// Package transform implements the 2D affine algebra that maps chart data
// space into device space.
//
// A Matrix is represented as:
//
//	| XX  XY |   | x |   | X0 |
//	| YX  YY | * | y | + | Y0 |
//
// The implicit third row is always (0, 0, 1), so composition and inversion
// never need a projective term. All functions are pure; matrices are values.
package transform

import (
	"errors"
	"math"

	"github.com/opd-ai/go-chart/internal/geom"
)

// ErrSingular is returned when inverting a matrix with a zero or
// non-finite determinant.
var ErrSingular = errors.New("transform: matrix is not invertible")

// Matrix is a 2x3 affine transformation.
type Matrix struct {
	XX, XY float64
	YX, YY float64
	X0, Y0 float64
}

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{XX: 1, YY: 1}
}

// Translate returns a matrix that translates by (tx, ty).
func Translate(tx, ty float64) Matrix {
	return Matrix{XX: 1, YY: 1, X0: tx, Y0: ty}
}

// Scale returns a matrix that scales by (sx, sy).
func Scale(sx, sy float64) Matrix {
	return Matrix{XX: sx, YY: sy}
}

// Rotate returns a matrix that rotates by angle radians.
func Rotate(angle float64) Matrix {
	c, s := math.Cos(angle), math.Sin(angle)
	return Matrix{XX: c, XY: -s, YX: s, YY: c}
}

// Swap returns the matrix that exchanges the x and y basis vectors.
func Swap() Matrix {
	return Matrix{XY: 1, YX: 1}
}

// Multiply returns a∘b: the transform that applies b first and then a.
// It is not commutative.
func Multiply(a, b Matrix) Matrix {
	return Matrix{
		XX: a.XX*b.XX + a.XY*b.YX,
		XY: a.XX*b.XY + a.XY*b.YY,
		YX: a.YX*b.XX + a.YY*b.YX,
		YY: a.YX*b.XY + a.YY*b.YY,
		X0: a.XX*b.X0 + a.XY*b.Y0 + a.X0,
		Y0: a.YX*b.X0 + a.YY*b.Y0 + a.Y0,
	}
}

// Determinant returns the determinant of the linear part.
func (m Matrix) Determinant() float64 {
	return m.XX*m.YY - m.XY*m.YX
}

// Invert returns the inverse of m computed from the adjugate.
func (m Matrix) Invert() (Matrix, error) {
	det := m.Determinant()
	if det == 0 || math.IsInf(det, 0) || math.IsNaN(det) {
		return Matrix{}, ErrSingular
	}
	inv := 1 / det
	return Matrix{
		XX: m.YY * inv,
		XY: -m.XY * inv,
		YX: -m.YX * inv,
		YY: m.XX * inv,
		X0: (m.XY*m.Y0 - m.YY*m.X0) * inv,
		Y0: (m.YX*m.X0 - m.XX*m.Y0) * inv,
	}, nil
}

// Apply transforms a point.
func (m Matrix) Apply(p geom.Point) geom.Point {
	return geom.Point{
		X: m.XX*p.X + m.XY*p.Y + m.X0,
		Y: m.YX*p.X + m.YY*p.Y + m.Y0,
	}
}

// ApplyDistance transforms a distance vector, ignoring translation.
func (m Matrix) ApplyDistance(d geom.Point) geom.Point {
	return geom.Point{
		X: m.XX*d.X + m.XY*d.Y,
		Y: m.YX*d.X + m.YY*d.Y,
	}
}

// ApplyRect transforms both corners of r and returns the axis-aligned
// rectangle spanning them. Rotations other than multiples of 90 degrees
// are not represented exactly.
func (m Matrix) ApplyRect(r geom.Rect) geom.Rect {
	a := m.Apply(geom.Point{X: r.X, Y: r.Y})
	b := m.Apply(geom.Point{X: r.Right(), Y: r.Bottom()})
	return geom.Rect{
		X: math.Min(a.X, b.X),
		Y: math.Min(a.Y, b.Y),
		W: math.Abs(b.X - a.X),
		H: math.Abs(b.Y - a.Y),
	}
}

// NearlyEqual reports whether every component of m and o differs by less
// than eps.
func (m Matrix) NearlyEqual(o Matrix, eps float64) bool {
	return math.Abs(m.XX-o.XX) < eps && math.Abs(m.XY-o.XY) < eps &&
		math.Abs(m.YX-o.YX) < eps && math.Abs(m.YY-o.YY) < eps &&
		math.Abs(m.X0-o.X0) < eps && math.Abs(m.Y0-o.Y0) < eps
}
