package transform

import (
	"fmt"

	"github.com/opd-ai/go-chart/internal/geom"
)

// Projection maps the unit square [0,1]x[0,1] onto area in device space.
func Projection(area geom.Rect) Matrix {
	return Matrix{XX: area.W, YY: area.H, X0: area.X, Y0: area.Y}
}

// Model maps [x.Min, x.Max] to [0,1] horizontally and [y.Min, y.Max] to
// [1,0] vertically, so that larger values end up higher on screen.
func Model(x, y geom.Extent) (Matrix, error) {
	xr, yr := x.Range(), y.Range()
	if !x.Valid() || !y.Valid() || xr == 0 || yr == 0 {
		return Matrix{}, fmt.Errorf("model for extents %v/%v: %w", x, y, ErrSingular)
	}
	return Matrix{
		XX: 1 / xr,
		X0: -x.Min / xr,
		YY: -1 / yr,
		Y0: 1 + y.Min/yr,
	}, nil
}

// Alternate reports whether an axis pairing uses the alternate layout, where
// the X-role axis (usually categories) runs vertically and the Y-role axis
// (usually values) runs horizontally.
func Alternate(xRole geom.Orientation) bool {
	return xRole == geom.Vertical
}

// ModelFor returns the model matrix for a series written against X/Y axis
// roles. For the default pairing this is Model(x, y). For the alternate
// pairing the point is swapped first, so the X-role coordinate ends up on
// the vertical device axis.
func ModelFor(xRole geom.Orientation, x, y geom.Extent) (Matrix, error) {
	if !Alternate(xRole) {
		return Model(x, y)
	}
	m, err := Model(y, x)
	if err != nil {
		return Matrix{}, err
	}
	return Multiply(m, Swap()), nil
}

// SeriesTransform composes the projection onto area with the model matrix
// for the given axis extents.
func SeriesTransform(area geom.Rect, xRole geom.Orientation, x, y geom.Extent) (Matrix, error) {
	m, err := ModelFor(xRole, x, y)
	if err != nil {
		return Matrix{}, err
	}
	return Multiply(Projection(area), m), nil
}

// AxisTransform maps points expressed as (along, across) for an axis view.
// along is an axis-space value mapped onto the matching edge of series;
// across is a device offset from the origin of area. Horizontal axes run
// left to right, vertical axes bottom to top.
func AxisTransform(o geom.Orientation, e geom.Extent, series, area geom.Rect) (Matrix, error) {
	r := e.Range()
	if !e.Valid() || r == 0 {
		return Matrix{}, fmt.Errorf("axis transform for extent %v: %w", e, ErrSingular)
	}
	if o == geom.Horizontal {
		s := series.W / r
		return Matrix{XX: s, X0: series.X - e.Min*s, YY: 1, Y0: area.Y}, nil
	}
	s := series.H / r
	return Matrix{XY: 1, X0: area.X, YX: -s, Y0: series.Bottom() + e.Min*s}, nil
}
