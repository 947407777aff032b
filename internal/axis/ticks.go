// Package axis implements axis extent tracking, value mapping and tick
// generation for chart axes.
package axis

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/aclements/go-moremath/scale"
)

// Epsilon is the tolerance used when comparing generated ticks against axis
// extents. Base-10 decimal ticks do not round-trip exactly in binary
// floating point.
const Epsilon = 1e-9

// ErrInvalidExtent is returned when a tick calculation is requested for an
// extent that is not a finite, strictly increasing interval.
var ErrInvalidExtent = errors.New("axis: extent must be finite with minimum < maximum")

// NearlyEqual reports whether |a-b| < eps.
func NearlyEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

// TickCalculator places ticks on a base-10 grid that fits roughly ten
// intervals into the extent, radiating out from a center tick.
type TickCalculator struct {
	Minimum, Maximum float64
	// Range is |Maximum-Minimum|.
	Range float64
	// DecimalPlaces is round(log10(Range) - 1).
	DecimalPlaces int
	// TickInterval is 10^DecimalPlaces.
	TickInterval float64
	// Center is the first tick yielded.
	Center float64
	// Tolerance is how close a tick must be to a bound to snap onto it:
	// Epsilon, or a millionth of the interval on finer grids.
	Tolerance float64
}

// NewTickCalculator validates the extent and computes the tick grid.
func NewTickCalculator(minimum, maximum float64) (*TickCalculator, error) {
	if math.IsNaN(minimum) || math.IsNaN(maximum) ||
		math.IsInf(minimum, 0) || math.IsInf(maximum, 0) || !(minimum < maximum) {
		return nil, fmt.Errorf("ticks for [%v, %v]: %w", minimum, maximum, ErrInvalidExtent)
	}

	tc := &TickCalculator{Minimum: minimum, Maximum: maximum}
	tc.Range = math.Abs(maximum - minimum)
	if math.IsInf(tc.Range, 0) {
		return nil, fmt.Errorf("ticks for [%v, %v]: range overflows: %w", minimum, maximum, ErrInvalidExtent)
	}
	tc.DecimalPlaces = int(math.Round(math.Log10(tc.Range) - 1))
	tc.TickInterval = math.Pow(10, float64(tc.DecimalPlaces))
	if tc.TickInterval == 0 {
		// Subnormal extents have no representable decimal grid.
		tc.TickInterval = tc.Range
	}
	tc.Tolerance = min(Epsilon, tc.TickInterval*1e-6)

	if sign(minimum) != sign(maximum) {
		tc.Center = 0
	} else {
		mid := minimum + tc.Range/2
		tc.Center = math.Round(mid/tc.TickInterval) * tc.TickInterval
	}
	return tc, nil
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// clip returns v snapped onto a bound when within Tolerance of it, and
// whether the result lies inside the extent.
func (tc *TickCalculator) clip(v float64) (float64, bool) {
	switch {
	case NearlyEqual(v, tc.Minimum, tc.Tolerance):
		return tc.Minimum, true
	case NearlyEqual(v, tc.Maximum, tc.Tolerance):
		return tc.Maximum, true
	case v < tc.Minimum || v > tc.Maximum:
		return v, false
	}
	return v, true
}

// Ticks yields the center tick, then alternately center+k*interval and
// center-k*interval for k = 1, 2, ... until both directions leave the
// extent. Each tick is computed from the center directly so no error
// accumulates along the sequence.
func (tc *TickCalculator) Ticks() iter.Seq[float64] {
	return func(yield func(float64) bool) {
		if c, ok := tc.clip(tc.Center); ok {
			if !yield(c) {
				return
			}
		}
		upDone, downDone := false, false
		lastUp, lastDown := tc.Center, tc.Center
		for k := 1; !upDone || !downDone; k++ {
			step := float64(k) * tc.TickInterval
			if !upDone {
				up := tc.Center + step
				// An interval below the precision of Center makes no progress.
				if up == lastUp {
					upDone = true
				} else if v, ok := tc.clip(up); ok {
					if !yield(v) {
						return
					}
				} else if up > tc.Maximum {
					upDone = true
				}
				lastUp = up
			}
			if !downDone {
				down := tc.Center - step
				if down == lastDown {
					downDone = true
				} else if v, ok := tc.clip(down); ok {
					if !yield(v) {
						return
					}
				} else if down < tc.Minimum {
					downDone = true
				}
				lastDown = down
			}
		}
	}
}

// Collect returns all ticks in generation order.
func (tc *TickCalculator) Collect() []float64 {
	var out []float64
	for v := range tc.Ticks() {
		out = append(out, v)
	}
	return out
}

// NiceTicks returns at most maxTicks major ticks chosen by the go-moremath
// linear scale, plus the minor ticks one level below.
func NiceTicks(minimum, maximum float64, maxTicks int) (major, minor []float64, err error) {
	if _, err := NewTickCalculator(minimum, maximum); err != nil {
		return nil, nil, err
	}
	if maxTicks < 2 {
		maxTicks = 2
	}
	ls := scale.Linear{Min: minimum, Max: maximum}
	major, minor = ls.Ticks(scale.TickOptions{Max: maxTicks})
	return major, minor, nil
}

// LogTicks returns major ticks for a logarithmic axis whose extent is given
// in log space. The ticks are returned in log space as well.
func LogTicks(minimum, maximum, base float64, maxTicks int) ([]float64, error) {
	tc, err := NewTickCalculator(minimum, maximum)
	if err != nil {
		return nil, err
	}
	if maxTicks < 2 {
		maxTicks = 2
	}
	ls, err := scale.NewLog(math.Pow(base, minimum), math.Pow(base, maximum), int(base))
	if err != nil {
		return nil, fmt.Errorf("log scale: %w", err)
	}
	major, _ := ls.Ticks(scale.TickOptions{Max: maxTicks})
	out := make([]float64, 0, len(major))
	for _, v := range major {
		lv := math.Log(v) / math.Log(base)
		if lv >= minimum-tc.Tolerance && lv <= maximum+tc.Tolerance {
			out = append(out, lv)
		}
	}
	return out, nil
}
