package axis

import (
	"fmt"
	"math"
	"sort"

	"github.com/opd-ai/go-chart/internal/geom"
)

// Kind selects how an axis maps values.
type Kind int

const (
	// Category axes index discrete integer cells.
	Category Kind = iota
	// Value axes are continuous and linear.
	Value
	// Log axes are continuous and map values through log_base.
	Log
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case Category:
		return "category"
	case Value:
		return "value"
	case Log:
		return "log"
	default:
		return "unknown"
	}
}

// ParseKind parses an axis kind name.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "category":
		return Category, nil
	case "value", "":
		return Value, nil
	case "log", "logarithmic":
		return Log, nil
	default:
		return Value, fmt.Errorf("unknown axis kind: %s", s)
	}
}

// TickMode selects the tick placement strategy.
type TickMode int

const (
	// TicksSweetSpot uses the center-out base-10 TickCalculator.
	TicksSweetSpot TickMode = iota
	// TicksNice uses go-moremath's level search for at most MaxTicks ticks.
	TicksNice
)

// ParseTickMode parses a tick mode name.
func ParseTickMode(s string) (TickMode, error) {
	switch s {
	case "sweet_spot", "":
		return TicksSweetSpot, nil
	case "nice":
		return TicksNice, nil
	default:
		return TicksSweetSpot, fmt.Errorf("unknown tick mode: %s", s)
	}
}

// DefaultMaxTicks bounds nice and log tick generation.
const DefaultMaxTicks = 10

// Axis tracks the extent of one chart dimension and maps raw data values
// into axis space. Axes never choose their own transform; they only expose
// extents.
type Axis struct {
	Name        string
	Kind        Kind
	Orientation geom.Orientation
	Side        geom.Side
	Ticks       TickMode
	MaxTicks    int
	// LogBase is used by Log axes. Zero means 10.
	LogBase float64

	minimum, maximum           float64
	fixedMinimum, fixedMaximum float64
	dirty                      bool
	labels                     map[int]string
}

// New creates an auto-scaling axis with unset limits.
func New(name string, kind Kind, orientation geom.Orientation) *Axis {
	a := &Axis{
		Name:         name,
		Kind:         kind,
		Orientation:  orientation,
		MaxTicks:     DefaultMaxTicks,
		fixedMinimum: math.NaN(),
		fixedMaximum: math.NaN(),
		labels:       make(map[int]string),
		Side:         geom.SideBottom,
	}
	if orientation == geom.Vertical {
		a.Side = geom.SideLeft
	}
	a.ResetLimits()
	return a
}

// Minimum returns the current lower limit, NaN if unset.
func (a *Axis) Minimum() float64 { return a.minimum }

// Maximum returns the current upper limit, NaN if unset.
func (a *Axis) Maximum() float64 { return a.maximum }

// Range returns Maximum-Minimum.
func (a *Axis) Range() float64 { return a.maximum - a.minimum }

// Extent returns the current limits as an Extent.
func (a *Axis) Extent() geom.Extent {
	return geom.Extent{Min: a.minimum, Max: a.maximum}
}

// FixedMinimum returns the minimum override, NaN if auto-scaling.
func (a *Axis) FixedMinimum() float64 { return a.fixedMinimum }

// FixedMaximum returns the maximum override, NaN if auto-scaling.
func (a *Axis) FixedMaximum() float64 { return a.fixedMaximum }

// SetFixedMinimum overrides the lower limit; NaN restores auto-scaling.
// It reports whether the override changed, in which case the chart needs a
// full pass.
func (a *Axis) SetFixedMinimum(v float64) bool {
	if sameFloat(a.fixedMinimum, v) {
		return false
	}
	a.fixedMinimum = v
	a.dirty = true
	return true
}

// SetFixedMaximum overrides the upper limit; NaN restores auto-scaling.
func (a *Axis) SetFixedMaximum(v float64) bool {
	if sameFloat(a.fixedMaximum, v) {
		return false
	}
	a.fixedMaximum = v
	a.dirty = true
	return true
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

// Dirty reports whether the limits were reset or overridden since the last
// ClearDirty.
func (a *Axis) Dirty() bool { return a.dirty }

// ClearDirty clears the dirty flag.
func (a *Axis) ClearDirty() { a.dirty = false }

// ResetLimits restores the limits to the fixed overrides (NaN when
// auto-scaling) and marks the axis dirty.
func (a *Axis) ResetLimits() {
	a.minimum = a.fixedMinimum
	a.maximum = a.fixedMaximum
	a.dirty = true
}

// UpdateLimits widens the auto-scaling limits to include v. Non-finite
// values and fixed limits are left alone. A value below a fixed minimum never moves
// the maximum (and vice versa), so Minimum <= Maximum always holds.
func (a *Axis) UpdateLimits(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	fixedMin := !math.IsNaN(a.fixedMinimum)
	fixedMax := !math.IsNaN(a.fixedMaximum)

	if !fixedMin && (math.IsNaN(a.minimum) || v < a.minimum) {
		if !fixedMax || v <= a.fixedMaximum {
			a.minimum = v
		}
	}
	if !fixedMax && (math.IsNaN(a.maximum) || v > a.maximum) {
		if !fixedMin || v >= a.fixedMinimum {
			a.maximum = v
		}
	}
}

// Finalize resolves unset or degenerate limits so a transform can be built:
// both unset becomes [0,1], one unset collapses onto the other and equal
// limits are widened around the value. Fixed limits are kept.
func (a *Axis) Finalize() {
	minNaN, maxNaN := math.IsNaN(a.minimum), math.IsNaN(a.maximum)
	switch {
	case minNaN && maxNaN:
		a.minimum, a.maximum = 0, 1
		return
	case minNaN:
		a.minimum = a.maximum
	case maxNaN:
		a.maximum = a.minimum
	}
	if a.minimum < a.maximum {
		return
	}
	pad := 1.0
	if a.Kind == Category {
		pad = 0.5
	}
	fixedMin, fixedMax := !math.IsNaN(a.fixedMinimum), !math.IsNaN(a.fixedMaximum)
	switch {
	case !fixedMin && !fixedMax:
		v := a.minimum
		a.minimum, a.maximum = v-pad, v+pad
	case fixedMin && !fixedMax:
		a.maximum = a.minimum + 2*pad
	case !fixedMin && fixedMax:
		a.minimum = a.maximum - 2*pad
	default:
		a.maximum = a.minimum + 2*pad
	}
}

// For maps a raw data value into axis space.
func (a *Axis) For(v float64) float64 {
	if a.Kind != Log {
		return v
	}
	if v <= 0 {
		return math.NaN()
	}
	return math.Log(v) / math.Log(a.logBase())
}

// ForLabel maps v like For and caches label at int(v). Later labels for
// the same truncated index silently replace earlier ones; series rely on
// that last-write-wins behavior.
func (a *Axis) ForLabel(v float64, label string) float64 {
	mapped := a.For(v)
	if a.Kind == Category && !math.IsNaN(v) {
		a.labels[int(v)] = label
	}
	return mapped
}

// Label returns the cached label for a category index.
func (a *Axis) Label(index int) (string, bool) {
	l, ok := a.labels[index]
	return l, ok
}

// ClearLabels drops every cached label.
func (a *Axis) ClearLabels() {
	clear(a.labels)
}

// ScaleFor returns deviceExtent/Range, NaN when either is NaN.
func (a *Axis) ScaleFor(deviceExtent float64) float64 {
	r := a.Range()
	if math.IsNaN(r) || math.IsNaN(deviceExtent) {
		return math.NaN()
	}
	return deviceExtent / r
}

func (a *Axis) logBase() float64 {
	if a.LogBase > 1 {
		return a.LogBase
	}
	return 10
}

// TickValues returns the axis' ticks in ascending axis-space order. Category
// axes tick at the center of every whole cell inside the extent.
func (a *Axis) TickValues() ([]float64, error) {
	lo, hi := a.minimum, a.maximum
	switch a.Kind {
	case Category:
		if _, err := NewTickCalculator(lo, hi); err != nil {
			return nil, err
		}
		var out []float64
		for i := math.Floor(lo); i < hi; i++ {
			if c := i + 0.5; c >= lo && c <= hi {
				out = append(out, c)
			}
		}
		return out, nil
	case Log:
		return LogTicks(lo, hi, a.logBase(), a.maxTicks())
	}
	if a.Ticks == TicksNice {
		major, _, err := NiceTicks(lo, hi, a.maxTicks())
		return major, err
	}
	tc, err := NewTickCalculator(lo, hi)
	if err != nil {
		return nil, err
	}
	out := tc.Collect()
	sort.Float64s(out)
	return out, nil
}

// TickLabel formats a tick for display.
func (a *Axis) TickLabel(v float64) string {
	switch a.Kind {
	case Category:
		if l, ok := a.Label(int(math.Floor(v))); ok {
			return l
		}
		return fmt.Sprintf("%d", int(math.Floor(v)))
	case Log:
		return fmt.Sprintf("%g", math.Pow(a.logBase(), v))
	}
	return fmt.Sprintf("%.6g", v)
}

func (a *Axis) maxTicks() int {
	if a.MaxTicks > 0 {
		return a.MaxTicks
	}
	return DefaultMaxTicks
}
