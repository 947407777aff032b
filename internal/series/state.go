// Package series implements the chart components that render data: the
// cartesian series kinds, pies, axis views and decorations.
package series

import (
	"fmt"
	"sort"

	"github.com/opd-ai/go-chart/internal/visual"
)

// ItemState binds one rendered data item of one channel to its mapped
// coordinates and the element that represents it.
type ItemState struct {
	// Index is the item's position in the source.
	Index int
	// Category is the x value in axis space. For index-driven series it is
	// the index itself.
	Category float64
	// Offset is Category plus the intra-cell offset of the channel.
	Offset float64
	// Value is the mapped y value.
	Value float64
	// Channel identifies the value path that produced the state.
	Channel int
	// Element is the element owned by the state.
	Element visual.Element
	// Label is the optional category label.
	Label string
	// Values holds extra mapped values: open, high, low, close for
	// candlesticks and the row for heatmaps.
	Values []float64
}

func (st *ItemState) String() string {
	return fmt.Sprintf("{index %d ch %d cat %g off %g val %g}", st.Index, st.Channel, st.Category, st.Offset, st.Value)
}

// shift moves the state by n positions. Index-driven states move their
// category and offset along with the index.
func (st *ItemState) shift(n int, indexed bool) {
	st.Index += n
	if indexed {
		st.Category += float64(n)
		st.Offset += float64(n)
	}
}

// firstAtOrAfter returns the position of the first state whose index is
// at least index. States are ordered by Index then Channel.
func firstAtOrAfter(states []*ItemState, index int) int {
	return sort.Search(len(states), func(k int) bool { return states[k].Index >= index })
}

// removeRange deletes the states whose index lies in [start, start+count),
// shifts the survivors after the range down by count and returns the
// remaining states and the removed ones. shifted is called for every
// moved state.
func removeRange(states []*ItemState, start, count int, indexed bool, shifted func(*ItemState)) (kept, removed []*ItemState) {
	lo := firstAtOrAfter(states, start)
	hi := firstAtOrAfter(states, start+count)
	removed = append(removed, states[lo:hi]...)
	kept = make([]*ItemState, 0, len(states)-len(removed))
	kept = append(kept, states[:lo]...)
	for _, st := range states[hi:] {
		st.shift(-count, indexed)
		if shifted != nil {
			shifted(st)
		}
		kept = append(kept, st)
	}
	return kept, removed
}

// insertRange shifts the states at or after start up by count and
// inserts fresh before them. fresh must already carry their final
// indices.
func insertRange(states []*ItemState, start, count int, fresh []*ItemState, indexed bool, shifted func(*ItemState)) []*ItemState {
	pos := firstAtOrAfter(states, start)
	for _, st := range states[pos:] {
		st.shift(count, indexed)
		if shifted != nil {
			shifted(st)
		}
	}
	out := make([]*ItemState, 0, len(states)+len(fresh))
	out = append(out, states[:pos]...)
	out = append(out, fresh...)
	return append(out, states[pos:]...)
}

// elements returns the elements owned by states.
func elements(states []*ItemState) []visual.Element {
	out := make([]visual.Element, 0, len(states))
	for _, st := range states {
		if st.Element != nil {
			out = append(out, st.Element)
		}
	}
	return out
}
