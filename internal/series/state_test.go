package series

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func indexedStates(n int) []*ItemState {
	out := make([]*ItemState, n)
	for i := range out {
		out[i] = &ItemState{Index: i, Category: float64(i), Offset: float64(i) + 0.5}
	}
	return out
}

func TestRemoveRange(t *testing.T) {
	states := indexedStates(5)
	var moved []int
	kept, removed := removeRange(states, 2, 1, true, func(st *ItemState) { moved = append(moved, st.Index) })

	if diff := cmp.Diff([]row{{0, 0, 0.5, 0}, {1, 1, 1.5, 0}, {2, 2, 2.5, 0}, {3, 3, 3.5, 0}}, rows(kept)); diff != "" {
		t.Errorf("kept (-want +got):\n%s", diff)
	}
	if len(removed) != 1 || removed[0] != states[2] {
		t.Errorf("removed = %v", removed)
	}
	if diff := cmp.Diff([]int{2, 3}, moved); diff != "" {
		t.Errorf("moved (-want +got):\n%s", diff)
	}
}

func TestRemoveRangeNotIndexed(t *testing.T) {
	states := []*ItemState{
		{Index: 0, Category: 7, Offset: 7},
		{Index: 1, Category: 3, Offset: 3},
		{Index: 2, Category: 9, Offset: 9},
	}
	kept, _ := removeRange(states, 0, 1, false, nil)
	if diff := cmp.Diff([]row{{0, 3, 3, 0}, {1, 9, 9, 0}}, rows(kept)); diff != "" {
		t.Errorf("kept (-want +got):\n%s", diff)
	}
}

func TestInsertRange(t *testing.T) {
	states := indexedStates(3)
	fresh := []*ItemState{{Index: 1, Category: 1, Offset: 1.5, Value: 9}}
	got := insertRange(states, 1, 1, fresh, true, nil)
	want := []row{{0, 0, 0.5, 0}, {1, 1, 1.5, 9}, {2, 2, 2.5, 0}, {3, 3, 3.5, 0}}
	if diff := cmp.Diff(want, rows(got)); diff != "" {
		t.Errorf("states (-want +got):\n%s", diff)
	}

	// Appending past the end shifts nothing.
	got = insertRange(got, 4, 1, []*ItemState{{Index: 4, Category: 4, Offset: 4.5}}, true, nil)
	if n := len(got); n != 5 || got[4].Index != 4 || got[3].Index != 3 {
		t.Errorf("append: %v", rows(got))
	}
}

func TestMultiChannelRemove(t *testing.T) {
	var states []*ItemState
	for i := range 3 {
		for ch := range 2 {
			states = append(states, &ItemState{Index: i, Channel: ch, Category: float64(i), Offset: float64(i) + 0.25 + 0.5*float64(ch)})
		}
	}
	kept, removed := removeRange(states, 0, 1, true, nil)
	if len(removed) != 2 || len(kept) != 4 {
		t.Fatalf("removed %d kept %d", len(removed), len(kept))
	}
	if kept[0].Index != 0 || kept[0].Channel != 0 || kept[1].Channel != 1 || kept[1].Offset != 0.75 {
		t.Errorf("kept = %v %v", kept[0], kept[1])
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		err  bool
	}{
		{"", Line, false},
		{"column", Column, false},
		{"bar", Column, false},
		{"scatter", Scatter, false},
		{"ohlc", Candlestick, false},
		{"heatmap", Heatmap, false},
		{"donut", Pie, false},
		{"radar", Line, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParseKind(%q) = %v, %v", tt.in, got, err)
		}
	}
}
