package render

import (
	"testing"
	"time"
)

func TestFrameMetricsSnapshot(t *testing.T) {
	fm := NewFrameMetrics(time.Hour)
	if st := fm.Snapshot(); st.Frames != 0 || st.MinFrameTime != 0 || st.AverageFrameTime != 0 {
		t.Errorf("empty snapshot = %+v", st)
	}

	fm.RecordFrame(10 * time.Millisecond)
	fm.RecordFrame(30 * time.Millisecond)
	fm.RecordFrame(20 * time.Millisecond)
	fm.RecordUpdate(3 * time.Millisecond)
	fm.RecordElements(7, 2)

	st := fm.Snapshot()
	want := FrameStats{
		Frames:           3,
		LastFrameTime:    20 * time.Millisecond,
		MinFrameTime:     10 * time.Millisecond,
		MaxFrameTime:     30 * time.Millisecond,
		AverageFrameTime: 20 * time.Millisecond,
		LastUpdateTime:   3 * time.Millisecond,
		ElementsDrawn:    7,
		ElementsHidden:   2,
	}
	if st != want {
		t.Errorf("Snapshot() = %+v, want %+v", st, want)
	}

	fm.Reset()
	if st := fm.Snapshot(); st != (FrameStats{}) {
		t.Errorf("after Reset() = %+v", st)
	}
}

func TestFrameMetricsFPS(t *testing.T) {
	fm := NewFrameMetrics(time.Nanosecond)
	time.Sleep(time.Millisecond)
	fm.RecordFrame(time.Millisecond)
	if fm.FPS() <= 0 {
		t.Errorf("FPS() = %v, want > 0", fm.FPS())
	}
}
