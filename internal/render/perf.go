package render

import (
	"sync/atomic"
	"time"
)

// FrameMetrics tracks frame timing and draw statistics. All methods are
// safe for concurrent use; the host exposes a Snapshot through its
// metrics endpoint.
type FrameMetrics struct {
	frameCount    atomic.Int64
	periodFrames  atomic.Int64
	lastFPS       atomic.Int64 // FPS * 1000
	lastFrameTime atomic.Int64 // nanoseconds
	minFrameTime  atomic.Int64
	maxFrameTime  atomic.Int64
	totalTime     atomic.Int64
	lastUpdate    atomic.Int64 // Unix nano of the last FPS calculation
	updateTime    atomic.Int64 // nanoseconds spent in the last chart update
	drawn         atomic.Int64
	skipped       atomic.Int64
	updatePeriod  time.Duration
}

// FrameStats is a point-in-time copy of FrameMetrics.
type FrameStats struct {
	Frames           int64
	FPS              float64
	LastFrameTime    time.Duration
	MinFrameTime     time.Duration
	MaxFrameTime     time.Duration
	AverageFrameTime time.Duration
	LastUpdateTime   time.Duration
	ElementsDrawn    int64
	ElementsHidden   int64
}

// NewFrameMetrics creates a new FrameMetrics instance.
// The updatePeriod determines how often FPS is recalculated (default: 1 second).
func NewFrameMetrics(updatePeriod time.Duration) *FrameMetrics {
	if updatePeriod <= 0 {
		updatePeriod = time.Second
	}
	fm := &FrameMetrics{updatePeriod: updatePeriod}
	fm.lastUpdate.Store(time.Now().UnixNano())
	fm.minFrameTime.Store(int64(time.Hour))
	return fm
}

// RecordFrame records a new frame with its duration.
func (fm *FrameMetrics) RecordFrame(frameTime time.Duration) {
	frameNanos := frameTime.Nanoseconds()

	fm.frameCount.Add(1)
	fm.periodFrames.Add(1)
	fm.lastFrameTime.Store(frameNanos)
	fm.totalTime.Add(frameNanos)

	for {
		currentMin := fm.minFrameTime.Load()
		if frameNanos >= currentMin || fm.minFrameTime.CompareAndSwap(currentMin, frameNanos) {
			break
		}
	}
	for {
		currentMax := fm.maxFrameTime.Load()
		if frameNanos <= currentMax || fm.maxFrameTime.CompareAndSwap(currentMax, frameNanos) {
			break
		}
	}

	now := time.Now().UnixNano()
	lastUpdate := fm.lastUpdate.Load()
	elapsed := time.Duration(now - lastUpdate)
	if elapsed >= fm.updatePeriod && fm.lastUpdate.CompareAndSwap(lastUpdate, now) {
		frames := fm.periodFrames.Swap(0)
		fm.lastFPS.Store(int64(float64(frames) / elapsed.Seconds() * 1000))
	}
}

// RecordUpdate records how long a chart update took.
func (fm *FrameMetrics) RecordUpdate(d time.Duration) {
	fm.updateTime.Store(d.Nanoseconds())
}

// RecordElements records the element counts of the last draw.
func (fm *FrameMetrics) RecordElements(drawn, hidden int) {
	fm.drawn.Store(int64(drawn))
	fm.skipped.Store(int64(hidden))
}

// FPS returns the frame rate measured over the last update period.
func (fm *FrameMetrics) FPS() float64 {
	return float64(fm.lastFPS.Load()) / 1000
}

// Snapshot returns the current statistics.
func (fm *FrameMetrics) Snapshot() FrameStats {
	st := FrameStats{
		Frames:         fm.frameCount.Load(),
		FPS:            fm.FPS(),
		LastFrameTime:  time.Duration(fm.lastFrameTime.Load()),
		MaxFrameTime:   time.Duration(fm.maxFrameTime.Load()),
		LastUpdateTime: time.Duration(fm.updateTime.Load()),
		ElementsDrawn:  fm.drawn.Load(),
		ElementsHidden: fm.skipped.Load(),
	}
	if st.Frames > 0 {
		st.MinFrameTime = time.Duration(fm.minFrameTime.Load())
		st.AverageFrameTime = time.Duration(fm.totalTime.Load() / st.Frames)
	}
	return st
}

// Reset clears all statistics.
func (fm *FrameMetrics) Reset() {
	fm.frameCount.Store(0)
	fm.periodFrames.Store(0)
	fm.lastFPS.Store(0)
	fm.lastFrameTime.Store(0)
	fm.minFrameTime.Store(int64(time.Hour))
	fm.maxFrameTime.Store(0)
	fm.totalTime.Store(0)
	fm.updateTime.Store(0)
	fm.drawn.Store(0)
	fm.skipped.Store(0)
	fm.lastUpdate.Store(time.Now().UnixNano())
}
