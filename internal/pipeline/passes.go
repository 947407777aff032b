package pipeline

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/opd-ai/go-chart/internal/data"
	"github.com/opd-ai/go-chart/internal/layout"
)

// Update drains the dispatcher and runs the passes the queued work needs:
// one full pass when anything structural changed, otherwise the queued
// incremental and component passes in arrival order followed by a
// transforms-only pass if the size changed. Reports raised meanwhile are
// delivered in one batch. A pass that panics is logged and returned as an
// error; the layout of the last successful pass stays current.
func (c *Chart) Update() error {
	for _, fn := range c.dispatcher.Drain() {
		fn()
	}
	defer c.flushReports()

	if c.size.Empty() {
		// Nothing can be laid out yet; keep the work for later.
		return nil
	}

	if c.ctx == nil && len(c.pending) > 0 {
		c.log.Debug("escalating queued updates to a full pass", "events", len(c.pending))
		c.fullDirty = true
	}
	if c.fullDirty {
		c.pending = nil
		c.sizeDirty = false
		err := c.run(layout.Full, c.fullPass)
		c.fullDirty = false
		return err
	}

	pending := c.pending
	c.pending = nil
	var errs []error
	for _, ev := range pending {
		var err error
		switch ev.kind {
		case eventChange:
			err = c.run(layout.Incremental, func() { c.incrementalPass(ev.change) })
		case eventRefresh:
			err = c.run(layout.Component, func() { c.componentPass(ev.slot, ev.refresh) })
		}
		if err != nil {
			errs = append(errs, err)
		}
		if c.fullDirty {
			// A series without incremental support asked for a rebuild.
			c.fullDirty = false
			return errors.Join(append(errs, c.run(layout.Full, c.fullPass))...)
		}
	}
	if c.sizeDirty {
		c.sizeDirty = false
		errs = append(errs, c.run(layout.TransformsOnly, c.transformsPass))
	}
	return errors.Join(errs...)
}

// run executes one pass, recovering from panics.
func (c *Chart) run(kind layout.PassKind, pass func()) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s pass panicked: %v", kind, r)
			c.log.Error("pass failed, keeping last layout", "pass", kind.String(), "panic", r, "stack", string(debug.Stack()))
		}
		if c.opts.Observer != nil {
			c.opts.Observer.PassCompleted(kind, time.Since(start), err)
		}
	}()
	pass()
	c.log.Debug("pass complete", "pass", kind.String(), "elapsed", time.Since(start))
	return nil
}

func (c *Chart) flushReports() {
	if len(c.reports) == 0 {
		return
	}
	batch := c.reports
	c.reports = nil
	for _, r := range batch {
		c.log.Warn("chart report", "source", r.Source, "message", r.Message, "properties", r.Properties)
	}
	if c.opts.OnReport != nil {
		c.opts.OnReport(batch)
	}
}

func (c *Chart) component(id int) Component {
	if id <= 0 || id >= len(c.slots) || c.slots[id] == nil {
		return nil
	}
	return c.slots[id].component
}

// claim runs the layout-claim phase into a fresh context.
func (c *Chart) claim(kind layout.PassKind) *layout.Context {
	lc := layout.NewContext(c.size, c.opts.Padding, kind)
	for _, id := range c.members.layout {
		c.component(id).(LayoutClaimer).ClaimLayout(lc, id)
	}
	lc.FinalizeRects()
	return lc
}

func (c *Chart) resetAxes() {
	for _, a := range c.axes {
		a.ResetLimits()
		a.ClearLabels()
	}
}

func (c *Chart) foldSeriesExtents() {
	for _, id := range c.members.seriesExtents {
		c.component(id).(ExtentProvider).FoldExtents()
	}
}

func (c *Chart) foldOtherExtents() {
	for _, id := range c.members.extents {
		c.component(id).(ExtentProvider).FoldExtents()
	}
}

func (c *Chart) finalizeAxes() {
	for _, a := range c.axes {
		a.Finalize()
	}
}

func (c *Chart) axesFinalized(lc *layout.Context, kind layout.PassKind) {
	for _, id := range c.members.postAxis {
		c.component(id).(AxesFinalizedHandler).AxesFinalized(lc.RenderContext(id).WithPass(kind))
	}
}

func (c *Chart) renderAxes(lc *layout.Context, kind layout.PassKind) {
	for _, id := range c.members.axes {
		c.component(id).(AxisRenderer).Render(lc.RenderContext(id).WithPass(kind))
	}
	for _, a := range c.axes {
		a.ClearDirty()
	}
}

func (c *Chart) applyTransforms(lc *layout.Context, kind layout.PassKind) {
	for _, id := range c.members.transforms {
		c.component(id).(TransformApplier).ApplyTransforms(lc.RenderContext(id).WithPass(kind))
	}
}

// traverse runs one data series over its source and returns the pass
// awaiting its postamble, or nil.
func (c *Chart) traverse(id int, rc layout.RenderContext) RenderPass {
	s := c.slots[id]
	ds := s.component.(DataSeries)
	var items []data.Item
	if c.opts.Sources != nil {
		src, ok := c.opts.Sources.Source(s.source)
		if !ok {
			s.host.Report(fmt.Sprintf("unknown data source %q", s.source), "source")
			return nil
		}
		items, s.version = src.Snapshot()
	}
	pass := ds.Preamble(rc)
	if pass == nil {
		return nil
	}
	for i, it := range items {
		pass.Render(i, it)
	}
	pass.RenderComplete()
	return pass
}

// fullPass re-derives everything from raw data.
func (c *Chart) fullPass() {
	c.resetAxes()
	lc := c.claim(layout.Full)

	passes := make(map[int]RenderPass, len(c.members.data))
	for _, id := range c.members.data {
		if p := c.traverse(id, lc.RenderContext(id)); p != nil {
			passes[id] = p
		}
	}
	c.foldSeriesExtents()
	for _, id := range c.members.renderers {
		c.component(id).(Renderer).Render(lc.RenderContext(id))
	}
	c.foldOtherExtents()
	c.finalizeAxes()
	for _, id := range c.members.data {
		if p, ok := passes[id]; ok {
			p.Postamble()
		}
	}
	c.axesFinalized(lc, layout.Full)
	c.renderAxes(lc, layout.Full)
	c.applyTransforms(lc, layout.Full)

	c.passes = passes
	c.ctx = lc
}

// transformsPass re-claims layout for the new size and re-applies
// transforms without touching data or axes.
func (c *Chart) transformsPass() {
	lc := c.claim(layout.TransformsOnly)
	c.applyTransforms(lc, layout.TransformsOnly)
	c.ctx = lc
}

// refoldAxes recomputes every axis from the components' current state
// and propagates the result.
func (c *Chart) refoldAxes(kind layout.PassKind) {
	c.resetAxes()
	c.foldSeriesExtents()
	c.foldOtherExtents()
	c.finalizeAxes()
	c.axesFinalized(c.ctx, kind)
	c.renderAxes(c.ctx, kind)
	c.applyTransforms(c.ctx, kind)
}

// incrementalPass applies a positional source change to the series
// rendering that source.
func (c *Chart) incrementalPass(ch data.Change) {
	touched := false
	for _, id := range c.members.data {
		s := c.slots[id]
		if s.source != ch.Source {
			continue
		}
		if ch.Version != 0 && ch.Version <= s.version {
			// Already part of the snapshot the series last traversed.
			continue
		}
		s.version = ch.Version
		iu, ok := s.component.(IncrementalUpdater)
		if !ok {
			c.fullDirty = true
			return
		}
		rc := c.ctx.RenderContext(id).WithPass(layout.Incremental)
		switch ch.Kind {
		case data.Add:
			iu.Add(rc, ch.Start, ch.Items)
		case data.Remove:
			iu.Remove(rc, ch.Start, ch.Items)
		}
		touched = true
	}
	if touched {
		c.refoldAxes(layout.Incremental)
	}
}

// componentPass re-renders one component.
func (c *Chart) componentPass(id int, kind RefreshKind) {
	comp := c.component(id)
	if comp == nil {
		return
	}
	rc := c.ctx.RenderContext(id).WithPass(layout.Component)

	if kind >= RefreshRender {
		if _, ok := comp.(DataSeries); ok {
			if p := c.traverse(id, rc); p != nil {
				c.passes[id] = p
			} else {
				delete(c.passes, id)
			}
		} else if r, ok := comp.(Renderer); ok {
			r.Render(rc)
		}
	}

	if kind == RefreshAxes {
		c.resetAxes()
		c.foldSeriesExtents()
		c.foldOtherExtents()
		c.finalizeAxes()
		if p, ok := c.passes[id]; ok {
			p.Postamble()
		}
		c.axesFinalized(c.ctx, layout.Component)
		c.renderAxes(c.ctx, layout.Component)
		c.applyTransforms(c.ctx, layout.Component)
		return
	}

	if kind == RefreshRender {
		if p, ok := c.passes[id]; ok {
			p.Postamble()
		}
		if h, ok := comp.(AxesFinalizedHandler); ok {
			h.AxesFinalized(rc)
		}
	}
	if t, ok := comp.(TransformApplier); ok {
		t.ApplyTransforms(rc)
	}
}
