// Package pipeline schedules the passes that turn chart components and
// their data into positioned visual elements.
//
// Components declare what they need by implementing capability
// interfaces. The Chart resolves those once, when a component is attached,
// into membership lists, so a pass only visits the components that take
// part in each phase.
package pipeline

import (
	"github.com/opd-ai/go-chart/internal/axis"
	"github.com/opd-ai/go-chart/internal/data"
	"github.com/opd-ai/go-chart/internal/layout"
	"github.com/opd-ai/go-chart/internal/visual"
)

// Component is anything attached to a Chart.
type Component interface {
	// Name identifies the component in reports and logs.
	Name() string
	// Enter is called once when the component is attached. Configuration
	// problems are reported through the host; the component then renders
	// nothing.
	Enter(h Host)
	// Leave is called when the component is detached. It must detach
	// every element the component attached.
	Leave(h Host)
}

// LayoutClaimer components claim space on an edge of the chart.
type LayoutClaimer interface {
	ClaimLayout(lc *layout.Context, slot int)
}

// Renderer components build their elements in the render phase.
type Renderer interface {
	Render(rc layout.RenderContext)
}

// AxisRenderer components render an axis. They run after every axis has
// been finalized.
type AxisRenderer interface {
	Renderer
	// AxisName returns the name of the rendered axis.
	AxisName() string
}

// TransformApplier components map their elements into device space.
type TransformApplier interface {
	ApplyTransforms(rc layout.RenderContext)
}

// ExtentProvider components widen axis limits with the values they show.
// FoldExtents must be idempotent with respect to the current state: it is
// called again after every axis reset.
type ExtentProvider interface {
	FoldExtents()
}

// DataSeries components consume one data source traversal per pass.
type DataSeries interface {
	// SourceName names the data source the series renders.
	SourceName() string
	// Preamble starts a traversal. A nil RenderPass opts out of it.
	Preamble(rc layout.RenderContext) RenderPass
}

// RenderPass is the state of one data source traversal.
type RenderPass interface {
	// Render is called once per item in source order.
	Render(index int, item data.Item)
	// RenderComplete is called after the last item, before axes are
	// finalized.
	RenderComplete()
	// Postamble is called after axes are finalized.
	Postamble()
}

// AxesFinalizedHandler components build geometry that depends on final
// axis limits, such as column baselines.
type AxesFinalizedHandler interface {
	AxesFinalized(rc layout.RenderContext)
}

// IncrementalUpdater series apply positional source changes without a
// full traversal.
type IncrementalUpdater interface {
	DataSeries
	Add(rc layout.RenderContext, start int, items []data.Item)
	Remove(rc layout.RenderContext, start int, items []data.Item)
}

// RefreshKind tells the chart how much of a component changed.
type RefreshKind int

const (
	// RefreshTransforms re-applies the component's transforms only.
	RefreshTransforms RefreshKind = iota
	// RefreshRender re-renders the component; axis limits are kept.
	RefreshRender
	// RefreshAxes re-renders the component and recomputes every axis,
	// then re-applies all transforms.
	RefreshAxes
)

// String implements fmt.Stringer.
func (k RefreshKind) String() string {
	switch k {
	case RefreshTransforms:
		return "transforms"
	case RefreshRender:
		return "render"
	default:
		return "axes"
	}
}

// Host is the view of the chart given to a component.
type Host interface {
	// Slot returns the component's arena slot.
	Slot() int
	// Axis looks up a declared axis.
	Axis(name string) (*axis.Axis, bool)
	// Source looks up a data source.
	Source(name string) (*data.Source, bool)
	// Layer is the visual layer elements are attached to.
	Layer() visual.Layer
	// Components returns the attached components in slot order.
	Components() []Component
	// Refresh queues a refresh of the component. It is safe to call from
	// any goroutine.
	Refresh(kind RefreshKind)
	// Report records a configuration or data problem. Reports are
	// delivered in one batch per Update.
	Report(message string, properties ...string)
}
