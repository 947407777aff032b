package pipeline

import (
	"fmt"
	"slices"

	"github.com/opd-ai/go-chart/internal/axis"
	"github.com/opd-ai/go-chart/internal/data"
	"github.com/opd-ai/go-chart/internal/geom"
	"github.com/opd-ai/go-chart/internal/layout"
	"github.com/opd-ai/go-chart/internal/visual"
)

// Sources resolves data source names. data.Registry implements it.
type Sources interface {
	Source(name string) (*data.Source, bool)
}

// Options configures a Chart.
type Options struct {
	// Layer receives attached and detached elements. Defaults to a new
	// visual.Collection.
	Layer visual.Layer
	// Sources resolves the sources data series name.
	Sources Sources
	// Logger defaults to a no-op logger.
	Logger Logger
	// Observer, if set, is notified after every pass.
	Observer PassObserver
	// OnReport receives batched component reports.
	OnReport ReportHandler
	// Padding is kept clear around the chart's edges.
	Padding float64
}

type slot struct {
	component Component
	host      *host
	source    string
	// version is the source version the series' state reflects.
	version uint64
}

// membership lists hold slot ids in attach order.
type membership struct {
	layout        []int
	axes          []int
	renderers     []int
	transforms    []int
	seriesExtents []int
	extents       []int
	postAxis      []int
	incremental   []int
	data          []int
}

func (m *membership) lists() []*[]int {
	return []*[]int{
		&m.layout, &m.axes, &m.renderers, &m.transforms,
		&m.seriesExtents, &m.extents, &m.postAxis, &m.incremental, &m.data,
	}
}

type eventKind int

const (
	eventChange eventKind = iota
	eventRefresh
)

type event struct {
	kind    eventKind
	change  data.Change
	slot    int
	refresh RefreshKind
}

type subscription struct {
	refs   int
	cancel func()
}

// Chart owns the axes and components of one chart and runs the passes
// that keep their elements current. Apart from Dispatcher().Post and the
// setters documented as safe, every method must be called from the
// update thread.
type Chart struct {
	opts Options
	log  Logger

	axes      map[string]*axis.Axis
	axisOrder []string

	// slots is an arena indexed by slot id. Slot 0 is never used so the
	// zero Owner of an element does not alias a component.
	slots   []*slot
	free    []int
	members membership
	subs    map[string]*subscription

	dispatcher *Dispatcher
	ctx        *layout.Context
	size       geom.Size
	sizeDirty  bool
	fullDirty  bool
	pending    []event
	reports    []Report
	passes     map[int]RenderPass
}

// New returns an empty chart.
func New(opts Options) *Chart {
	if opts.Layer == nil {
		opts.Layer = visual.NewCollection()
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	return &Chart{
		opts:       opts,
		log:        opts.Logger,
		axes:       make(map[string]*axis.Axis),
		slots:      []*slot{nil},
		subs:       make(map[string]*subscription),
		dispatcher: NewDispatcher(),
		fullDirty:  true,
		passes:     make(map[int]RenderPass),
	}
}

// Dispatcher returns the chart's dispatcher.
func (c *Chart) Dispatcher() *Dispatcher { return c.dispatcher }

// Layer returns the visual layer.
func (c *Chart) Layer() visual.Layer { return c.opts.Layer }

// Layout returns the layout context of the last successful pass, nil
// before the first one.
func (c *Chart) Layout() *layout.Context { return c.ctx }

// AddAxis declares an axis. Declaring a name twice replaces the axis.
func (c *Chart) AddAxis(a *axis.Axis) {
	if _, ok := c.axes[a.Name]; !ok {
		c.axisOrder = append(c.axisOrder, a.Name)
	}
	c.axes[a.Name] = a
	c.fullDirty = true
}

// Axis returns the named axis.
func (c *Chart) Axis(name string) (*axis.Axis, bool) {
	a, ok := c.axes[name]
	return a, ok
}

// Axes returns the declared axes in declaration order.
func (c *Chart) Axes() []*axis.Axis {
	out := make([]*axis.Axis, 0, len(c.axisOrder))
	for _, n := range c.axisOrder {
		out = append(out, c.axes[n])
	}
	return out
}

// Attach adds a component and returns its slot id.
func (c *Chart) Attach(comp Component) int {
	var id int
	if n := len(c.free); n > 0 {
		id = c.free[n-1]
		c.free = c.free[:n-1]
	} else {
		id = len(c.slots)
		c.slots = append(c.slots, nil)
	}
	s := &slot{component: comp, host: &host{chart: c, slot: id, name: comp.Name()}}
	c.slots[id] = s
	comp.Enter(s.host)

	m := &c.members
	if _, ok := comp.(LayoutClaimer); ok {
		m.layout = append(m.layout, id)
	}
	_, isData := comp.(DataSeries)
	if _, ok := comp.(AxisRenderer); ok {
		m.axes = append(m.axes, id)
	} else if _, ok := comp.(Renderer); ok && !isData {
		m.renderers = append(m.renderers, id)
	}
	if _, ok := comp.(TransformApplier); ok {
		m.transforms = append(m.transforms, id)
	}
	if _, ok := comp.(ExtentProvider); ok {
		if isData {
			m.seriesExtents = append(m.seriesExtents, id)
		} else {
			m.extents = append(m.extents, id)
		}
	}
	if _, ok := comp.(AxesFinalizedHandler); ok {
		m.postAxis = append(m.postAxis, id)
	}
	if _, ok := comp.(IncrementalUpdater); ok {
		m.incremental = append(m.incremental, id)
	}
	if ds, ok := comp.(DataSeries); ok {
		m.data = append(m.data, id)
		s.source = ds.SourceName()
		c.subscribe(s.source)
	}
	c.fullDirty = true
	c.log.Debug("component attached", "component", comp.Name(), "slot", id)
	return id
}

// Detach removes the component in slot. Unknown slots are ignored.
func (c *Chart) Detach(id int) {
	if id <= 0 || id >= len(c.slots) || c.slots[id] == nil {
		return
	}
	s := c.slots[id]
	s.component.Leave(s.host)
	for _, l := range c.members.lists() {
		*l = slices.DeleteFunc(*l, func(v int) bool { return v == id })
	}
	if s.source != "" {
		c.unsubscribe(s.source)
	}
	delete(c.passes, id)
	if c.ctx != nil {
		c.ctx.Forget(id)
	}
	c.pending = slices.DeleteFunc(c.pending, func(e event) bool {
		return e.kind == eventRefresh && e.slot == id
	})
	s.host.detached = true
	c.slots[id] = nil
	c.free = append(c.free, id)
	c.fullDirty = true
	c.log.Debug("component detached", "component", s.component.Name(), "slot", id)
}

// Component returns the component in slot.
func (c *Chart) Component(id int) (Component, bool) {
	if id <= 0 || id >= len(c.slots) || c.slots[id] == nil {
		return nil, false
	}
	return c.slots[id].component, true
}

// Components returns the attached components in slot order.
func (c *Chart) Components() []Component {
	var out []Component
	for _, s := range c.slots {
		if s != nil {
			out = append(out, s.component)
		}
	}
	return out
}

func (c *Chart) subscribe(name string) {
	if sub, ok := c.subs[name]; ok {
		sub.refs++
		return
	}
	sub := &subscription{refs: 1}
	if c.opts.Sources != nil {
		if src, ok := c.opts.Sources.Source(name); ok {
			sub.cancel = src.Subscribe(func(ch data.Change) {
				c.dispatcher.Post(func() { c.onChange(ch) })
			})
		}
	}
	c.subs[name] = sub
}

func (c *Chart) unsubscribe(name string) {
	sub, ok := c.subs[name]
	if !ok {
		return
	}
	sub.refs--
	if sub.refs > 0 {
		return
	}
	if sub.cancel != nil {
		sub.cancel()
	}
	delete(c.subs, name)
}

// Close cancels every source subscription and detaches all components.
func (c *Chart) Close() {
	for id := len(c.slots) - 1; id > 0; id-- {
		c.Detach(id)
	}
}

func (c *Chart) onChange(ch data.Change) {
	if ch.Kind == data.Reset {
		c.fullDirty = true
		return
	}
	c.pending = append(c.pending, event{kind: eventChange, change: ch})
}

// SetSize records the measured size of the chart. Safe from any
// goroutine; takes effect on the next Update.
func (c *Chart) SetSize(size geom.Size) {
	c.dispatcher.Post(func() {
		if size == c.size {
			return
		}
		c.size = size
		c.sizeDirty = true
	})
}

// SetAxisLimits overrides an axis' limits; NaN restores auto-scaling.
// Safe from any goroutine. A change forces a full pass.
func (c *Chart) SetAxisLimits(name string, minimum, maximum float64) {
	c.dispatcher.Post(func() {
		a, ok := c.axes[name]
		if !ok {
			c.reports = append(c.reports, Report{Source: "chart", Message: fmt.Sprintf("unknown axis %q", name), Properties: []string{"axis"}})
			return
		}
		changed := a.SetFixedMinimum(minimum)
		changed = a.SetFixedMaximum(maximum) || changed
		if changed {
			c.fullDirty = true
		}
	})
}

// Invalidate forces a full pass. Safe from any goroutine.
func (c *Chart) Invalidate() {
	c.dispatcher.Post(func() { c.fullDirty = true })
}

// host is the Host handed to the component in one slot.
type host struct {
	chart    *Chart
	slot     int
	name     string
	detached bool
}

func (h *host) Slot() int { return h.slot }

func (h *host) Axis(name string) (*axis.Axis, bool) { return h.chart.Axis(name) }

func (h *host) Source(name string) (*data.Source, bool) {
	if h.chart.opts.Sources == nil {
		return nil, false
	}
	return h.chart.opts.Sources.Source(name)
}

func (h *host) Layer() visual.Layer { return h.chart.opts.Layer }

func (h *host) Components() []Component { return h.chart.Components() }

func (h *host) Refresh(kind RefreshKind) {
	c, id := h.chart, h.slot
	c.dispatcher.Post(func() {
		if h.detached {
			return
		}
		c.pending = append(c.pending, event{kind: eventRefresh, slot: id, refresh: kind})
	})
}

func (h *host) Report(message string, properties ...string) {
	h.chart.reports = append(h.chart.reports, Report{Source: h.name, Message: message, Properties: properties})
}
