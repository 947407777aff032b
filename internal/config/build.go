package config

import (
	"github.com/opd-ai/go-chart/internal/axis"
	"github.com/opd-ai/go-chart/internal/pipeline"
	"github.com/opd-ai/go-chart/internal/series"
)

// NewAxis creates the axis an AxisConfig declares.
func NewAxis(ac AxisConfig) *axis.Axis {
	a := axis.New(ac.Name, ac.Kind, ac.Orientation)
	a.Side = ac.Side
	a.Ticks = ac.Ticks
	a.MaxTicks = ac.MaxTicks
	a.LogBase = ac.LogBase
	a.SetFixedMinimum(ac.Minimum)
	a.SetFixedMaximum(ac.Maximum)
	return a
}

// Components returns the axes and the components cfg declares, in attach
// order: series, axis views, then decorations. A window title adds a
// title decoration when none is declared.
func Components(cfg *Config) ([]*axis.Axis, []pipeline.Component) {
	axes := make([]*axis.Axis, 0, len(cfg.Axes))
	var comps []pipeline.Component

	for _, ac := range cfg.Axes {
		axes = append(axes, NewAxis(ac))
	}
	for _, sc := range cfg.Series {
		comps = append(comps, series.New(sc))
	}
	for _, ac := range cfg.Axes {
		if ac.Hidden {
			continue
		}
		v := series.NewAxisView(ac.Name)
		v.Grid = ac.Grid
		v.Size = ac.Size
		comps = append(comps, v)
	}

	hasTitle := false
	for _, d := range cfg.Decorations {
		if d.Kind == DecorationTitle {
			hasTitle = true
		}
		comps = append(comps, decoration(cfg, d))
	}
	if !hasTitle && cfg.Window.Title != "" {
		comps = append(comps, series.NewTitle(cfg.Window.Title))
	}
	return axes, comps
}

func decoration(cfg *Config, d DecorationConfig) pipeline.Component {
	switch d.Kind {
	case DecorationLegend:
		l := series.NewLegend()
		l.Side = d.Side
		if d.Size > 0 {
			l.Size = d.Size
		}
		if d.FontSize > 0 {
			l.FontSize = d.FontSize
		}
		if d.Color.A != 0 {
			l.Color = d.Color
		}
		return l
	case DecorationReferenceLine:
		r := series.NewReferenceLine(d.Axis, d.Value)
		r.Label = d.Label
		if d.Color.A != 0 {
			r.Color = d.Color
		}
		return r
	default:
		text := d.Text
		if text == "" {
			text = cfg.Window.Title
		}
		t := series.NewTitle(text)
		t.Side = d.Side
		if d.FontSize > 0 {
			t.FontSize = d.FontSize
		}
		if d.Color.A != 0 {
			t.Color = d.Color
		}
		return t
	}
}

// Build adds the axes cfg declares to chart and attaches its components.
// It returns the slots of the attached components.
func Build(cfg *Config, chart *pipeline.Chart) []int {
	axes, comps := Components(cfg)
	for _, a := range axes {
		chart.AddAxis(a)
	}
	slots := make([]int, 0, len(comps))
	for _, c := range comps {
		slots = append(slots, chart.Attach(c))
	}
	return slots
}
