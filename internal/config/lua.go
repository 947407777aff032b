// Package config provides configuration parsing for go-chart.
// This file implements the Lua chart declaration parser.

package config

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/go-chart/internal/axis"
	"github.com/opd-ai/go-chart/internal/data"
	"github.com/opd-ai/go-chart/internal/geom"
	"github.com/opd-ai/go-chart/internal/series"
	"github.com/opd-ai/go-chart/internal/visual"
)

// Resource limits applied to every configuration chunk.
const (
	luaCPULimit    = 10_000_000
	luaMemoryLimit = 50 * 1024 * 1024 // 50 MB
)

// LuaConfigParser parses Lua chart declarations. It executes the chunk
// with the Golua runtime and extracts the chart.config, chart.sources,
// chart.axes, chart.series and chart.decorations tables.
type LuaConfigParser struct {
	runtime *rt.Runtime
	cleanup func()
	mu      sync.Mutex
}

// NewLuaConfigParser creates a new LuaConfigParser with a fresh Lua runtime.
func NewLuaConfigParser() (*LuaConfigParser, error) {
	return NewLuaConfigParserWithOutput(io.Discard)
}

// NewLuaConfigParserWithOutput creates a LuaConfigParser whose print
// output goes to stdout.
func NewLuaConfigParserWithOutput(stdout io.Writer) (*LuaConfigParser, error) {
	if stdout == nil {
		stdout = os.Stdout
	}

	runtime := rt.New(stdout)
	cleanup := lib.LoadAll(runtime)

	return &LuaConfigParser{
		runtime: runtime,
		cleanup: cleanup,
	}, nil
}

// Parse executes content and extracts the chart declaration.
func (p *LuaConfigParser) Parse(content []byte) (*Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.initChartGlobal()

	closure, err := p.runtime.CompileAndLoadLuaChunk(
		"chart",
		content,
		rt.TableValue(p.runtime.GlobalEnv()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile Lua configuration: %w", err)
	}

	ctx := rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    luaCPULimit,
			Memory: luaMemoryLimit,
		},
	}
	p.runtime.PushContext(ctx)
	defer p.runtime.PopContext()

	thread := p.runtime.MainThread()
	if _, err := rt.Call1(thread, rt.FunctionValue(closure)); err != nil {
		return nil, fmt.Errorf("failed to execute Lua configuration: %w", err)
	}

	return p.extractConfig()
}

// initChartGlobal installs an empty chart table.
func (p *LuaConfigParser) initChartGlobal() {
	chartTable := rt.NewTable()
	for _, key := range []string{"config", "sources", "axes", "series", "decorations"} {
		chartTable.Set(rt.StringValue(key), rt.TableValue(rt.NewTable()))
	}
	p.runtime.GlobalEnv().Set(rt.StringValue("chart"), rt.TableValue(chartTable))
}

// extractConfig reads the chart global into a Config.
func (p *LuaConfigParser) extractConfig() (*Config, error) {
	cfg := DefaultConfig()

	chartVal := p.runtime.GlobalEnv().Get(rt.StringValue("chart"))
	if chartVal == rt.NilValue {
		return &cfg, nil
	}
	chartTable, ok := chartVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("chart is not a table")
	}

	if t, ok := chartTable.Get(rt.StringValue("config")).TryTable(); ok {
		if err := extractWindow(&cfg.Window, t); err != nil {
			return nil, fmt.Errorf("chart.config: %w", err)
		}
	}
	if t, ok := chartTable.Get(rt.StringValue("sources")).TryTable(); ok {
		sources, err := extractSources(t)
		if err != nil {
			return nil, err
		}
		cfg.Sources = sources
	}
	if t, ok := chartTable.Get(rt.StringValue("axes")).TryTable(); ok {
		for i, v := range arrayValues(t) {
			at, ok := v.TryTable()
			if !ok {
				return nil, fmt.Errorf("chart.axes[%d]: not a table", i+1)
			}
			a, err := extractAxis(at)
			if err != nil {
				return nil, fmt.Errorf("chart.axes[%d]: %w", i+1, err)
			}
			cfg.Axes = append(cfg.Axes, a)
		}
	}
	if t, ok := chartTable.Get(rt.StringValue("series")).TryTable(); ok {
		for i, v := range arrayValues(t) {
			st, ok := v.TryTable()
			if !ok {
				return nil, fmt.Errorf("chart.series[%d]: not a table", i+1)
			}
			s, err := extractSeries(st, i)
			if err != nil {
				return nil, fmt.Errorf("chart.series[%d]: %w", i+1, err)
			}
			cfg.Series = append(cfg.Series, s)
		}
	}
	if t, ok := chartTable.Get(rt.StringValue("decorations")).TryTable(); ok {
		for i, v := range arrayValues(t) {
			dt, ok := v.TryTable()
			if !ok {
				return nil, fmt.Errorf("chart.decorations[%d]: not a table", i+1)
			}
			d, err := extractDecoration(dt)
			if err != nil {
				return nil, fmt.Errorf("chart.decorations[%d]: %w", i+1, err)
			}
			cfg.Decorations = append(cfg.Decorations, d)
		}
	}

	inheritLabelPaths(&cfg)
	return &cfg, nil
}

// extractWindow extracts the chart.config table.
func extractWindow(wc *WindowConfig, table *rt.Table) error {
	if val := getTableInt(table, "width"); val != nil {
		wc.Width = *val
	}
	if val := getTableInt(table, "height"); val != nil {
		wc.Height = *val
	}
	if val := getTableString(table, "title"); val != nil {
		wc.Title = *val
	}
	if val := getTableFloat(table, "update_interval"); val != nil {
		wc.UpdateInterval = time.Duration(*val * float64(time.Second))
	}
	if val := getTableFloat(table, "padding"); val != nil {
		wc.Padding = *val
	}
	if val := getTableFloat(table, "font_size"); val != nil {
		wc.FontSize = *val
	}
	if err := getTableColor(table, "background", &wc.Background); err != nil {
		return err
	}

	// Hints are a comma-separated string or a list of names.
	switch v := table.Get(rt.StringValue("hints")); {
	case v == rt.NilValue:
	case v.Type() == rt.StringType:
		s, _ := v.TryString()
		hints, err := parseWindowHints(s)
		if err != nil {
			return fmt.Errorf("invalid hints: %w", err)
		}
		wc.Hints = hints
	default:
		names, err := getTableStrings(table, "hints")
		if err != nil {
			return err
		}
		hints, err := parseWindowHints(strings.Join(names, ","))
		if err != nil {
			return fmt.Errorf("invalid hints: %w", err)
		}
		wc.Hints = hints
	}
	return nil
}

// extractSources accepts either a name-keyed table or a list of tables
// carrying a name field. Keyed sources are returned sorted by name.
func extractSources(table *rt.Table) ([]SourceConfig, error) {
	var out []SourceConfig
	for i, v := range arrayValues(table) {
		st, ok := v.TryTable()
		if !ok {
			return nil, fmt.Errorf("chart.sources[%d]: not a table", i+1)
		}
		name := ""
		if val := getTableString(st, "name"); val != nil {
			name = *val
		}
		s, err := extractSource(name, st)
		if err != nil {
			return nil, fmt.Errorf("chart.sources[%d]: %w", i+1, err)
		}
		out = append(out, s)
	}
	for _, f := range tableFields(table) {
		st, ok := f.value.TryTable()
		if !ok {
			return nil, fmt.Errorf("chart.sources.%s: not a table", f.key)
		}
		s, err := extractSource(f.key, st)
		if err != nil {
			return nil, fmt.Errorf("chart.sources.%s: %w", f.key, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func extractSource(name string, table *rt.Table) (SourceConfig, error) {
	s := SourceConfig{Name: name}
	if val := getTableString(table, "file"); val != nil {
		s.File = *val
	}
	if val := getTableString(table, "sheet"); val != nil {
		s.Sheet = *val
	}
	if val := getTableBool(table, "header"); val != nil {
		s.Header = *val
	}
	rowsVal := table.Get(rt.StringValue("rows"))
	if rowsVal == rt.NilValue {
		return s, nil
	}
	rows, ok := rowsVal.TryTable()
	if !ok {
		return s, fmt.Errorf("rows is not a table")
	}
	values := arrayValues(rows)
	s.Rows = make([]data.Item, 0, len(values))
	for i, v := range values {
		row, ok := v.TryTable()
		if !ok {
			return s, fmt.Errorf("rows[%d] is not a table", i+1)
		}
		s.Rows = append(s.Rows, data.Item(tableMap(row)))
	}
	return s, nil
}

func extractAxis(table *rt.Table) (AxisConfig, error) {
	var a AxisConfig
	orientation := geom.Horizontal
	if val := getTableString(table, "orientation"); val != nil {
		o, err := geom.ParseOrientation(*val)
		if err != nil {
			return a, fmt.Errorf("invalid orientation: %w", err)
		}
		orientation = o
	} else if val := getTableString(table, "side"); val != nil {
		// A side alone implies the orientation.
		if s, err := geom.ParseSide(*val); err == nil && !s.Horizontal() {
			orientation = geom.Vertical
		}
	}

	name := ""
	if val := getTableString(table, "name"); val != nil {
		name = *val
	}
	a = DefaultAxisConfig(name, orientation)

	if val := getTableString(table, "kind"); val != nil {
		k, err := axis.ParseKind(*val)
		if err != nil {
			return a, fmt.Errorf("invalid kind: %w", err)
		}
		a.Kind = k
	}
	if val := getTableString(table, "side"); val != nil {
		s, err := geom.ParseSide(*val)
		if err != nil {
			return a, fmt.Errorf("invalid side: %w", err)
		}
		a.Side = s
	}
	if val := getTableString(table, "ticks"); val != nil {
		m, err := axis.ParseTickMode(*val)
		if err != nil {
			return a, fmt.Errorf("invalid ticks: %w", err)
		}
		a.Ticks = m
	}
	if val := getTableFloat(table, "minimum"); val != nil {
		a.Minimum = *val
	}
	if val := getTableFloat(table, "maximum"); val != nil {
		a.Maximum = *val
	}
	if val := getTableInt(table, "max_ticks"); val != nil {
		a.MaxTicks = *val
	}
	if val := getTableFloat(table, "log_base"); val != nil {
		a.LogBase = *val
	}
	if val := getTableString(table, "label_path"); val != nil {
		a.LabelPath = *val
	}
	if val := getTableBool(table, "grid"); val != nil {
		a.Grid = *val
	}
	if val := getTableBool(table, "hidden"); val != nil {
		a.Hidden = *val
	}
	if val := getTableFloat(table, "size"); val != nil {
		a.Size = *val
	}
	return a, nil
}

func extractSeries(table *rt.Table, index int) (series.Config, error) {
	s := series.DefaultConfig(fmt.Sprintf("series %d", index+1))
	if val := getTableString(table, "name"); val != nil {
		s.Name = *val
	}
	if val := getTableString(table, "kind"); val != nil {
		k, err := series.ParseKind(*val)
		if err != nil {
			return s, err
		}
		s.Kind = k
	}

	paths := []struct {
		key    string
		target *string
	}{
		{"source", &s.Source},
		{"x_axis", &s.XAxis},
		{"y_axis", &s.YAxis},
		{"x_path", &s.XPath},
		{"label_path", &s.LabelPath},
		{"open_path", &s.OpenPath},
		{"high_path", &s.HighPath},
		{"low_path", &s.LowPath},
		{"close_path", &s.ClosePath},
		{"row_path", &s.RowPath},
	}
	for _, f := range paths {
		if val := getTableString(table, f.key); val != nil {
			*f.target = *val
		}
	}

	if val := getTableString(table, "value_path"); val != nil {
		s.ValuePaths = []string{*val}
	}
	if paths, err := getTableStrings(table, "value_paths"); err != nil {
		return s, err
	} else if len(paths) > 0 {
		s.ValuePaths = paths
	}

	var single color.RGBA
	for _, key := range []string{"color", "fill"} {
		if err := getTableColor(table, key, &single); err != nil {
			return s, err
		}
	}
	if single.A != 0 {
		s.Colors = []color.RGBA{single}
	}
	names, err := getTableStrings(table, "colors")
	if err != nil {
		return s, err
	}
	for _, n := range names {
		c, err := visual.ParseColor(n)
		if err != nil {
			return s, fmt.Errorf("invalid colors: %w", err)
		}
		s.Colors = append(s.Colors, c)
	}

	if val := getTableFloat(table, "stroke_width"); val != nil {
		s.StrokeWidth = float32(*val)
	}
	if val := getTableFloat(table, "marker_size"); val != nil {
		s.MarkerSize = *val
	}
	if val := getTableBool(table, "area"); val != nil {
		s.Area = *val
	}
	if val := getTableFloat(table, "baseline"); val != nil {
		s.Baseline = *val
	}
	if val := getTableFloat(table, "bar_width"); val != nil {
		s.BarWidth = *val
	}
	if val := getTableFloat(table, "inner_radius"); val != nil {
		s.InnerRadius = *val
	}
	if val := getTableInt(table, "z"); val != nil {
		s.Z = *val
	}
	if err := getTableColor(table, "ramp_low", &s.RampLow); err != nil {
		return s, err
	}
	if err := getTableColor(table, "ramp_high", &s.RampHigh); err != nil {
		return s, err
	}
	return s, nil
}

func extractDecoration(table *rt.Table) (DecorationConfig, error) {
	d := DecorationConfig{Value: math.NaN()}
	kind := ""
	if val := getTableString(table, "kind"); val != nil {
		kind = *val
	}
	k, err := ParseDecorationKind(kind)
	if err != nil {
		return d, err
	}
	d.Kind = k
	switch k {
	case DecorationTitle:
		d.Side = geom.SideTop
	case DecorationLegend:
		d.Side = geom.SideRight
	}

	if val := getTableString(table, "text"); val != nil {
		d.Text = *val
	}
	if val := getTableString(table, "axis"); val != nil {
		d.Axis = *val
	}
	if val := getTableFloat(table, "value"); val != nil {
		d.Value = *val
	}
	if val := getTableString(table, "label"); val != nil {
		d.Label = *val
	}
	if val := getTableString(table, "side"); val != nil {
		s, err := geom.ParseSide(*val)
		if err != nil {
			return d, fmt.Errorf("invalid side: %w", err)
		}
		d.Side = s
	}
	if val := getTableFloat(table, "font_size"); val != nil {
		d.FontSize = *val
	}
	if val := getTableFloat(table, "size"); val != nil {
		d.Size = *val
	}
	if err := getTableColor(table, "color", &d.Color); err != nil {
		return d, err
	}
	return d, nil
}

// inheritLabelPaths gives series without a label path the label path of
// their x axis.
func inheritLabelPaths(cfg *Config) {
	for i := range cfg.Series {
		s := &cfg.Series[i]
		if s.LabelPath != "" {
			continue
		}
		if a, ok := cfg.Axis(s.XAxis); ok {
			s.LabelPath = a.LabelPath
		}
	}
}

// Close releases resources associated with the parser's Lua runtime.
func (p *LuaConfigParser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	return nil
}

// arrayValues returns the values at consecutive indices starting at 1.
func arrayValues(table *rt.Table) []rt.Value {
	var out []rt.Value
	for i := int64(1); ; i++ {
		v := table.Get(rt.IntValue(i))
		if v == rt.NilValue {
			return out
		}
		out = append(out, v)
	}
}

type field struct {
	key   string
	value rt.Value
}

// tableFields returns the string-keyed entries of table sorted by key.
func tableFields(table *rt.Table) []field {
	var out []field
	k := rt.NilValue
	for {
		next, v, ok := table.Next(k)
		if !ok || next == rt.NilValue {
			break
		}
		if next.Type() == rt.StringType {
			s, _ := next.TryString()
			out = append(out, field{key: s, value: v})
		}
		k = next
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// tableMap converts a Lua table to a Go map. Nested tables become nested
// maps, or slices when they are pure arrays.
func tableMap(table *rt.Table) map[string]any {
	fields := tableFields(table)
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.key] = goValue(f.value)
	}
	return out
}

func goValue(v rt.Value) any {
	switch v.Type() {
	case rt.IntType:
		n, _ := v.TryInt()
		return n
	case rt.FloatType:
		f, _ := v.TryFloat()
		return f
	case rt.StringType:
		s, _ := v.TryString()
		return s
	case rt.BoolType:
		b, _ := v.TryBool()
		return b
	case rt.TableType:
		t, _ := v.TryTable()
		if values := arrayValues(t); len(values) > 0 {
			out := make([]any, len(values))
			for i, e := range values {
				out[i] = goValue(e)
			}
			return out
		}
		return tableMap(t)
	default:
		return nil
	}
}

// getTableBool retrieves a boolean value from a Lua table.
// Returns nil if the key doesn't exist or is not a boolean.
func getTableBool(table *rt.Table, key string) *bool {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if b, ok := val.TryBool(); ok {
		return &b
	}

	// Handle string "true"/"false" for compatibility
	if s, ok := val.TryString(); ok {
		b := parseBool(s)
		return &b
	}

	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1", "on":
		return true
	default:
		return false
	}
}

// getTableString retrieves a string value from a Lua table.
// Returns nil if the key doesn't exist or is not a string.
func getTableString(table *rt.Table, key string) *string {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue || val.Type() != rt.StringType {
		return nil
	}

	if s, ok := val.TryString(); ok {
		return &s
	}

	return nil
}

// getTableStrings retrieves a list of strings. A missing key yields nil.
func getTableStrings(table *rt.Table, key string) ([]string, error) {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil, nil
	}
	list, ok := val.TryTable()
	if !ok {
		return nil, fmt.Errorf("%s is not a list", key)
	}
	var out []string
	for i, v := range arrayValues(list) {
		if v.Type() != rt.StringType {
			return nil, fmt.Errorf("%s[%d] is not a string", key, i+1)
		}
		s, _ := v.TryString()
		out = append(out, s)
	}
	return out, nil
}

// getTableFloat retrieves a float64 value from a Lua table.
// Returns nil if the key doesn't exist or is not a number.
func getTableFloat(table *rt.Table, key string) *float64 {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if val.Type() == rt.FloatType {
		n, _ := val.TryFloat()
		return &n
	}
	if val.Type() == rt.IntType {
		n, _ := val.TryInt()
		f := float64(n)
		return &f
	}

	return nil
}

// getTableInt retrieves an int value from a Lua table.
// Returns nil if the key doesn't exist or is not a number.
func getTableInt(table *rt.Table, key string) *int {
	f := getTableFloat(table, key)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

// getTableColor parses a color string into target when key is set.
func getTableColor(table *rt.Table, key string, target *color.RGBA) error {
	val := getTableString(table, key)
	if val == nil {
		return nil
	}
	c, err := visual.ParseColor(*val)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = c
	return nil
}
