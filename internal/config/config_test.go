package config

import (
	"context"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/opd-ai/go-chart/internal/axis"
	"github.com/opd-ai/go-chart/internal/data"
	"github.com/opd-ai/go-chart/internal/geom"
	"github.com/opd-ai/go-chart/internal/pipeline"
	"github.com/opd-ai/go-chart/internal/series"
	"github.com/opd-ai/go-chart/internal/visual"
)

const salesChart = `
chart.config = {
    width = 640, height = 360,
    title = "Sales ${CHART_YEAR}",
    background = "#101010",
    update_interval = 0.25,
    hints = "above, skip_taskbar",
}
chart.sources = {
    sales = { file = "${CHART_DATA:-data}/sales.xlsx", sheet = "2024", header = true },
    inline = { rows = { { month = "Jan", amount = 3 }, { month = "Feb", amount = 4.5 } } },
}
chart.axes = {
    { name = "month", kind = "category", label_path = "month" },
    { name = "amount", side = "left", minimum = 0, ticks = "nice", grid = true },
}
chart.series = {
    { kind = "column", source = "inline", x_axis = "month", y_axis = "amount",
      value_path = "amount", fill = "#44aa88" },
    { name = "trend", source = "sales", x_axis = "month", y_axis = "amount",
      value_paths = { "a", "b" }, area = true },
}
chart.decorations = {
    { kind = "reference_line", axis = "amount", value = 10, label = "target" },
    { kind = "legend" },
}
`

func newParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestParseChartDeclaration(t *testing.T) {
	t.Setenv("CHART_YEAR", "2024")
	t.Setenv("CHART_DATA", "")

	cfg, err := newParser(t).Parse([]byte(salesChart))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	window := DefaultWindowConfig()
	window.Width, window.Height = 640, 360
	window.Title = "Sales 2024"
	window.Background = visual.MustParseColor("#101010")
	window.UpdateInterval = 250 * time.Millisecond
	window.Hints = []WindowHint{WindowHintAbove, WindowHintSkipTaskbar}

	month := DefaultAxisConfig("month", geom.Horizontal)
	month.Kind = axis.Category
	month.LabelPath = "month"
	amount := DefaultAxisConfig("amount", geom.Vertical)
	amount.Minimum = 0
	amount.Ticks = axis.TicksNice
	amount.Grid = true

	column := series.DefaultConfig("series 1")
	column.Kind = series.Column
	column.Source, column.XAxis, column.YAxis = "inline", "month", "amount"
	column.ValuePaths = []string{"amount"}
	column.LabelPath = "month"
	column.Colors = []color.RGBA{visual.MustParseColor("#44aa88")}

	trend := series.DefaultConfig("trend")
	trend.Source, trend.XAxis, trend.YAxis = "sales", "month", "amount"
	trend.ValuePaths = []string{"a", "b"}
	trend.LabelPath = "month"
	trend.Area = true

	want := &Config{
		Window: window,
		Sources: []SourceConfig{
			{Name: "inline", Rows: []data.Item{
				{"month": "Jan", "amount": int64(3)},
				{"month": "Feb", "amount": 4.5},
			}},
			{Name: "sales", File: "data/sales.xlsx", Sheet: "2024", Header: true},
		},
		Axes:   []AxisConfig{month, amount},
		Series: []series.Config{column, trend},
		Decorations: []DecorationConfig{
			{Kind: DecorationReferenceLine, Axis: "amount", Value: 10, Label: "target"},
			{Kind: DecorationLegend, Value: math.NaN(), Side: geom.SideRight},
		},
	}
	if diff := cmp.Diff(want, cfg, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if err := NewValidator().Validate(cfg).Error(); err != nil {
		t.Errorf("parsed config does not validate: %v", err)
	}
}

func TestParseSourceList(t *testing.T) {
	cfg, err := newParser(t).Parse([]byte(`
chart.sources = {
    { name = "prices", rows = { { t = 1, ohlc = { open = 1, close = 2 } } } },
}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Name != "prices" {
		t.Fatalf("sources = %+v", cfg.Sources)
	}
	if v, ok := data.Float(cfg.Sources[0].Rows[0], "ohlc.close"); !ok || v != 2 {
		t.Errorf("nested value = %v, %v", v, ok)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", `chart.config = {`, "compile"},
		{"runtime error", `error("boom")`, "execute"},
		{"series kind", `chart.series = { { kind = "radar" } }`, "unknown series kind"},
		{"axis kind", `chart.axes = { { name = "x", kind = "polar" } }`, "invalid kind"},
		{"color", `chart.config = { background = "nope" }`, "invalid background"},
		{"hint", `chart.config = { hints = { "floating" } }`, "invalid hints"},
		{"decoration kind", `chart.decorations = { { kind = "arrow" } }`, "unknown decoration kind"},
		{"series entry", `chart.series = { 5 }`, "not a table"},
		{"chart replaced", `chart = 3`, "not a table"},
	}
	p := newParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParserReusable(t *testing.T) {
	p := newParser(t)
	if _, err := p.Parse([]byte(salesChart)); err != nil {
		t.Fatal(err)
	}
	cfg, err := p.Parse([]byte(`chart.config = { width = 10 }`))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Series) != 0 || len(cfg.Axes) != 0 {
		t.Errorf("second parse kept declarations from the first: %d series, %d axes", len(cfg.Series), len(cfg.Axes))
	}
	if cfg.Window.Width != 10 || cfg.Window.Height != DefaultHeight {
		t.Errorf("window = %+v", cfg.Window)
	}
}

func TestParseFileResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.lua")
	content := `chart.sources = { a = { file = "sales.xlsx" }, b = { file = "/abs/b.xlsx" } }`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := newParser(t).ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "sales.xlsx"), "/abs/b.xlsx"}
	got := []string{cfg.Sources[0].File, cfg.Sources[1].File}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("paths (-want +got):\n%s", diff)
	}

	if _, err := newParser(t).ParseFile(filepath.Join(dir, "missing.lua")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestParseReader(t *testing.T) {
	cfg, err := newParser(t).ParseReader(strings.NewReader(`chart.config = { title = "r" }`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Title != "r" {
		t.Errorf("title = %q", cfg.Window.Title)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("CHART_HOME", "/srv/charts")
	t.Setenv("CHART_EMPTY", "")

	tests := []struct {
		in, want string
	}{
		{"${CHART_HOME}/a.xlsx", "/srv/charts/a.xlsx"},
		{"$CHART_HOME/a.xlsx", "/srv/charts/a.xlsx"},
		{"${CHART_EMPTY:-fallback}", "fallback"},
		{"${CHART_UNSET_FOR_TEST:-x}-${CHART_UNSET_FOR_TEST}", "x-"},
		{"no refs", "no refs"},
		{"costs $5 and ${}", "costs $5 and ${}"},
	}
	for _, tt := range tests {
		if got := ExpandEnv(tt.in); got != tt.want {
			t.Errorf("ExpandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfigExpandEnv(t *testing.T) {
	vars := map[string]string{"NAME": "q3", "DIR": "/data"}
	lookup := func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
	cfg := DefaultConfig()
	cfg.Window.Title = "Sales $NAME"
	cfg.Sources = []SourceConfig{{Name: "s", File: "${DIR}/$NAME.xlsx", Sheet: "${SHEET:-2024}"}}
	cfg.Decorations = []DecorationConfig{{Kind: DecorationReferenceLine, Label: "goal ${NAME}"}}

	cfg.ExpandEnv(lookup)
	got := []string{cfg.Window.Title, cfg.Sources[0].File, cfg.Sources[0].Sheet, cfg.Decorations[0].Label}
	want := []string{"Sales q3", "/data/q3.xlsx", "2024", "goal q3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("expanded fields (-want +got):\n%s", diff)
	}
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Sources = []SourceConfig{{Name: "src", Rows: []data.Item{{"v": 1}, {"v": 3}}}}
	x := DefaultAxisConfig("x", geom.Horizontal)
	x.Kind = axis.Category
	y := DefaultAxisConfig("y", geom.Vertical)
	cfg.Axes = []AxisConfig{x, y}
	s := series.DefaultConfig("s")
	s.Source, s.XAxis, s.YAxis = "src", "x", "y"
	s.ValuePaths = []string{"v"}
	cfg.Series = []series.Config{s}
	return &cfg
}

func errorFields(r *ValidationResult) []string {
	var out []string
	for _, e := range r.Errors {
		out = append(out, e.Field)
	}
	return out
}

func TestValidator(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{"valid", func(*Config) {}, nil},
		{"window", func(c *Config) { c.Window.Width = 0; c.Window.UpdateInterval = 0 }, []string{"config.width", "config.update_interval"}},
		{"unknown source", func(c *Config) { c.Series[0].Source = "nope" }, []string{"series.s.source"}},
		{"unknown axis", func(c *Config) { c.Series[0].YAxis = "z" }, []string{"series.s.y_axis"}},
		{"same orientation", func(c *Config) { c.Axes[1].Orientation, c.Axes[1].Side = geom.Horizontal, geom.SideTop }, []string{"series.s"}},
		{"side", func(c *Config) { c.Axes[0].Side = geom.SideLeft }, []string{"axes.x.side"}},
		{"limits", func(c *Config) { c.Axes[1].Minimum, c.Axes[1].Maximum = 5, 1 }, []string{"axes.y"}},
		{"log minimum", func(c *Config) { c.Axes[1].Kind = axis.Log; c.Axes[1].Minimum = 0 }, []string{"axes.y.minimum"}},
		{"duplicate axis", func(c *Config) { c.Axes = append(c.Axes, c.Axes[1]) }, []string{"axes.y"}},
		{"file format", func(c *Config) { c.Sources[0].File = "data.csv" }, []string{"sources.src.file"}},
		{"missing value path", func(c *Config) { c.Series[0].ValuePaths = nil }, []string{"series.s.value_path"}},
		{"candlestick", func(c *Config) { c.Series[0].Kind = series.Candlestick; c.Series[0].OpenPath = "o" }, []string{
			"series.s.high_path", "series.s.low_path", "series.s.close_path",
		}},
		{"heatmap row", func(c *Config) { c.Series[0].Kind = series.Heatmap }, []string{"series.s.row_path"}},
		{"bar width", func(c *Config) { c.Series[0].Kind = series.Column; c.Series[0].BarWidth = 1.5 }, []string{"series.s.bar_width"}},
		{"pie ignores axes", func(c *Config) { c.Series[0].Kind = series.Pie; c.Series[0].XAxis = "" }, nil},
		{"reference line", func(c *Config) {
			c.Decorations = []DecorationConfig{{Kind: DecorationReferenceLine, Axis: "q", Value: 1}}
		}, []string{"decorations[1].axis"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			got := errorFields(NewValidator().Validate(cfg))
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("error fields (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidatorWarnings(t *testing.T) {
	cfg := validConfig()
	cfg.Sources = append(cfg.Sources, SourceConfig{Name: "spare", File: filepath.Join(t.TempDir(), "gone.xlsx")})

	r := NewValidator().WithFileChecks(true).Validate(cfg)
	if !r.IsValid() {
		t.Fatalf("unexpected errors: %v", r.Error())
	}
	var fields []string
	for _, w := range r.Warnings {
		fields = append(fields, w.Field)
	}
	if diff := cmp.Diff([]string{"sources.spare.file", "sources.spare"}, fields); diff != "" {
		t.Errorf("warnings (-want +got):\n%s", diff)
	}

	strict := NewValidator().WithStrictMode(true).Validate(cfg)
	if strict.IsValid() || len(strict.Warnings) != 0 {
		t.Errorf("strict mode: %d errors, %d warnings", len(strict.Errors), len(strict.Warnings))
	}
	if err := ValidateConfig(nil); err == nil {
		t.Error("nil config should fail")
	}
}

func componentNames(comps []pipeline.Component) []string {
	var out []string
	for _, c := range comps {
		out = append(out, c.Name())
	}
	return out
}

func TestComponents(t *testing.T) {
	cfg := validConfig()
	cfg.Window.Title = "Revenue"
	cfg.Axes[0].Hidden = true
	cfg.Axes[1].Minimum = 0
	cfg.Decorations = []DecorationConfig{
		{Kind: DecorationReferenceLine, Axis: "y", Value: 2},
		{Kind: DecorationLegend, Side: geom.SideBottom, Size: 50},
	}

	axes, comps := Components(cfg)
	if len(axes) != 2 || axes[1].FixedMinimum() != 0 || !math.IsNaN(axes[1].FixedMaximum()) {
		t.Fatalf("axes = %v", axes)
	}
	want := []string{"s", "axis:y", "reference:y", "legend", "title"}
	if diff := cmp.Diff(want, componentNames(comps)); diff != "" {
		t.Errorf("components (-want +got):\n%s", diff)
	}
	if l := comps[3].(*series.Legend); l.Side != geom.SideBottom || l.Size != 50 {
		t.Errorf("legend = side %v size %v", l.Side, l.Size)
	}
	if title := comps[4].(*series.Title); title.Text() != "Revenue" {
		t.Errorf("title = %q", title.Text())
	}

	// An explicit title replaces the window title.
	cfg.Decorations = []DecorationConfig{{Kind: DecorationTitle, Text: "Explicit", Side: geom.SideBottom}}
	_, comps = Components(cfg)
	if diff := cmp.Diff([]string{"s", "axis:y", "title"}, componentNames(comps)); diff != "" {
		t.Errorf("components (-want +got):\n%s", diff)
	}
	if title := comps[2].(*series.Title); title.Text() != "Explicit" || title.Side != geom.SideBottom {
		t.Errorf("title = %q on %v", title.Text(), title.Side)
	}
}

func TestBuildRendersParsedChart(t *testing.T) {
	cfg, err := newParser(t).Parse([]byte(`
chart.sources = { s = { rows = { { m = "a", v = 1 }, { m = "b", v = 3 } } } }
chart.axes = {
    { name = "x", kind = "category", label_path = "m" },
    { name = "y", orientation = "vertical" },
}
chart.series = { { name = "line", source = "s", x_axis = "x", y_axis = "y", value_path = "v" } }
`))
	if err != nil {
		t.Fatal(err)
	}
	reg := data.NewRegistry()
	if _, err := reg.Sync(context.Background(), cfg.SourceSpecs()); err != nil {
		t.Fatal(err)
	}

	var reports []pipeline.Report
	chart := pipeline.New(pipeline.Options{
		Sources:  reg,
		OnReport: func(r []pipeline.Report) { reports = append(reports, r...) },
	})
	slots := Build(cfg, chart)
	if len(slots) != 3 {
		t.Fatalf("attached %d components, want 3", len(slots))
	}
	chart.SetSize(geom.Size{W: 300, H: 200})
	if err := chart.Update(); err != nil {
		t.Fatal(err)
	}
	if len(reports) != 0 {
		t.Errorf("unexpected reports: %v", reports)
	}

	comp, _ := chart.Component(slots[0])
	states := comp.(*series.Series).States()
	if len(states) != 2 || states[1].Value != 3 || states[1].Label != "b" {
		t.Errorf("states = %v", states)
	}
}
