// Package config provides configuration parsing and validation for go-chart.
// This file implements validation of chart declarations: kinds, names,
// references between sources, axes and series, and axis orientations.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/opd-ai/go-chart/internal/axis"
	"github.com/opd-ai/go-chart/internal/data"
	"github.com/opd-ai/go-chart/internal/geom"
	"github.com/opd-ai/go-chart/internal/series"
)

// ValidationError represents a configuration validation error.
// It contains the field name and a description of the issue.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the results of a configuration validation.
type ValidationResult struct {
	// Errors contains all validation errors found.
	Errors []ValidationError
	// Warnings contains non-fatal issues such as unused sources.
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (vr *ValidationResult) IsValid() bool {
	return len(vr.Errors) == 0
}

// Error returns a combined error message if there are errors, nil otherwise.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}

	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, e.Error())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// AddError adds a validation error.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (vr *ValidationResult) AddWarning(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Message: message})
}

// Merge combines another ValidationResult into this one.
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	vr.Errors = append(vr.Errors, other.Errors...)
	vr.Warnings = append(vr.Warnings, other.Warnings...)
}

// Validator checks chart declarations.
type Validator struct {
	// checkFiles stats data files; missing files are warnings.
	checkFiles bool
	// strictMode turns warnings into errors.
	strictMode bool
}

// NewValidator creates a new Validator with default settings.
func NewValidator() *Validator {
	return &Validator{}
}

// WithStrictMode makes every warning an error.
func (v *Validator) WithStrictMode(strict bool) *Validator {
	v.strictMode = strict
	return v
}

// WithFileChecks makes the validator stat declared data files.
func (v *Validator) WithFileChecks(check bool) *Validator {
	v.checkFiles = check
	return v
}

// Validate performs validation of a Config.
func (v *Validator) Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	v.validateWindow(&cfg.Window, result)
	sources := v.validateSources(cfg.Sources, result)
	axes := v.validateAxes(cfg.Axes, result)
	used := v.validateSeries(cfg.Series, sources, axes, result)
	v.validateDecorations(cfg, axes, result)

	for _, s := range cfg.Sources {
		if s.Name != "" && !used[s.Name] {
			result.AddWarning("sources."+s.Name, "not used by any series")
		}
	}

	if v.strictMode {
		result.Errors = append(result.Errors, result.Warnings...)
		result.Warnings = nil
	}
	return result
}

func (v *Validator) validateWindow(wc *WindowConfig, result *ValidationResult) {
	if wc.Width <= 0 {
		result.AddError("config.width", fmt.Sprintf("must be positive, got %d", wc.Width))
	}
	if wc.Height <= 0 {
		result.AddError("config.height", fmt.Sprintf("must be positive, got %d", wc.Height))
	}

	const maxDimension = 10000
	if wc.Width > maxDimension {
		result.AddWarning("config.width", fmt.Sprintf("unusually large value %d", wc.Width))
	}
	if wc.Height > maxDimension {
		result.AddWarning("config.height", fmt.Sprintf("unusually large value %d", wc.Height))
	}
	if wc.UpdateInterval <= 0 {
		result.AddError("config.update_interval", fmt.Sprintf("must be positive, got %v", wc.UpdateInterval))
	}
	if wc.Padding < 0 {
		result.AddError("config.padding", fmt.Sprintf("must be non-negative, got %g", wc.Padding))
	}
	if wc.FontSize <= 0 {
		result.AddError("config.font_size", fmt.Sprintf("must be positive, got %g", wc.FontSize))
	}
	for i, hint := range wc.Hints {
		if hint > WindowHintSkipPager {
			result.AddError("config.hints", fmt.Sprintf("unknown hint at index %d: %d", i, hint))
		}
	}
}

func (v *Validator) validateSources(sources []SourceConfig, result *ValidationResult) map[string]bool {
	names := make(map[string]bool, len(sources))
	for i, s := range sources {
		field := fmt.Sprintf("sources[%d]", i+1)
		if s.Name == "" {
			result.AddError(field, "missing name")
			continue
		}
		field = "sources." + s.Name
		if names[s.Name] {
			result.AddError(field, "duplicate source name")
		}
		names[s.Name] = true

		switch {
		case s.File == "" && len(s.Rows) == 0:
			result.AddWarning(field, "no file and no rows; the source is empty")
		case s.File != "" && len(s.Rows) > 0:
			result.AddWarning(field, "rows are ignored when a file is given")
		}
		if s.File == "" {
			continue
		}
		if !data.Supported(s.File) {
			result.AddError(field+".file", fmt.Sprintf("unsupported format: %s", s.File))
			continue
		}
		if v.checkFiles {
			if _, err := os.Stat(s.File); err != nil {
				result.AddWarning(field+".file", fmt.Sprintf("cannot read %s: %v", s.File, err))
			}
		}
	}
	return names
}

func (v *Validator) validateAxes(axes []AxisConfig, result *ValidationResult) map[string]AxisConfig {
	byName := make(map[string]AxisConfig, len(axes))
	for i, a := range axes {
		field := fmt.Sprintf("axes[%d]", i+1)
		if a.Name == "" {
			result.AddError(field, "missing name")
			continue
		}
		field = "axes." + a.Name
		if _, dup := byName[a.Name]; dup {
			result.AddError(field, "duplicate axis name")
		}
		byName[a.Name] = a

		if a.Side.Horizontal() != (a.Orientation == geom.Horizontal) {
			result.AddError(field+".side", fmt.Sprintf("%s axis cannot sit on the %s side", a.Orientation, a.Side))
		}
		if !math.IsNaN(a.Minimum) && !math.IsNaN(a.Maximum) && a.Minimum > a.Maximum {
			result.AddError(field, fmt.Sprintf("minimum %g exceeds maximum %g", a.Minimum, a.Maximum))
		}
		if a.MaxTicks < 0 {
			result.AddError(field+".max_ticks", fmt.Sprintf("must be non-negative, got %d", a.MaxTicks))
		}
		if a.Kind == axis.Log {
			if !math.IsNaN(a.Minimum) && a.Minimum <= 0 {
				result.AddError(field+".minimum", "log axis minimum must be positive")
			}
			if a.LogBase != 0 && a.LogBase <= 1 {
				result.AddError(field+".log_base", fmt.Sprintf("must exceed 1, got %g", a.LogBase))
			}
		}
		if a.Kind == axis.Category && a.Ticks != axis.TicksSweetSpot {
			result.AddWarning(field+".ticks", "tick mode is ignored on category axes")
		}
	}
	return byName
}

// validateSeries returns the set of sources referenced by a series.
func (v *Validator) validateSeries(list []series.Config, sources map[string]bool, axes map[string]AxisConfig, result *ValidationResult) map[string]bool {
	used := make(map[string]bool)
	names := make(map[string]bool, len(list))
	for _, s := range list {
		field := "series." + s.Name
		if names[s.Name] {
			result.AddError(field, "duplicate series name")
		}
		names[s.Name] = true

		if s.Source == "" {
			result.AddError(field+".source", "missing source")
		} else if !sources[s.Source] {
			result.AddError(field+".source", fmt.Sprintf("unknown source %q", s.Source))
		}
		used[s.Source] = true

		v.validatePaths(field, s, result)

		switch {
		case s.Kind == series.Pie:
			if s.InnerRadius < 0 || s.InnerRadius >= 1 {
				result.AddError(field+".inner_radius", fmt.Sprintf("must be in [0, 1), got %g", s.InnerRadius))
			}
			continue
		case s.Kind == series.Column:
			if s.BarWidth <= 0 || s.BarWidth > 1 {
				result.AddError(field+".bar_width", fmt.Sprintf("must be in (0, 1], got %g", s.BarWidth))
			}
		}
		if s.MarkerSize < 0 {
			result.AddError(field+".marker_size", fmt.Sprintf("must be non-negative, got %g", s.MarkerSize))
		}

		x, okX := v.axisRef(field+".x_axis", s.XAxis, axes, result)
		y, okY := v.axisRef(field+".y_axis", s.YAxis, axes, result)
		if okX && okY && x.Orientation == y.Orientation {
			result.AddError(field, fmt.Sprintf("x axis %q and y axis %q are both %s", s.XAxis, s.YAxis, x.Orientation))
		}
		if okX && x.Kind != axis.Category && s.XPath == "" {
			result.AddWarning(field+".x_path", fmt.Sprintf("no x path on %s axis %q; items are placed by index", x.Kind, s.XAxis))
		}
	}
	return used
}

func (v *Validator) axisRef(field, name string, axes map[string]AxisConfig, result *ValidationResult) (AxisConfig, bool) {
	if name == "" {
		result.AddError(field, "missing axis")
		return AxisConfig{}, false
	}
	a, ok := axes[name]
	if !ok {
		result.AddError(field, fmt.Sprintf("unknown axis %q", name))
	}
	return a, ok
}

// validatePaths checks that the kind's required value paths are present.
func (v *Validator) validatePaths(field string, s series.Config, result *ValidationResult) {
	switch s.Kind {
	case series.Candlestick:
		for _, p := range []struct{ key, path string }{
			{"open_path", s.OpenPath},
			{"high_path", s.HighPath},
			{"low_path", s.LowPath},
			{"close_path", s.ClosePath},
		} {
			if p.path == "" {
				result.AddError(field+"."+p.key, "missing path")
			}
		}
	case series.Heatmap:
		if s.RowPath == "" {
			result.AddError(field+".row_path", "missing path")
		}
		fallthrough
	default:
		if len(s.ValuePaths) == 0 {
			result.AddError(field+".value_path", "missing path")
		}
	}
	for i, p := range s.ValuePaths {
		if p == "" {
			result.AddError(fmt.Sprintf("%s.value_paths[%d]", field, i+1), "empty path")
		}
	}
}

func (v *Validator) validateDecorations(cfg *Config, axes map[string]AxisConfig, result *ValidationResult) {
	for i, d := range cfg.Decorations {
		field := fmt.Sprintf("decorations[%d]", i+1)
		switch d.Kind {
		case DecorationTitle:
			if d.Text == "" && cfg.Window.Title == "" {
				result.AddWarning(field+".text", "empty title")
			}
		case DecorationLegend:
			if len(cfg.Series) == 0 {
				result.AddWarning(field, "legend without series")
			}
		case DecorationReferenceLine:
			if _, ok := v.axisRef(field+".axis", d.Axis, axes, result); !ok {
				continue
			}
			if math.IsNaN(d.Value) {
				result.AddError(field+".value", "missing value")
			}
		}
		if d.FontSize < 0 {
			result.AddError(field+".font_size", fmt.Sprintf("must be non-negative, got %g", d.FontSize))
		}
	}
}

// ValidateConfig validates cfg and returns the combined error, or nil.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	return NewValidator().Validate(cfg).Error()
}
