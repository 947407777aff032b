// Package config provides configuration parsing for go-chart.
// This file implements environment variable expansion in declarations.
package config

import (
	"os"
	"regexp"
	"strings"
)

// envRef matches ${NAME}, ${NAME:-default} and $NAME. A $ not followed by
// a name is kept, so titles such as "Cost in $5 steps" survive.
var envRef = regexp.MustCompile(`\$(?:\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}|([A-Za-z_][A-Za-z0-9_]*))`)

// LookupFunc resolves a variable; ok is false when it is unset.
type LookupFunc func(name string) (value string, ok bool)

// ExpandEnv expands variable references in s from the process environment.
// The default of ${NAME:-default} applies when NAME is unset or empty;
// other unset variables expand to the empty string.
func ExpandEnv(s string) string {
	return expand(s, os.LookupEnv)
}

func expand(s string, lookup LookupFunc) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		name, def := m[1], m[2]
		if name == "" {
			name = m[3]
		}
		if v, ok := lookup(name); ok && v != "" {
			return v
		}
		return def
	})
}

// ExpandEnv expands variable references in the fields that point outside
// the declaration or are shown to the user: source files and sheets, the
// window title and decoration texts. A nil lookup reads the process
// environment.
func (c *Config) ExpandEnv(lookup LookupFunc) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for i := range c.Sources {
		s := &c.Sources[i]
		s.File = expand(s.File, lookup)
		s.Sheet = expand(s.Sheet, lookup)
	}
	c.Window.Title = expand(c.Window.Title, lookup)
	for i := range c.Decorations {
		d := &c.Decorations[i]
		d.Text = expand(d.Text, lookup)
		d.Label = expand(d.Label, lookup)
	}
}
