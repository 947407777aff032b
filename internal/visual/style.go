package visual

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Style defines the visual appearance of an element.
type Style struct {
	// Fill is used for closed paths, rectangles, markers and wedges.
	Fill color.RGBA
	// Stroke is used for lines, outlines and text.
	Stroke color.RGBA
	// StrokeWidth is the width of lines in pixels. Zero disables outlines.
	StrokeWidth float32
	// FontSize is the text height in pixels.
	FontSize float64
}

// DefaultStyle returns a Style with sensible defaults.
func DefaultStyle() Style {
	return Style{
		Fill:        color.RGBA{R: 100, G: 200, B: 100, A: 200},
		Stroke:      color.RGBA{R: 150, G: 255, B: 150, A: 255},
		StrokeWidth: 1,
		FontSize:    12,
	}
}

// Palette is the default series color cycle.
var Palette = []color.RGBA{
	{R: 68, G: 170, B: 136, A: 255},
	{R: 230, G: 126, B: 34, A: 255},
	{R: 52, G: 152, B: 219, A: 255},
	{R: 231, G: 76, B: 60, A: 255},
	{R: 155, G: 89, B: 182, A: 255},
	{R: 241, G: 196, B: 15, A: 255},
	{R: 26, G: 188, B: 156, A: 255},
	{R: 149, G: 165, B: 166, A: 255},
}

// PaletteColor returns the palette entry for index i, cycling.
func PaletteColor(i int) color.RGBA {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// NamedColors maps the color names accepted in chart declarations.
var NamedColors = map[string]color.RGBA{
	"black":       {R: 0, G: 0, B: 0, A: 255},
	"white":       {R: 255, G: 255, B: 255, A: 255},
	"red":         {R: 255, G: 0, B: 0, A: 255},
	"green":       {R: 0, G: 128, B: 0, A: 255},
	"blue":        {R: 0, G: 0, B: 255, A: 255},
	"yellow":      {R: 255, G: 255, B: 0, A: 255},
	"orange":      {R: 255, G: 165, B: 0, A: 255},
	"purple":      {R: 128, G: 0, B: 128, A: 255},
	"gray":        {R: 128, G: 128, B: 128, A: 255},
	"grey":        {R: 128, G: 128, B: 128, A: 255},
	"lightgray":   {R: 211, G: 211, B: 211, A: 255},
	"darkgray":    {R: 169, G: 169, B: 169, A: 255},
	"transparent": {R: 0, G: 0, B: 0, A: 0},
}

// ParseColor parses a color string. Supported formats are named colors,
// "#RGB", "#RRGGBB" and "#RRGGBBAA" (the leading # is optional), and
// "rgba(r, g, b, a)" with a as 0-255 or 0.0-1.0.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if c, ok := NamedColors[strings.ToLower(s)]; ok {
		return c, nil
	}
	if lower := strings.ToLower(s); strings.HasPrefix(lower, "rgba(") || strings.HasPrefix(lower, "rgb(") {
		return parseRGBAFunc(s)
	}

	hex := strings.TrimPrefix(s, "#")
	alpha := uint8(255)
	switch len(hex) {
	case 3, 6:
	case 8:
		a, err := strconv.ParseUint(hex[6:], 16, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid alpha component in %q: %w", s, err)
		}
		alpha = uint8(a)
		hex = hex[:6]
	default:
		return color.RGBA{}, fmt.Errorf("unrecognized color format: %q", s)
	}
	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: alpha}, nil
}

func parseRGBAFunc(s string) (color.RGBA, error) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return color.RGBA{}, fmt.Errorf("invalid rgba() format: %q", s)
	}
	parts := strings.Split(s[open+1:end], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, fmt.Errorf("rgba() requires 3 or 4 values, got %d", len(parts))
	}
	var ch [4]uint8
	ch[3] = 255
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i == 3 && strings.Contains(p, ".") {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return color.RGBA{}, fmt.Errorf("invalid alpha value: %w", err)
			}
			ch[3] = uint8(min(max(f, 0), 1) * 255)
			continue
		}
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid component %d: %w", i, err)
		}
		ch[i] = uint8(v)
	}
	return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
}

// MustParseColor parses a color string and panics if parsing fails.
// Use this only for known-good color values in initialization code.
func MustParseColor(s string) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ToHex converts a color to "#RRGGBB", or "#RRGGBBAA" when not opaque.
func ToHex(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// WithOpacity returns c with its alpha set from opacity in [0,1].
func WithOpacity(c color.RGBA, opacity float64) color.RGBA {
	c.A = uint8(min(max(opacity, 0), 1) * 255)
	return c
}

// Ramp blends from lo to hi in CIE L*a*b* space. t is clamped to [0,1];
// alpha is interpolated linearly.
func Ramp(lo, hi color.RGBA, t float64) color.RGBA {
	t = min(max(t, 0), 1)
	a := colorful.Color{R: float64(lo.R) / 255, G: float64(lo.G) / 255, B: float64(lo.B) / 255}
	b := colorful.Color{R: float64(hi.R) / 255, G: float64(hi.G) / 255, B: float64(hi.B) / 255}
	r, g, bl := a.BlendLab(b, t).Clamped().RGB255()
	alpha := float64(lo.A)*(1-t) + float64(hi.A)*t
	return color.RGBA{R: r, G: g, B: bl, A: uint8(alpha + 0.5)}
}
