package render

import (
	"bytes"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// defaultFontSize is used when an element carries no font size.
const defaultFontSize = 12.0

// lineSpacing is the line height as a multiple of the font size.
const lineSpacing = 1.2

// TextDrawer draws and measures text. Surface uses it for every text
// element; tests substitute a recorder.
type TextDrawer interface {
	DrawText(screen *ebiten.Image, s string, x, y, size float64, clr color.RGBA)
	MeasureText(s string, size float64) (width, height float64)
}

var (
	regularOnce   sync.Once
	regularSource *text.GoTextFaceSource
	regularErr    error
)

// regularFace loads the embedded Go Regular face once.
func regularFace() (*text.GoTextFaceSource, error) {
	regularOnce.Do(func() {
		regularSource, regularErr = text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	})
	return regularSource, regularErr
}

// TextRenderer handles text rendering using Ebiten's text package and the
// Go Regular font.
type TextRenderer struct {
	source *text.GoTextFaceSource
	mu     sync.Mutex
	faces  map[float64]*text.GoTextFace
}

// NewTextRenderer creates a TextRenderer with the embedded Go Regular font.
func NewTextRenderer() *TextRenderer {
	source, err := regularFace()
	if err != nil {
		// This should never fail with the embedded font
		panic("failed to load embedded font: " + err.Error())
	}
	return &TextRenderer{source: source, faces: make(map[float64]*text.GoTextFace)}
}

func (tr *TextRenderer) face(size float64) *text.GoTextFace {
	if size <= 0 {
		size = defaultFontSize
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	f, ok := tr.faces[size]
	if !ok {
		f = &text.GoTextFace{Source: tr.source, Size: size}
		tr.faces[size] = f
	}
	return f
}

// DrawText renders s with its top-left corner at (x, y).
func (tr *TextRenderer) DrawText(screen *ebiten.Image, s string, x, y, size float64, clr color.RGBA) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	op.LineSpacing = tr.face(size).Size * lineSpacing
	text.Draw(screen, s, tr.face(size), op)
}

// MeasureText returns the width and height of s.
func (tr *TextRenderer) MeasureText(s string, size float64) (width, height float64) {
	f := tr.face(size)
	return text.Measure(s, f, f.Size*lineSpacing)
}
