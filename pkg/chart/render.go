//go:build !noebiten

package chart

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/opd-ai/go-chart/internal/config"
	"github.com/opd-ai/go-chart/internal/render"
	"github.com/opd-ai/go-chart/internal/visual"
)

// newLayer returns the visual layer for a new run: an Ebiten surface for
// a window, an in-memory collection when headless.
func newLayer(headless bool) visual.Layer {
	if headless {
		return visual.NewCollection()
	}
	return render.NewSurface(nil)
}

// renderConfig maps the declaration's window settings onto the renderer.
func renderConfig(cfg *config.Config, title string) render.Config {
	rc := render.DefaultConfig()
	w := cfg.Window
	if w.Width > 0 {
		rc.Width = w.Width
	}
	if w.Height > 0 {
		rc.Height = w.Height
	}
	switch {
	case title != "":
		rc.Title = title
	case w.Title != "":
		rc.Title = w.Title
	}
	if w.Background != (color.RGBA{}) {
		rc.BackgroundColor = w.Background
	}
	rc.Hints = render.Hints{
		Undecorated: w.HasHint(config.WindowHintUndecorated),
		Above:       w.HasHint(config.WindowHintAbove),
		Below:       w.HasHint(config.WindowHintBelow),
		Sticky:      w.HasHint(config.WindowHintSticky),
		SkipTaskbar: w.HasHint(config.WindowHintSkipTaskbar),
		SkipPager:   w.HasHint(config.WindowHintSkipPager),
	}
	return rc
}

// gameWindow applies reloaded window settings to a running game.
type gameWindow struct {
	game  *render.Game
	title string
}

func (w gameWindow) apply(cfg *config.Config) {
	rc := renderConfig(cfg, w.title)
	// Hints only take effect when the window is created.
	rc.Hints = w.game.Config().Hints
	w.game.SetConfig(rc)
}

// runRenderLoop creates and runs the Ebiten rendering loop.
// This method blocks until the window is closed or the context is cancelled.
func (c *chartImpl) runRenderLoop() {
	c.mu.RLock()
	cfg := c.cfg
	ctx := c.ctx
	surface, _ := c.layer.(*render.Surface)
	c.mu.RUnlock()

	rc := renderConfig(cfg, c.opts.WindowTitle)
	if warning := render.CheckTransparencySupport(rc); warning != "" {
		c.log.Warn(warning)
	}

	game := render.NewGame(rc, surface)
	game.SetContext(ctx)
	game.SetErrorHandler(func(err error) {
		c.fail(err, ErrorCategoryRender, SeverityWarning)
	})
	game.SetChart(hosted{c: c})

	c.mu.Lock()
	c.window = gameWindow{game: game, title: c.opts.WindowTitle}
	c.mu.Unlock()

	if err := game.Run(); err != nil && !errors.Is(err, render.ErrGameTerminated) {
		c.fail(fmt.Errorf("render loop error: %w", err), ErrorCategoryRender, SeverityCritical)
	}
}
