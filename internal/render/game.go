package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/opd-ai/go-chart/internal/geom"
)

// ErrGameTerminated is returned when the game loop is terminated via context cancellation.
var ErrGameTerminated = errors.New("game terminated")

// ErrorHandler is a function type for handling errors during game updates.
type ErrorHandler func(err error)

// DefaultErrorHandler writes errors to stderr.
func DefaultErrorHandler(err error) {
	fmt.Fprintf(os.Stderr, "update error: %v\n", err)
}

// Chart is the part of a chart pipeline the game drives. Update runs the
// pending layout passes; SetSize relayouts for a new window size.
type Chart interface {
	Update() error
	SetSize(size geom.Size)
}

// HintFunc applies window manager hints to the window titled title once
// it exists.
type HintFunc func(title string, h Hints) error

// Game implements ebiten.Game. Every tick it runs the chart's pending
// passes; every frame it clears the screen and draws the surface.
type Game struct {
	config       Config
	surface      *Surface
	chart        Chart
	errorHandler ErrorHandler
	metrics      *FrameMetrics
	applyHints   HintFunc
	hintsApplied bool
	size         geom.Size
	lastDraw     time.Time
	mu           sync.RWMutex
	running      bool
	ctx          context.Context
}

// NewGame creates a new Game drawing surface with the provided configuration.
func NewGame(config Config, surface *Surface) *Game {
	if surface == nil {
		surface = NewSurface(nil)
	}
	g := &Game{
		config:       config,
		surface:      surface,
		errorHandler: DefaultErrorHandler,
		metrics:      NewFrameMetrics(time.Second),
		applyHints:   ApplyWindowHints,
	}
	surface.SetMetrics(g.metrics)
	return g
}

// Surface returns the surface the game draws.
func (g *Game) Surface() *Surface { return g.surface }

// Metrics returns the frame statistics.
func (g *Game) Metrics() *FrameMetrics { return g.metrics }

// SetChart replaces the hosted chart. The new chart is sized to the
// current window on the next tick.
func (g *Game) SetChart(c Chart) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.chart = c
	if c != nil && !g.size.Empty() {
		c.SetSize(g.size)
	}
}

// SetErrorHandler sets a custom error handler for update errors.
// If nil is passed, errors will be silently ignored.
func (g *Game) SetErrorHandler(handler ErrorHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errorHandler = handler
}

// SetHintFunc replaces the function that applies window hints.
func (g *Game) SetHintFunc(fn HintFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.applyHints = fn
}

// SetContext sets a context for the game loop. When the context is cancelled,
// the game loop will terminate gracefully.
func (g *Game) SetContext(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ctx = ctx
}

// Update implements ebiten.Game.Update.
// It is called every tick (typically 60 times per second).
func (g *Game) Update() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ctx != nil {
		select {
		case <-g.ctx.Done():
			return ErrGameTerminated
		default:
		}
	}

	// The window only exists once the loop is ticking.
	if !g.hintsApplied {
		g.hintsApplied = true
		if g.applyHints != nil {
			if err := g.applyHints(g.config.Title, g.config.Hints); err != nil {
				g.handle(fmt.Errorf("window hints: %w", err))
			}
		}
	}

	if g.chart == nil {
		return nil
	}
	start := time.Now()
	if err := g.chart.Update(); err != nil {
		g.handle(err)
	}
	g.metrics.RecordUpdate(time.Since(start))
	return nil
}

func (g *Game) handle(err error) {
	if g.errorHandler != nil {
		g.errorHandler(err)
	}
}

// Draw implements ebiten.Game.Draw.
// It is called every frame to render the screen.
func (g *Game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	now := time.Now()
	if !g.lastDraw.IsZero() {
		g.metrics.RecordFrame(now.Sub(g.lastDraw))
	}
	g.lastDraw = now
	bg := g.config.BackgroundColor
	g.mu.Unlock()

	screen.Fill(bg)
	g.surface.Draw(screen)
}

// Layout implements ebiten.Game.Layout. The logical screen follows the
// window so the chart relayouts on resize.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	size := geom.Size{W: float64(outsideWidth), H: float64(outsideHeight)}
	if size != g.size {
		g.size = size
		if g.chart != nil {
			g.chart.SetSize(size)
		}
	}
	return outsideWidth, outsideHeight
}

// Config returns the current configuration.
func (g *Game) Config() Config {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.config
}

// SetConfig updates the game configuration in-place.
// Window size and title are applied immediately when the loop runs.
func (g *Game) SetConfig(config Config) {
	g.mu.Lock()
	running := g.running
	g.config = config
	g.mu.Unlock()

	if running {
		ebiten.SetWindowSize(config.Width, config.Height)
		ebiten.SetWindowTitle(config.Title)
	}
}

// Run starts the Ebiten game loop.
// This function blocks until the window is closed.
func (g *Game) Run() error {
	cfg := g.Config()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid render config: %w", err)
	}

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	} else {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)
	}
	ebiten.SetWindowDecorated(!cfg.Hints.Undecorated)
	ebiten.SetWindowFloating(cfg.Hints.Above)

	g.mu.Lock()
	g.running = true
	g.mu.Unlock()

	err := ebiten.RunGameWithOptions(g, &ebiten.RunGameOptions{
		ScreenTransparent: cfg.Transparent(),
	})

	g.mu.Lock()
	g.running = false
	g.mu.Unlock()

	return err
}

// IsRunning returns whether the game loop is currently running.
func (g *Game) IsRunning() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.running
}
