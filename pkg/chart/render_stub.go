//go:build noebiten

package chart

import "github.com/opd-ai/go-chart/internal/visual"

// newLayer always returns an in-memory collection in noebiten builds.
func newLayer(bool) visual.Layer {
	return visual.NewCollection()
}

// runRenderLoop falls back to the headless loop in noebiten builds.
func (c *chartImpl) runRenderLoop() {
	c.log.Warn("built without a renderer; running headless")
	c.mu.RLock()
	ctx := c.ctx
	c.mu.RUnlock()
	c.runHeadless(ctx)
}
