package chart

import "github.com/opd-ai/go-chart/internal/geom"

// hosted presents the instance's current pipeline to a window. The
// pipeline behind it changes on reload; the window keeps one value.
type hosted struct {
	c *chartImpl
}

func (h hosted) Update() error { return h.c.update() }

func (h hosted) SetSize(size geom.Size) { h.c.setSize(size) }
