package visual

import (
	"slices"
	"sync"
)

// Layer is the host's retained visual tree. The chart attaches elements
// it creates and detaches elements it no longer uses; everything else is
// done by mutating attached elements in place.
type Layer interface {
	Attach(elements ...Element)
	Detach(elements ...Element)
}

// Collection is an in-memory Layer. It keeps attached elements in attach
// order and is safe for one writer and concurrent readers.
type Collection struct {
	mu       sync.RWMutex
	elements []Element
	index    map[Element]int
	attached int
	detached int
}

// NewCollection returns an empty Collection.
func NewCollection() *Collection {
	return &Collection{index: make(map[Element]int)}
}

// Attach adds elements. Elements already attached are ignored.
func (c *Collection) Attach(elements ...Element) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range elements {
		if e == nil {
			continue
		}
		if _, ok := c.index[e]; ok {
			continue
		}
		c.index[e] = len(c.elements)
		c.elements = append(c.elements, e)
		c.attached++
	}
}

// Detach removes elements. Unknown elements are ignored.
func (c *Collection) Detach(elements ...Element) {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := false
	for _, e := range elements {
		if _, ok := c.index[e]; !ok {
			continue
		}
		delete(c.index, e)
		c.detached++
		removed = true
	}
	if !removed {
		return
	}
	c.elements = slices.DeleteFunc(c.elements, func(e Element) bool {
		_, ok := c.index[e]
		return !ok
	})
	for i, e := range c.elements {
		c.index[e] = i
	}
}

// Contains reports whether e is attached.
func (c *Collection) Contains(e Element) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.index[e]
	return ok
}

// Len returns the number of attached elements.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.elements)
}

// Elements returns the attached elements sorted by Z, stable in attach
// order. The returned slice is a copy.
func (c *Collection) Elements() []Element {
	c.mu.RLock()
	out := slices.Clone(c.elements)
	c.mu.RUnlock()
	slices.SortStableFunc(out, func(a, b Element) int {
		return a.Node().Z - b.Node().Z
	})
	return out
}

// Owned returns the attached elements created by the component in slot.
func (c *Collection) Owned(slot int) []Element {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Element
	for _, e := range c.elements {
		if e.Node().Owner == slot {
			out = append(out, e)
		}
	}
	return out
}

// Counts returns the total number of attach and detach operations that
// changed the collection.
func (c *Collection) Counts() (attached, detached int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attached, c.detached
}
