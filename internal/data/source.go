// Package data provides the observable item sources charts render, value
// coercion for loosely typed items and loaders for local data files.
package data

import (
	"fmt"
	"slices"
	"sync"
)

// Item is one record of a source. Values are addressed by (dotted) path.
type Item map[string]any

// ChangeKind identifies the kind of a source change.
type ChangeKind int

const (
	// Reset replaces every item.
	Reset ChangeKind = iota
	// Add inserts Items at Start.
	Add
	// Remove deletes Items, which started at Start.
	Remove
)

// String implements fmt.Stringer.
func (k ChangeKind) String() string {
	switch k {
	case Reset:
		return "reset"
	case Add:
		return "add"
	case Remove:
		return "remove"
	default:
		return fmt.Sprintf("change(%d)", int(k))
	}
}

// Change describes one mutation of a Source.
type Change struct {
	Source string
	Kind   ChangeKind
	Start  int
	Items  []Item
	// Version is the source version after the change.
	Version uint64
}

// Source is an ordered, observable list of items. Mutations may come from
// any goroutine; observers are called synchronously on the mutating
// goroutine after the mutation is visible, in subscription order. Every
// mutation bumps the version so observers that read a Snapshot can drop
// change events it already contains. Observers must not mutate the
// source they observe.
type Source struct {
	name string

	// writeMu serializes mutations with their notifications so observers
	// see changes in version order.
	writeMu   sync.Mutex
	mu        sync.RWMutex
	items     []Item
	version   uint64
	observers []observer
	nextID    int
}

type observer struct {
	id int
	fn func(Change)
}

// NewSource returns a source holding a copy of items.
func NewSource(name string, items []Item) *Source {
	return &Source{name: name, items: slices.Clone(items)}
}

// Name returns the source name.
func (s *Source) Name() string { return s.name }

// Len returns the number of items.
func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Items returns a snapshot of the items.
func (s *Source) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Snapshot returns the items together with the version they belong to.
// Changes with a Version at or below it are already reflected.
func (s *Source) Snapshot() ([]Item, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items), s.version
}

// Version returns the number of mutations applied so far.
func (s *Source) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// At returns the item at index i.
func (s *Source) At(i int) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.items) {
		return nil, false
	}
	return s.items[i], true
}

// Subscribe registers fn for every subsequent change and returns a
// function that removes it.
func (s *Source) Subscribe(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, observer{id: id, fn: fn})
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.observers = slices.DeleteFunc(s.observers, func(o observer) bool { return o.id == id })
	}
}

func (s *Source) notify(c Change) {
	c.Source = s.name
	s.mu.RLock()
	obs := slices.Clone(s.observers)
	s.mu.RUnlock()
	for _, o := range obs {
		o.fn(c)
	}
}

// Insert inserts items before index start.
func (s *Source) Insert(start int, items ...Item) error {
	if len(items) == 0 {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	if start < 0 || start > len(s.items) {
		n := len(s.items)
		s.mu.Unlock()
		return fmt.Errorf("source %s: insert at %d out of range [0, %d]", s.name, start, n)
	}
	s.items = slices.Insert(s.items, start, items...)
	s.version++
	v := s.version
	s.mu.Unlock()
	s.notify(Change{Kind: Add, Start: start, Items: slices.Clone(items), Version: v})
	return nil
}

// Append adds items at the end.
func (s *Source) Append(items ...Item) {
	if len(items) == 0 {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	start := len(s.items)
	s.items = append(s.items, items...)
	s.version++
	v := s.version
	s.mu.Unlock()
	s.notify(Change{Kind: Add, Start: start, Items: slices.Clone(items), Version: v})
}

// Remove deletes count items starting at start.
func (s *Source) Remove(start, count int) error {
	if count <= 0 {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	if start < 0 || start+count > len(s.items) {
		n := len(s.items)
		s.mu.Unlock()
		return fmt.Errorf("source %s: remove [%d, %d) out of range [0, %d)", s.name, start, start+count, n)
	}
	removed := slices.Clone(s.items[start : start+count])
	s.items = slices.Delete(s.items, start, start+count)
	s.version++
	v := s.version
	s.mu.Unlock()
	s.notify(Change{Kind: Remove, Start: start, Items: removed, Version: v})
	return nil
}

// Set replaces the item at index i. Observers see a Remove followed by an
// Add at the same index.
func (s *Source) Set(i int, item Item) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	if i < 0 || i >= len(s.items) {
		n := len(s.items)
		s.mu.Unlock()
		return fmt.Errorf("source %s: set %d out of range [0, %d)", s.name, i, n)
	}
	old := s.items[i]
	s.items[i] = item
	s.version += 2
	v := s.version
	s.mu.Unlock()
	s.notify(Change{Kind: Remove, Start: i, Items: []Item{old}, Version: v - 1})
	s.notify(Change{Kind: Add, Start: i, Items: []Item{item}, Version: v})
	return nil
}

// Reset replaces every item.
func (s *Source) Reset(items []Item) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	s.items = slices.Clone(items)
	s.version++
	v := s.version
	s.mu.Unlock()
	s.notify(Change{Kind: Reset, Items: slices.Clone(items), Version: v})
}
