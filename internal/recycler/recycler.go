// Package recycler reuses the visual elements of a previous render pass
// by position before manufacturing new ones.
package recycler

// Recycler hands out elements for one render pass. Previous elements are
// reused in order; once they run out the factory creates new ones. After
// the pass the caller detaches Unused and attaches Created.
type Recycler[T any] struct {
	previous []T
	next     int
	factory  func() T
	created  []T
}

// New returns a Recycler over the elements rendered by the previous pass.
// The slice is not modified.
func New[T any](previous []T, factory func() T) *Recycler[T] {
	return &Recycler[T]{previous: previous, factory: factory}
}

// Next returns the next reusable element or a newly created one.
func (r *Recycler[T]) Next() T {
	if r.next < len(r.previous) {
		e := r.previous[r.next]
		r.next++
		return e
	}
	e := r.factory()
	r.created = append(r.created, e)
	return e
}

// Reused returns the previous elements handed out so far, in their
// original order.
func (r *Recycler[T]) Reused() []T { return r.previous[:r.next] }

// Unused returns the previous elements that were not handed out.
func (r *Recycler[T]) Unused() []T { return r.previous[r.next:] }

// Created returns the elements manufactured by the factory.
func (r *Recycler[T]) Created() []T { return r.created }

// StateRecycler is a Recycler whose factory receives the state of the
// request that caused the element to be created.
type StateRecycler[T, S any] struct {
	previous []T
	next     int
	factory  func(S) T
	created  []T
}

// NewWithState returns a StateRecycler over previous.
func NewWithState[T, S any](previous []T, factory func(S) T) *StateRecycler[T, S] {
	return &StateRecycler[T, S]{previous: previous, factory: factory}
}

// Next returns the next reusable element, or one created from state.
func (r *StateRecycler[T, S]) Next(state S) T {
	if r.next < len(r.previous) {
		e := r.previous[r.next]
		r.next++
		return e
	}
	e := r.factory(state)
	r.created = append(r.created, e)
	return e
}

// Reused returns the previous elements handed out so far.
func (r *StateRecycler[T, S]) Reused() []T { return r.previous[:r.next] }

// Unused returns the previous elements that were not handed out.
func (r *StateRecycler[T, S]) Unused() []T { return r.previous[r.next:] }

// Created returns the elements manufactured by the factory.
func (r *StateRecycler[T, S]) Created() []T { return r.created }
