package pipeline

import "sync"

// Dispatcher marshals work onto the chart's update thread. Post may be
// called from any goroutine; Drain is called by Chart.Update.
type Dispatcher struct {
	mu    sync.Mutex
	queue []func()
	// notify receives a value whenever the queue goes from empty to
	// non-empty.
	notify chan struct{}
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{notify: make(chan struct{}, 1)}
}

// Post queues fn.
func (d *Dispatcher) Post(fn func()) {
	d.mu.Lock()
	wasEmpty := len(d.queue) == 0
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
	if wasEmpty {
		select {
		case d.notify <- struct{}{}:
		default:
		}
	}
}

// Drain removes and returns everything queued, in posting order.
func (d *Dispatcher) Drain() []func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	q := d.queue
	d.queue = nil
	return q
}

// Pending returns the number of queued functions.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Ready is signalled when work is posted to an empty queue. Headless
// hosts select on it to update promptly between ticks.
func (d *Dispatcher) Ready() <-chan struct{} { return d.notify }
