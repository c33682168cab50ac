package engine

import "sync"

// dispatcher delivers events to listeners synchronously in FIFO order.
//
// An event fired while listeners are still handling an earlier one is queued
// and delivered after it, so every listener observes the same order events
// were fired in.
type dispatcher struct {
	mu        sync.Mutex
	listeners []Listener
	pending   []Event
	firing    bool
	fired     int
}

func newDispatcher() *dispatcher {
	return &dispatcher{pending: make([]Event, 0, 8)}
}

func (d *dispatcher) subscribe(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

func (d *dispatcher) fire(ev Event) {
	d.mu.Lock()
	d.pending = append(d.pending, ev)
	d.fired++
	if d.firing {
		d.mu.Unlock()
		return
	}
	d.firing = true

	for len(d.pending) > 0 {
		next := d.pending[0]
		// Clear the slot so the backing array does not pin delivered states.
		d.pending[0] = Event{}
		d.pending = d.pending[1:]
		listeners := d.listeners
		d.mu.Unlock()

		for _, l := range listeners {
			l.OnEvent(next)
		}

		d.mu.Lock()
	}
	d.pending = d.pending[:0]
	d.firing = false
	d.mu.Unlock()
}

// count returns the number of events fired so far.
func (d *dispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fired
}
