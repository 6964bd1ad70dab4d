package sync

import (
	gosync "sync"

	"tasksync/domain"
)

// Handler receives decoded task events.
type Handler func(ev *domain.Event)

type subscriber struct {
	id int
	fn Handler
}

// dispatcher fans decoded events out to registered handlers in
// registration order. Delivery runs on the connection's read goroutine,
// so handlers for one event always finish before the next is parsed.
type dispatcher struct {
	mu   gosync.Mutex
	subs []subscriber
	next int
}

// subscribe registers a handler and returns a func that removes exactly
// that handler. Unsubscribing during delivery does not affect the event
// currently in flight.
func (d *dispatcher) subscribe(h Handler) func() {
	d.mu.Lock()
	id := d.next
	d.next++
	d.subs = append(d.subs, subscriber{id: id, fn: h})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i := range d.subs {
			if d.subs[i].id == id {
				d.subs = append(d.subs[:i], d.subs[i+1:]...)
				return
			}
		}
	}
}

// dispatch delivers ev to a snapshot of the current handlers.
func (d *dispatcher) dispatch(ev *domain.Event) {
	d.mu.Lock()
	subs := make([]subscriber, len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}
