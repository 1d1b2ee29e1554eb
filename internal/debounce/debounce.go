// Package debounce collapses bursts of calls per key into a single delayed
// call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delays calls keyed by an arbitrary string. Scheduling a key
// replaces only that key's pending call; other keys are never delayed or
// cancelled by it.
type Debouncer struct {
	wait time.Duration

	mu      sync.Mutex
	pending map[string]*call
	seq     uint64
	stopped bool
}

type call struct {
	timer *time.Timer
	seq   uint64
}

// New creates a Debouncer that fires wait after the last Schedule of a key.
func New(wait time.Duration) *Debouncer {
	return &Debouncer{
		wait:    wait,
		pending: make(map[string]*call),
	}
}

// Schedule arranges for fn to run after the debounce interval, cancelling any
// call still pending for key. fn runs on its own goroutine.
func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}
	d.seq++
	seq := d.seq
	c := &call{seq: seq}
	c.timer = time.AfterFunc(d.wait, func() {
		d.mu.Lock()
		cur, ok := d.pending[key]
		if !ok || cur.seq != seq {
			// Replaced or cancelled after the timer already fired.
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.mu.Unlock()
		fn()
	})
	d.pending[key] = c
}

// Cancel drops the pending call for key, reporting whether there was one.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.pending[key]
	if !ok {
		return false
	}
	c.timer.Stop()
	delete(d.pending, key)
	return true
}

// Pending returns the number of keys with a call waiting to fire.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels every pending call. Later Schedule calls are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, c := range d.pending {
		c.timer.Stop()
		delete(d.pending, key)
	}
}
