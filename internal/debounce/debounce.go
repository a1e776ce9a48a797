// Package debounce coalesces bursts of calls per key into one call after a
// quiet period.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the latest function scheduled for a key once no newer call for
// that key has arrived within the delay. Keys are independent: there is no
// ordering between functions of different keys.
type Debouncer struct {
	delay time.Duration

	mu       sync.Mutex
	idle     *sync.Cond
	timers   map[string]*pending
	inflight int
	closed   bool
}

type pending struct {
	timer *time.Timer
	fn    func()
	// gen guards against a timer that fired concurrently with a reschedule.
	gen uint64
}

// New returns a debouncer with the given quiet period.
func New(delay time.Duration) *Debouncer {
	d := &Debouncer{delay: delay, timers: make(map[string]*pending)}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Schedule cancels any pending call for key and schedules fn to run after the
// delay. It is a no-op after Close.
func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	p, ok := d.timers[key]
	if !ok {
		p = &pending{}
		d.timers[key] = p
	} else if p.timer != nil {
		p.timer.Stop()
	}
	p.gen++
	p.fn = fn
	gen := p.gen
	p.timer = time.AfterFunc(d.delay, func() { d.fire(key, gen) })
}

func (d *Debouncer) fire(key string, gen uint64) {
	d.mu.Lock()
	p, ok := d.timers[key]
	if !ok || p.gen != gen || d.closed {
		d.mu.Unlock()
		return
	}
	delete(d.timers, key)
	fn := p.fn
	d.inflight++
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.inflight--
		if d.inflight == 0 {
			d.idle.Broadcast()
		}
		d.mu.Unlock()
	}()
	fn()
}

// Cancel drops the pending call for key and reports whether one was pending.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.timers[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(d.timers, key)
	return true
}

// Pending returns the keys with a scheduled call.
func (d *Debouncer) Pending() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	keys := make([]string, 0, len(d.timers))
	for k := range d.timers {
		keys = append(keys, k)
	}
	return keys
}

// Flush cancels every pending timer and runs the pending functions now, in
// the calling goroutine. Calls already running are waited for first.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fns := d.drainLocked()
	d.waitIdleLocked()
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Close cancels every pending call without running it and waits for calls
// already running. Later Schedule calls are ignored.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.drainLocked()
	d.waitIdleLocked()
}

func (d *Debouncer) waitIdleLocked() {
	for d.inflight > 0 {
		d.idle.Wait()
	}
}

func (d *Debouncer) drainLocked() []func() {
	fns := make([]func(), 0, len(d.timers))
	for key, p := range d.timers {
		p.timer.Stop()
		fns = append(fns, p.fn)
		delete(d.timers, key)
	}
	return fns
}
