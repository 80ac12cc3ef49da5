package auditclient

import (
	"sync"
	"time"
)

// DefaultDebounceDelay matches the editor's auto-save quiet period.
const DefaultDebounceDelay = 500 * time.Millisecond

// Debouncer coalesces bursts of triggers down to the last one. Every Trigger
// cancels any pending run and schedules a fresh one after the quiet period, so
// only the final state within a burst is acted on.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// NewDebouncer builds a Debouncer with the given quiet period, defaulting to
// DefaultDebounceDelay when delay is not positive.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn to run once the quiet period elapses with no further
// triggers. A pending run is cancelled and replaced.
func (d *Debouncer) Trigger(fn func()) {
	if fn == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending run without executing it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
