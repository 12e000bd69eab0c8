package debounce

import (
	"sync"
	"time"
)

// Debouncer runs only the last of a burst of triggers, once delay has
// elapsed with no newer trigger. Every trigger bumps a generation counter
// so callers can discard results produced for superseded triggers.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	gen   uint64
}

func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the quiet window, replacing any pending call.
// It returns the generation assigned to this trigger.
func (d *Debouncer) Trigger(fn func(gen uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		if !d.IsCurrent(gen) {
			return
		}
		fn(gen)
	})
	return gen
}

// Cancel drops any pending call and invalidates in-flight generations
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

func (d *Debouncer) IsCurrent(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return gen == d.gen
}
