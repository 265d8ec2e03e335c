package autosave

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period used by the editor.
const DefaultDelay = 1500 * time.Millisecond

// Debouncer delivers the latest value passed to Update once no further update
// has arrived for the configured delay.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(T)
	timer   *time.Timer
	pending T
	has     bool
	seq     uint64
	stopped bool
	// running counts fn calls that have taken a value but not returned.
	running sync.WaitGroup
}

func NewDebouncer[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Update replaces the pending value and restarts the quiet period.
func (d *Debouncer[T]) Update(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = v
	d.has = true
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

// Flush emits the pending value immediately, if any.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	v, ok := d.take()
	if ok {
		d.running.Add(1)
	}
	d.mu.Unlock()
	if ok {
		d.emit(v)
	}
}

// Pending reports whether a value is waiting for its quiet period to end.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.has
}

// Stop discards any pending value; later updates are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.take()
}

// Drain stops the debouncer like Stop but hands back the pending value, and
// returns only after any callback already under way has finished.
func (d *Debouncer[T]) Drain() (T, bool) {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	v, ok := d.take()
	d.mu.Unlock()
	d.running.Wait()
	return v, ok
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq {
		// superseded by a later Update or a Flush
		d.mu.Unlock()
		return
	}
	v, ok := d.take()
	if ok {
		d.running.Add(1)
	}
	d.mu.Unlock()
	if ok {
		d.emit(v)
	}
}

func (d *Debouncer[T]) emit(v T) {
	defer d.running.Done()
	d.fn(v)
}

// take must be called with mu held.
func (d *Debouncer[T]) take() (T, bool) {
	var zero T
	if !d.has {
		return zero, false
	}
	v := d.pending
	d.pending = zero
	d.has = false
	d.seq++
	return v, true
}
