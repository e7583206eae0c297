// Package timing provides the monotonic clock and busy-wait primitives used by
// the bridge's poll loop.
//
// Every wait in the bridge is an explicit "poll until predicate or deadline"
// loop against a Clock. There is no cancellation: a wait runs until the
// predicate holds or its timeout elapses. Tests substitute a fake clock that
// advances on every observation so that timeouts resolve instantly.
package timing

import (
	"runtime"
	"time"
)

// Clock is a monotonic time source with a busy-wait delay.
type Clock interface {
	// Now returns the current monotonic time.
	Now() time.Time

	// Delay blocks the calling goroutine for at least d.
	Delay(d time.Duration)
}

// spinThreshold is the remaining duration below which Delay spins instead of
// sleeping. The OS scheduler cannot hit microsecond targets reliably.
const spinThreshold = 2 * time.Millisecond

type systemClock struct{}

// System returns the wall clock backed by Go's monotonic reading.
func System() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Delay(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)
	if d > spinThreshold {
		time.Sleep(d - spinThreshold)
	}
	for time.Now().Before(deadline) {
		runtime.Gosched()
	}
}

// Deadline is an absolute point in time on a Clock.
type Deadline struct {
	clock Clock
	at    time.Time
}

// After returns a deadline d from now on clock c.
func After(c Clock, d time.Duration) Deadline {
	return Deadline{clock: c, at: c.Now().Add(d)}
}

// Expired reports whether the deadline has passed.
func (d Deadline) Expired() bool {
	return !d.clock.Now().Before(d.at)
}

// Wait busy-waits until the deadline has passed.
func (d Deadline) Wait() {
	remaining := d.at.Sub(d.clock.Now())
	d.clock.Delay(remaining)
}

// WaitUntil polls pred until it returns true or timeout elapses on c.
// pred is always evaluated at least once. The return value is the last
// result of pred.
func WaitUntil(c Clock, timeout time.Duration, pred func() bool) bool {
	start := c.Now()
	for {
		if pred() {
			return true
		}
		if c.Now().Sub(start) >= timeout {
			return false
		}
		runtime.Gosched()
	}
}
