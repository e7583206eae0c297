package timing

import (
	"sync"
	"time"
)

// FakeClock is a deterministic Clock for tests. Every call to Now advances
// the clock by Step, which lets polling loops time out without real waits.
type FakeClock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration

	// Delays records every duration passed to Delay, in call order.
	Delays []time.Duration
}

// NewFakeClock returns a fake clock starting at an arbitrary fixed instant.
func NewFakeClock(step time.Duration) *FakeClock {
	return &FakeClock{
		now:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Step: step,
	}
}

func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(f.Step)
	return f.now
}

func (f *FakeClock) Delay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Delays = append(f.Delays, d)
	if d > 0 {
		f.now = f.now.Add(d)
	}
}

// Advance moves the clock forward by d without recording a delay.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
