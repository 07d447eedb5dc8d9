// Package expiry implements the retention horizon: which visits have
// aged out, and when the next one will.
package expiry

import (
	"sync"
	"time"

	"github.com/runnerr0/visitlog/internal/clock"
	"github.com/runnerr0/visitlog/internal/record"
)

// Unlimited disables expiry.
const Unlimited = -1

// MaxArm caps a single timer arming. Longer delays re-arm at MaxArm and
// recompute on wake.
const MaxArm = 7 * 24 * time.Hour

// Result is the outcome of a Sweep.
type Result struct {
	// Keep is the number of leading (newest) entries still inside the
	// horizon. Entries at index Keep and beyond have expired.
	Keep int
	// Next is the delay before the oldest kept entry expires, capped at
	// MaxArm. Zero means there is nothing to arm.
	Next time.Duration
}

// Expired reports how many entries expired.
func (r Result) Expired(total int) int { return total - r.Keep }

// ExpiresAt returns the instant e falls out of a limitDays horizon.
func ExpiresAt(e record.Entry, limitDays int) time.Time {
	return e.VisitedAt.AddDate(0, 0, limitDays)
}

// Sweep walks entries (sorted newest first) from the oldest end and
// returns the cut point and the delay until the next expiry.
func Sweep(entries []record.Entry, limitDays int, now time.Time) Result {
	if limitDays < 0 || len(entries) == 0 {
		return Result{Keep: len(entries)}
	}

	keep := len(entries)
	for keep > 0 {
		wait := ExpiresAt(entries[keep-1], limitDays).Sub(now)
		if wait > 0 {
			if wait > MaxArm {
				wait = MaxArm
			}
			return Result{Keep: keep, Next: wait}
		}
		keep--
	}
	return Result{Keep: 0}
}

// Scheduler owns the one-shot expiry timer.
type Scheduler struct {
	clock  clock.Clock
	onFire func()

	mu    sync.Mutex
	timer clock.Timer
	due   time.Time
	gen   uint64
}

// NewScheduler returns a Scheduler that calls onFire whenever an armed
// timer elapses.
func NewScheduler(c clock.Clock, onFire func()) *Scheduler {
	if c == nil {
		c = clock.Real()
	}
	return &Scheduler{clock: c, onFire: onFire}
}

// Arm replaces any pending timer with one firing after d. A non-positive
// d only cancels.
func (s *Scheduler) Arm(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	if d <= 0 {
		return
	}
	if d > MaxArm {
		d = MaxArm
	}
	gen := s.gen
	s.due = s.clock.Now().Add(d)
	s.timer = s.clock.AfterFunc(d, func() { s.fire(gen) })
}

// Stop cancels the pending timer, if any.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Pending reports whether a timer is armed, and when it will fire.
func (s *Scheduler) Pending() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return time.Time{}, false
	}
	return s.due, true
}

func (s *Scheduler) stopLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
		s.due = time.Time{}
	}
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		// Stopped or re-armed after this timer was created.
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.due = time.Time{}
	s.mu.Unlock()

	if s.onFire != nil {
		s.onFire()
	}
}
