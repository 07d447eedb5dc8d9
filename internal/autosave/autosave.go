// Package autosave batches change notifications into occasional saves.
package autosave

import (
	"log/slog"
	"sync"
	"time"

	"github.com/runnerr0/visitlog/internal/clock"
	"github.com/runnerr0/visitlog/internal/logging"
)

const (
	DefaultDelay   = 3 * time.Second
	DefaultMaxWait = 15 * time.Second
)

var saveLog = logging.ForComponent(logging.CompAutosave)

// Saver calls a save function Delay after the last change, but never
// later than MaxWait after the first unsaved change.
type Saver struct {
	clock   clock.Clock
	delay   time.Duration
	maxWait time.Duration
	save    func() error

	mu    sync.Mutex
	timer clock.Timer
	first time.Time
	gen   uint64
}

// New returns a Saver. Zero durations select the defaults.
func New(c clock.Clock, delay, maxWait time.Duration, save func() error) *Saver {
	if c == nil {
		c = clock.Real()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Saver{clock: c, delay: delay, maxWait: maxWait, save: save}
}

// ChangeOccurred records a change. It restarts the delay, or saves
// synchronously once MaxWait has passed since the first pending change.
func (s *Saver) ChangeOccurred() {
	s.mu.Lock()
	now := s.clock.Now()
	if s.first.IsZero() {
		s.first = now
	}
	if now.Sub(s.first) >= s.maxWait {
		s.resetLocked()
		s.mu.Unlock()
		s.run("max_wait")
		return
	}

	s.stopTimerLocked()
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.delay, func() { s.fire(gen) })
	s.mu.Unlock()
}

// Pending reports whether a save is scheduled.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Stop cancels any scheduled save without running it.
func (s *Saver) Stop() {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
}

func (s *Saver) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.resetLocked()
	s.mu.Unlock()
	s.run("delay")
}

func (s *Saver) run(reason string) {
	if s.save == nil {
		return
	}
	if err := s.save(); err != nil {
		saveLog.Debug("autosave_failed", slog.String("reason", reason), slog.String("error", err.Error()))
	}
}

func (s *Saver) resetLocked() {
	s.stopTimerLocked()
	s.gen++
	s.first = time.Time{}
}

func (s *Saver) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
