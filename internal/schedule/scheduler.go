// Package schedule wakes the UI at the next instant a due badge can change:
// local midnight or the next future due time. It never polls.
package schedule

import (
	"sync"
	"time"

	"todoboard/internal/clock"
	"todoboard/internal/log"
	"todoboard/internal/model"
)

const (
	// Buffer is added to every wake so it lands after the boundary.
	Buffer = 50 * time.Millisecond
	// Ceiling is the longest wait that will be scheduled.
	Ceiling = 24 * time.Hour
	// DeferDelay is the retry delay while the user is mid-edit.
	DeferDelay = time.Second
)

// Wake is delivered to the notify callback when a timer fires.
type Wake struct {
	Gen uint64
}

// Scheduler holds at most one pending timer. Every Schedule, Defer or
// Cancel stops the previous timer and starts a new generation, so a wake
// that was already in flight is refused by Accept.
type Scheduler struct {
	clock  clock.Clock
	notify func(Wake)

	mu    sync.Mutex
	timer clock.Timer
	gen   uint64
}

func New(c clock.Clock, notify func(Wake)) *Scheduler {
	return &Scheduler{clock: c, notify: notify}
}

// NextDelay computes the wait until the next midnight or due-time crossing,
// buffer included. It reports false when the nearest event is beyond Ceiling;
// the buffer is added after that comparison.
func NextDelay(now time.Time, items []model.Item) (time.Duration, bool) {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	best := midnight.Sub(now)

	for _, it := range items {
		if it.Archived {
			continue
		}
		sec, ok := it.DueTime()
		if !ok {
			continue
		}
		at := time.Unix(sec, 0)
		if !at.After(now) {
			continue
		}
		if wait := at.Sub(now); wait < best {
			best = wait
		}
	}
	if best < 0 {
		best = 0
	}
	if best > Ceiling {
		return 0, false
	}
	return best + Buffer, true
}

// Schedule replaces any pending wake with one for the next event in items.
func (s *Scheduler) Schedule(items []model.Item) (time.Duration, bool) {
	delay, ok := NextDelay(s.clock.Now(), items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	if !ok {
		log.Debug("no wake scheduled", "reason", "beyond ceiling")
		return 0, false
	}
	s.armLocked(delay)
	log.Debug("wake scheduled", "in", delay, "gen", s.gen)
	return delay, true
}

// Defer replaces any pending wake with a short retry.
func (s *Scheduler) Defer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.armLocked(DeferDelay)
	log.Debug("wake deferred", "gen", s.gen)
}

// Cancel drops the pending wake, if any.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Accept reports whether w belongs to the live timer and consumes it.
func (s *Scheduler) Accept(w Wake) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil || w.Gen != s.gen {
		return false
	}
	s.timer = nil
	return true
}

// Pending reports whether a wake is scheduled and not yet accepted.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Scheduler) resetLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Scheduler) armLocked(delay time.Duration) {
	w := Wake{Gen: s.gen}
	notify := s.notify
	s.timer = s.clock.AfterFunc(delay, func() {
		if notify != nil {
			notify(w)
		}
	})
}
