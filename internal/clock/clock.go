// Package clock supplies wall-clock time and single-shot timers.
package clock

import (
	"sync"
	"time"

	bclock "github.com/benbjohnson/clock"
)

// Timer is a pending single-shot callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the
	// timer was still pending.
	Stop() bool
}

// Clock is the time source used by the scheduler and the calendar.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

var system = bclock.New()

// Real is the system clock, reporting times in Location (time.Local when nil).
type Real struct {
	Location *time.Location
}

func (r Real) Now() time.Time {
	if r.Location == nil {
		return system.Now()
	}
	return system.Now().In(r.Location)
}

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return system.AfterFunc(d, f)
}

// Fake is a manually advanced clock backed by a bclock.Mock. Advance returns
// only after every callback that came due has finished, and due instants are
// visited in order. Callbacks sharing one instant may run concurrently.
type Fake struct {
	mock *bclock.Mock

	mu     sync.Mutex
	seq    int
	timers map[int]*fakeTimer
}

type fakeTimer struct {
	fake  *Fake
	id    int
	at    time.Time
	timer *bclock.Timer
	done  chan struct{}
}

func NewFake(now time.Time) *Fake {
	m := bclock.NewMock()
	m.Set(now)
	return &Fake{mock: m, timers: map[int]*fakeTimer{}}
}

func (c *Fake) Now() time.Time {
	return c.mock.Now()
}

func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{fake: c, id: c.seq, at: c.mock.Now().Add(d), done: make(chan struct{})}
	t.timer = c.mock.AfterFunc(d, func() {
		defer close(t.done)
		f()
	})
	c.timers[t.id] = t
	return t
}

func (t *fakeTimer) Stop() bool {
	t.fake.mu.Lock()
	defer t.fake.mu.Unlock()
	if _, ok := t.fake.timers[t.id]; !ok {
		return false
	}
	delete(t.fake.timers, t.id)
	t.timer.Stop()
	return true
}

// Advance moves the clock forward by d and runs every timer that comes due.
// Callbacks may schedule new timers; those fire too if they fall inside the
// window.
func (c *Fake) Advance(d time.Duration) {
	end := c.mock.Now().Add(d)
	for {
		c.mu.Lock()
		due := c.takeDue(end)
		c.mu.Unlock()
		if len(due) == 0 {
			break
		}
		if step := due[0].at.Sub(c.mock.Now()); step > 0 {
			c.mock.Add(step)
		} else {
			c.mock.Add(0)
		}
		for _, t := range due {
			<-t.done
		}
	}
	if rest := end.Sub(c.mock.Now()); rest > 0 {
		c.mock.Add(rest)
	}
}

// takeDue removes and returns the timers sharing the earliest deadline at or
// before end. Callers hold c.mu.
func (c *Fake) takeDue(end time.Time) []*fakeTimer {
	var first time.Time
	found := false
	for _, t := range c.timers {
		if t.at.After(end) {
			continue
		}
		if !found || t.at.Before(first) {
			first = t.at
			found = true
		}
	}
	if !found {
		return nil
	}
	var due []*fakeTimer
	for id, t := range c.timers {
		if t.at.Equal(first) {
			due = append(due, t)
			delete(c.timers, id)
		}
	}
	return due
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// NextDeadline reports when the earliest pending timer fires.
func (c *Fake) NextDeadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var best time.Time
	found := false
	for _, t := range c.timers {
		if !found || t.at.Before(best) {
			best = t.at
			found = true
		}
	}
	return best, found
}
