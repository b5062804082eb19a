// Package testutil provides deterministic clock, scheduler, and storage
// fakes for engine tests.
package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/joshsymonds/duekeeper/internal/service"
)

// Clock is a controllable wall clock that doubles as a scheduler.
// Advancing the clock fires any timers whose deadline has been reached,
// in deadline order, on the calling goroutine.
//
// Thread-safety: all methods are safe for concurrent use, but timer
// callbacks run without the internal lock held so they may re-enter the
// code under test.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

// NewClock creates a clock pinned to the given instant.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// SetNow jumps the clock to an instant without firing timers. Useful
// for simulating a process restart in a later period.
func (c *Clock) SetNow(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance moves the clock forward and fires every timer whose deadline
// falls inside the advanced window.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	deadline := c.now

	var due []*fakeTimer
	var remaining []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.at.After(deadline) {
			due = append(due, t)
		} else if !t.stopped {
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.fn()
	}
}

// AfterFunc registers fn to run once the clock advances past d.
func (c *Clock) AfterFunc(d time.Duration, fn func()) service.TimerHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Pending returns the number of timers still waiting to fire.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type fakeTimer struct {
	clock   *Clock
	at      time.Time
	fn      func()
	stopped bool
}

// Stop cancels the timer. Reports whether it was still pending.
func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}
