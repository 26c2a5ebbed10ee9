package testutil

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// FakeClock drives a clockwork fake for engine tests. Advance steps from
// deadline to deadline and waits for each fired callback to return, so a
// test sees the effects of every timer that came due, including timers
// scheduled by those callbacks.
type FakeClock struct {
	*clockwork.FakeClock

	mu     sync.Mutex
	timers []*trackedTimer
}

type trackedTimer struct {
	clockwork.Timer
	owner   *FakeClock
	at      time.Time
	done    chan struct{}
	stopped bool
}

func NewFakeClock() *FakeClock {
	return &FakeClock{
		FakeClock: clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)),
	}
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) clockwork.Timer {
	t := &trackedTimer{owner: c, at: c.Now().Add(d), done: make(chan struct{})}
	c.mu.Lock()
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	t.Timer = c.FakeClock.AfterFunc(d, func() {
		defer close(t.done)
		f()
	})
	return t
}

func (t *trackedTimer) Stop() bool {
	if !t.Timer.Stop() {
		return false
	}
	t.owner.mu.Lock()
	t.stopped = true
	t.owner.mu.Unlock()
	return true
}

func (t *trackedTimer) fired() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Advance moves time forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	target := c.Now().Add(d)
	for {
		next, ok := c.nextDue(target)
		if !ok {
			break
		}
		step := next.Sub(c.Now())
		if step < 0 {
			step = 0
		}
		c.FakeClock.Advance(step)
		c.settle()
	}
	if rest := target.Sub(c.Now()); rest > 0 {
		c.FakeClock.Advance(rest)
	}
}

// Pending reports the number of timers that have neither fired nor been stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired() {
			n++
		}
	}
	return n
}

// nextDue returns the earliest live deadline not after target.
func (c *FakeClock) nextDue(target time.Time) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && !t.fired() {
			live = append(live, t)
		}
	}
	c.timers = live

	var next time.Time
	found := false
	for _, t := range c.timers {
		if t.at.After(target) {
			continue
		}
		if !found || t.at.Before(next) {
			next, found = t.at, true
		}
	}
	return next, found
}

// settle blocks until every live timer due by now has run its callback.
func (c *FakeClock) settle() {
	now := c.Now()
	c.mu.Lock()
	var due []*trackedTimer
	for _, t := range c.timers {
		if !t.stopped && !t.at.After(now) {
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		<-t.done
	}
}
