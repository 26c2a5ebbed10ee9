package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_AdvanceRunsChainedTimersInOrder(t *testing.T) {
	c := NewFakeClock()
	start := c.Now()

	var mu sync.Mutex
	var fired []time.Duration
	record := func() {
		mu.Lock()
		fired = append(fired, c.Now().Sub(start))
		mu.Unlock()
	}

	var tick func()
	tick = func() {
		record()
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)
	c.AfterFunc(1500*time.Millisecond, record)

	c.Advance(3 * time.Second)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []time.Duration{
		time.Second, 1500 * time.Millisecond, 2 * time.Second, 3 * time.Second,
	}, fired)
	assert.Equal(t, 1, c.Pending())
}

func TestFakeClock_StoppedTimerNeverFires(t *testing.T) {
	c := NewFakeClock()
	ran := false
	timer := c.AfterFunc(time.Second, func() { ran = true })

	assert.True(t, timer.Stop())
	c.Advance(2 * time.Second)

	assert.False(t, ran)
	assert.Equal(t, 0, c.Pending())
	assert.False(t, timer.Stop())
}
