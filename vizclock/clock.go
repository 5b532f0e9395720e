// Package vizclock provides the rate-scalable animation clock and the progress driver built on it.
package vizclock

import (
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// ErrInvalidRate is returned when a clock rate is not a positive finite number.
var ErrInvalidRate = errors.New("clock rate must be positive and finite")

// Clock is a monotonic virtual time source. Virtual time advances at rate times the speed of the
// underlying system clock, and rate changes only affect time that elapses after them.
type Clock struct {
	mu         sync.Mutex
	sys        clock.Clock
	lastValue  time.Duration
	lastSystem time.Time
	rate       float64
	paused     bool
}

// New returns a Clock at virtual time zero running at rate 1 on the wall clock.
func New() *Clock {
	return NewWithClock(clock.New())
}

// NewWithClock returns a Clock at virtual time zero running at rate 1 on sys. Tests pass a
// clock.Mock here.
func NewWithClock(sys clock.Clock) *Clock {
	return &Clock{sys: sys, lastSystem: sys.Now(), rate: 1}
}

// Now returns the current virtual time.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowLocked()
}

func (c *Clock) nowLocked() time.Duration {
	if c.paused {
		return c.lastValue
	}
	elapsed := c.sys.Since(c.lastSystem)
	return c.lastValue + time.Duration(float64(elapsed)*c.rate)
}

// snapshotLocked folds elapsed system time into lastValue so later changes are not retroactive.
func (c *Clock) snapshotLocked() {
	c.lastValue = c.nowLocked()
	c.lastSystem = c.sys.Now()
}

// SetRate changes the speed of virtual time relative to system time.
func (c *Clock) SetRate(rate float64) error {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return errors.Wrapf(ErrInvalidRate, "got %v", rate)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshotLocked()
	c.rate = rate
	return nil
}

// Rate returns the current rate.
func (c *Clock) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// Pause freezes virtual time. Pausing a paused clock does nothing.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return
	}
	c.snapshotLocked()
	c.paused = true
}

// Resume lets virtual time continue from where Pause froze it.
func (c *Clock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.lastSystem = c.sys.Now()
	c.paused = false
}

// Paused reports whether virtual time is frozen.
func (c *Clock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// System returns the underlying system clock, for callers that need tickers on the same time base.
func (c *Clock) System() clock.Clock {
	return c.sys
}
