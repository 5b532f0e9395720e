package vizclock

import (
	"time"

	"go.viam.com/scenemotion/utils"
)

// Alpha maps the virtual time since its creation onto a progress value in [0,1] over a fixed duration.
// An Alpha is single use: once Finished reports true its owner should discard it.
type Alpha struct {
	clock    *Clock
	start    time.Duration
	duration time.Duration
}

// NewAlpha starts a progress driver of the given duration at the clock's current time.
func NewAlpha(c *Clock, duration time.Duration) *Alpha {
	return &Alpha{clock: c, start: c.Now(), duration: duration}
}

// Value returns the progress at the current virtual time. A non-positive duration is always complete.
func (a *Alpha) Value() float64 {
	if a.duration <= 0 {
		return 1
	}
	return a.valueAt(a.clock.Now())
}

func (a *Alpha) valueAt(now time.Duration) float64 {
	return utils.Clamp(float64(now-a.start)/float64(a.duration), 0, 1)
}

// Finished reports whether virtual time has passed the end of the duration. A non-positive duration
// is finished immediately.
func (a *Alpha) Finished() bool {
	if a.duration <= 0 {
		return true
	}
	return a.clock.Now() > a.Stop()
}

// Start returns the virtual time the driver was created at.
func (a *Alpha) Start() time.Duration {
	return a.start
}

// Stop returns the virtual time at which the driver completes.
func (a *Alpha) Stop() time.Duration {
	return a.start + a.duration
}

// Duration returns the total duration.
func (a *Alpha) Duration() time.Duration {
	return a.duration
}
