package script

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/scenemotion/scene"
	"go.viam.com/scenemotion/vizclock"
)

// Applier receives commands. Both scene.Scene and scene.Control are appliers.
type Applier interface {
	Apply(cmd scene.Command) error
}

// Runner plays a script against a clock. Step times are measured in virtual time from when the
// runner was created.
type Runner struct {
	script *Script
	clock  *vizclock.Clock
	start  time.Duration
	next   int
}

// NewRunner returns a runner whose script starts now.
func NewRunner(s *Script, clock *vizclock.Clock) *Runner {
	return &Runner{script: s, clock: clock, start: clock.Now()}
}

// Elapsed returns the virtual time since the script started.
func (r *Runner) Elapsed() time.Duration {
	return r.clock.Now() - r.start
}

// Done reports whether every step has been applied.
func (r *Runner) Done() bool {
	return r.next >= len(r.script.Steps)
}

// RunDue applies, in order, every step whose time has come and returns how many were applied. A
// failing command does not stop the later ones; all failures are returned together.
func (r *Runner) RunDue(target Applier) (int, error) {
	elapsed := r.Elapsed()
	var errAll error
	applied := 0
	for ; r.next < len(r.script.Steps); r.next++ {
		step := r.script.Steps[r.next]
		if step.Time() > elapsed {
			break
		}
		cmd, err := step.Command()
		if err == nil {
			err = target.Apply(cmd)
		}
		if err != nil {
			multierr.AppendInto(&errAll, errors.Wrapf(err, "step %d at %vs", r.next, step.At))
		}
		applied++
	}
	return applied, errAll
}
