package scene

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"golang.org/x/exp/slices"

	"go.viam.com/scenemotion/logging"
	"go.viam.com/scenemotion/vizclock"
)

// Control owns a set of scenes, called modules, that share one clock. Every command is fanned out to
// every module, so each module keeps its own replica of the nodes.
type Control struct {
	mu      sync.Mutex
	clock   *vizclock.Clock
	logger  logging.Logger
	modules map[string]*Scene
}

// NewControl returns a Control with no modules.
func NewControl(clock *vizclock.Clock, logger logging.Logger) *Control {
	return &Control{clock: clock, logger: logger, modules: map[string]*Scene{}}
}

// Clock returns the shared clock.
func (c *Control) Clock() *vizclock.Clock {
	return c.clock
}

// AddModule creates and registers a new scene on the shared clock.
func (c *Control) AddModule(name string, opts ...Option) (*Scene, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.modules[name]; ok {
		return nil, errors.Errorf("module %q already exists", name)
	}
	s := New(name, c.clock, c.logger.Sublogger(name), opts...)
	c.modules[name] = s
	c.logger.Infow("added module", "module", name)
	return s, nil
}

// Module returns the named module.
func (c *Control) Module(name string) (*Scene, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.modules[name]
	return s, ok
}

// RemoveModule drops the named module. Unknown names are ignored.
func (c *Control) RemoveModule(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.modules[name]; ok {
		delete(c.modules, name)
		c.logger.Infow("removed module", "module", name)
	}
}

// ModuleNames returns the sorted module names.
func (c *Control) ModuleNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := lo.Keys(c.modules)
	slices.Sort(names)
	return names
}

func (c *Control) sortedModules() []*Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := lo.Keys(c.modules)
	slices.Sort(names)
	return lo.Map(names, func(name string, _ int) *Scene { return c.modules[name] })
}

// Apply sends cmd to every module and combines their errors.
func (c *Control) Apply(cmd Command) error {
	var errAll error
	for _, s := range c.sortedModules() {
		if err := s.Apply(cmd); err != nil {
			multierr.AppendInto(&errAll, errors.Wrapf(err, "module %q", s.Name()))
		}
	}
	return errAll
}

// Tick advances every module and returns the total number of transforms written.
func (c *Control) Tick() int {
	wrote := 0
	for _, s := range c.sortedModules() {
		wrote += s.Tick()
	}
	return wrote
}

// Active reports whether any module is still animating.
func (c *Control) Active() bool {
	return lo.SomeBy(c.sortedModules(), func(s *Scene) bool { return s.Active() })
}

// Snapshot returns a frame for every module, sorted by module name.
func (c *Control) Snapshot() ([]Frame, error) {
	var frames []Frame
	for _, s := range c.sortedModules() {
		frame, err := s.Snapshot()
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// SetExecutionSpeed changes how fast virtual time runs. Non-positive rates are ignored.
func (c *Control) SetExecutionSpeed(rate float64) {
	if rate <= 0 {
		c.logger.Warnw("ignoring non-positive execution speed", "rate", rate)
		return
	}
	if err := c.clock.SetRate(rate); err != nil {
		c.logger.Warnw("ignoring execution speed", "rate", rate, "error", err)
		return
	}
	c.logger.Infow("execution speed changed", "rate", rate)
}

// ExecutionSpeed returns the current clock rate.
func (c *Control) ExecutionSpeed() float64 {
	return c.clock.Rate()
}

// Pause freezes virtual time for every module.
func (c *Control) Pause() {
	c.clock.Pause()
}

// Resume continues virtual time after Pause.
func (c *Control) Resume() {
	c.clock.Resume()
}
