// Package script reads timed command scripts and replays them against a clock.
package script

import (
	"io"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"go.viam.com/scenemotion/scene"
)

// Step is one command scheduled At seconds after the script starts.
type Step struct {
	At                float64 `yaml:"at"`
	scene.WireCommand `yaml:",inline"`
}

// Time returns the offset of the step from the start of the script.
func (s Step) Time() time.Duration {
	return time.Duration(s.At * float64(time.Second))
}

// Script is a named list of steps sorted by time. Steps sharing a time keep their file order.
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Parse decodes and validates a YAML script.
func Parse(r io.Reader) (*Script, error) {
	var s Script
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, errors.Wrap(err, "failed to decode script")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(s.Steps, func(i, j int) bool { return s.Steps[i].At < s.Steps[j].At })
	return &s, nil
}

// ReadFile parses the script at path.
func ReadFile(path string) (*Script, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "script %q", path)
	}
	return s, nil
}

// Validate checks every step and returns all problems found.
func (s *Script) Validate() error {
	var errAll error
	for i, step := range s.Steps {
		if step.At < 0 {
			multierr.AppendInto(&errAll, errors.Errorf("step %d: negative time %v", i, step.At))
		}
		if _, err := step.Command(); err != nil {
			multierr.AppendInto(&errAll, errors.Wrapf(err, "step %d", i))
		}
	}
	return errAll
}

// Duration returns the time of the last step.
func (s *Script) Duration() time.Duration {
	if len(s.Steps) == 0 {
		return 0
	}
	return s.Steps[len(s.Steps)-1].Time()
}
