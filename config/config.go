// Package config defines the runtime configuration of a scenemotion process.
package config

import (
	"encoding/json"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/scenemotion/logging"
	"go.viam.com/scenemotion/scene"
	rutils "go.viam.com/scenemotion/utils"
)

// Defaults applied to fields left unset.
const (
	DefaultExecutionSpeed = 1.0
	DefaultTickInterval   = 20 * time.Millisecond
	DefaultWebAddress     = "localhost:8080"
	DefaultPingInterval   = 10 * time.Second
	DefaultLogLevel       = "info"
)

// Duration is a time.Duration read from and written as a string such as "20ms".
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(value))
	default:
		return errors.Errorf("invalid duration %v", v)
	}
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Web configures the websocket frame stream.
type Web struct {
	Address      string   `json:"address"`
	PingInterval Duration `json:"ping_interval"`
}

// Config is the whole configuration file.
type Config struct {
	ExecutionSpeed float64        `json:"execution_speed"`
	TickInterval   Duration       `json:"tick_interval"`
	SpawnPosition  *scene.Vector  `json:"spawn_position,omitempty"`
	UpVector       *scene.Vector  `json:"up_vector,omitempty"`
	Modules        []string       `json:"modules,omitempty"`
	Log            logging.Config `json:"log"`
	Web            Web            `json:"web"`

	ConfigFilePath string `json:"-"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.ExecutionSpeed == 0 {
		c.ExecutionSpeed = DefaultExecutionSpeed
	}
	if c.TickInterval == 0 {
		c.TickInterval = Duration(DefaultTickInterval)
	}
	if c.SpawnPosition == nil {
		spawn := scene.NewVector(scene.DefaultSpawnPosition)
		c.SpawnPosition = &spawn
	}
	if c.UpVector == nil {
		up := scene.Vector{Y: 1}
		c.UpVector = &up
	}
	if len(c.Modules) == 0 {
		c.Modules = []string{"main"}
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Web.Address == "" {
		c.Web.Address = DefaultWebAddress
	}
	if c.Web.PingInterval == 0 {
		c.Web.PingInterval = Duration(DefaultPingInterval)
	}
}

// Validate returns every problem with the configuration combined into one error.
func (c *Config) Validate() error {
	var errAll error
	if c.ExecutionSpeed <= 0 || !rutils.IsFinite(c.ExecutionSpeed) {
		multierr.AppendInto(&errAll, utils.NewConfigValidationError("execution_speed",
			errors.Errorf("must be positive and finite, got %v", c.ExecutionSpeed)))
	}
	if c.TickInterval <= 0 {
		multierr.AppendInto(&errAll, utils.NewConfigValidationError("tick_interval", errors.New("must be positive")))
	}
	if c.SpawnPosition != nil && !finiteVector(*c.SpawnPosition) {
		multierr.AppendInto(&errAll, utils.NewConfigValidationError("spawn_position", errors.New("must be finite")))
	}
	if c.UpVector != nil {
		if !finiteVector(*c.UpVector) || c.UpVector.R3().Norm() == 0 {
			multierr.AppendInto(&errAll, utils.NewConfigValidationError("up_vector", errors.New("must be finite and nonzero")))
		}
	}
	seen := map[string]bool{}
	for _, name := range c.Modules {
		if name == "" {
			multierr.AppendInto(&errAll, utils.NewConfigValidationFieldRequiredError("modules", "name"))
			continue
		}
		if seen[name] {
			multierr.AppendInto(&errAll, utils.NewConfigValidationError("modules", errors.Errorf("duplicate module %q", name)))
		}
		seen[name] = true
	}
	if _, err := logging.LevelFromString(c.Log.Level); err != nil {
		multierr.AppendInto(&errAll, utils.NewConfigValidationError("log.level", err))
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		multierr.AppendInto(&errAll, utils.NewConfigValidationError("log", errors.New("rotation limits must not be negative")))
	}
	if c.Web.Address == "" {
		multierr.AppendInto(&errAll, utils.NewConfigValidationFieldRequiredError("web", "address"))
	}
	if c.Web.PingInterval <= 0 {
		multierr.AppendInto(&errAll, utils.NewConfigValidationError("web.ping_interval", errors.New("must be positive")))
	}
	return errAll
}

func finiteVector(v scene.Vector) bool {
	return !math.IsNaN(v.X+v.Y+v.Z) && !math.IsInf(v.X+v.Y+v.Z, 0)
}

// SceneOptions returns the scene options the configuration selects.
func (c *Config) SceneOptions() []scene.Option {
	var opts []scene.Option
	if c.SpawnPosition != nil {
		opts = append(opts, scene.WithSpawnPosition(c.SpawnPosition.R3()))
	}
	if c.UpVector != nil {
		opts = append(opts, scene.WithUpVector(c.UpVector.R3()))
	}
	return opts
}

