// Package main is the scenemotion command: it replays command scripts as pose tables and serves
// scenes over websockets.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/scenemotion/config"
	"go.viam.com/scenemotion/logging"
	"go.viam.com/scenemotion/scene"
	"go.viam.com/scenemotion/script"
	"go.viam.com/scenemotion/utils"
	"go.viam.com/scenemotion/vizclock"
	"go.viam.com/scenemotion/web"
)

const (
	flagConfig  = "config"
	flagDebug   = "debug"
	flagEvery   = "every"
	flagLimit   = "limit"
	flagAddress = "address"
	flagScript  = "script"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "scenemotion",
		Usage:     "animate nodes along paths and attach them to each other",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "replay",
				Usage:     "run a command script in virtual time and print the node poses",
				ArgsUsage: "<script.yaml>",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  flagEvery,
						Value: time.Second,
						Usage: "virtual time between printed frames",
					},
					&cli.DurationFlag{
						Name:  flagLimit,
						Value: 10 * time.Minute,
						Usage: "stop after this much virtual time even if nodes are still moving",
					},
				},
				Action: replayAction,
			},
			{
				Name:  "serve",
				Usage: "serve the scenes over a websocket",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagAddress,
						Usage: "listen address, overriding the config",
					},
					&cli.StringFlag{
						Name:  flagScript,
						Usage: "play `FILE` against the served scenes",
					},
				},
				Action: serveAction,
			},
			plotCommand(),
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, logging.Logger, error) {
	cfg := config.Default()
	bootLogger := logging.Global()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path, bootLogger); err != nil {
			return nil, nil, err
		}
	}
	logger, err := logging.NewLoggerFromConfig("scenemotion", cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	logging.ReplaceGlobal(logger)
	return cfg, logger, nil
}

func newControl(cfg *config.Config, vc *vizclock.Clock, logger logging.Logger) (*scene.Control, error) {
	control := scene.NewControl(vc, logger)
	for _, name := range cfg.Modules {
		if _, err := control.AddModule(name, cfg.SceneOptions()...); err != nil {
			return nil, err
		}
	}
	control.SetExecutionSpeed(cfg.ExecutionSpeed)
	return control, nil
}

func replayAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("replay needs exactly one script file")
	}
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	s, err := script.ReadFile(c.Args().First())
	if err != nil {
		return err
	}
	return replay(c.App.Writer, cfg, s, logger, c.Duration(flagEvery), c.Duration(flagLimit))
}

// replay steps a mock clock through the script, printing every module's frame each interval.
func replay(out io.Writer, cfg *config.Config, s *script.Script, logger logging.Logger, every, limit time.Duration) error {
	mock := clock.NewMock()
	vc := vizclock.NewWithClock(mock)
	control, err := newControl(cfg, vc, logger)
	if err != nil {
		return err
	}
	step := time.Duration(cfg.TickInterval)
	if every < step {
		every = step
	}
	runner := script.NewRunner(s, vc)
	var nextPrint time.Duration
	for {
		if _, err := runner.RunDue(control); err != nil {
			logger.Warnw("script step failed", "error", err)
		}
		control.Tick()
		done := runner.Done() && !control.Active()
		if elapsed := runner.Elapsed(); elapsed >= nextPrint || done {
			if err := printFrames(out, control); err != nil {
				return err
			}
			nextPrint = elapsed + every
		}
		if done {
			return nil
		}
		if runner.Elapsed() >= limit {
			logger.Warnw("replay limit reached", "limit", limit)
			return nil
		}
		mock.Add(time.Duration(float64(step) / cfg.ExecutionSpeed))
	}
}

func printFrames(out io.Writer, control *scene.Control) error {
	frames, err := control.Snapshot()
	if err != nil {
		return err
	}
	for _, f := range frames {
		if _, err := fmt.Fprintln(out, f.String()); err != nil {
			return err
		}
	}
	return nil
}

func serveAction(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer func() {
		//nolint:errcheck
		logger.Sync()
	}()
	vc := vizclock.New()
	control, err := newControl(cfg, vc, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	workers := utils.NewStoppableWorkersWithContext(ctx)
	defer workers.Stop()
	if path := c.String(flagConfig); path != "" {
		watcher, err := config.NewWatcher(path, logger, func(changed *config.Config) {
			control.SetExecutionSpeed(changed.ExecutionSpeed)
		})
		if err != nil {
			return err
		}
		workers.AddWorkers(watcher.Run)
	}

	if path := c.String(flagScript); path != "" {
		s, err := script.ReadFile(path)
		if err != nil {
			return err
		}
		runner := script.NewRunner(s, vc)
		interval := time.Duration(cfg.TickInterval)
		workers.AddWorkers(func(ctx context.Context) {
			ticker := vc.System().Ticker(interval)
			defer ticker.Stop()
			for !runner.Done() {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
				if _, err := runner.RunDue(control); err != nil {
					logger.Warnw("script step failed", "error", err)
				}
			}
			logger.Infow("script finished", "script", s.Name)
		})
	}

	address := cfg.Web.Address
	if c.IsSet(flagAddress) {
		address = c.String(flagAddress)
	}
	srv := web.NewServer(control, logger.Sublogger("web"), web.Options{
		TickInterval: time.Duration(cfg.TickInterval),
		PingInterval: time.Duration(cfg.Web.PingInterval),
	})
	return srv.ListenAndServe(ctx, address)
}
