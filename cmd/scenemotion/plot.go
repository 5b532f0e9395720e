package main

import (
	"image/color"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"go.viam.com/scenemotion/interpolator"
)

const (
	flagDurations = "durations"
	flagSpeeds    = "speeds"
	flagOut       = "out"
	flagSamples   = "samples"
)

func plotCommand() *cli.Command {
	return &cli.Command{
		Name:  "plot",
		Usage: "chart the distance and speed of a motion profile",
		Flags: []cli.Flag{
			&cli.Float64SliceFlag{
				Name:     flagDurations,
				Usage:    "accelerate, cruise and decelerate durations in seconds",
				Required: true,
			},
			&cli.Float64SliceFlag{
				Name:     flagSpeeds,
				Usage:    "start, cruise and end speeds",
				Required: true,
			},
			&cli.StringFlag{
				Name:  flagOut,
				Value: "profile.png",
				Usage: "write the chart to `FILE`; the extension picks the format",
			},
			&cli.IntFlag{
				Name:  flagSamples,
				Value: 200,
				Usage: "number of samples along the profile",
			},
		},
		Action: func(c *cli.Context) error {
			durations, speeds := c.Float64Slice(flagDurations), c.Float64Slice(flagSpeeds)
			if len(durations) != 3 || len(speeds) != 3 {
				return errors.New("durations and speeds need exactly three values each")
			}
			profile := interpolator.MotionProfile{
				Durations: [3]float64{durations[0], durations[1], durations[2]},
				Speeds:    [3]float64{speeds[0], speeds[1], speeds[2]},
			}
			return plotProfile(profile, c.Int(flagSamples), c.String(flagOut))
		},
	}
}

// plotProfile samples distance and speed over the whole profile and saves the chart to path.
func plotProfile(profile interpolator.MotionProfile, samples int, path string) error {
	total := profile.Total()
	if total <= 0 || samples < 2 {
		return errors.Errorf("cannot plot a profile lasting %vs with %d samples", total, samples)
	}
	distance := make(plotter.XYs, samples)
	speed := make(plotter.XYs, samples)
	for i := range distance {
		t := total * float64(i) / float64(samples-1)
		distance[i].X, distance[i].Y = t, profile.Distance(t)
		speed[i].X, speed[i].Y = t, profile.Speed(t)
	}

	p := plot.New()
	p.Title.Text = "motion profile"
	p.X.Label.Text = "time (s)"
	distanceLine, err := plotter.NewLine(distance)
	if err != nil {
		return err
	}
	speedLine, err := plotter.NewLine(speed)
	if err != nil {
		return err
	}
	speedLine.LineStyle.Color = color.RGBA{R: 200, A: 255}
	speedLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(plotter.NewGrid(), distanceLine, speedLine)
	p.Legend.Add("distance", distanceLine)
	p.Legend.Add("speed", speedLine)
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
