package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"go.viam.com/smoother/logging"
	"go.viam.com/smoother/smoother"
	"go.viam.com/smoother/spatialmath"
	"go.viam.com/smoother/utils"
)

func filterAction(c *cli.Context, logger logging.Logger) error {
	ch := smoother.NewChannel("filter", "stdin", "stdout")
	ch.CutoffHz = c.Float64(filterFlagCutoff)
	ch.Active = !c.Bool(filterFlagBypass)
	if err := ch.Validate("filter"); err != nil {
		return err
	}
	dt := c.Duration(filterFlagDT)
	if dt <= 0 {
		return errors.Errorf("--%s must be positive, got %s", filterFlagDT, dt)
	}

	raw, filtered, err := filterStream(c.App.Reader, c.App.Writer, smoother.NewStream(ch), dt.Seconds())
	if err != nil {
		return err
	}
	logger.Debugw("filtered stream", "samples", len(raw), "cutoff_hz", ch.CutoffHz, "active", ch.Active)

	if c.Bool(filterFlagSummary) {
		summary, err := summarize(raw, filtered)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.ErrWriter, summary)
	}
	if path := c.Path(filterFlagPlot); path != "" {
		if err := savePlot(path, raw, filtered, dt.Seconds()); err != nil {
			return errors.Wrapf(err, "saving plot to %q", path)
		}
		logger.Infow("saved plot", "path", path)
	}
	return nil
}

// filterStream runs every sample read from r through stream and writes each result to w. It
// returns the raw and filtered transforms in order.
func filterStream(
	r io.Reader,
	w io.Writer,
	stream *smoother.Stream,
	dt float64,
) (raw, filtered []spatialmath.RigidTransform, err error) {
	enc := json.NewEncoder(w)
	err = readSamples(r, func(_ int, s sample, err error) error {
		if err != nil {
			return err
		}
		input, err := s.transform()
		if err != nil {
			return err
		}
		output := stream.Next(input, dt)
		raw = append(raw, input)
		filtered = append(filtered, output)
		return enc.Encode(newSample(s.Name, output))
	})
	return raw, filtered, err
}

// jitter holds the change between consecutive samples of a stream.
type jitter struct {
	translation []float64
	rotationDeg []float64
}

func stepJitter(tfs []spatialmath.RigidTransform) jitter {
	var j jitter
	for i := 1; i < len(tfs); i++ {
		j.translation = append(j.translation, tfs[i].Translation().Sub(tfs[i-1].Translation()).Norm())
		j.rotationDeg = append(j.rotationDeg,
			utils.RadToDeg(spatialmath.AngleBetween(tfs[i-1].Quaternion(), tfs[i].Quaternion())))
	}
	return j
}

// summarize renders a table comparing how much the raw and filtered streams move per sample.
func summarize(raw, filtered []spatialmath.RigidTransform) (string, error) {
	if len(raw) < 2 {
		return "not enough samples for a summary", nil
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{
		"Stream", "Translation step mean", "Translation step std dev", "Translation step max",
		"Rotation step mean (deg)", "Rotation step p95 (deg)", "Rotation step max (deg)",
	})
	for _, stream := range []struct {
		name string
		tfs  []spatialmath.RigidTransform
	}{
		{"raw", raw},
		{"filtered", filtered},
	} {
		j := stepJitter(stream.tfs)
		transMean, err1 := stats.Mean(j.translation)
		transStd, err2 := stats.StandardDeviation(j.translation)
		transMax, err3 := stats.Max(j.translation)
		rotMean, err4 := stats.Mean(j.rotationDeg)
		rotP95, err5 := stats.Percentile(j.rotationDeg, 95)
		rotMax, err6 := stats.Max(j.rotationDeg)
		if err := multierr.Combine(err1, err2, err3, err4, err5, err6); err != nil {
			return "", err
		}
		t.AppendRow(table.Row{
			stream.name,
			fmt.Sprintf("%.4f", transMean),
			fmt.Sprintf("%.4f", transStd),
			fmt.Sprintf("%.4f", transMax),
			fmt.Sprintf("%.3f", rotMean),
			fmt.Sprintf("%.3f", rotP95),
			fmt.Sprintf("%.3f", rotMax),
		})
	}
	return t.Render(), nil
}

// angleSeries returns the angle in degrees between each transform and ref over time.
func angleSeries(tfs []spatialmath.RigidTransform, ref spatialmath.RigidTransform, dt float64) plotter.XYs {
	pts := make(plotter.XYs, len(tfs))
	for i, tf := range tfs {
		pts[i].X = float64(i) * dt
		pts[i].Y = utils.RadToDeg(spatialmath.AngleBetween(ref.Quaternion(), tf.Quaternion()))
	}
	return pts
}

func savePlot(path string, raw, filtered []spatialmath.RigidTransform, dt float64) error {
	if len(raw) == 0 {
		return errors.New("no samples to plot")
	}
	p := plot.New()
	p.Title.Text = "Rotation from first sample"
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "angle (deg)"
	if err := plotutil.AddLines(p,
		"raw", angleSeries(raw, raw[0], dt),
		"filtered", angleSeries(filtered, raw[0], dt),
	); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
