package main

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"onelane/control"
	"onelane/types"
	"onelane/utils"
)

const curveSamples = 60

// centerlinePoints samples a vehicle-space curve from the axle out to maxForward, with
// lateral offset on X and forward distance on Y so the plot reads top-down.
func centerlinePoints(curve types.VehicleCurve, maxForward float64) plotter.XYs {
	pts := make(plotter.XYs, 0, curveSamples)
	for _, y := range utils.Linspace(0, maxForward, curveSamples) {
		pts = append(pts, plotter.XY{X: curve.Eval(y), Y: y})
	}
	return pts
}

// circlePoints traces the forward half of the lookahead circle.
func circlePoints(radius float64) plotter.XYs {
	pts := make(plotter.XYs, 0, curveSamples)
	for _, th := range utils.Linspace(0, math.Pi, curveSamples) {
		pts = append(pts, plotter.XY{X: radius * math.Cos(th), Y: radius * math.Sin(th)})
	}
	return pts
}

// plotDecision writes a top-down chart of the fitted centerline, the lookahead circle
// and the pure pursuit target. target may be nil when no target was found.
func plotDecision(d types.Decision, target *control.Target, vehicle types.VehicleConfig, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("frame %d: %s, steer %.1f deg", d.FrameSeq, d.Outcome, d.Command.AngleDeg)
	p.X.Label.Text = "lateral (cm)"
	p.Y.Label.Text = "forward (cm)"
	p.Add(plotter.NewGrid())

	circle, err := plotter.NewLine(circlePoints(vehicle.Lookahead))
	if err != nil {
		return fmt.Errorf("lookahead circle: %w", err)
	}
	circle.Color = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	circle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(circle)
	p.Legend.Add("lookahead", circle)

	if d.Vehicle != nil {
		line, err := plotter.NewLine(centerlinePoints(*d.Vehicle, 1.5*vehicle.Lookahead))
		if err != nil {
			return fmt.Errorf("centerline: %w", err)
		}
		line.Width = vg.Points(2)
		line.Color = color.RGBA{B: 200, A: 255}
		p.Add(line)
		p.Legend.Add("centerline", line)
	}

	if target != nil {
		pt, err := plotter.NewScatter(plotter.XYs{{X: target.Lateral, Y: target.Forward}})
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		pt.Color = color.RGBA{R: 220, A: 255}
		pt.Radius = vg.Points(4)
		p.Add(pt)
		p.Legend.Add("target", pt)
	}

	p.X.Min, p.X.Max = -vehicle.Lookahead*1.5, vehicle.Lookahead*1.5
	p.Y.Min, p.Y.Max = 0, vehicle.Lookahead*1.5
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
