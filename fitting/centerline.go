package fitting

import (
	"fmt"
	"math/rand/v2"

	"onelane/types"
)

// Undistorter removes lens distortion from full-frame pixel coordinates.
type Undistorter interface {
	Undistort(pts []types.Point) []types.Point
}

// Fitter fits the lane centerline of one labelled region.
type Fitter struct {
	CropTop      int
	DiscardCount int
	Perspective  Perspective
	Undistort    Undistorter
	Rand         *rand.Rand
}

// NewFitter builds a Fitter from configuration. A nil rng is seeded randomly.
func NewFitter(cam types.CameraConfig, cfg types.FitConfig, u Undistorter, rng *rand.Rand) *Fitter {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Fitter{
		CropTop:      cam.CropTop,
		DiscardCount: cfg.DiscardCount,
		Perspective:  Perspective{cfg.Perspective},
		Undistort:    u,
		Rand:         rng,
	}
}

// LabelPixels returns the column and row of every pixel carrying label.
func LabelPixels(grid types.LabelGrid, label int) (xs, ys []float64, err error) {
	if grid.Width <= 0 || grid.Height <= 0 || len(grid.Labels) != grid.Width*grid.Height {
		return nil, nil, fmt.Errorf("%w: %dx%d grid with %d labels", types.ErrMalformedMask, grid.Width, grid.Height, len(grid.Labels))
	}
	for i, l := range grid.Labels {
		if int(l) == label {
			xs = append(xs, float64(i%grid.Width))
			ys = append(ys, float64(i/grid.Width))
		}
	}
	return xs, ys, nil
}

// discard drops min(k, len) uniformly chosen distinct points.
func discard(rng *rand.Rand, xs, ys []float64, k int) ([]float64, []float64) {
	n := len(xs)
	if k <= 0 {
		return xs, ys
	}
	if k >= n {
		return nil, nil
	}
	drop := make([]bool, n)
	for _, i := range rng.Perm(n)[:k] {
		drop[i] = true
	}
	keptX := make([]float64, 0, n-k)
	keptY := make([]float64, 0, n-k)
	for i := range xs {
		if !drop[i] {
			keptX = append(keptX, xs[i])
			keptY = append(keptY, ys[i])
		}
	}
	return keptX, keptY
}

// FitImage fits the image-space centerline of label after the random outlier discard.
func (f *Fitter) FitImage(grid types.LabelGrid, label int) (types.ImageCurve, error) {
	xs, ys, err := LabelPixels(grid, label)
	if err != nil {
		return types.ImageCurve{}, err
	}
	xs, ys = discard(f.Rand, xs, ys, f.DiscardCount)
	if len(xs) == 0 {
		return types.ImageCurve{}, types.ErrInsufficientData
	}
	q, err := PolyFit2(ys, xs)
	if err != nil {
		return types.ImageCurve{}, fmt.Errorf("image fit: %w", err)
	}
	return types.ImageCurve{Quadratic: q}, nil
}

// ToVehicle samples the image curve at every cropped row, undistorts the samples in
// full-frame coordinates and refits them in vehicle space.
func (f *Fitter) ToVehicle(curve types.ImageCurve, rows int) (types.VehicleCurve, error) {
	pts := make([]types.Point, rows)
	for row := range pts {
		y := float64(row)
		pts[row] = types.Point{X: curve.Eval(y), Y: y + float64(f.CropTop)}
	}
	if f.Undistort != nil {
		pts = f.Undistort.Undistort(pts)
	}

	lateral := make([]float64, len(pts))
	forward := make([]float64, len(pts))
	for i, p := range pts {
		v := f.Perspective.ToVehicle(p)
		lateral[i], forward[i] = v.X, v.Y
	}
	q, err := PolyFit2(forward, lateral)
	if err != nil {
		return types.VehicleCurve{}, fmt.Errorf("vehicle fit: %w", err)
	}
	return types.VehicleCurve{Quadratic: q}, nil
}

// Fit runs the full centerline fit for label.
func (f *Fitter) Fit(grid types.LabelGrid, label int) (types.ImageCurve, types.VehicleCurve, error) {
	img, err := f.FitImage(grid, label)
	if err != nil {
		return types.ImageCurve{}, types.VehicleCurve{}, err
	}
	veh, err := f.ToVehicle(img, grid.Height)
	if err != nil {
		return img, types.VehicleCurve{}, err
	}
	return img, veh, nil
}
