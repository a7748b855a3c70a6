package vision

import (
	"encoding/binary"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"onelane/types"
)

// Column layout of the OpenCV connected-component stats matrix.
const (
	statLeft = iota
	statTop
	statWidth
	statHeight
	statArea
)

// flatStd is the residual spread below which a frame is treated as featureless.
const flatStd = 1e-3

// Segmentation is the labelled binary mask of one frame.
type Segmentation struct {
	Labels  types.LabelGrid
	Regions []types.Region
}

// Segment removes slow illumination changes, keeps pixels more than cfg.ThresholdStd
// standard deviations above the mean residual and labels them with 8-connectivity.
func Segment(cf ContrastFrame, cfg types.SegmentConfig) (Segmentation, error) {
	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(cf.Mat, &blur, image.Pt(0, 0), cfg.BlurSigma, cfg.BlurSigma, gocv.BorderDefault)

	residual := gocv.NewMat()
	defer residual.Close()
	gocv.Subtract(cf.Mat, blur, &residual)

	mean, std := meanStdDev(residual)

	mask := gocv.NewMatWithSize(residual.Rows(), residual.Cols(), gocv.MatTypeCV8U)
	defer mask.Close()
	if std > flatStd {
		above := gocv.NewMat()
		defer above.Close()
		gocv.Threshold(residual, &above, float32(mean+cfg.ThresholdStd*std), 1, gocv.ThresholdBinary)
		above.ConvertTo(&mask, gocv.MatTypeCV8U)
	} else {
		mask.SetTo(gocv.NewScalar(0, 0, 0, 0))
	}

	return labelComponents(mask)
}

func meanStdDev(m gocv.Mat) (float64, float64) {
	mean := gocv.NewMat()
	defer mean.Close()
	std := gocv.NewMat()
	defer std.Close()
	gocv.MeanStdDev(m, &mean, &std)
	return mean.GetDoubleAt(0, 0), std.GetDoubleAt(0, 0)
}

// labelComponents runs connectedComponentsWithStats (8-connected, CV_32S labels) on a
// 0/1 mask and copies the result into Go memory.
func labelComponents(mask gocv.Mat) (Segmentation, error) {
	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	n := gocv.ConnectedComponentsWithStats(mask, &labels, &stats, &centroids)

	rows, cols := mask.Rows(), mask.Cols()
	if labels.Type() != gocv.MatTypeCV32S || labels.Rows() != rows || labels.Cols() != cols {
		return Segmentation{}, fmt.Errorf("%w: labels %dx%d type %v for %dx%d mask",
			types.ErrMalformedMask, labels.Rows(), labels.Cols(), labels.Type(), rows, cols)
	}

	raw := labels.ToBytes()
	if len(raw) != rows*cols*4 {
		return Segmentation{}, fmt.Errorf("%w: %d label bytes for %dx%d mask", types.ErrMalformedMask, len(raw), rows, cols)
	}
	grid := types.LabelGrid{Width: cols, Height: rows, Labels: make([]int32, rows*cols)}
	for i := range grid.Labels {
		grid.Labels[i] = int32(binary.NativeEndian.Uint32(raw[i*4:]))
	}

	// Label 0 is the background.
	regions := make([]types.Region, 0, max(n-1, 0))
	for i := 1; i < n; i++ {
		regions = append(regions, types.Region{
			ID:     i,
			Left:   int(stats.GetIntAt(i, statLeft)),
			Top:    int(stats.GetIntAt(i, statTop)),
			Width:  int(stats.GetIntAt(i, statWidth)),
			Height: int(stats.GetIntAt(i, statHeight)),
			Area:   int(stats.GetIntAt(i, statArea)),
			Centroid: types.Point{
				X: centroids.GetDoubleAt(i, 0),
				Y: centroids.GetDoubleAt(i, 1),
			},
		})
	}
	return Segmentation{Labels: grid, Regions: regions}, nil
}
