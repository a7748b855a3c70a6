// Package calib provides lens undistortion for pixel coordinates.
package calib

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"onelane/types"
)

// Identity leaves points unchanged. It is used when no calibration is configured.
type Identity struct{}

// Undistort returns pts.
func (Identity) Undistort(pts []types.Point) []types.Point {
	return pts
}

// Model is the on-disk form of an OpenCV pinhole calibration.
type Model struct {
	CameraMatrix [3][3]float64 `json:"camera_matrix"`
	DistCoeffs   []float64     `json:"dist_coeffs"`
}

// LoadModel reads a calibration JSON file.
func LoadModel(path string) (Model, error) {
	var m Model
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("failed to read calibration: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse calibration: %w", err)
	}
	switch len(m.DistCoeffs) {
	case 4, 5, 8, 12, 14:
	default:
		return m, fmt.Errorf("calibration has %d distortion coefficients", len(m.DistCoeffs))
	}
	if m.CameraMatrix[0][0] == 0 || m.CameraMatrix[1][1] == 0 {
		return m, fmt.Errorf("calibration focal length is zero")
	}
	return m, nil
}

// CameraModel undistorts points with OpenCV, projecting back onto the same camera matrix
// so the output stays in pixel units.
type CameraModel struct {
	mu     sync.Mutex
	camera gocv.Mat
	dist   gocv.Mat
}

// NewCameraModel allocates the OpenCV matrices for m. Close releases them.
func NewCameraModel(m Model) *CameraModel {
	camera := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			camera.SetDoubleAt(r, c, m.CameraMatrix[r][c])
		}
	}
	dist := gocv.NewMatWithSize(1, len(m.DistCoeffs), gocv.MatTypeCV64F)
	for i, k := range m.DistCoeffs {
		dist.SetDoubleAt(0, i, k)
	}
	return &CameraModel{camera: camera, dist: dist}
}

// Undistort maps distorted pixel coordinates to ideal pixel coordinates.
func (c *CameraModel) Undistort(pts []types.Point) []types.Point {
	if len(pts) == 0 {
		return pts
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	flat := gocv.NewMatWithSize(len(pts), 2, gocv.MatTypeCV32F)
	defer flat.Close()
	for i, p := range pts {
		flat.SetFloatAt(i, 0, float32(p.X))
		flat.SetFloatAt(i, 1, float32(p.Y))
	}
	src := flat.Reshape(2, len(pts))
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	rect := gocv.NewMat()
	defer rect.Close()
	gocv.UndistortPoints(src, &dst, c.camera, c.dist, rect, c.camera)

	out := dst.Reshape(1, len(pts))
	defer out.Close()
	res := make([]types.Point, len(pts))
	for i := range res {
		res[i] = types.Point{X: float64(out.GetFloatAt(i, 0)), Y: float64(out.GetFloatAt(i, 1))}
	}
	return res
}

// Close releases the OpenCV matrices.
func (c *CameraModel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.camera.Close()
	c.dist.Close()
	return nil
}
