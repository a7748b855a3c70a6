package calib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onelane/types"
)

func writeModel(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "camera.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadModel(t *testing.T) {
	path := writeModel(t, `{"camera_matrix":[[500,0,320],[0,500,240],[0,0,1]],"dist_coeffs":[0,0,0,0,0]}`)
	m, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, 320.0, m.CameraMatrix[0][2])
	assert.Len(t, m.DistCoeffs, 5)

	_, err = LoadModel(writeModel(t, `{"camera_matrix":[[500,0,320],[0,500,240],[0,0,1]],"dist_coeffs":[0,0,0]}`))
	assert.Error(t, err)

	_, err = LoadModel(writeModel(t, `{"dist_coeffs":[0,0,0,0]}`))
	assert.Error(t, err)

	_, err = LoadModel(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestIdentity(t *testing.T) {
	pts := []types.Point{{X: 1, Y: 2}}
	assert.Equal(t, pts, Identity{}.Undistort(pts))
}

func TestCameraModelWithoutDistortionIsIdentity(t *testing.T) {
	cm := NewCameraModel(Model{
		CameraMatrix: [3][3]float64{{500, 0, 320}, {0, 500, 240}, {0, 0, 1}},
		DistCoeffs:   []float64{0, 0, 0, 0, 0},
	})
	defer cm.Close()

	pts := []types.Point{{X: 320, Y: 240}, {X: 100, Y: 400}, {X: 600, Y: 300}}
	got := cm.Undistort(pts)
	require.Len(t, got, len(pts))
	for i := range pts {
		assert.InDelta(t, pts[i].X, got[i].X, 1e-2)
		assert.InDelta(t, pts[i].Y, got[i].Y, 1e-2)
	}
}

func TestCameraModelBarrelMovesCornersOutward(t *testing.T) {
	cm := NewCameraModel(Model{
		CameraMatrix: [3][3]float64{{500, 0, 320}, {0, 500, 240}, {0, 0, 1}},
		DistCoeffs:   []float64{-0.3, 0.1, 0, 0, 0},
	})
	defer cm.Close()

	got := cm.Undistort([]types.Point{{X: 320, Y: 240}, {X: 620, Y: 460}})
	assert.InDelta(t, 320, got[0].X, 1e-2)
	assert.InDelta(t, 240, got[0].Y, 1e-2)
	assert.Greater(t, got[1].X, 620.0)
	assert.Greater(t, got[1].Y, 460.0)
}
