package utils

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCropRect(t *testing.T) {
	assert.Equal(t, image.Rect(0, 240, 640, 480), CropRect(640, 480, 240))
	assert.Equal(t, image.Rect(0, 0, 640, 480), CropRect(640, 480, -5))
}

func TestClampRect(t *testing.T) {
	got := ClampRect(image.Rect(-10, -10, 700, 500), 640, 480)
	assert.Equal(t, image.Rect(0, 0, 640, 480), got)
}

func TestClampAndDegrees(t *testing.T) {
	assert.Equal(t, 30.0, Clamp(45, -30, 30))
	assert.Equal(t, -30.0, Clamp(-45, -30, 30))
	assert.Equal(t, 12.5, Clamp(12.5, -30, 30))
	assert.InDelta(t, 180.0, Degrees(math.Pi), 1e-12)
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 1, 2, 3}, Linspace(0, 3, 4))
	assert.Equal(t, []float64{5}, Linspace(5, 9, 1))
	assert.Nil(t, Linspace(0, 1, 0))
}
