package utils

import (
	"image"
	"math"
)

// CropRect returns the near-field band of a frame: every row from top down, clamped to the frame.
func CropRect(width, height, top int) image.Rectangle {
	return ClampRect(image.Rect(0, top, width, height), width, height)
}

// ClampRect shrinks rect so it lies within a width x height image.
func ClampRect(rect image.Rectangle, width, height int) image.Rectangle {
	if rect.Min.X < 0 {
		rect.Min.X = 0
	}
	if rect.Min.Y < 0 {
		rect.Min.Y = 0
	}
	if rect.Max.X > width {
		rect.Max.X = width
	}
	if rect.Max.Y > height {
		rect.Max.Y = height
	}
	return rect.Canon()
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Linspace returns n evenly spaced samples over [start, stop].
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
