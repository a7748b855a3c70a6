package fitting

import "onelane/types"

// Perspective maps undistorted full-frame pixels to vehicle coordinates. Each axis is an
// independent linear map: image column to lateral offset, image row to forward distance.
type Perspective struct {
	types.PerspectiveConfig
}

// ToVehicle returns (lateral, forward) in centimeters for pixel p.
func (m Perspective) ToVehicle(p types.Point) types.Point {
	return types.Point{
		X: m.XScale*p.X + m.XOffset,
		Y: m.YScale*p.Y + m.YOffset,
	}
}

// ToImage is the inverse of ToVehicle.
func (m Perspective) ToImage(v types.Point) types.Point {
	return types.Point{
		X: (v.X - m.XOffset) / m.XScale,
		Y: (v.Y - m.YOffset) / m.YScale,
	}
}
