package control

import (
	"fmt"
	"math"
	"slices"

	"onelane/types"
	"onelane/utils"
)

// boundarySlack admits a target lying exactly on the lookahead circle straight ahead.
const boundarySlack = 1e-9

// Target is the pure-pursuit aim point and the steering that reaches it.
type Target struct {
	Forward   float64 // y, cm ahead of the rear axle
	Lateral   float64 // x, cm
	Curvature float64 // 1/cm
	AngleDeg  float64
}

// LookaheadQuartic expands x(y)^2 + y^2 = L^2 for x(y) = a*y^2 + b*y + c.
func LookaheadQuartic(q types.Quadratic, lookahead float64) []float64 {
	a, b, c := q.A, q.B, q.C
	return []float64{
		a * a,
		2 * a * b,
		b*b + 2*a*c + 1,
		2 * b * c,
		c*c - lookahead*lookahead,
	}
}

// PurePursuit finds the farthest forward point of the curve on the lookahead circle and the
// bicycle-model steering angle of the arc from the rear axle through it.
func PurePursuit(curve types.VehicleCurve, vehicle types.VehicleConfig, imagTol float64) (Target, error) {
	L := vehicle.Lookahead
	roots, err := Roots(LookaheadQuartic(curve.Quadratic, L))
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", types.ErrNoLookaheadPoint, err)
	}

	var forward []float64
	for _, y := range RealRoots(roots, imagTol) {
		if y > 0 && y <= L*(1+boundarySlack) {
			forward = append(forward, y)
		}
	}
	if len(forward) == 0 {
		return Target{}, types.ErrNoLookaheadPoint
	}

	y := slices.Max(forward)
	x := curve.Eval(y)
	curvature := 2 * x / (L * L)
	return Target{
		Forward:   y,
		Lateral:   x,
		Curvature: curvature,
		AngleDeg:  utils.Degrees(math.Atan(vehicle.Wheelbase * curvature)),
	}, nil
}
