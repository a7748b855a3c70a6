package control

import (
	"errors"

	"onelane/types"
)

// Policy turns a solver result into the command sent to the vehicle.
type Policy struct {
	MaxSteerDeg      float64
	NominalThrottle  float64
	FallbackThrottle float64
}

// NewPolicy builds a Policy from the vehicle and control configuration.
func NewPolicy(vehicle types.VehicleConfig, ctrl types.ControlConfig) Policy {
	return Policy{
		MaxSteerDeg:      vehicle.MaxSteerDeg,
		NominalThrottle:  ctrl.NominalThrottle,
		FallbackThrottle: ctrl.FallbackThrottle,
	}
}

// Decide maps a steering angle, or the error that prevented one, to a safe command.
// The returned note is empty when there is nothing to report.
func (p Policy) Decide(angleDeg float64, err error) (types.SteeringCommand, types.Outcome, string) {
	switch {
	case errors.Is(err, types.ErrNoLookaheadPoint):
		return types.SteeringCommand{}, types.OutcomeNoLookahead, "no steering solution on lookahead circle"
	case err != nil:
		return types.SteeringCommand{}, types.OutcomeNoCenterline, "can't find centerline"
	case angleDeg > p.MaxSteerDeg:
		return types.SteeringCommand{AngleDeg: p.MaxSteerDeg, Throttle: p.FallbackThrottle},
			types.OutcomeSaturatedRight, "insufficient steering - R"
	case angleDeg < -p.MaxSteerDeg:
		return types.SteeringCommand{AngleDeg: -p.MaxSteerDeg, Throttle: p.FallbackThrottle},
			types.OutcomeSaturatedLeft, "insufficient steering - L"
	default:
		return types.SteeringCommand{AngleDeg: angleDeg, Throttle: p.NominalThrottle}, types.OutcomeOK, ""
	}
}
