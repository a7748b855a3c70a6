package types

import "errors"

var (
	// ErrNoLane means no region passed the lane filter.
	ErrNoLane = errors.New("no qualifying lane region")
	// ErrInsufficientData means too few points were left to fit a curve.
	ErrInsufficientData = errors.New("insufficient data points for fit")
	// ErrFitUnstable means the least-squares system was rank deficient.
	ErrFitUnstable = errors.New("polynomial fit is rank deficient")
	// ErrNoLookaheadPoint means the centerline never crosses the lookahead circle ahead of the vehicle.
	ErrNoLookaheadPoint = errors.New("no forward lookahead intersection")
	// ErrMalformedMask means the label grid does not match its declared shape.
	ErrMalformedMask = errors.New("malformed label grid")
	// ErrMalformedFrame means a frame's pixel buffer does not match its dimensions.
	ErrMalformedFrame = errors.New("malformed frame")
)

// NoCenterline reports whether err means the perception stages produced no usable centerline.
func NoCenterline(err error) bool {
	return errors.Is(err, ErrNoLane) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrFitUnstable) ||
		errors.Is(err, ErrMalformedMask) ||
		errors.Is(err, ErrMalformedFrame)
}

// ContractViolation reports whether err is a data-shape bug rather than a runtime condition.
func ContractViolation(err error) bool {
	return errors.Is(err, ErrMalformedMask) || errors.Is(err, ErrMalformedFrame)
}
