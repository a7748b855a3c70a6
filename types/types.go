package types

import (
	"fmt"
	"time"
)

// Frame is one decoded BGR camera frame. Frames are immutable once published.
type Frame struct {
	Seq      uint64
	Width    int
	Height   int
	Pix      []byte // BGR8, row major, len = Width*Height*3
	Captured time.Time
}

// Valid reports whether the pixel buffer matches the frame dimensions.
func (f *Frame) Valid() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Pix) == f.Width*f.Height*3
}

// Point is a 2D coordinate, pixels or centimeters depending on context.
type Point struct {
	X, Y float64
}

// Region is one connected component of the binary mask.
type Region struct {
	ID       int
	Area     int
	Left     int
	Top      int
	Width    int
	Height   int
	Centroid Point
}

// Bottom is the first row below the region's bounding box.
func (r Region) Bottom() int {
	return r.Top + r.Height
}

// LabelGrid is the connected-component label image of a segmented frame.
// Label 0 is background; every other label is a Region ID.
type LabelGrid struct {
	Width  int
	Height int
	Labels []int32
}

// At returns the label at column x, row y.
func (g LabelGrid) At(x, y int) int32 {
	return g.Labels[y*g.Width+x]
}

// Quadratic describes x = A*y^2 + B*y + C.
type Quadratic struct {
	A, B, C float64
}

// Eval returns x for the given y.
func (q Quadratic) Eval(y float64) float64 {
	return q.A*y*y + q.B*y + q.C
}

// ImageCurve is a centerline in cropped image coordinates: column as a function of row.
type ImageCurve struct {
	Quadratic
}

// VehicleCurve is a centerline in vehicle coordinates: lateral offset (cm) as a
// function of forward distance (cm) from the rear axle.
type VehicleCurve struct {
	Quadratic
}

// SteeringCommand is the per-cycle actuation output. Positive angles turn right.
type SteeringCommand struct {
	AngleDeg float64
	Throttle float64
}

// Outcome classifies how a control cycle ended.
type Outcome int

const (
	OutcomeOK Outcome = iota + 1
	OutcomeNoCenterline
	OutcomeNoLookahead
	OutcomeSaturatedLeft
	OutcomeSaturatedRight
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "OK"
	case OutcomeNoCenterline:
		return "NO_CENTERLINE"
	case OutcomeNoLookahead:
		return "NO_LOOKAHEAD"
	case OutcomeSaturatedLeft:
		return "SATURATED_LEFT"
	case OutcomeSaturatedRight:
		return "SATURATED_RIGHT"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Decision is everything one control cycle produced.
type Decision struct {
	FrameSeq    uint64
	Command     SteeringCommand
	Outcome     Outcome
	RegionCount int
	Label       int // 0 when no region was selected
	Ambiguous   int // number of qualifying regions when more than one qualified
	Selected    *Region
	Image       *ImageCurve
	Vehicle     *VehicleCurve
	Notes       []string
}

// Note appends a diagnostic line to the decision.
func (d *Decision) Note(format string, args ...any) {
	d.Notes = append(d.Notes, fmt.Sprintf(format, args...))
}

// DriveState holds the mutable state carried from one control cycle to the next.
// It is owned by the control loop.
type DriveState struct {
	Cycles             uint64
	DebugImageIndex    int
	LastSnapshot       time.Time
	Throttle, Steering float64
	Hold               bool // manual hold forces zero throttle
}
