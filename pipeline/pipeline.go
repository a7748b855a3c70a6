package pipeline

import (
	"log/slog"
	"math/rand/v2"

	"onelane/control"
	"onelane/fitting"
	"onelane/recording"
	"onelane/types"
	"onelane/vision"
)

// Pipeline turns one camera frame into one steering decision.
type Pipeline struct {
	cfg       *types.Config
	fitter    *fitting.Fitter
	policy    control.Policy
	snapshots *recording.Snapshotter
	debug     *types.DebugLog
	logger    *slog.Logger
}

// New assembles a pipeline. snapshots and debug may be nil; a nil rng is seeded randomly.
func New(cfg *types.Config, u fitting.Undistorter, snapshots *recording.Snapshotter, debug *types.DebugLog, logger *slog.Logger, rng *rand.Rand) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:       cfg,
		fitter:    fitting.NewFitter(cfg.Camera, cfg.Fit, u, rng),
		policy:    control.NewPolicy(cfg.Vehicle, cfg.Control),
		snapshots: snapshots,
		debug:     debug,
		logger:    logger,
	}
}

// Step runs one control cycle. It always returns a decision; failures become a safe
// command and a note.
func (p *Pipeline) Step(f *types.Frame, state *types.DriveState) types.Decision {
	var d types.Decision
	if f != nil {
		d.FrameSeq = f.Seq
	}

	angle, err := p.steer(f, state, &d)
	if types.ContractViolation(err) {
		p.logger.Error("pipeline contract violation", "frame", d.FrameSeq, "err", err)
	}

	cmd, outcome, note := p.policy.Decide(angle, err)
	d.Command, d.Outcome = cmd, outcome
	if note != "" {
		p.note(&d, note)
	}

	switch outcome {
	case types.OutcomeNoCenterline:
		p.snapshots.Save(state, f, recording.CategoryNoCenterline)
	case types.OutcomeNoLookahead:
		p.snapshots.Save(state, f, recording.CategoryNoLookahead)
	case types.OutcomeSaturatedLeft, types.OutcomeSaturatedRight:
		p.logger.Info(note, "frame", d.FrameSeq, "angle", angle)
	}

	if state.Hold {
		d.Command.Throttle = 0
		d.Note("manual hold")
	}

	state.Cycles++
	state.Throttle = d.Command.Throttle
	state.Steering = d.Command.AngleDeg
	return d
}

// steer runs the vision and geometry stages and fills in what they found.
func (p *Pipeline) steer(f *types.Frame, state *types.DriveState, d *types.Decision) (float64, error) {
	cf, err := vision.Preprocess(f, p.cfg.Camera, p.cfg.Preprocess)
	if err != nil {
		return 0, err
	}
	defer cf.Close()

	seg, err := vision.Segment(cf, p.cfg.Segment)
	if err != nil {
		return 0, err
	}
	d.RegionCount = len(seg.Regions)

	sel, err := vision.SelectLane(seg.Regions, p.cfg.Select)
	if err != nil {
		return 0, err
	}
	region := sel.Region
	d.Label = region.ID
	d.Selected = &region
	if sel.Ambiguous() {
		d.Ambiguous = sel.Qualifying
		p.logger.Debug("multiple good labels exist", "frame", d.FrameSeq, "qualifying", sel.Qualifying)
		p.note(d, "multiple good labels exist")
		p.snapshots.Save(state, f, recording.CategoryAmbiguous)
	}

	img, veh, err := p.fitter.Fit(seg.Labels, region.ID)
	if err != nil {
		// an image fit without a vehicle fit is still worth drawing
		if img != (types.ImageCurve{}) {
			d.Image = &img
		}
		return 0, err
	}
	d.Image, d.Vehicle = &img, &veh

	target, err := control.PurePursuit(veh, p.cfg.Vehicle, p.cfg.Control.ImagTolerance)
	if err != nil {
		return 0, err
	}
	return target.AngleDeg, nil
}

func (p *Pipeline) note(d *types.Decision, note string) {
	d.Note("%s", note)
	if p.debug != nil {
		p.debug.Log(note)
	}
}
