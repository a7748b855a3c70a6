package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gocv.io/x/gocv"

	"onelane/calib"
	"onelane/fitting"
	"onelane/input"
	"onelane/pipeline"
	"onelane/recording"
	"onelane/sink"
	"onelane/types"
	"onelane/ui"
)

// idleWait is how long the control loop sleeps when no new frame has arrived.
const idleWait = 2 * time.Millisecond

func main() {
	configPath := flag.String("config", "onelane.json", "path to the JSON config file")
	source := flag.String("source", "0", "camera id or video file")
	serialPort := flag.String("serial", "", "serial port of the vehicle radio link (overrides config)")
	dbPath := flag.String("db", "", "sqlite file for the decision log (disabled when empty)")
	show := flag.Bool("show", false, "show the annotated camera view")
	logLevel := flag.String("log-level", "", "debug, info, warn or error (overrides config)")
	flag.Parse()

	if err := run(*configPath, *source, *serialPort, *dbPath, *show, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, source, serialPort, dbPath string, show bool, logLevel string) error {
	cfg, err := types.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if serialPort != "" {
		cfg.Serial.Port = serialPort
	}
	if dbPath != "" {
		cfg.DecisionDB = dbPath
	}

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := NewLogger(level)
	slog.SetDefault(logger)

	undistort, closeCalib, err := openUndistorter(cfg.Camera)
	if err != nil {
		return err
	}
	defer closeCalib()

	var snapshots *recording.Snapshotter
	if cfg.Snapshot.Enabled {
		interval, err := cfg.SnapshotInterval()
		if err != nil {
			return err
		}
		snapshots = recording.NewSnapshotter(recording.PNGWriter{Dir: cfg.Snapshot.Dir}, interval, logger)
	}

	sinks, err := openSinks(cfg, source, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn("closing sinks", "err", err)
		}
	}()

	capture, err := input.Open(source)
	if err != nil {
		return err
	}
	defer capture.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var box input.Mailbox
	go func() {
		defer stop()
		if err := input.Deliver(ctx, capture, &box, cfg.Camera, logger); err != nil && ctx.Err() == nil {
			logger.Error("frame delivery stopped", "err", err)
		}
	}()

	debug := types.NewDebugLog(cfg.UI.MaxNotes)
	pipe := pipeline.New(cfg, undistort, snapshots, debug, logger, nil)

	var view *display
	if show {
		view = newDisplay(cfg, debug, logger)
		defer view.Close()
		ui.PrintStartupInstructions()
	}

	logger.Info("onelane started", "source", source, "serial", cfg.Serial.Port, "db", cfg.DecisionDB)

	var (
		state   types.DriveState
		lastSeq uint64
	)
	for ctx.Err() == nil {
		f, ok := box.TakeLatest()
		if !ok || f.Seq == lastSeq {
			if view != nil {
				if view.Poll(&state) {
					stop()
				}
				continue
			}
			time.Sleep(idleWait)
			continue
		}
		lastSeq = f.Seq

		d := pipe.Step(f, &state)
		if err := sinks.Publish(d); err != nil {
			logger.Warn("sink publish failed", "frame", d.FrameSeq, "err", err)
		}

		if view != nil && view.Show(f, d, &state) {
			stop()
		}
	}

	logger.Info("onelane stopped", "cycles", state.Cycles, "snapshots", state.DebugImageIndex)
	return nil
}

func openUndistorter(cam types.CameraConfig) (fitting.Undistorter, func(), error) {
	if cam.CalibrationFile == "" {
		return calib.Identity{}, func() {}, nil
	}
	model, err := calib.LoadModel(cam.CalibrationFile)
	if err != nil {
		return nil, nil, err
	}
	cm := calib.NewCameraModel(model)
	return cm, func() { _ = cm.Close() }, nil
}

func openSinks(cfg *types.Config, source string, logger *slog.Logger) (sink.Multi, error) {
	sinks := sink.Multi{sink.LogSink{Logger: logger}}

	if cfg.Serial.Port != "" {
		s, err := sink.OpenSerial(cfg.Serial)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if cfg.DecisionDB != "" {
		dl, err := sink.NewDecisionLog(cfg.DecisionDB, "source "+source)
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		logger.Info("decision log opened", "path", cfg.DecisionDB, "run", dl.RunID)
		sinks = append(sinks, dl)
	}
	return sinks, nil
}

// display is the optional annotated camera window.
type display struct {
	cfg      *types.Config
	window   *gocv.Window
	video    *recording.VideoRecorder
	debug    *types.DebugLog
	logger   *slog.Logger
	lastShow gocv.Mat
}

func newDisplay(cfg *types.Config, debug *types.DebugLog, logger *slog.Logger) *display {
	return &display{
		cfg:      cfg,
		window:   gocv.NewWindow("onelane"),
		video:    recording.NewVideoRecorder(cfg.Video, logger),
		debug:    debug,
		logger:   logger,
		lastShow: gocv.NewMat(),
	}
}

// Show draws the overlay for d on f, records and displays it, then handles one key.
// It reports whether the user asked to quit.
func (s *display) Show(f *types.Frame, d types.Decision, state *types.DriveState) bool {
	img, err := input.MatFromFrame(f)
	if err != nil {
		s.logger.Warn("cannot display frame", "frame", f.Seq, "err", err)
		return s.Poll(state)
	}
	defer img.Close()

	ui.RenderFrame(&img, d, state, s.video, s.debug, s.cfg.Camera, s.cfg.UI)
	if err := s.video.Write(img); err != nil {
		s.logger.Warn("video write failed", "err", err)
	}
	img.CopyTo(&s.lastShow)
	s.window.IMShow(img)
	return s.Poll(state)
}

// Poll services the window event loop and applies any key press.
func (s *display) Poll(state *types.DriveState) bool {
	key := s.window.WaitKey(1)
	if key < 0 {
		return false
	}
	return input.HandleKey(key, input.Controls{State: state, Video: s.video, Debug: s.debug, Logger: s.logger}, s.lastShow)
}

func (s *display) Close() {
	s.video.Cleanup()
	s.lastShow.Close()
	s.window.Close()
}
