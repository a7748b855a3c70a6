package recording

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"onelane/types"
)

var (
	errAlreadyRecording = errors.New("recording already active")
	errNotRecording     = errors.New("no active recording")
)

// VideoRecorder records the annotated drive view to an mp4 file.
type VideoRecorder struct {
	cfg    types.VideoConfig
	logger *slog.Logger

	writer  *gocv.VideoWriter
	started time.Time
	file    string
}

// NewVideoRecorder returns an idle recorder.
func NewVideoRecorder(cfg types.VideoConfig, logger *slog.Logger) *VideoRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &VideoRecorder{cfg: cfg, logger: logger}
}

// Recording reports whether a file is open.
func (r *VideoRecorder) Recording() bool {
	return r.writer != nil
}

// Start opens a new file sized like frame. Codecs are tried in configured order.
func (r *VideoRecorder) Start(frame gocv.Mat) error {
	if r.Recording() {
		return errAlreadyRecording
	}
	if frame.Empty() {
		return fmt.Errorf("cannot size recording from an empty frame")
	}

	name := fmt.Sprintf("drive_video_%s.mp4", time.Now().Format("20060102_150405"))

	var (
		vw    *gocv.VideoWriter
		err   error
		codec string
	)
	for _, fourcc := range r.cfg.Codecs {
		vw, err = gocv.VideoWriterFile(name, fourcc, r.cfg.FPS, frame.Cols(), frame.Rows(), true)
		if err == nil {
			codec = fourcc
			break
		}
	}
	if vw == nil {
		if err == nil {
			err = errors.New("no codecs configured")
		}
		return fmt.Errorf("could not create video writer with any codec: %w", err)
	}

	r.writer = vw
	r.started = time.Now()
	r.file = name
	r.logger.Info("recording started", "file", name, "codec", codec)
	return nil
}

// Stop closes the current file.
func (r *VideoRecorder) Stop() error {
	if !r.Recording() {
		return errNotRecording
	}
	err := r.writer.Close()
	r.writer = nil
	if err != nil {
		return fmt.Errorf("error closing video writer: %w", err)
	}
	r.logger.Info("recording stopped", "file", r.file, "duration", time.Since(r.started).Round(time.Second))
	return nil
}

// Toggle starts or stops recording.
func (r *VideoRecorder) Toggle(frame gocv.Mat) error {
	if r.Recording() {
		return r.Stop()
	}
	return r.Start(frame)
}

// Write appends frame when recording and is a no-op otherwise.
func (r *VideoRecorder) Write(frame gocv.Mat) error {
	if !r.Recording() {
		return nil
	}
	return r.writer.Write(frame)
}

// Duration is the length of the current recording, zero when idle.
func (r *VideoRecorder) Duration() time.Duration {
	if !r.Recording() {
		return 0
	}
	return time.Since(r.started)
}

// Cleanup stops any active recording.
func (r *VideoRecorder) Cleanup() {
	if r.Recording() {
		_ = r.Stop()
	}
}
