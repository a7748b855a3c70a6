package recording

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"

	"onelane/types"
)

// Snapshot categories.
const (
	CategoryAmbiguous    = "ambiguous"
	CategoryNoCenterline = "no-centerline"
	CategoryNoLookahead  = "no-lookahead"
)

// SnapshotWriter persists one diagnostic frame.
type SnapshotWriter interface {
	WriteSnapshot(index int, category string, f *types.Frame) error
}

// PNGWriter writes snapshots as debug<index>.png files in Dir. Files from earlier runs
// are overwritten.
type PNGWriter struct {
	Dir string
}

// WriteSnapshot encodes f with OpenCV and writes it to disk.
func (w PNGWriter) WriteSnapshot(index int, category string, f *types.Frame) error {
	if !f.Valid() {
		return types.ErrMalformedFrame
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	img, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Pix)
	if err != nil {
		return fmt.Errorf("wrap frame: %w", err)
	}
	defer img.Close()

	name := filepath.Join(w.Dir, fmt.Sprintf("debug%d.png", index))
	if ok := gocv.IMWrite(name, img); !ok {
		return fmt.Errorf("could not write %s (%s)", name, category)
	}
	return nil
}

// Snapshotter rate limits diagnostic snapshots. The index and last-write time live in
// the caller's DriveState.
type Snapshotter struct {
	Writer   SnapshotWriter
	Interval time.Duration
	Now      func() time.Time
	Logger   *slog.Logger
}

// NewSnapshotter returns a Snapshotter using the wall clock. A nil writer disables snapshots.
func NewSnapshotter(w SnapshotWriter, interval time.Duration, logger *slog.Logger) *Snapshotter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Snapshotter{Writer: w, Interval: interval, Now: time.Now, Logger: logger}
}

// Save writes f unless a snapshot was written less than Interval ago. It reports whether
// a write was attempted. Write failures are logged only.
func (s *Snapshotter) Save(state *types.DriveState, f *types.Frame, category string) bool {
	if s == nil || s.Writer == nil || !f.Valid() {
		return false
	}
	now := s.Now()
	if !state.LastSnapshot.IsZero() && now.Sub(state.LastSnapshot) < s.Interval {
		return false
	}
	state.LastSnapshot = now
	index := state.DebugImageIndex
	state.DebugImageIndex++

	if err := s.Writer.WriteSnapshot(index, category, f); err != nil {
		s.Logger.Warn("debug snapshot failed", "index", index, "category", category, "err", err)
		return true
	}
	s.Logger.Info("debug img saved", "index", index, "category", category)
	return true
}
