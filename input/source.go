package input

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gocv.io/x/gocv"

	"onelane/types"
)

// Capture is a frame producer: a camera or a video file.
type Capture interface {
	Read(m *gocv.Mat) bool
	Close() error
}

// Open opens a video file if device names an existing path, otherwise a camera by id.
func Open(device string) (Capture, error) {
	if _, err := os.Stat(device); err == nil {
		c, err := gocv.VideoCaptureFile(device)
		if err != nil {
			return nil, fmt.Errorf("open video %q: %w", device, err)
		}
		return c, nil
	}
	id, err := strconv.Atoi(device)
	if err != nil {
		return nil, fmt.Errorf("%q is neither a file nor a camera id", device)
	}
	c, err := gocv.VideoCaptureDevice(id)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", id, err)
	}
	return c, nil
}

// FrameFromMat copies a BGR8 Mat into an immutable Frame.
func FrameFromMat(m gocv.Mat, seq uint64, at time.Time) (*types.Frame, error) {
	if m.Empty() {
		return nil, fmt.Errorf("%w: empty image", types.ErrMalformedFrame)
	}
	if m.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("%w: image type %v, want 8-bit BGR", types.ErrMalformedFrame, m.Type())
	}
	f := &types.Frame{
		Seq:      seq,
		Width:    m.Cols(),
		Height:   m.Rows(),
		Pix:      m.ToBytes(),
		Captured: at,
	}
	if !f.Valid() {
		return nil, types.ErrMalformedFrame
	}
	return f, nil
}

// MatFromFrame returns a Mat copy of f. The caller must Close it.
func MatFromFrame(f *types.Frame) (gocv.Mat, error) {
	if !f.Valid() {
		return gocv.NewMat(), types.ErrMalformedFrame
	}
	view, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Pix)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer view.Close()
	return view.Clone(), nil
}

// Deliver reads frames from c and publishes them to box until ctx is done or the source
// runs dry. Frames with the wrong size are dropped.
func Deliver(ctx context.Context, c Capture, box *Mailbox, cam types.CameraConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	img := gocv.NewMat()
	defer img.Close()

	var seq uint64
	for ctx.Err() == nil {
		if ok := c.Read(&img); !ok || img.Empty() {
			logger.Info("frame source exhausted", "frames", seq)
			return nil
		}
		seq++
		f, err := FrameFromMat(img, seq, time.Now())
		if err != nil {
			logger.Warn("dropping frame", "seq", seq, "err", err)
			continue
		}
		if f.Width != cam.Width || f.Height != cam.Height {
			logger.Warn("dropping frame with unexpected size", "seq", seq, "width", f.Width, "height", f.Height)
			continue
		}
		box.Publish(f)
	}
	return ctx.Err()
}
