package input

import (
	"log/slog"

	"gocv.io/x/gocv"

	"onelane/recording"
	"onelane/types"
)

const keyEscape = 27

// Controls are the pieces of run state the display window can change.
type Controls struct {
	State  *types.DriveState
	Video  *recording.VideoRecorder
	Debug  *types.DebugLog
	Logger *slog.Logger
}

// HandleKey applies one key press from the display window and reports whether to quit.
// frame is the annotated image being shown; it sizes a new video recording.
func HandleKey(key int, c Controls, frame gocv.Mat) bool {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch key {
	case 'q', keyEscape:
		if c.Video != nil {
			c.Video.Cleanup()
		}
		return true

	case ' ': // manual hold: keep steering, cut throttle
		c.State.Hold = !c.State.Hold
		logger.Info("manual hold toggled", "hold", c.State.Hold)

	case 'v':
		if c.Video == nil {
			return false
		}
		if err := c.Video.Toggle(frame); err != nil {
			logger.Warn("recording error", "err", err)
		}

	case 'd':
		if c.Debug != nil {
			logger.Info("diagnostics overlay toggled", "enabled", c.Debug.Toggle())
		}
	}
	return false
}
