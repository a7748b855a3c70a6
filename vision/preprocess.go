package vision

import (
	"fmt"

	"gocv.io/x/gocv"

	"onelane/types"
	"onelane/utils"
)

// ContrastFrame is the single-channel float32 near-field image the segmenter works on.
// The caller must Close it.
type ContrastFrame struct {
	gocv.Mat
}

// Preprocess crops the frame to the rows below cam.CropTop and combines the three channels
// with the configured weights so the tape stands out from the floor.
func Preprocess(f *types.Frame, cam types.CameraConfig, cfg types.PreprocessConfig) (ContrastFrame, error) {
	if !f.Valid() {
		return ContrastFrame{}, types.ErrMalformedFrame
	}

	src, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Pix)
	if err != nil {
		return ContrastFrame{}, fmt.Errorf("%w: %v", types.ErrMalformedFrame, err)
	}
	defer src.Close()

	roi := src.Region(utils.CropRect(f.Width, f.Height, cam.CropTop))
	defer roi.Close()

	floats := gocv.NewMat()
	defer floats.Close()
	roi.ConvertTo(&floats, gocv.MatTypeCV32F)

	channels := gocv.Split(floats)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()
	if len(channels) != 3 {
		return ContrastFrame{}, fmt.Errorf("%w: %d channels", types.ErrMalformedFrame, len(channels))
	}

	bg := gocv.NewMat()
	defer bg.Close()
	out := gocv.NewMat()
	// OpenCV stores pixels as B, G, R.
	gocv.AddWeighted(channels[0], cfg.WeightB, channels[1], cfg.WeightG, 0, &bg)
	gocv.AddWeighted(bg, 1, channels[2], cfg.WeightR, 0, &out)
	return ContrastFrame{out}, nil
}
