package ui

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"math"

	"gocv.io/x/gocv"

	"onelane/recording"
	"onelane/types"
)

var (
	Blue   = color.RGBA{B: 255}
	Red    = color.RGBA{R: 255}
	Green  = color.RGBA{G: 255}
	Yellow = color.RGBA{R: 255, G: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255}
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 120}
)

// curveStep is the row spacing of the drawn centerline.
const curveStep = 8

// CurvePoints samples an image-space centerline in full-frame coordinates, skipping
// samples that fall outside the frame.
func CurvePoints(curve types.ImageCurve, cam types.CameraConfig) []image.Point {
	var pts []image.Point
	for row := 0; row < cam.Height-cam.CropTop; row += curveStep {
		x := curve.Eval(float64(row))
		if math.IsNaN(x) || x < 0 || x >= float64(cam.Width) {
			continue
		}
		pts = append(pts, image.Pt(int(math.Round(x)), row+cam.CropTop))
	}
	return pts
}

// RegionRect returns the bounding box of a cropped-frame region in full-frame coordinates.
func RegionRect(r types.Region, cam types.CameraConfig) image.Rectangle {
	return image.Rect(r.Left, r.Top+cam.CropTop, r.Left+r.Width, r.Bottom()+cam.CropTop)
}

// DrawCropLine marks the top of the analysed band.
func DrawCropLine(frame *gocv.Mat, cam types.CameraConfig) {
	_ = gocv.Line(frame, image.Pt(0, cam.CropTop), image.Pt(frame.Cols(), cam.CropTop), Yellow, 1)
}

// DrawLane draws the selected region box and the fitted centerline.
func DrawLane(frame *gocv.Mat, d types.Decision, cam types.CameraConfig) {
	if d.Selected != nil {
		rectColor := Blue
		if d.Ambiguous > 1 {
			rectColor = Yellow
		}
		_ = gocv.Rectangle(frame, RegionRect(*d.Selected, cam), rectColor, 2)
	}
	if d.Image == nil {
		return
	}
	pts := CurvePoints(*d.Image, cam)
	for i := 1; i < len(pts); i++ {
		_ = gocv.Line(frame, pts[i-1], pts[i], Green, 2)
	}
}

// StatusText is the one-line summary shown in the corner of the overlay.
func StatusText(d types.Decision, state *types.DriveState) string {
	text := fmt.Sprintf("%s  steer %.1f  throttle %.2f", d.Outcome, d.Command.AngleDeg, d.Command.Throttle)
	if state != nil && state.Hold {
		text += "  HOLD"
	}
	return text
}

// DrawStatusMessage draws the outcome, command and hold flag.
func DrawStatusMessage(frame *gocv.Mat, d types.Decision, state *types.DriveState, config types.UIConfig) {
	textColor := Green
	switch d.Outcome {
	case types.OutcomeNoCenterline, types.OutcomeNoLookahead:
		textColor = Red
	case types.OutcomeSaturatedLeft, types.OutcomeSaturatedRight:
		textColor = Yellow
	}

	if err := gocv.PutText(frame, StatusText(d, state), image.Pt(10, 30), gocv.FontHersheyPlain, config.StatusFontSize, textColor, 2); err != nil {
		log.Printf("Error adding status text: %v", err)
	}
}

// DrawRecordingStatus draws the recording timer while a video is being written.
func DrawRecordingStatus(frame *gocv.Mat, rec *recording.VideoRecorder, config types.UIConfig) {
	if rec == nil || !rec.Recording() {
		return
	}

	duration := rec.Duration()
	recordingText := fmt.Sprintf("REC %02d:%02d", int(duration.Minutes()), int(duration.Seconds())%60)

	if err := gocv.PutText(frame, recordingText, image.Pt(10, 60), gocv.FontHersheyPlain, config.StatusFontSize, Red, 2); err != nil {
		log.Printf("Error adding recording text: %v", err)
	}
}

// DrawNotes draws the most recent diagnostic notes on the right side of the frame.
func DrawNotes(frame *gocv.Mat, debug *types.DebugLog, config types.UIConfig) {
	if debug == nil || !debug.Enabled() {
		return
	}
	notes := debug.Lines()
	if len(notes) > config.MaxNotes {
		notes = notes[len(notes)-config.MaxNotes:]
	}
	if len(notes) == 0 {
		return
	}

	frameWidth := frame.Cols()
	startY := 100
	lineHeight := 20
	maxWidth := 300
	padding := 10

	height := (len(notes)+1)*lineHeight + padding
	bg := image.Rect(frameWidth-maxWidth-padding, startY-lineHeight, frameWidth-padding, startY-lineHeight+height)
	if err := gocv.Rectangle(frame, bg, Black, -1); err != nil {
		log.Printf("Error drawing notes background: %v", err)
	}

	header := fmt.Sprintf("Notes (%d):", len(notes))
	if err := gocv.PutText(frame, header, image.Pt(frameWidth-maxWidth, startY), gocv.FontHersheyPlain, config.NoteFontSize, Yellow, 1); err != nil {
		log.Printf("Error adding notes header: %v", err)
	}
	for i, note := range notes {
		if len(note) > 40 {
			note = note[:37] + "..."
		}
		y := startY + (i+1)*lineHeight
		if err := gocv.PutText(frame, note, image.Pt(frameWidth-maxWidth, y), gocv.FontHersheyPlain, config.NoteFontSize, White, 1); err != nil {
			log.Printf("Error adding note text: %v", err)
		}
	}
}

// RenderFrame draws every overlay element onto frame.
func RenderFrame(frame *gocv.Mat, d types.Decision, state *types.DriveState, rec *recording.VideoRecorder, debug *types.DebugLog, cam types.CameraConfig, config types.UIConfig) {
	DrawCropLine(frame, cam)
	DrawLane(frame, d, cam)
	DrawStatusMessage(frame, d, state, config)
	DrawRecordingStatus(frame, rec, config)
	DrawNotes(frame, debug, config)
}

// PrintStartupInstructions prints the display window controls.
func PrintStartupInstructions() {
	fmt.Println("Controls:")
	fmt.Println("- Press SPACE to hold (steering stays live, throttle 0)")
	fmt.Println("- Press 'v' to start/stop video recording")
	fmt.Println("- Press 'd' to toggle the diagnostic notes")
	fmt.Println("- Press 'q' or ESC to quit")
}
