package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// CameraConfig describes the frame geometry and calibration source.
type CameraConfig struct {
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	CropTop         int    `json:"crop_top"`
	CalibrationFile string `json:"calibration_file"`
}

// PreprocessConfig holds the per-channel weights of the contrast combination.
type PreprocessConfig struct {
	WeightB float64 `json:"weight_b"`
	WeightG float64 `json:"weight_g"`
	WeightR float64 `json:"weight_r"`
}

// SegmentConfig controls background removal and thresholding.
type SegmentConfig struct {
	BlurSigma    float64 `json:"blur_sigma"`
	ThresholdStd float64 `json:"threshold_std"`
}

// SelectConfig holds the lane region rejection limits.
type SelectConfig struct {
	MinArea   int `json:"min_area"`
	MinBottom int `json:"min_bottom"`
	MinHeight int `json:"min_height"`
}

// PerspectiveConfig maps undistorted pixels to vehicle centimeters, one axis at a time.
type PerspectiveConfig struct {
	XScale  float64 `json:"x_scale"`
	XOffset float64 `json:"x_offset"`
	YScale  float64 `json:"y_scale"`
	YOffset float64 `json:"y_offset"`
}

// FitConfig controls the centerline fitter.
type FitConfig struct {
	DiscardCount int               `json:"discard_count"`
	Perspective  PerspectiveConfig `json:"perspective"`
}

// VehicleConfig holds the fixed vehicle geometry, centimeters and degrees.
type VehicleConfig struct {
	Wheelbase   float64 `json:"wheelbase"`
	Lookahead   float64 `json:"lookahead"`
	MaxSteerDeg float64 `json:"max_steer_deg"`
}

// ControlConfig holds the throttle policy and solver tolerance.
type ControlConfig struct {
	NominalThrottle  float64 `json:"nominal_throttle"`
	FallbackThrottle float64 `json:"fallback_throttle"`
	ImagTolerance    float64 `json:"imag_tolerance"`
}

// SnapshotConfig controls diagnostic frame persistence.
type SnapshotConfig struct {
	Enabled  bool   `json:"enabled"`
	Dir      string `json:"dir"`
	Interval string `json:"interval"` // duration string like "500ms"
}

// SerialConfig describes the radio link to the vehicle controller.
type SerialConfig struct {
	Port        string  `json:"port"`
	BaudRate    int     `json:"baud_rate"`
	DataBits    int     `json:"data_bits"`
	StopBits    int     `json:"stop_bits"`
	Parity      string  `json:"parity"`
	SteerGain   float64 `json:"steer_gain"`
	SteerOffset float64 `json:"steer_offset"`
}

// VideoConfig holds video recording configuration
type VideoConfig struct {
	FPS    float64  `json:"fps"`
	Codecs []string `json:"codecs"`
}

// UIConfig holds overlay rendering constants
type UIConfig struct {
	StatusFontSize float64 `json:"status_font_size"`
	NoteFontSize   float64 `json:"note_font_size"`
	MaxNotes       int     `json:"max_notes"`
}

// Config aggregates all configuration sections.
type Config struct {
	LogLevel   string           `json:"log_level"`
	DecisionDB string           `json:"decision_db"`
	Camera     CameraConfig     `json:"camera"`
	Preprocess PreprocessConfig `json:"preprocess"`
	Segment    SegmentConfig    `json:"segment"`
	Select     SelectConfig     `json:"select"`
	Fit        FitConfig        `json:"fit"`
	Vehicle    VehicleConfig    `json:"vehicle"`
	Control    ControlConfig    `json:"control"`
	Snapshot   SnapshotConfig   `json:"snapshot"`
	Serial     SerialConfig     `json:"serial"`
	Video      VideoConfig      `json:"video"`
	UI         UIConfig         `json:"ui"`
}

// DefaultCameraConfig returns the geometry of the 640x480 front camera.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{Width: 640, Height: 480, CropTop: 240}
}

// DefaultPreprocessConfig emphasises blue tape: 2B - G - R.
func DefaultPreprocessConfig() PreprocessConfig {
	return PreprocessConfig{WeightB: 2, WeightG: -1, WeightR: -1}
}

// DefaultSegmentConfig returns the default segmentation configuration
func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{BlurSigma: 20, ThresholdStd: 1}
}

// DefaultSelectConfig returns the default lane filter
func DefaultSelectConfig() SelectConfig {
	return SelectConfig{MinArea: 1000, MinBottom: 220, MinHeight: 80}
}

// DefaultFitConfig returns the fitter defaults. The perspective constants come from
// a 63 point calibration of the mounted camera (mse 0.7).
func DefaultFitConfig() FitConfig {
	return FitConfig{
		DiscardCount: 30,
		Perspective: PerspectiveConfig{
			XScale:  0.0602202317441,
			XOffset: -20.3249788445,
			YScale:  -0.143366520425,
			YOffset: 102.226102561,
		},
	}
}

// DefaultVehicleConfig returns the RC car geometry.
func DefaultVehicleConfig() VehicleConfig {
	return VehicleConfig{Wheelbase: 15.8, Lookahead: 40, MaxSteerDeg: 30}
}

// DefaultControlConfig returns the default throttle policy
func DefaultControlConfig() ControlConfig {
	return ControlConfig{NominalThrottle: 1.0, FallbackThrottle: 0.3, ImagTolerance: 1e-5}
}

// DefaultSnapshotConfig returns the default snapshot configuration
func DefaultSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{Enabled: true, Dir: "img", Interval: "500ms"}
}

// DefaultSerialConfig leaves the port unset; the steering map was measured on the servo.
func DefaultSerialConfig() SerialConfig {
	return SerialConfig{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "N", SteerGain: 0.0479, SteerOffset: 0.2734}
}

// DefaultVideoConfig returns the default video configuration
func DefaultVideoConfig() VideoConfig {
	return VideoConfig{
		FPS:    30.0,
		Codecs: []string{"H264", "avc1", "x264", "mp4v"},
	}
}

// DefaultUIConfig returns the default UI configuration
func DefaultUIConfig() UIConfig {
	return UIConfig{StatusFontSize: 1.5, NoteFontSize: 0.9, MaxNotes: 8}
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:   "info",
		Camera:     DefaultCameraConfig(),
		Preprocess: DefaultPreprocessConfig(),
		Segment:    DefaultSegmentConfig(),
		Select:     DefaultSelectConfig(),
		Fit:        DefaultFitConfig(),
		Vehicle:    DefaultVehicleConfig(),
		Control:    DefaultControlConfig(),
		Snapshot:   DefaultSnapshotConfig(),
		Serial:     DefaultSerialConfig(),
		Video:      DefaultVideoConfig(),
		UI:         DefaultUIConfig(),
	}
}

// LoadConfig reads a JSON config over the defaults. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with and fills harmless gaps.
func (c *Config) Validate() error {
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera size %dx%d must be positive", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.CropTop < 0 || c.Camera.CropTop >= c.Camera.Height {
		return fmt.Errorf("crop_top %d outside frame height %d", c.Camera.CropTop, c.Camera.Height)
	}
	if c.Segment.BlurSigma <= 0 {
		return fmt.Errorf("blur_sigma must be positive, got %v", c.Segment.BlurSigma)
	}
	if c.Fit.DiscardCount < 0 {
		return fmt.Errorf("discard_count must not be negative, got %d", c.Fit.DiscardCount)
	}
	if c.Vehicle.Lookahead <= 0 || c.Vehicle.Wheelbase <= 0 {
		return fmt.Errorf("lookahead and wheelbase must be positive")
	}
	if c.Vehicle.MaxSteerDeg <= 0 || c.Vehicle.MaxSteerDeg >= 90 {
		return fmt.Errorf("max_steer_deg %v must be in (0, 90)", c.Vehicle.MaxSteerDeg)
	}
	if c.Control.ImagTolerance <= 0 {
		c.Control.ImagTolerance = DefaultControlConfig().ImagTolerance
	}
	for name, v := range map[string]float64{
		"nominal_throttle":  c.Control.NominalThrottle,
		"fallback_throttle": c.Control.FallbackThrottle,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s %v must be in [0, 1]", name, v)
		}
	}
	if _, err := c.SnapshotInterval(); err != nil {
		return err
	}
	if c.UI.MaxNotes <= 0 {
		c.UI.MaxNotes = DefaultUIConfig().MaxNotes
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	return nil
}

// SnapshotInterval parses the snapshot rate limit, defaulting to 500ms when unset.
func (c *Config) SnapshotInterval() (time.Duration, error) {
	if c.Snapshot.Interval == "" {
		return 500 * time.Millisecond, nil
	}
	d, err := time.ParseDuration(c.Snapshot.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid snapshot interval %q: %w", c.Snapshot.Interval, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("snapshot interval %v must not be negative", d)
	}
	return d, nil
}
