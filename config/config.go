package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Tracking method selectors.
const (
	MethodOpticalFlow   = "optical_flow"
	MethodColorTracking = "color_tracking"
)

// Smoother selectors.
const (
	SmootherEMA    = "ema"
	SmootherKalman = "kalman"
)

// CameraConfig selects and configures the frame source. Source is either a
// local device index ("0", "1") or a network stream URL
// (http://192.168.1.5:4747/video for DroidCam, rtsp://... for IP cameras).
type CameraConfig struct {
	Source string `yaml:"source"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	FPS    int    `yaml:"fps"`
}

// TrackingConfig holds the method selection and the two loop-wide tuning
// scalars. Sensitivity multiplies camera-pixel displacement into screen
// pixels; SmoothingFactor is the EMA alpha in (0,1].
type TrackingConfig struct {
	Method          string  `yaml:"method"`
	Sensitivity     float64 `yaml:"sensitivity"`
	SmoothingFactor float64 `yaml:"smoothing_factor"`
	Smoother        string  `yaml:"smoother"`
}

// OpticalFlowConfig tunes Shi-Tomasi corner detection and the Lucas-Kanade
// point budget. MinPoints is the valid-point count below which corners are
// re-detected instead of failing.
type OpticalFlowConfig struct {
	MaxCorners   int     `yaml:"max_corners"`
	QualityLevel float64 `yaml:"quality_level"`
	MinDistance  float64 `yaml:"min_distance"`
	MinPoints    int     `yaml:"min_points"`
	UseMedian    bool    `yaml:"use_median"`
}

// ColorTrackingConfig holds the HSV threshold range and the minimum contour
// area (in pixels) for a blob to count as the tracked object.
type ColorTrackingConfig struct {
	LowerHSV [3]float64 `yaml:"lower_hsv"`
	UpperHSV [3]float64 `yaml:"upper_hsv"`
	MinArea  float64    `yaml:"min_area"`
}

// CursorConfig controls how screen deltas are applied to the pointer.
// InvertY flips the vertical axis: camera Y grows downward while a surface
// pushed away from the user should move the cursor up.
type CursorConfig struct {
	InvertY           bool    `yaml:"invert_y"`
	BoundaryMargin    int     `yaml:"boundary_margin"`
	MovementThreshold float64 `yaml:"movement_threshold"`
}

// DisplayConfig controls the two debug windows.
type DisplayConfig struct {
	ShowCamera   bool `yaml:"show_camera"`
	ShowDesktop  bool `yaml:"show_desktop"`
	WindowWidth  int  `yaml:"window_width"`
	WindowHeight int  `yaml:"window_height"`
	FPSDisplay   bool `yaml:"fps_display"`
}

// RecordingConfig controls the optional side-by-side demo recording.
type RecordingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	OutputDir   string `yaml:"output_dir"`
	FPS         int    `yaml:"fps"`
	TrailLength int    `yaml:"trail_length"`
}

// Config is the whole process configuration. It is immutable once loaded.
type Config struct {
	Camera        CameraConfig        `yaml:"camera"`
	Tracking      TrackingConfig      `yaml:"tracking"`
	OpticalFlow   OpticalFlowConfig   `yaml:"optical_flow"`
	ColorTracking ColorTrackingConfig `yaml:"color_tracking"`
	Cursor        CursorConfig        `yaml:"cursor"`
	Display       DisplayConfig       `yaml:"display"`
	Recording     RecordingConfig     `yaml:"recording"`
}

// Default returns the built-in configuration: local webcam 0 at 640x480,
// optical flow with EMA smoothing, green color range for color mode.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			Source: "0",
			Width:  640,
			Height: 480,
			FPS:    30,
		},
		Tracking: TrackingConfig{
			Method:          MethodOpticalFlow,
			Sensitivity:     1.0,
			SmoothingFactor: 0.3,
			Smoother:        SmootherEMA,
		},
		OpticalFlow: OpticalFlowConfig{
			MaxCorners:   100,
			QualityLevel: 0.3,
			MinDistance:  7,
			MinPoints:    10,
		},
		ColorTracking: ColorTrackingConfig{
			LowerHSV: [3]float64{35, 50, 50},
			UpperHSV: [3]float64{85, 255, 255},
			MinArea:  100,
		},
		Cursor: CursorConfig{
			InvertY:           false,
			BoundaryMargin:    50,
			MovementThreshold: 0.5,
		},
		Display: DisplayConfig{
			ShowCamera:   true,
			ShowDesktop:  true,
			WindowWidth:  800,
			WindowHeight: 600,
			FPSDisplay:   true,
		},
		Recording: RecordingConfig{
			Enabled:     false,
			OutputDir:   "recordings",
			FPS:         20,
			TrailLength: 100,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error: the defaults are returned so the tool works out of the box. Any
// value that parses but fails validation is fatal.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, cfg.Validate()
			}
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects out-of-range values instead of clamping them.
func (c *Config) Validate() error {
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return errors.Errorf("camera dimensions must be positive, got %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		return errors.Errorf("camera fps must be positive, got %d", c.Camera.FPS)
	}
	switch c.Tracking.Method {
	case MethodOpticalFlow, MethodColorTracking:
	default:
		return errors.Errorf("unknown tracking method %q (want %q or %q)",
			c.Tracking.Method, MethodOpticalFlow, MethodColorTracking)
	}
	switch c.Tracking.Smoother {
	case SmootherEMA, SmootherKalman:
	default:
		return errors.Errorf("unknown smoother %q (want %q or %q)",
			c.Tracking.Smoother, SmootherEMA, SmootherKalman)
	}
	if c.Tracking.Sensitivity <= 0 {
		return errors.Errorf("sensitivity must be positive, got %g", c.Tracking.Sensitivity)
	}
	if c.Tracking.SmoothingFactor <= 0 || c.Tracking.SmoothingFactor > 1 {
		return errors.Errorf("smoothing_factor must be in (0,1], got %g", c.Tracking.SmoothingFactor)
	}
	if c.OpticalFlow.MaxCorners <= 0 {
		return errors.Errorf("max_corners must be positive, got %d", c.OpticalFlow.MaxCorners)
	}
	if c.OpticalFlow.QualityLevel <= 0 || c.OpticalFlow.QualityLevel > 1 {
		return errors.Errorf("quality_level must be in (0,1], got %g", c.OpticalFlow.QualityLevel)
	}
	if c.OpticalFlow.MinPoints <= 0 || c.OpticalFlow.MinPoints > c.OpticalFlow.MaxCorners {
		return errors.Errorf("min_points must be in [1,max_corners], got %d", c.OpticalFlow.MinPoints)
	}
	for i := 0; i < 3; i++ {
		if c.ColorTracking.LowerHSV[i] > c.ColorTracking.UpperHSV[i] {
			return errors.Errorf("lower_hsv[%d]=%g exceeds upper_hsv[%d]=%g",
				i, c.ColorTracking.LowerHSV[i], i, c.ColorTracking.UpperHSV[i])
		}
	}
	if c.Cursor.BoundaryMargin < 0 {
		return errors.Errorf("boundary_margin must be non-negative, got %d", c.Cursor.BoundaryMargin)
	}
	if c.Cursor.MovementThreshold < 0 {
		return errors.Errorf("movement_threshold must be non-negative, got %g", c.Cursor.MovementThreshold)
	}
	if c.Recording.Enabled && c.Recording.FPS <= 0 {
		return errors.Errorf("recording fps must be positive, got %d", c.Recording.FPS)
	}
	return nil
}
