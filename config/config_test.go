package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if cfg.Tracking.Method != MethodOpticalFlow {
		t.Errorf("expected default method %q, got %q", MethodOpticalFlow, cfg.Tracking.Method)
	}
	if cfg.Tracking.SmoothingFactor != 0.3 {
		t.Errorf("expected default smoothing factor 0.3, got %g", cfg.Tracking.SmoothingFactor)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.Camera.Source != "0" {
		t.Errorf("expected default camera source, got %q", cfg.Camera.Source)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
tracking:
  method: color_tracking
  sensitivity: 2.5
  smoothing_factor: 1.0
camera:
  source: "http://192.168.1.5:4747/video"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tracking.Method != MethodColorTracking {
		t.Errorf("expected color_tracking, got %q", cfg.Tracking.Method)
	}
	if cfg.Tracking.Sensitivity != 2.5 {
		t.Errorf("expected sensitivity 2.5, got %g", cfg.Tracking.Sensitivity)
	}
	if cfg.Camera.Source != "http://192.168.1.5:4747/video" {
		t.Errorf("expected URL source, got %q", cfg.Camera.Source)
	}
	// Untouched sections keep their defaults.
	if cfg.OpticalFlow.MaxCorners != 100 {
		t.Errorf("expected default max_corners 100, got %d", cfg.OpticalFlow.MaxCorners)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "zero smoothing factor",
			mutate: func(c *Config) { c.Tracking.SmoothingFactor = 0 },
			want:   "smoothing_factor",
		},
		{
			name:   "smoothing factor above one",
			mutate: func(c *Config) { c.Tracking.SmoothingFactor = 1.5 },
			want:   "smoothing_factor",
		},
		{
			name:   "negative sensitivity",
			mutate: func(c *Config) { c.Tracking.Sensitivity = -1 },
			want:   "sensitivity",
		},
		{
			name:   "unknown method",
			mutate: func(c *Config) { c.Tracking.Method = "telepathy" },
			want:   "tracking method",
		},
		{
			name:   "unknown smoother",
			mutate: func(c *Config) { c.Tracking.Smoother = "butterworth" },
			want:   "smoother",
		},
		{
			name:   "inverted hsv range",
			mutate: func(c *Config) { c.ColorTracking.LowerHSV[0] = 200 },
			want:   "lower_hsv",
		},
		{
			name:   "min points above max corners",
			mutate: func(c *Config) { c.OpticalFlow.MinPoints = 1000 },
			want:   "min_points",
		},
		{
			name:   "negative margin",
			mutate: func(c *Config) { c.Cursor.BoundaryMargin = -5 },
			want:   "boundary_margin",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("tracking:\n  smoothing_factor: 2.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for out-of-range smoothing factor")
	}
}
