package tracking

import (
	kalman_filter "github.com/LdDl/kalman-filter"
)

// KalmanParams parameterizes the constant-velocity filter. Dt is the
// expected frame period in frame units (1.0 when the loop runs at the camera
// cadence). Defaults follow DefaultKalmanParams.
type KalmanParams struct {
	Dt       float64
	StdDevA  float64 // process noise magnitude (acceleration)
	StdDevMx float64 // measurement noise, x
	StdDevMy float64 // measurement noise, y
}

// DefaultKalmanParams returns a conservative parameterization: unit frame
// step, moderate process noise, low measurement noise so the filter trusts
// the tracker and lags only slightly.
func DefaultKalmanParams() KalmanParams {
	return KalmanParams{
		Dt:       1.0,
		StdDevA:  2.0,
		StdDevMx: 0.1,
		StdDevMy: 0.1,
	}
}

// KalmanSmoother is a drop-in alternative to EMASmoother backed by a
// constant-velocity 2D Kalman filter. Raw deltas are integrated into a
// virtual surface position, the filter tracks that position, and the output
// is the filtered position step per frame.
type KalmanSmoother struct {
	x, y   float64 // integrated raw position (measurement)
	px, py float64 // last filtered position
	filter *kalman_filter.Kalman2D
	cfg    KalmanParams
	primed bool
}

// NewKalmanSmoother creates a Kalman smoother with the given parameters.
func NewKalmanSmoother(cfg KalmanParams) *KalmanSmoother {
	return &KalmanSmoother{cfg: cfg}
}

// Smooth implements Smoother.
func (s *KalmanSmoother) Smooth(raw Delta) Delta {
	s.x += raw.DX
	s.y += raw.DY

	if !s.primed {
		// First measurement seeds the state; no motion is emitted until the
		// filter has a previous estimate to difference against.
		s.filter = kalman_filter.NewKalman2D(
			s.cfg.Dt, 1.0, 1.0,
			s.cfg.StdDevA, s.cfg.StdDevMx, s.cfg.StdDevMy,
			kalman_filter.WithState2D(s.x, s.y),
		)
		s.px, s.py = s.x, s.y
		s.primed = true
		return Delta{}
	}

	s.filter.Predict()
	if err := s.filter.Update(s.x, s.y); err != nil {
		// A degenerate covariance should not take the cursor down with it;
		// start over and pass the raw delta through.
		s.Reset()
		return raw
	}
	nx, ny := s.filter.GetState()
	out := Delta{DX: nx - s.px, DY: ny - s.py}
	s.px, s.py = nx, ny
	return out
}

// Reset implements Smoother. Mirrors the tracker re-initialization policy:
// covariance and state are discarded entirely.
func (s *KalmanSmoother) Reset() {
	s.filter = nil
	s.x, s.y = 0, 0
	s.px, s.py = 0, 0
	s.primed = false
}
