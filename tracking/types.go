package tracking

import (
	"image"

	"gocv.io/x/gocv"
)

// State represents the current mode of the tracking system
type State int

const (
	// StateAcquired means a point set (or color blob) is being followed.
	StateAcquired State = iota
	// StateLost means the last frame produced no usable measurement and the
	// next frame will re-initialize.
	StateLost
)

func (s State) String() string {
	if s == StateAcquired {
		return "ACQUIRED"
	}
	return "LOST"
}

// Delta is a 2D displacement in pixels. In camera space it is the aggregate
// frame-to-frame motion of the tracked surface; after mapping it is a screen
// pixel delta.
type Delta struct {
	DX float64
	DY float64
}

// Zero reports whether the delta carries no motion.
func (d Delta) Zero() bool {
	return d.DX == 0 && d.DY == 0
}

// Scale multiplies both axes by k.
func (d Delta) Scale(k float64) Delta {
	return Delta{DX: d.DX * k, DY: d.DY * k}
}

// Report carries per-frame tracking details for the visualization layer.
// It has no feedback into the control path.
type Report struct {
	State         State
	Points        []image.Point // valid optical-flow points, camera space
	Centroid      image.Point   // color-blob centroid, valid when HasCentroid
	HasCentroid   bool
	Reinitialized bool // corners were (re)detected this frame
}

// Tracker produces a camera-space displacement from successive frames.
// The first frame after construction or Reset always yields a zero delta.
type Tracker interface {
	// Track consumes the current BGR frame. The frame is only read.
	Track(frame gocv.Mat) (Delta, Report)
	// Reset drops all tracking state; the next frame re-initializes.
	Reset()
	// Close releases any Mats held between frames.
	Close()
}

// Smoother filters the raw displacement stream to reduce jitter. Implementations
// are deterministic given their parameters and the input sequence.
type Smoother interface {
	Smooth(raw Delta) Delta
	Reset()
}
