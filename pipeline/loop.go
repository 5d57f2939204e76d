// Package pipeline runs the per-frame control loop: capture, track, map,
// smooth, actuate, observe. Every stage sits behind a small interface so the
// loop is testable without a camera, a display, or a real pointer.
package pipeline

import (
	"context"
	"fmt"
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"opticmouse/tracking"
)

// Source yields successive camera frames. A false return is a dropped frame.
type Source interface {
	Read(dst *gocv.Mat) bool
}

// Mapper converts a camera-space displacement into a screen-space delta.
type Mapper interface {
	Map(tracking.Delta) tracking.Delta
}

// Actuator applies a screen delta to the pointer and returns the resulting
// position.
type Actuator interface {
	Apply(tracking.Delta) (image.Point, error)
}

// Frame is the per-iteration view handed to observers. Observers must not
// retain Image past the call.
type Frame struct {
	Image    gocv.Mat
	Report   tracking.Report
	Raw      tracking.Delta // camera space
	Mapped   tracking.Delta // screen space, pre-smoothing
	Smoothed tracking.Delta // screen space, applied
	Cursor   image.Point
	Stats    Snapshot
}

// Observer watches iterations for display or recording only; it has no
// feedback into the control path. Returning false stops the loop (window
// closed, exit key).
type Observer interface {
	Observe(f Frame) bool
	Close()
}

// Loop wires the stages together and owns the frame cadence. One iteration
// per camera frame, synchronous throughout; a slow source simply elongates
// the period.
type Loop struct {
	Source   Source
	Tracker  tracking.Tracker
	Mapper   Mapper
	Smoother tracking.Smoother
	Actuator Actuator
	Observer Observer // optional

	// ResetSmootherOnLoss re-initializes the smoother whenever the tracker
	// loses its target, mirroring the tracker policy. Enabled for the
	// Kalman smoother, whose covariance is stale after a gap; the EMA
	// accumulator is kept for process lifetime.
	ResetSmootherOnLoss bool

	// Paused reports whether motion should be suspended (hotkey). Frames
	// are still captured and observed so the windows stay live.
	Paused func() bool

	// MaxConsecutiveDrops aborts the loop when the source stops delivering.
	MaxConsecutiveDrops int

	stats Stats
}

// DefaultMaxConsecutiveDrops gives a network camera a few seconds of
// hiccups before the loop gives up.
const DefaultMaxConsecutiveDrops = 90

// Run drives the loop until the context is cancelled, an observer requests
// a stop, or the source dies.
func (l *Loop) Run(ctx context.Context) error {
	if l.MaxConsecutiveDrops <= 0 {
		l.MaxConsecutiveDrops = DefaultMaxConsecutiveDrops
	}
	frame := gocv.NewMat()
	defer frame.Close()

	wasPaused := false
	drops := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		l.stats.StartFrame()

		if !l.Source.Read(&frame) {
			drops++
			l.stats.Drop()
			if drops >= l.MaxConsecutiveDrops {
				return errors.Errorf("camera stopped delivering frames (%d consecutive drops)", drops)
			}
			continue
		}
		drops = 0

		paused := l.Paused != nil && l.Paused()
		if paused != wasPaused {
			if paused {
				fmt.Println("[LOOP] Paused, pointer released")
			} else {
				// A fresh start on resume avoids a jump from stale state.
				l.Tracker.Reset()
				l.Smoother.Reset()
				fmt.Println("[LOOP] Resumed")
			}
			wasPaused = paused
		}

		var (
			raw, mapped, smoothed tracking.Delta
			report                tracking.Report
			cursor                image.Point
		)

		if paused {
			report.State = tracking.StateLost
		} else {
			raw, report = l.Tracker.Track(frame)
			if report.State == tracking.StateLost && l.ResetSmootherOnLoss {
				l.Smoother.Reset()
			}
			mapped = l.Mapper.Map(raw)
			smoothed = l.Smoother.Smooth(mapped)
			var err error
			cursor, err = l.Actuator.Apply(smoothed)
			if err != nil {
				// Pointer trouble is a per-frame skip, not a shutdown.
				fmt.Printf("[LOOP] Cursor move failed: %v\n", err)
			}
		}

		l.stats.EndFrame()

		if l.Observer != nil {
			ok := l.Observer.Observe(Frame{
				Image:    frame,
				Report:   report,
				Raw:      raw,
				Mapped:   mapped,
				Smoothed: smoothed,
				Cursor:   cursor,
				Stats:    l.stats.Snapshot(),
			})
			if !ok {
				return nil
			}
		}
	}
}

// Stats exposes the rolling performance counters.
func (l *Loop) Stats() Snapshot {
	return l.stats.Snapshot()
}
