package cursor

import (
	"image"
	"math"

	"github.com/go-vgo/robotgo"
	"github.com/pkg/errors"

	"opticmouse/tracking"
)

// Actuator applies screen-pixel deltas to the absolute OS pointer position.
// Each Apply reads the live pointer position (so manual mouse use stays in
// sync), adds the delta plus any sub-pixel residue from previous frames,
// clamps to the screen bounds minus the boundary margin, and issues one move
// call. It is driven once per frame by the loop, which rate-limits OS input
// naturally.
type Actuator struct {
	screenW, screenH int
	margin           int
	threshold        float64

	// residue accumulates the fractional part that the integer pointer
	// position cannot represent, so slow drags do not stall.
	residX, residY float64

	position func() (int, int)
	move     func(x, y int) error
}

// NewActuator creates an actuator bound to the real pointer via robotgo.
// margin keeps the cursor that many pixels away from the screen edge;
// threshold suppresses moves when both axes are below it.
func NewActuator(margin int, threshold float64) *Actuator {
	w, h := robotgo.GetScreenSize()
	return &Actuator{
		screenW:   w,
		screenH:   h,
		margin:    margin,
		threshold: threshold,
		position:  robotgo.Location,
		move: func(x, y int) error {
			robotgo.Move(x, y)
			return nil
		},
	}
}

// newTestActuator wires fake position/move functions; used by tests.
func newTestActuator(w, h, margin int, threshold float64,
	position func() (int, int), move func(x, y int) error) *Actuator {
	return &Actuator{
		screenW:   w,
		screenH:   h,
		margin:    margin,
		threshold: threshold,
		position:  position,
		move:      move,
	}
}

// Apply moves the pointer by the given screen delta and returns the clamped
// position it targeted. A move failure is returned for the caller to log;
// the actuator itself stays usable.
func (a *Actuator) Apply(d tracking.Delta) (image.Point, error) {
	curX, curY := a.position()

	if math.Abs(d.DX) < a.threshold && math.Abs(d.DY) < a.threshold {
		// Sub-threshold jitter: hold position, drop any residue so it does
		// not creep the cursor while the surface is at rest.
		a.residX, a.residY = 0, 0
		return image.Pt(curX, curY), nil
	}

	targetX := float64(curX) + d.DX + a.residX
	targetY := float64(curY) + d.DY + a.residY

	clampedX := clamp(targetX, a.margin, a.screenW-1-a.margin)
	clampedY := clamp(targetY, a.margin, a.screenH-1-a.margin)

	newX := int(math.Round(clampedX))
	newY := int(math.Round(clampedY))
	a.residX = clampedX - float64(newX)
	a.residY = clampedY - float64(newY)

	if err := a.move(newX, newY); err != nil {
		return image.Pt(curX, curY), errors.Wrap(err, "move cursor")
	}
	return image.Pt(newX, newY), nil
}

// Position returns the live pointer position.
func (a *Actuator) Position() image.Point {
	x, y := a.position()
	return image.Pt(x, y)
}

// ScreenSize returns the screen dimensions the actuator clamps against.
func (a *Actuator) ScreenSize() (int, int) {
	return a.screenW, a.screenH
}

// Center moves the pointer to the middle of the screen.
func (a *Actuator) Center() error {
	return a.move(a.screenW/2, a.screenH/2)
}

func clamp(v float64, lo, hi int) float64 {
	if v < float64(lo) {
		return float64(lo)
	}
	if v > float64(hi) {
		return float64(hi)
	}
	return v
}
