package pipeline

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"gocv.io/x/gocv"

	"opticmouse/cursor"
	"opticmouse/tracking"
)

// scriptSource replays a fixed frame sequence, then reports drops.
type scriptSource struct {
	frames []gocv.Mat
	next   int
}

func (s *scriptSource) Read(dst *gocv.Mat) bool {
	if s.next >= len(s.frames) {
		return false
	}
	s.frames[s.next].CopyTo(dst)
	s.next++
	return true
}

func (s *scriptSource) Close() {
	for i := range s.frames {
		s.frames[i].Close()
	}
}

// scriptTracker emits a scripted delta sequence.
type scriptTracker struct {
	deltas []tracking.Delta
	states []tracking.State
	next   int
	resets int
}

func (t *scriptTracker) Track(gocv.Mat) (tracking.Delta, tracking.Report) {
	if t.next >= len(t.deltas) {
		return tracking.Delta{}, tracking.Report{State: tracking.StateLost}
	}
	d := t.deltas[t.next]
	st := tracking.StateAcquired
	if t.states != nil {
		st = t.states[t.next]
	}
	t.next++
	return d, tracking.Report{State: st}
}

func (t *scriptTracker) Reset() { t.resets++ }
func (t *scriptTracker) Close() {}

// recordActuator accumulates applied deltas from a fixed origin.
type recordActuator struct {
	x, y    float64
	applied []tracking.Delta
}

func (a *recordActuator) Apply(d tracking.Delta) (image.Point, error) {
	a.x += d.DX
	a.y += d.DY
	a.applied = append(a.applied, d)
	return image.Pt(int(math.Round(a.x)), int(math.Round(a.y))), nil
}

// stopObserver ends the loop after a fixed number of frames.
type stopObserver struct {
	seen  []Frame
	limit int
}

func (o *stopObserver) Observe(f Frame) bool {
	f.Image = gocv.Mat{} // frames are not retained
	o.seen = append(o.seen, f)
	return len(o.seen) < o.limit
}

func (o *stopObserver) Close() {}

// resetCounter wraps a smoother and counts resets.
type resetCounter struct {
	inner  tracking.Smoother
	resets int
}

func (r *resetCounter) Smooth(d tracking.Delta) tracking.Delta { return r.inner.Smooth(d) }
func (r *resetCounter) Reset()                                 { r.resets++; r.inner.Reset() }

func blankFrames(n int) []gocv.Mat {
	frames := make([]gocv.Mat, n)
	for i := range frames {
		frames[i] = gocv.NewMatWithSize(24, 32, gocv.MatTypeCV8UC3)
	}
	return frames
}

func TestLoopAppliesMappedSmoothedDeltas(t *testing.T) {
	src := &scriptSource{frames: blankFrames(3)}
	defer src.Close()

	tracker := &scriptTracker{deltas: []tracking.Delta{{DX: 1, DY: 1}, {DX: 2, DY: 0}, {DX: 0, DY: 3}}}
	act := &recordActuator{}
	obs := &stopObserver{limit: 3}

	loop := &Loop{
		Source:   src,
		Tracker:  tracker,
		Mapper:   cursor.NewMapper(2.0, false), // doubles every delta
		Smoother: tracking.NewEMASmoother(1.0), // pass-through
		Actuator: act,
		Observer: obs,
	}
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []tracking.Delta{{DX: 2, DY: 2}, {DX: 4, DY: 0}, {DX: 0, DY: 6}}
	if len(act.applied) != len(want) {
		t.Fatalf("expected %d applied deltas, got %d", len(want), len(act.applied))
	}
	for i := range want {
		if act.applied[i] != want[i] {
			t.Errorf("frame %d: expected %+v, got %+v", i, want[i], act.applied[i])
		}
	}
}

func TestLoopStopsWhenSourceDies(t *testing.T) {
	src := &scriptSource{frames: blankFrames(2)}
	defer src.Close()

	loop := &Loop{
		Source:              src,
		Tracker:             &scriptTracker{deltas: []tracking.Delta{{}, {}}},
		Mapper:              cursor.NewMapper(1.0, false),
		Smoother:            tracking.NewEMASmoother(1.0),
		Actuator:            &recordActuator{},
		MaxConsecutiveDrops: 3,
	}
	if err := loop.Run(context.Background()); err == nil {
		t.Fatal("expected error when source stops delivering")
	}
}

func TestLoopHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &scriptSource{frames: blankFrames(1)}
	defer src.Close()

	loop := &Loop{
		Source:   src,
		Tracker:  &scriptTracker{},
		Mapper:   cursor.NewMapper(1.0, false),
		Smoother: tracking.NewEMASmoother(1.0),
		Actuator: &recordActuator{},
	}
	if err := loop.Run(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoopResetsKalmanSmootherOnTrackingLoss(t *testing.T) {
	src := &scriptSource{frames: blankFrames(3)}
	defer src.Close()

	tracker := &scriptTracker{
		deltas: []tracking.Delta{{DX: 5}, {}, {DX: 5}},
		states: []tracking.State{tracking.StateAcquired, tracking.StateLost, tracking.StateAcquired},
	}
	counter := &resetCounter{inner: tracking.NewEMASmoother(1.0)}
	obs := &stopObserver{limit: 3}

	loop := &Loop{
		Source:              src,
		Tracker:             tracker,
		Mapper:              cursor.NewMapper(1.0, false),
		Smoother:            counter,
		Actuator:            &recordActuator{},
		Observer:            obs,
		ResetSmootherOnLoss: true,
	}
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if counter.resets != 1 {
		t.Errorf("expected exactly one smoother reset on loss, got %d", counter.resets)
	}
}

func TestLoopPauseSuspendsMotionAndResetsOnResume(t *testing.T) {
	src := &scriptSource{frames: blankFrames(4)}
	defer src.Close()

	tracker := &scriptTracker{deltas: []tracking.Delta{{DX: 5}, {DX: 5}, {DX: 5}, {DX: 5}}}
	act := &recordActuator{}
	obs := &stopObserver{limit: 4}

	frameNo := 0
	loop := &Loop{
		Source:   src,
		Tracker:  tracker,
		Mapper:   cursor.NewMapper(1.0, false),
		Smoother: tracking.NewEMASmoother(1.0),
		Actuator: act,
		Observer: obs,
		Paused: func() bool {
			frameNo++
			return frameNo == 2 || frameNo == 3
		},
	}
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(act.applied) != 2 {
		t.Fatalf("expected 2 applied deltas around the pause, got %d", len(act.applied))
	}
	if tracker.resets != 1 {
		t.Errorf("expected tracker reset on resume, got %d resets", tracker.resets)
	}
}

// textured draws a corner-rich pattern shifted by dx for the end-to-end check.
func textured(dx int) gocv.Mat {
	img := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
	img.SetTo(gocv.NewScalar(20, 20, 20, 0))
	for y := 40; y < 200; y += 40 {
		for x := 40; x < 280; x += 40 {
			r := image.Rect(x+dx, y, x+dx+14, y+14)
			gocv.Rectangle(&img, r, color.RGBA{255, 255, 255, 0}, -1)
		}
	}
	return img
}

func TestLoopEndToEndUniformShiftMovesCursor(t *testing.T) {
	src := &scriptSource{frames: []gocv.Mat{textured(0), textured(5)}}
	defer src.Close()

	tracker := tracking.NewFlowTracker(tracking.FlowParams{
		MaxCorners:   100,
		QualityLevel: 0.01,
		MinDistance:  5,
		MinPoints:    5,
	})
	defer tracker.Close()

	act := &recordActuator{}
	obs := &stopObserver{limit: 2}

	loop := &Loop{
		Source:   src,
		Tracker:  tracker,
		Mapper:   cursor.NewMapper(1.0, false),
		Smoother: tracking.NewEMASmoother(1.0),
		Actuator: act,
		Observer: obs,
	}
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !act.applied[0].Zero() {
		t.Errorf("first frame should not move the cursor, got %+v", act.applied[0])
	}
	if math.Abs(act.x-5) > 1.0 {
		t.Errorf("expected net cursor motion near +5px, got %g", act.x)
	}
	if math.Abs(act.y) > 1.0 {
		t.Errorf("expected no vertical motion, got %g", act.y)
	}
}
