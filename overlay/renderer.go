// Package overlay renders the two debug windows: the camera feed with
// tracking overlays and the desktop view with a cursor highlight. It attaches
// to the frame loop as an observer and never feeds back into the control path.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"opticmouse/pipeline"
	"opticmouse/tracking"
)

const (
	cameraWindowTitle  = "Camera Feed - Optic Mouse"
	desktopWindowTitle = "Desktop View - Optic Mouse"
	// maxTrail bounds the centroid trail drawn in color mode.
	maxTrail = 20
)

var (
	colorTracked  = color.RGBA{G: 255}
	colorCentroid = color.RGBA{R: 255, B: 255}
	colorTrail    = color.RGBA{G: 255, B: 255}
	colorCursor   = color.RGBA{R: 255}
	colorText     = color.RGBA{G: 255}
)

// Options selects which windows to show.
type Options struct {
	ShowCamera   bool
	ShowDesktop  bool
	WindowWidth  int
	WindowHeight int
	FPSDisplay   bool
}

// Renderer implements pipeline.Observer.
type Renderer struct {
	opts       Options
	cameraWin  *gocv.Window
	desktopWin *gocv.Window
	desktop    *DesktopCapture
	recorder   *Recorder
	trail      []image.Point
}

// NewRenderer creates the configured windows. Desktop capture trouble
// degrades to camera-only display instead of failing the run.
func NewRenderer(opts Options) *Renderer {
	r := &Renderer{opts: opts}
	if opts.ShowCamera {
		r.cameraWin = gocv.NewWindow(cameraWindowTitle)
		r.cameraWin.ResizeWindow(opts.WindowWidth, opts.WindowHeight)
	}
	if opts.ShowDesktop {
		desktop, err := NewDesktopCapture()
		if err != nil {
			fmt.Printf("[OVERLAY] Desktop capture unavailable: %v\n", err)
		} else {
			r.desktop = desktop
			r.desktopWin = gocv.NewWindow(desktopWindowTitle)
			r.desktopWin.ResizeWindow(opts.WindowWidth, opts.WindowHeight)
		}
	}
	return r
}

// SetRecorder attaches an optional demo recorder fed from the same frames.
func (r *Renderer) SetRecorder(rec *Recorder) {
	r.recorder = rec
}

// Observe implements pipeline.Observer. Returns false when the user presses
// ESC or q in a window.
func (r *Renderer) Observe(f pipeline.Frame) bool {
	display := f.Image.Clone()
	defer display.Close()
	r.drawTracking(&display, f.Report)
	if r.opts.FPSDisplay {
		r.drawMetrics(&display, f)
	}

	if r.recorder != nil {
		if err := r.recorder.Write(display, f.Cursor); err != nil {
			fmt.Printf("[OVERLAY] Recorder write failed: %v\n", err)
		}
	}

	if r.cameraWin != nil {
		r.cameraWin.IMShow(display)
	}
	if r.desktopWin != nil {
		r.showDesktop(f.Cursor)
	}

	return r.pollKeys()
}

// Close implements pipeline.Observer.
func (r *Renderer) Close() {
	if r.cameraWin != nil {
		r.cameraWin.Close()
	}
	if r.desktopWin != nil {
		r.desktopWin.Close()
	}
	if r.recorder != nil {
		r.recorder.Close()
	}
}

func (r *Renderer) drawTracking(display *gocv.Mat, report tracking.Report) {
	for _, p := range report.Points {
		gocv.Circle(display, p, 4, colorTracked, -1)
	}

	if report.HasCentroid {
		c := report.Centroid
		gocv.Circle(display, c, 10, colorCentroid, -1)
		gocv.Circle(display, c, 20, colorCentroid, 2)
		gocv.Line(display, image.Pt(c.X-15, c.Y), image.Pt(c.X+15, c.Y), colorCentroid, 2)
		gocv.Line(display, image.Pt(c.X, c.Y-15), image.Pt(c.X, c.Y+15), colorCentroid, 2)

		r.trail = append(r.trail, c)
		if len(r.trail) > maxTrail {
			r.trail = r.trail[1:]
		}
		for i := 1; i < len(r.trail); i++ {
			gocv.Line(display, r.trail[i-1], r.trail[i], colorTrail, 2)
		}
	} else if report.State == tracking.StateLost {
		r.trail = r.trail[:0]
	}
}

func (r *Renderer) drawMetrics(display *gocv.Mat, f pipeline.Frame) {
	text := fmt.Sprintf("FPS: %.1f  Latency: %.1fms  Points: %d  %s",
		f.Stats.FPS, f.Stats.LatencyMS, len(f.Report.Points), f.Report.State)
	gocv.PutText(display, text, image.Pt(10, 25),
		gocv.FontHersheySimplex, 0.6, colorText, 2)
	if f.Stats.Dropped > 0 {
		gocv.PutText(display, fmt.Sprintf("Dropped: %d", f.Stats.Dropped),
			image.Pt(10, 50), gocv.FontHersheySimplex, 0.6, colorCursor, 2)
	}
}

func (r *Renderer) showDesktop(cur image.Point) {
	shot, err := r.desktop.Grab()
	if err != nil {
		fmt.Printf("[OVERLAY] Desktop grab failed: %v\n", err)
		return
	}
	defer shot.Close()

	// Highlight the cursor before scaling down so the crosshair lands on
	// the true position.
	gocv.Line(&shot, image.Pt(cur.X-20, cur.Y), image.Pt(cur.X+20, cur.Y), colorCursor, 2)
	gocv.Line(&shot, image.Pt(cur.X, cur.Y-20), image.Pt(cur.X, cur.Y+20), colorCursor, 2)
	gocv.Circle(&shot, cur, 12, colorCursor, 2)

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(shot, &scaled, image.Pt(r.opts.WindowWidth, r.opts.WindowHeight), 0, 0, gocv.InterpolationLinear)
	r.desktopWin.IMShow(scaled)
}

func (r *Renderer) pollKeys() bool {
	win := r.cameraWin
	if win == nil {
		win = r.desktopWin
	}
	if win == nil {
		return true // headless: nothing to poll
	}
	switch win.WaitKey(1) {
	case 27, 'q': // ESC
		return false
	}
	return true
}
