package overlay

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Recorder writes a side-by-side demo video: the annotated camera feed on
// the left and a cursor-trail canvas on the right. Useful for capturing a
// shareable clip of the tracking behavior without screen-recording tooling.
type Recorder struct {
	writer  *gocv.VideoWriter
	canvas  gocv.Mat
	trail   []image.Point
	maxLen  int
	width   int
	height  int
	screenW int
	screenH int
	path    string
}

// NewRecorder opens an MJPG writer under dir with a session-unique filename.
// width/height is the per-pane size; screenW/screenH scale cursor positions
// onto the canvas.
func NewRecorder(dir string, fps float64, width, height, screenW, screenH, trailLen int) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create recording dir %s", dir)
	}
	session := uuid.New().String()[:8]
	path := filepath.Join(dir, fmt.Sprintf("opticmouse_%s.avi", session))

	writer, err := gocv.VideoWriterFile(path, "MJPG", fps, width*2, height, true)
	if err != nil {
		return nil, errors.Wrapf(err, "open video writer %s", path)
	}

	fmt.Printf("[RECORDER] Writing session %s to %s\n", session, path)
	return &Recorder{
		writer:  writer,
		canvas:  gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3),
		maxLen:  trailLen,
		width:   width,
		height:  height,
		screenW: screenW,
		screenH: screenH,
		path:    path,
	}, nil
}

// Path returns the output file location.
func (r *Recorder) Path() string {
	return r.path
}

// Write appends one demo frame built from the annotated camera image and the
// current cursor position.
func (r *Recorder) Write(camera gocv.Mat, cursor image.Point) error {
	left := gocv.NewMat()
	defer left.Close()
	gocv.Resize(camera, &left, image.Pt(r.width, r.height), 0, 0, gocv.InterpolationLinear)

	r.drawCursorCanvas(cursor)
	right := r.canvas.Clone()
	defer right.Close()

	labelPane(&left, "Camera Feed + Tracking", colorTracked)
	labelPane(&right, "Cursor Movement", colorTrail)
	// REC marker
	gocv.Circle(&left, image.Pt(r.width-30, 25), 8, colorCursor, -1)

	combined := gocv.NewMat()
	defer combined.Close()
	gocv.Hconcat(left, right, &combined)

	if err := r.writer.Write(combined); err != nil {
		return errors.Wrap(err, "write demo frame")
	}
	return nil
}

// Close finalizes the video file.
func (r *Recorder) Close() {
	r.writer.Close()
	r.canvas.Close()
	fmt.Printf("[RECORDER] Saved %s\n", r.path)
}

func (r *Recorder) drawCursorCanvas(cursor image.Point) {
	// Scale the screen position onto the canvas.
	p := image.Pt(
		cursor.X*r.width/max(r.screenW, 1),
		cursor.Y*r.height/max(r.screenH, 1),
	)
	r.trail = append(r.trail, p)
	if len(r.trail) > r.maxLen {
		r.trail = r.trail[1:]
	}

	// Slight fade keeps old strokes visible as a comet tail.
	r.canvas.MultiplyFloat(0.95)

	for i := 1; i < len(r.trail); i++ {
		intensity := uint8(255 * i / len(r.trail))
		c := color.RGBA{R: 255 - intensity, G: intensity, B: 255}
		gocv.Line(&r.canvas, r.trail[i-1], r.trail[i], c, 2)
	}
	gocv.Circle(&r.canvas, p, 8, colorTrail, -1)
	gocv.Circle(&r.canvas, p, 12, color.RGBA{R: 255, G: 255, B: 255}, 2)
}

func labelPane(pane *gocv.Mat, text string, c color.RGBA) {
	gocv.Rectangle(pane, image.Rect(5, 5, 320, 40), color.RGBA{}, -1)
	gocv.PutText(pane, text, image.Pt(10, 30), gocv.FontHersheySimplex, 0.6, c, 2)
}
