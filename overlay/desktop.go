package overlay

import (
	"image"

	"github.com/kbinani/screenshot"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DesktopCapture grabs the primary display for the desktop debug window.
// It is presentation only: the control path never reads the screen.
type DesktopCapture struct {
	bounds image.Rectangle
}

// NewDesktopCapture binds to the primary display.
func NewDesktopCapture() (*DesktopCapture, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, errors.New("no active displays for desktop capture")
	}
	return &DesktopCapture{bounds: screenshot.GetDisplayBounds(0)}, nil
}

// Bounds returns the captured display rectangle in screen coordinates.
func (d *DesktopCapture) Bounds() image.Rectangle {
	return d.bounds
}

// Grab captures the display into a BGR Mat. The caller owns the Mat.
func (d *DesktopCapture) Grab() (gocv.Mat, error) {
	img, err := screenshot.CaptureRect(d.bounds)
	if err != nil {
		return gocv.Mat{}, errors.Wrap(err, "capture desktop")
	}
	rgba, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return gocv.Mat{}, errors.Wrap(err, "convert desktop image")
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}
