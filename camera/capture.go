// Package camera wraps video capture from local webcams and network streams.
package camera

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Capture owns a gocv video capture device. Source is either a local device
// index ("0") or a stream URL (DroidCam HTTP, RTSP).
type Capture struct {
	source  string
	capture *gocv.VideoCapture
	width   int
	height  int
	dropped int64
}

// Open connects to the source and applies the requested frame geometry and
// rate. Failure to open is fatal for the caller: there is nothing to track
// without frames.
func Open(source string, width, height, fps int) (*Capture, error) {
	var (
		vc  *gocv.VideoCapture
		err error
	)
	if idx, convErr := strconv.Atoi(source); convErr == nil {
		vc, err = gocv.OpenVideoCapture(idx)
	} else {
		vc, err = gocv.OpenVideoCapture(source)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open camera source %q", source)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, errors.Errorf("camera source %q did not open", source)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	vc.Set(gocv.VideoCaptureFPS, float64(fps))

	c := &Capture{
		source:  source,
		capture: vc,
		// The device reports what it actually honored, which may differ
		// from the request.
		width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
	}
	fmt.Printf("[CAMERA] Opened %q at %dx%d (requested %dx%d @ %dfps)\n",
		source, c.width, c.height, width, height, fps)
	return c, nil
}

// Read grabs the next frame into dst. A false return is a dropped frame:
// the caller should skip the iteration and try again rather than abort.
func (c *Capture) Read(dst *gocv.Mat) bool {
	if ok := c.capture.Read(dst); !ok || dst.Empty() {
		c.dropped++
		return false
	}
	return true
}

// ReadRetry reads with a bounded number of immediate retries for transient
// stream hiccups (common with network cameras).
func (c *Capture) ReadRetry(dst *gocv.Mat, retries int) bool {
	for attempt := 0; attempt <= retries; attempt++ {
		if c.Read(dst) {
			return true
		}
	}
	return false
}

// Dimensions returns the actual frame size the device delivers.
func (c *Capture) Dimensions() (int, int) {
	return c.width, c.height
}

// Dropped returns the number of failed reads so far.
func (c *Capture) Dropped() int64 {
	return c.dropped
}

// Source returns the configured source identifier.
func (c *Capture) Source() string {
	return c.source
}

// Close releases the device.
func (c *Capture) Close() error {
	return c.capture.Close()
}
