package camera

import (
	"fmt"
	"net"
	"time"

	"gocv.io/x/gocv"
)

// Device describes a usable local capture device.
type Device struct {
	Index  int
	Width  int
	Height int
}

// DiscoverLocal probes local device indices [0, maxIndex) and returns the
// ones that open and deliver a frame. DroidCam and similar virtual webcams
// show up here once their client is running.
func DiscoverLocal(maxIndex int) []Device {
	var found []Device
	for i := 0; i < maxIndex; i++ {
		vc, err := gocv.OpenVideoCapture(i)
		if err != nil {
			continue
		}
		frame := gocv.NewMat()
		if vc.Read(&frame) && !frame.Empty() {
			found = append(found, Device{
				Index:  i,
				Width:  frame.Cols(),
				Height: frame.Rows(),
			})
		}
		frame.Close()
		vc.Close()
	}
	return found
}

// DroidCam's default HTTP port.
const droidCamPort = 4747

// ProbeDroidCam checks whether a DroidCam server answers on the host's
// default port and returns the stream URL if so.
func ProbeDroidCam(host string, timeout time.Duration) (string, bool) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", droidCamPort))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", false
	}
	conn.Close()
	return fmt.Sprintf("http://%s/video", addr), true
}
