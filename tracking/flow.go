package tracking

import (
	"image"
	"sort"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// FlowParams tunes Shi-Tomasi corner detection and the re-detection policy.
type FlowParams struct {
	MaxCorners   int
	QualityLevel float64
	MinDistance  float64
	// MinPoints is the valid-point floor: when fewer points survive the
	// optical-flow status filter, the frame reports a zero delta and corners
	// are re-detected on the next frame.
	MinPoints int
	// UseMedian aggregates per-point displacement by median instead of mean,
	// which rejects stray points that latched onto independent motion.
	UseMedian bool
}

// FlowTracker follows Shi-Tomasi corners across frames with pyramidal
// Lucas-Kanade optical flow and reports the aggregate displacement.
type FlowTracker struct {
	params   FlowParams
	prevGray gocv.Mat
	prevPts  gocv.Mat
	acquired bool
}

// NewFlowTracker creates an optical-flow tracker. The first frame only
// detects corners and yields a zero delta.
func NewFlowTracker(params FlowParams) *FlowTracker {
	return &FlowTracker{
		params:   params,
		prevGray: gocv.NewMat(),
		prevPts:  gocv.NewMat(),
	}
}

// Track implements Tracker.
func (ft *FlowTracker) Track(frame gocv.Mat) (Delta, Report) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)

	if !ft.acquired || ft.prevPts.Empty() {
		ft.detect(gray)
		return Delta{}, Report{
			State:         ft.state(),
			Points:        ft.currentPoints(),
			Reinitialized: true,
		}
	}

	nextPts := gocv.NewMat()
	defer nextPts.Close()
	status := gocv.NewMat()
	defer status.Close()
	flowErr := gocv.NewMat()
	defer flowErr.Close()
	gocv.CalcOpticalFlowPyrLK(ft.prevGray, gray, ft.prevPts, &nextPts, &status, &flowErr)

	dxs := make([]float64, 0, status.Rows())
	dys := make([]float64, 0, status.Rows())
	good := make([]image.Point, 0, status.Rows())
	goodRaw := make([]float32, 0, status.Rows()*2)
	for i := 0; i < status.Rows(); i++ {
		if status.GetUCharAt(i, 0) != 1 {
			continue
		}
		nx := nextPts.GetFloatAt(i, 0)
		ny := nextPts.GetFloatAt(i, 1)
		dxs = append(dxs, float64(nx-ft.prevPts.GetFloatAt(i, 0)))
		dys = append(dys, float64(ny-ft.prevPts.GetFloatAt(i, 1)))
		good = append(good, image.Pt(int(nx), int(ny)))
		goodRaw = append(goodRaw, nx, ny)
	}

	if len(good) < ft.params.MinPoints {
		// Tracking lost: zero delta now, fresh corners next frame.
		ft.dropState()
		return Delta{}, Report{State: StateLost}
	}

	delta := aggregate(dxs, dys, ft.params.UseMedian)

	ft.prevGray.Close()
	ft.prevGray = gray.Clone()
	ft.prevPts.Close()
	ft.prevPts = matFromPoints(goodRaw)

	return delta, Report{State: StateAcquired, Points: good}
}

// Reset implements Tracker.
func (ft *FlowTracker) Reset() {
	ft.dropState()
}

// Close implements Tracker.
func (ft *FlowTracker) Close() {
	ft.prevGray.Close()
	ft.prevPts.Close()
}

// PointCount returns the number of points currently being followed.
func (ft *FlowTracker) PointCount() int {
	if !ft.acquired {
		return 0
	}
	return ft.prevPts.Rows()
}

func (ft *FlowTracker) detect(gray gocv.Mat) {
	ft.prevGray.Close()
	ft.prevGray = gray.Clone()

	corners := gocv.NewMat()
	gocv.GoodFeaturesToTrack(ft.prevGray, &corners, ft.params.MaxCorners,
		ft.params.QualityLevel, ft.params.MinDistance)
	ft.prevPts.Close()
	ft.prevPts = corners
	ft.acquired = !corners.Empty()
}

func (ft *FlowTracker) dropState() {
	ft.acquired = false
	ft.prevGray.Close()
	ft.prevGray = gocv.NewMat()
	ft.prevPts.Close()
	ft.prevPts = gocv.NewMat()
}

func (ft *FlowTracker) state() State {
	if ft.acquired {
		return StateAcquired
	}
	return StateLost
}

func (ft *FlowTracker) currentPoints() []image.Point {
	if !ft.acquired {
		return nil
	}
	pts := make([]image.Point, 0, ft.prevPts.Rows())
	for i := 0; i < ft.prevPts.Rows(); i++ {
		pts = append(pts, image.Pt(
			int(ft.prevPts.GetFloatAt(i, 0)),
			int(ft.prevPts.GetFloatAt(i, 1)),
		))
	}
	return pts
}

// matFromPoints packs interleaved x,y float32 pairs into the Nx1 two-channel
// layout CalcOpticalFlowPyrLK expects for its input point set.
func matFromPoints(raw []float32) gocv.Mat {
	n := len(raw) / 2
	m := gocv.NewMatWithSize(n, 1, gocv.MatTypeCV32FC2)
	for i := 0; i < n; i++ {
		m.SetFloatAt(i, 0, raw[2*i])
		m.SetFloatAt(i, 1, raw[2*i+1])
	}
	return m
}

func aggregate(dxs, dys []float64, useMedian bool) Delta {
	if len(dxs) == 0 {
		return Delta{}
	}
	if useMedian {
		sort.Float64s(dxs)
		sort.Float64s(dys)
		return Delta{
			DX: stat.Quantile(0.5, stat.Empirical, dxs, nil),
			DY: stat.Quantile(0.5, stat.Empirical, dys, nil),
		}
	}
	return Delta{
		DX: stat.Mean(dxs, nil),
		DY: stat.Mean(dys, nil),
	}
}
