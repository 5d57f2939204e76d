package tracking

import (
	"image"

	"gocv.io/x/gocv"
)

// ColorParams holds the HSV threshold range and the minimum contour area for
// a blob to count as the tracked object.
type ColorParams struct {
	LowerHSV [3]float64
	UpperHSV [3]float64
	MinArea  float64
}

// ColorTracker isolates a colored object by HSV thresholding and uses the
// frame-to-frame centroid delta of the largest blob as the displacement.
type ColorTracker struct {
	params       ColorParams
	kernel       gocv.Mat
	prevCentroid image.Point
	hasPrev      bool
}

// NewColorTracker creates a color-blob tracker.
func NewColorTracker(params ColorParams) *ColorTracker {
	return &ColorTracker{
		params: params,
		kernel: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(5, 5)),
	}
}

// Track implements Tracker. An empty mask yields a zero delta and resets the
// centroid so a reappearing object does not produce a jump.
func (ct *ColorTracker) Track(frame gocv.Mat) (Delta, Report) {
	centroid, ok := ct.locate(frame)
	if !ok {
		ct.hasPrev = false
		return Delta{}, Report{State: StateLost}
	}

	var delta Delta
	if ct.hasPrev {
		delta = Delta{
			DX: float64(centroid.X - ct.prevCentroid.X),
			DY: float64(centroid.Y - ct.prevCentroid.Y),
		}
	}
	ct.prevCentroid = centroid
	ct.hasPrev = true

	return delta, Report{
		State:       StateAcquired,
		Centroid:    centroid,
		HasCentroid: true,
	}
}

// Reset implements Tracker.
func (ct *ColorTracker) Reset() {
	ct.hasPrev = false
}

// Close implements Tracker.
func (ct *ColorTracker) Close() {
	ct.kernel.Close()
}

// locate thresholds the frame in HSV space and returns the centroid of the
// largest contour above the area floor.
func (ct *ColorTracker) locate(frame gocv.Mat) (image.Point, bool) {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()
	lower := gocv.NewScalar(ct.params.LowerHSV[0], ct.params.LowerHSV[1], ct.params.LowerHSV[2], 0)
	upper := gocv.NewScalar(ct.params.UpperHSV[0], ct.params.UpperHSV[1], ct.params.UpperHSV[2], 0)
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)

	gocv.MorphologyEx(mask, &mask, gocv.MorphOpen, ct.kernel)
	gocv.MorphologyEx(mask, &mask, gocv.MorphClose, ct.kernel)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	bestArea := 0.0
	bestIdx := -1
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > bestArea {
			bestArea = area
			bestIdx = i
		}
	}
	if bestIdx < 0 || bestArea < ct.params.MinArea {
		return image.Point{}, false
	}

	m := gocv.Moments(mask, true)
	if m["m00"] == 0 {
		return image.Point{}, false
	}
	// Centroid of the cleaned mask; with a single dominant blob this matches
	// the largest-contour centroid without re-rasterizing the contour.
	return image.Pt(int(m["m10"]/m["m00"]), int(m["m01"]/m["m00"])), true
}
