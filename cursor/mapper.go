// Package cursor maps camera-space displacement onto the OS pointer.
package cursor

import (
	"opticmouse/tracking"
)

// Mapper converts a camera-pixel displacement into a screen-pixel delta.
// Sensitivity is a per-axis scalar multiplier fixed for the run. InvertY
// flips the vertical axis: camera rows grow downward, so without inversion
// pushing the tracked surface "up" in the image moves the cursor down. The
// default keeps camera and screen conventions aligned (both top-left origin)
// and inversion is an explicit configuration choice.
type Mapper struct {
	SensitivityX float64
	SensitivityY float64
	InvertY      bool
}

// NewMapper builds a mapper with identical sensitivity on both axes.
func NewMapper(sensitivity float64, invertY bool) Mapper {
	return Mapper{
		SensitivityX: sensitivity,
		SensitivityY: sensitivity,
		InvertY:      invertY,
	}
}

// Map applies sensitivity scaling and optional axis inversion. It is linear:
// Map(k*d) == k*Map(d).
func (m Mapper) Map(d tracking.Delta) tracking.Delta {
	out := tracking.Delta{
		DX: d.DX * m.SensitivityX,
		DY: d.DY * m.SensitivityY,
	}
	if m.InvertY {
		out.DY = -out.DY
	}
	return out
}
