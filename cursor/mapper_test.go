package cursor

import (
	"math"
	"testing"

	"opticmouse/tracking"
)

func TestMapperScalesBySensitivity(t *testing.T) {
	cases := []struct {
		name        string
		sensitivity float64
		in          tracking.Delta
		want        tracking.Delta
	}{
		{"unity", 1.0, tracking.Delta{DX: 5, DY: -3}, tracking.Delta{DX: 5, DY: -3}},
		{"double", 2.0, tracking.Delta{DX: 5, DY: -3}, tracking.Delta{DX: 10, DY: -6}},
		{"slow", 0.5, tracking.Delta{DX: 4, DY: 4}, tracking.Delta{DX: 2, DY: 2}},
		{"zero delta", 3.0, tracking.Delta{}, tracking.Delta{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewMapper(tc.sensitivity, false).Map(tc.in)
			if got != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestMapperIsLinear(t *testing.T) {
	m := NewMapper(1.7, true)
	d := tracking.Delta{DX: 3.2, DY: -1.4}
	for _, k := range []float64{0, 0.5, 1, 2, -3, 10} {
		scaled := m.Map(d.Scale(k))
		direct := m.Map(d).Scale(k)
		if math.Abs(scaled.DX-direct.DX) > 1e-9 || math.Abs(scaled.DY-direct.DY) > 1e-9 {
			t.Errorf("k=%g: Map(k*d)=%+v != k*Map(d)=%+v", k, scaled, direct)
		}
	}
}

func TestMapperInvertY(t *testing.T) {
	m := NewMapper(1.0, true)
	got := m.Map(tracking.Delta{DX: 2, DY: 7})
	if got.DX != 2 || got.DY != -7 {
		t.Errorf("expected (2,-7), got %+v", got)
	}
}

func TestMapperPerAxisSensitivity(t *testing.T) {
	m := Mapper{SensitivityX: 2.0, SensitivityY: 0.5}
	got := m.Map(tracking.Delta{DX: 4, DY: 4})
	if got.DX != 8 || got.DY != 2 {
		t.Errorf("expected (8,2), got %+v", got)
	}
}
