package tracking

// EMASmoother applies an exponential moving average to the raw displacement
// stream: state = alpha*raw + (1-alpha)*state. Alpha must be in (0,1];
// alpha=1 is a pass-through. The state is owned by the smoother and reset
// only via Reset.
type EMASmoother struct {
	alpha float64
	state Delta
}

// NewEMASmoother creates an EMA smoother with the given alpha. The caller is
// expected to have validated alpha; see config.Validate.
func NewEMASmoother(alpha float64) *EMASmoother {
	return &EMASmoother{alpha: alpha}
}

// Smooth implements Smoother.
func (s *EMASmoother) Smooth(raw Delta) Delta {
	s.state.DX = s.alpha*raw.DX + (1-s.alpha)*s.state.DX
	s.state.DY = s.alpha*raw.DY + (1-s.alpha)*s.state.DY
	return s.state
}

// Reset implements Smoother.
func (s *EMASmoother) Reset() {
	s.state = Delta{}
}
