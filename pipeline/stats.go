package pipeline

import (
	"time"
)

// statsWindow is the number of recent frames FPS and latency are averaged
// over, matching a one-second window at the target frame rate.
const statsWindow = 30

// Stats keeps rolling frame-rate and latency figures. Diagnostic only; the
// control path never reads it.
type Stats struct {
	frameTimes []time.Time
	latencies  []float64 // milliseconds
	frameStart time.Time
	frames     int64
	dropped    int64
}

// Snapshot is an immutable copy of the current figures.
type Snapshot struct {
	FPS       float64
	LatencyMS float64
	Frames    int64
	Dropped   int64
}

// StartFrame marks the beginning of a loop iteration.
func (s *Stats) StartFrame() {
	s.frameStart = time.Now()
}

// EndFrame records the iteration and returns its latency in milliseconds.
func (s *Stats) EndFrame() float64 {
	now := time.Now()
	latency := float64(now.Sub(s.frameStart).Microseconds()) / 1000.0

	s.frameTimes = append(s.frameTimes, now)
	if len(s.frameTimes) > statsWindow {
		s.frameTimes = s.frameTimes[1:]
	}
	s.latencies = append(s.latencies, latency)
	if len(s.latencies) > statsWindow {
		s.latencies = s.latencies[1:]
	}
	s.frames++
	return latency
}

// Drop records a dropped frame.
func (s *Stats) Drop() {
	s.dropped++
}

// FPS returns the frame rate over the rolling window.
func (s *Stats) FPS() float64 {
	if len(s.frameTimes) < 2 {
		return 0
	}
	span := s.frameTimes[len(s.frameTimes)-1].Sub(s.frameTimes[0]).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(len(s.frameTimes)-1) / span
}

// AvgLatency returns the mean per-frame processing time in milliseconds.
func (s *Stats) AvgLatency() float64 {
	if len(s.latencies) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range s.latencies {
		sum += l
	}
	return sum / float64(len(s.latencies))
}

// Snapshot copies the current figures.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		FPS:       s.FPS(),
		LatencyMS: s.AvgLatency(),
		Frames:    s.frames,
		Dropped:   s.dropped,
	}
}
