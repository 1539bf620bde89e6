package sim

import "math"

// resampleDrift picks a new heading drift target in [-8, +8] degrees
// and restarts the ease.
func (s *Simulator) resampleDrift() {
	s.drift.targetDeg = s.targetDist.Rand()
	s.drift.progress = 0
}

// easeInOutCubic maps ease progress t in [0,1] onto the drift strength.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// wrap360 normalizes a heading to [0, 360).
func wrap360(deg float64) float64 {
	x := math.Mod(deg, 360)
	if x < 0 {
		x += 360
	}
	return x
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
