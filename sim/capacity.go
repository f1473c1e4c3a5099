package sim

import "log/slog"

// updateCapacity runs the frame-rate feedback controller. Every configured
// wall-clock interval it compares measured FPS against the floor and
// ceiling: too slow shrinks the population cap, plenty of headroom grows
// it. The cap never leaves [MinCap, MaxCap].
func (s *Sim) updateCapacity(dt float64) {
	s.capElapsed += dt
	s.capFrames++

	if s.capElapsed < s.cfg.Capacity.IntervalSec {
		return
	}

	fps := float64(s.capFrames) / s.capElapsed
	s.capFrames = 0
	s.capElapsed = 0

	step := int(float64(s.popCap) * s.cfg.Capacity.Step)
	if step < 1 {
		step = 1
	}

	oldCap := s.popCap
	switch {
	case fps < s.cfg.Capacity.FPSFloor:
		s.popCap -= step
	case fps > s.cfg.Capacity.FPSCeiling:
		s.popCap += step
	}

	if s.popCap < s.cfg.Population.MinCap {
		s.popCap = s.cfg.Population.MinCap
	}
	if s.popCap > s.cfg.Population.MaxCap {
		s.popCap = s.cfg.Population.MaxCap
	}

	if s.popCap != oldCap {
		slog.Debug("population cap adjusted",
			"fps", int(fps),
			"old_cap", oldCap,
			"new_cap", s.popCap,
		)
	}
}
