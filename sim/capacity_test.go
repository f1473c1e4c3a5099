package sim

import "testing"

// feedFrames drives the controller with count frames of dt seconds each,
// enough to cross the measurement interval.
func feedFrames(s *Sim, count int, dt float64) {
	for i := 0; i < count; i++ {
		s.updateCapacity(dt)
	}
}

func TestCapShrinksBelowFPSFloor(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 10
`)
	s := New(cfg, 1)
	defer s.Close()

	// 5 frames over 2.5s is 2 FPS, far below the floor of 30.
	feedFrames(s, 5, 0.5)

	if s.Cap() != 900 {
		t.Errorf("cap = %d, want 900 after one 10%% shrink from 1000", s.Cap())
	}

	// Step scales with the current cap.
	feedFrames(s, 5, 0.5)
	if s.Cap() != 810 {
		t.Errorf("cap = %d, want 810 after second shrink", s.Cap())
	}
}

func TestCapGrowsAboveFPSCeiling(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 10
`)
	s := New(cfg, 1)
	defer s.Close()

	// 600 frames over 2.4s is 250 FPS, above the ceiling of 240.
	feedFrames(s, 600, 0.004)

	if s.Cap() != 1100 {
		t.Errorf("cap = %d, want 1100 after one 10%% growth from 1000", s.Cap())
	}
}

func TestCapHoldsInsideBand(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 10
`)
	s := New(cfg, 1)
	defer s.Close()

	// 100 FPS sits between floor and ceiling.
	feedFrames(s, 250, 0.01)

	if s.Cap() != 1000 {
		t.Errorf("cap = %d, want 1000 inside the FPS band", s.Cap())
	}
}

func TestCapClampedToBounds(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 10
  min_cap: 100
  max_cap: 1200
`)
	s := New(cfg, 1)
	defer s.Close()

	s.popCap = 105
	feedFrames(s, 5, 0.5)
	if s.Cap() != 100 {
		t.Errorf("cap = %d, want clamp at min_cap 100", s.Cap())
	}

	// Stays at the floor under sustained low FPS.
	feedFrames(s, 5, 0.5)
	if s.Cap() != 100 {
		t.Errorf("cap = %d, want to stay at min_cap", s.Cap())
	}

	s.popCap = 1150
	feedFrames(s, 600, 0.004)
	if s.Cap() != 1200 {
		t.Errorf("cap = %d, want clamp at max_cap 1200", s.Cap())
	}
}

func TestCapMeasurementWindowResets(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 10
`)
	s := New(cfg, 1)
	defer s.Close()

	// Cross the interval once at low FPS, then confirm the next window
	// starts fresh instead of blending with the old frames.
	feedFrames(s, 5, 0.5)
	if s.capFrames != 0 || s.capElapsed != 0 {
		t.Errorf("window not reset: frames=%d elapsed=%v", s.capFrames, s.capElapsed)
	}
}
