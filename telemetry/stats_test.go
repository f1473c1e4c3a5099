package telemetry

import (
	"math"
	"testing"
)

func TestComputeEnergyStatsEmpty(t *testing.T) {
	mean, p10, p50, p90 := ComputeEnergyStats(nil)
	if mean != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Errorf("empty input should yield zeros, got %v %v %v %v", mean, p10, p50, p90)
	}
}

func TestComputeEnergyStats(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	mean, p10, p50, p90 := ComputeEnergyStats(values)

	if math.Abs(mean-55) > 1e-9 {
		t.Errorf("mean = %v, want 55", mean)
	}
	if p10 > p50 || p50 > p90 {
		t.Errorf("percentiles out of order: p10=%v p50=%v p90=%v", p10, p50, p90)
	}
	if p10 < 10 || p90 > 100 {
		t.Errorf("percentiles outside data range: p10=%v p90=%v", p10, p90)
	}
}

func TestComputeEnergyStatsUnsortedInput(t *testing.T) {
	a := []float64{50, 10, 90, 30, 70}
	b := []float64{10, 30, 50, 70, 90}

	am, a10, a50, a90 := ComputeEnergyStats(a)
	bm, b10, b50, b90 := ComputeEnergyStats(b)

	if am != bm || a10 != b10 || a50 != b50 || a90 != b90 {
		t.Error("stats depend on input order")
	}

	// Input must not be mutated.
	if a[0] != 50 {
		t.Error("input slice was sorted in place")
	}
}

func TestHueVariance(t *testing.T) {
	if v := HueVariance(nil); v != 0 {
		t.Errorf("nil input variance = %v, want 0", v)
	}
	if v := HueVariance([]float64{180}); v != 0 {
		t.Errorf("single sample variance = %v, want 0", v)
	}
	if v := HueVariance([]float64{180, 180, 180}); v != 0 {
		t.Errorf("uniform hues variance = %v, want 0", v)
	}
	if v := HueVariance([]float64{0, 90, 180, 270}); v <= 0 {
		t.Errorf("spread hues variance = %v, want > 0", v)
	}
}

func TestCollectorFlushResetsCounters(t *testing.T) {
	c := NewCollector(100)

	c.RecordBirth()
	c.RecordBirth()
	c.RecordDeath()
	c.RecordFeed()
	c.RecordDrop()

	if c.ShouldFlush(50) {
		t.Error("flush signaled before window elapsed")
	}
	if !c.ShouldFlush(100) {
		t.Error("flush not signaled after window elapsed")
	}

	stats := c.Flush(100, 42, 3, 500, []float64{80, 120}, []float64{170, 190}, 250)

	if stats.Births != 2 || stats.Deaths != 1 || stats.Feeds != 1 || stats.DroppedAtCap != 1 {
		t.Errorf("unexpected counters: %+v", stats)
	}
	if stats.Population != 42 || stats.Corpses != 3 || stats.Cap != 500 {
		t.Errorf("unexpected snapshot fields: %+v", stats)
	}
	if stats.WindowStartTick != 0 || stats.WindowEndTick != 100 {
		t.Errorf("unexpected window bounds: %+v", stats)
	}
	if stats.EnergyMean != 100 {
		t.Errorf("energy mean = %v, want 100", stats.EnergyMean)
	}
	if stats.BestFitness != 250 {
		t.Errorf("best fitness = %v, want 250", stats.BestFitness)
	}

	// Second window starts clean.
	next := c.Flush(200, 0, 0, 500, nil, nil, 250)
	if next.Births != 0 || next.Deaths != 0 || next.Feeds != 0 || next.DroppedAtCap != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.WindowStartTick != 100 {
		t.Errorf("window start = %v, want 100", next.WindowStartTick)
	}
}

func TestPerfCollectorWindow(t *testing.T) {
	p := NewPerfCollector(4)

	for i := 0; i < 6; i++ {
		p.StartTick()
		p.StartPhase(PhaseSpatialGrid)
		p.StartPhase(PhaseBehavior)
		p.EndTick()
	}

	stats := p.Stats()
	if stats.AvgTickDuration < 0 {
		t.Errorf("negative avg tick duration: %v", stats.AvgTickDuration)
	}
	if stats.MaxTickDuration < stats.MinTickDuration {
		t.Errorf("max %v < min %v", stats.MaxTickDuration, stats.MinTickDuration)
	}
}

func TestPerfCollectorFPS(t *testing.T) {
	p := NewPerfCollector(4)

	stats := p.Stats()
	if stats.FPS != 0 {
		t.Errorf("fps before any frame = %v, want 0", stats.FPS)
	}

	p.RecordFrame()
	p.RecordFrame()

	stats = p.Stats()
	if stats.FPS <= 0 {
		t.Errorf("fps after two frames = %v, want > 0", stats.FPS)
	}
}
