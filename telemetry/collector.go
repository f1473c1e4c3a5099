package telemetry

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowTicks int64

	windowStartTick int64

	// Event counters for current window
	births       int
	deaths       int
	feeds        int
	droppedAtCap int
}

// NewCollector creates a stats collector flushing every windowTicks ticks.
func NewCollector(windowTicks int64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: windowTicks}
}

// RecordBirth records a successful spawn.
func (c *Collector) RecordBirth() {
	c.births++
}

// RecordDeath records an agent running out of energy.
func (c *Collector) RecordDeath() {
	c.deaths++
}

// RecordFeed records a corpse-feeding event.
func (c *Collector) RecordFeed() {
	c.feeds++
}

// RecordDrop records a spawn discarded because the population was at cap.
func (c *Collector) RecordDrop() {
	c.droppedAtCap++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// energies and hues are sampled from live agents at window end.
func (c *Collector) Flush(currentTick int64, population, corpses, popCap int, energies, hues []float64, bestFitness float64) WindowStats {
	mean, p10, p50, p90 := ComputeEnergyStats(energies)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		Population:      population,
		Corpses:         corpses,
		Cap:             popCap,
		Births:          c.births,
		Deaths:          c.deaths,
		Feeds:           c.feeds,
		DroppedAtCap:    c.droppedAtCap,
		EnergyMean:      mean,
		EnergyP10:       p10,
		EnergyP50:       p50,
		EnergyP90:       p90,
		HueVariance:     HueVariance(hues),
		BestFitness:     bestFitness,
	}

	c.windowStartTick = currentTick
	c.births = 0
	c.deaths = 0
	c.feeds = 0
	c.droppedAtCap = 0

	return stats
}
