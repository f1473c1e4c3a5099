package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a tick window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`

	// Population at window end
	Population int `csv:"population"`
	Corpses    int `csv:"corpses"`
	Cap        int `csv:"cap"`

	// Events during window
	Births       int `csv:"births"`
	Deaths       int `csv:"deaths"`
	Feeds        int `csv:"feeds"`
	DroppedAtCap int `csv:"dropped_at_cap"`

	// Energy distribution (sampled at window end)
	EnergyMean float64 `csv:"energy_mean"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Genetic diversity: variance of genome hue across live agents
	HueVariance float64 `csv:"hue_variance"`

	// Best genome tracking
	BestFitness float64 `csv:"best_fitness"`
}

// ComputeEnergyStats calculates mean and percentiles from energy values.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return mean, p10, p50, p90
}

// HueVariance computes the variance of genome hues. Returns 0 for fewer
// than two samples.
func HueVariance(hues []float64) float64 {
	if len(hues) < 2 {
		return 0
	}
	return stat.Variance(hues, nil)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Int("population", s.Population),
		slog.Int("corpses", s.Corpses),
		slog.Int("cap", s.Cap),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("feeds", s.Feeds),
		slog.Int("dropped_at_cap", s.DroppedAtCap),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("hue_variance", s.HueVariance),
		slog.Float64("best_fitness", s.BestFitness),
	)
}
