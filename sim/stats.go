package sim

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/zeachco/cells-ai/components"
	"github.com/zeachco/cells-ai/telemetry"
)

// fitnessChildWeight is the fitness credit per child produced.
const fitnessChildWeight = 100.0

// fitness scores an agent: lifetime banked energy plus a fixed credit per
// child.
func fitness(energy *components.Energy, cell *components.Cell) float32 {
	return energy.Accumulated + float32(cell.Children)*fitnessChildWeight
}

// updateStats recomputes diversity, tracks the best-fitness agent, and
// flushes the telemetry window when due.
func (s *Sim) updateStats() {
	var energies []float64
	flushDue := s.collector.ShouldFlush(s.tick)
	if flushDue {
		energies = make([]float64, 0, s.aliveCount)
	}

	hues := make([]float64, 0, s.aliveCount)

	var bestEntity ecs.Entity
	var bestFit float32
	haveLive := false

	query := s.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		_, _, _, energy, genome, life, cell := query.Get()

		if !life.State.Alive() {
			continue
		}

		hues = append(hues, float64(genome.Hue))
		if flushDue {
			energies = append(energies, float64(energy.Value))
		}

		f := fitness(energy, cell)
		if !haveLive || f > bestFit {
			haveLive = true
			bestFit = f
			bestEntity = entity
		}
	}

	s.diversity = telemetry.HueVariance(hues)
	s.bestEntity = bestEntity

	// Preserve the genome snapshot whenever the live best beats the
	// stored record, so a later extinction can reseed from it.
	if haveLive && (!s.hasBest || bestFit > s.best.Fitness) {
		genome := s.genomeMap.Get(bestEntity)
		cell := s.cellMap.Get(bestEntity)
		if genome != nil && cell != nil {
			if brain, ok := s.brains[cell.ID]; ok {
				s.best = BestGenome{
					Genome:       *genome,
					Weights:      brain.MarshalWeights(),
					Fitness:      bestFit,
					CapturedTick: s.tick,
				}
				s.hasBest = true
			}
		}
	}

	if flushDue {
		stats := s.collector.Flush(
			s.tick,
			s.aliveCount,
			s.corpseCount,
			s.popCap,
			energies,
			hues,
			float64(s.best.Fitness),
		)
		slog.Info("window", "stats", stats)

		if s.output != nil {
			if err := s.output.WriteTelemetry(stats); err != nil {
				slog.Warn("telemetry write failed", "error", err)
			}
			if err := s.output.WritePerf(s.perf.Stats().ToCSV(s.tick)); err != nil {
				slog.Warn("perf write failed", "error", err)
			}
		}
	}
}
