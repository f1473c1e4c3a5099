package sim

import (
	"github.com/zeachco/cells-ai/components"
	"github.com/zeachco/cells-ai/systems"
)

// updateFeeding lets live agents eat overlapping corpses. Each agent takes
// at most one bite per tick: up to its genome chunk size is extracted from
// the corpse and scaled by the species multiplier on intake. Immature
// agents still drain the corpse but spend the gain on growth.
func (s *Sim) updateFeeding() {
	maxRadius := float32(s.cfg.Genome.RadiusMax)
	fullSizeAge := s.cfg.Derived.FullSizeAge32
	matureAge := s.cfg.Derived.MatureAge32

	query := s.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, _, energy, genome, life, _ := query.Get()

		if !life.State.Alive() {
			continue
		}

		radius := systems.CurrentRadius(genome.Radius, life.Age, fullSizeAge)
		reach := radius + maxRadius

		s.feedScratch = s.grid.QueryRadiusInto(s.feedScratch[:0], pos.X, pos.Y, reach, entity, s.posMap)

		// Closest overlapping corpse wins, independent of grid walk order.
		var target *components.Energy
		var bestDistSq float32
		for _, nb := range s.feedScratch {
			nLife := s.lifeMap.Get(nb.E)
			if nLife == nil || nLife.State != components.StateCorpse {
				continue
			}
			nEnergy := s.energyMap.Get(nb.E)
			nGenome := s.genomeMap.Get(nb.E)
			if nEnergy == nil || nGenome == nil || nEnergy.Value <= 0 {
				continue
			}

			corpseRadius := systems.CurrentRadius(nGenome.Radius, nLife.Age, fullSizeAge)
			contact := radius + corpseRadius
			if nb.DistSq > contact*contact {
				continue
			}

			if target == nil || nb.DistSq < bestDistSq {
				target = nEnergy
				bestDistSq = nb.DistSq
			}
		}

		if target == nil {
			continue
		}

		extracted := genome.ChunkSize
		if extracted > target.Value {
			extracted = target.Value
		}
		target.Value -= extracted

		gain := extracted * genome.SpeciesMult
		systems.GainEnergy(energy, gain, genome.Mass, life.Age, matureAge)

		s.collector.RecordFeed()
	}
}
