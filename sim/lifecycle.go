package sim

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/zeachco/cells-ai/components"
	"github.com/zeachco/cells-ai/neural"
)

// childOffset is the spawn distance of a child from its parent.
const childOffset = 15.0

// Energy split on reproduction: the child takes two thirds of the parent's
// reserve, the parent keeps the rest.
const childEnergyShare = 2.0 / 3.0

// uniform samples from [min, max).
func (s *Sim) uniform(min, max float64) float32 {
	return float32(min + s.rng.Float64()*(max-min))
}

// randomGenome samples a fresh genome from the configured spawn ranges.
func (s *Sim) randomGenome() components.Genome {
	g := s.cfg.Genome
	return components.Genome{
		Hue:         float32(g.InitialHue),
		Radius:      s.uniform(g.RadiusMin, g.RadiusMax),
		Speed:       s.uniform(g.SpeedMin, g.SpeedMax),
		TurnRate:    s.uniform(g.TurnRateMin, g.TurnRateMax),
		ChunkSize:   s.uniform(g.ChunkMin, g.ChunkMax),
		SpeciesMult: s.uniform(g.SpeciesMultMin, g.SpeciesMultMax),
		Mass:        s.uniform(g.MassMin, g.MassMax),
	}
}

// mutateTrait applies the configured multiplicative variance and clamps the
// result back into the trait's spawn range.
func (s *Sim) mutateTrait(value float32, min, max float64) float32 {
	variance := s.uniform(-s.cfg.Genome.TraitVariance, s.cfg.Genome.TraitVariance)
	return clampf(value*(1+variance), float32(min), float32(max))
}

// mutateGenome derives a child genome from a parent. Every trait shifts by
// the configured variance within its spawn range; hue wraps mod 360 so
// lineages can drift all the way around the color wheel.
func (s *Sim) mutateGenome(parent components.Genome) components.Genome {
	g := s.cfg.Genome
	hueVariance := s.uniform(-g.TraitVariance, g.TraitVariance)
	return components.Genome{
		Hue:         wrapHue(parent.Hue + parent.Hue*hueVariance),
		Radius:      s.mutateTrait(parent.Radius, g.RadiusMin, g.RadiusMax),
		Speed:       s.mutateTrait(parent.Speed, g.SpeedMin, g.SpeedMax),
		TurnRate:    s.mutateTrait(parent.TurnRate, g.TurnRateMin, g.TurnRateMax),
		ChunkSize:   s.mutateTrait(parent.ChunkSize, g.ChunkMin, g.ChunkMax),
		SpeciesMult: s.mutateTrait(parent.SpeciesMult, g.SpeciesMultMin, g.SpeciesMultMax),
		Mass:        s.mutateTrait(parent.Mass, g.MassMin, g.MassMax),
	}
}

// spawnInitialPopulation creates the starting agents with random genomes
// and fresh brains.
func (s *Sim) spawnInitialPopulation() {
	count := s.cfg.Population.Initial
	if count > s.popCap {
		count = s.popCap
	}
	for i := 0; i < count; i++ {
		s.spawnAgent(s.randomGenome(), neural.NewBrain(s.rng))
	}
}

// spawnAgent creates an agent at a random position with the given genome
// and brain. The brain is owned by the agent from this point on.
func (s *Sim) spawnAgent(genome components.Genome, brain *neural.Brain) ecs.Entity {
	x := s.rng.Float32() * s.worldW
	y := s.rng.Float32() * s.worldH
	heading := s.rng.Float32() * 2 * math.Pi
	return s.spawnAgentAt(x, y, heading, float32(s.cfg.Energy.Initial), genome, brain)
}

// spawnAgentAt creates an agent at an explicit position.
func (s *Sim) spawnAgentAt(x, y, heading, energy float32, genome components.Genome, brain *neural.Brain) ecs.Entity {
	id := s.nextID
	s.nextID++

	pos := components.Position{X: x, Y: y}
	vel := components.Velocity{
		X:       fastCos(heading) * genome.Speed * s.uniform(0.5, 1),
		Y:       fastSin(heading) * genome.Speed * s.uniform(0.5, 1),
		Angular: s.uniform(-0.05, 0.05),
	}
	rot := components.Rotation{Heading: heading}
	en := components.Energy{Value: energy}
	life := components.Lifecycle{State: components.StateGrowing}
	cell := components.Cell{ID: id}

	s.brains[id] = brain

	entity := s.agentMapper.NewEntity(&pos, &vel, &rot, &en, &genome, &life, &cell)
	s.aliveCount++

	return entity
}

// applyBirths walks the reproduction intents collected during the parallel
// phase and spawns children, in snapshot order so randomness is consumed
// deterministically. Spawns beyond the population cap are dropped, not
// queued.
func (s *Sim) applyBirths() {
	threshold := s.cfg.Derived.ReproThreshold32

	for i := range s.parallel.snapshots {
		if !s.parallel.intents[i].WantsChild {
			continue
		}
		snap := &s.parallel.snapshots[i]

		// Re-check against live state: feeding and the corpse transition
		// may have changed energy since the parallel phase.
		energy := s.energyMap.Get(snap.Entity)
		life := s.lifeMap.Get(snap.Entity)
		if energy == nil || life == nil || !life.State.Alive() {
			continue
		}
		if energy.Value <= threshold {
			continue
		}

		if s.aliveCount >= s.popCap {
			s.collector.RecordDrop()
			continue
		}

		parentGenome := s.genomeMap.Get(snap.Entity)
		parentCell := s.cellMap.Get(snap.Entity)
		parentPos := s.posMap.Get(snap.Entity)
		parentBrain, ok := s.brains[snap.ID]
		if parentGenome == nil || parentCell == nil || parentPos == nil || !ok {
			continue
		}

		childEnergy := energy.Value * childEnergyShare
		energy.Value -= childEnergy

		childGenome := s.mutateGenome(*parentGenome)
		childBrain := parentBrain.Clone()
		rate := s.uniform(s.cfg.Genome.BrainRateMin, s.cfg.Genome.BrainRateMax)
		childBrain.Mutate(s.rng, rate)

		angle := s.rng.Float32() * 2 * math.Pi
		x := wrapCoord(parentPos.X+fastCos(angle)*childOffset, s.worldW)
		y := wrapCoord(parentPos.Y+fastSin(angle)*childOffset, s.worldH)

		s.spawnAgentAt(x, y, angle, childEnergy, childGenome, childBrain)
		parentCell.Children++
		s.collector.RecordBirth()
	}
}

// sweepCorpses advances corpse timers and removes agents whose visibility
// window ended or whose energy fully decayed. Two passes: ark queries must
// finish before entities are removed.
func (s *Sim) sweepCorpses() {
	window := int32(s.cfg.Lifecycle.CorpseVisibleTicks)

	type removal struct {
		entity ecs.Entity
		id     uint32
	}
	var toRemove []removal

	query := s.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		_, _, _, energy, _, life, cell := query.Get()

		if life.State != components.StateCorpse {
			continue
		}

		life.CorpseTicks++
		if life.CorpseTicks >= window || energy.Value <= 0 {
			life.State = components.StateRemoved
			toRemove = append(toRemove, removal{entity: entity, id: cell.ID})
		}
	}

	for _, r := range toRemove {
		s.agentMapper.Remove(r.entity)
		delete(s.brains, r.id)
		s.corpseCount--
	}
}

// respawnIfExtinct reseeds the world when every agent has died. Seeds come
// from the stored best genome when one exists, mutated per child so the
// new population is not a clone army; otherwise fresh random genomes.
func (s *Sim) respawnIfExtinct() {
	if s.aliveCount > 0 {
		return
	}

	// Clear leftover corpses so the new population starts clean.
	type removal struct {
		entity ecs.Entity
		id     uint32
	}
	var toRemove []removal

	query := s.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		_, _, _, _, _, life, cell := query.Get()
		if life.State == components.StateCorpse {
			life.State = components.StateRemoved
		}
		toRemove = append(toRemove, removal{entity: entity, id: cell.ID})
	}
	for _, r := range toRemove {
		s.agentMapper.Remove(r.entity)
		delete(s.brains, r.id)
	}
	s.corpseCount = 0
	s.bestEntity = ecs.Entity{}

	count := s.cfg.Population.Initial
	if count > s.popCap {
		count = s.popCap
	}

	for i := 0; i < count; i++ {
		if s.hasBest {
			genome := s.mutateGenome(s.best.Genome)
			brain := &neural.Brain{}
			brain.UnmarshalWeights(s.best.Weights)
			rate := s.uniform(s.cfg.Genome.BrainRateMin, s.cfg.Genome.BrainRateMax)
			brain.Mutate(s.rng, rate)
			s.spawnAgent(genome, brain)
		} else {
			s.spawnAgent(s.randomGenome(), neural.NewBrain(s.rng))
		}
	}
}
