package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/zeachco/cells-ai/components"
	"github.com/zeachco/cells-ai/systems"
)

// AgentView is a read-only projection of an agent for rendering and stats
// display.
type AgentView struct {
	ID      uint32
	X, Y    float32
	Heading float32
	Radius  float32
	Hue     float32
	Energy  float32
	Age     float32
	Alive   bool
}

// Agents appends a view of every non-removed agent to dst and returns the
// result. Reuse dst across frames to avoid allocations.
func (s *Sim) Agents(dst []AgentView) []AgentView {
	fullSizeAge := s.cfg.Derived.FullSizeAge32

	query := s.agentFilter.Query()
	for query.Next() {
		pos, _, rot, energy, genome, life, cell := query.Get()

		if life.State == components.StateRemoved {
			continue
		}

		dst = append(dst, AgentView{
			ID:      cell.ID,
			X:       pos.X,
			Y:       pos.Y,
			Heading: rot.Heading,
			Radius:  systems.CurrentRadius(genome.Radius, life.Age, fullSizeAge),
			Hue:     genome.Hue,
			Energy:  energy.Value,
			Age:     life.Age,
			Alive:   life.State.Alive(),
		})
	}

	return dst
}

// BestAgent returns a view of the current best-fitness live agent. The
// second return is false when no live agent exists.
func (s *Sim) BestAgent() (AgentView, bool) {
	if s.bestEntity == (ecs.Entity{}) || !s.world.Alive(s.bestEntity) {
		return AgentView{}, false
	}

	life := s.lifeMap.Get(s.bestEntity)
	if !life.State.Alive() {
		return AgentView{}, false
	}

	pos := s.posMap.Get(s.bestEntity)
	rot := s.rotMap.Get(s.bestEntity)
	energy := s.energyMap.Get(s.bestEntity)
	genome := s.genomeMap.Get(s.bestEntity)
	cell := s.cellMap.Get(s.bestEntity)

	return AgentView{
		ID:      cell.ID,
		X:       pos.X,
		Y:       pos.Y,
		Heading: rot.Heading,
		Radius:  systems.CurrentRadius(genome.Radius, life.Age, s.cfg.Derived.FullSizeAge32),
		Hue:     genome.Hue,
		Energy:  energy.Value,
		Age:     life.Age,
		Alive:   true,
	}, true
}

// SetPaused pauses or resumes the simulation. A paused simulation skips
// ticks entirely.
func (s *Sim) SetPaused(paused bool) {
	s.paused = paused
}

// Paused reports whether the simulation is paused.
func (s *Sim) Paused() bool {
	return s.paused
}

// SetSpeedMultiplier sets how many simulation steps run per wall-clock
// frame, clamped to [MinSpeedMultiplier, MaxSpeedMultiplier]. Fractional
// values below 1 skip frames.
func (s *Sim) SetSpeedMultiplier(mult float32) {
	s.speedMult = clampf(mult, MinSpeedMultiplier, MaxSpeedMultiplier)
}

// SpeedMultiplier returns the current speed multiplier.
func (s *Sim) SpeedMultiplier() float32 {
	return s.speedMult
}

// ResetWithBestGenome kills the current population and reseeds it from the
// stored best genome on the same tick. Without a stored genome the new
// population is random.
func (s *Sim) ResetWithBestGenome() {
	type removal struct {
		entity ecs.Entity
		id     uint32
	}
	var toRemove []removal

	query := s.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		_, _, _, _, _, life, cell := query.Get()
		life.State = components.StateRemoved
		toRemove = append(toRemove, removal{entity: entity, id: cell.ID})
	}
	for _, r := range toRemove {
		s.agentMapper.Remove(r.entity)
		delete(s.brains, r.id)
	}

	s.aliveCount = 0
	s.corpseCount = 0
	s.bestEntity = ecs.Entity{}

	s.respawnIfExtinct()
}

// SeedBestGenome installs an externally stored genome as the preserved
// best, used to resume an experiment from an archive.
func (s *Sim) SeedBestGenome(best BestGenome) {
	s.best = best
	s.hasBest = true
}
