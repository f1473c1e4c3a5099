// Package sim implements the evolutionary cell simulation: the per-tick
// agent pipeline, lifecycle and energy rules, and the adaptive population
// cap driven by measured frame rate.
package sim

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/zeachco/cells-ai/components"
	"github.com/zeachco/cells-ai/config"
	"github.com/zeachco/cells-ai/neural"
	"github.com/zeachco/cells-ai/systems"
	"github.com/zeachco/cells-ai/telemetry"
)

// Speed multiplier bounds for SetSpeedMultiplier.
const (
	MinSpeedMultiplier = 0.125
	MaxSpeedMultiplier = 8.0
)

// BestGenome is a snapshot of the highest-fitness agent seen so far,
// preserved across population resets.
type BestGenome struct {
	Genome       components.Genome
	Weights      neural.BrainWeights
	Fitness      float32
	CapturedTick int64
}

// Sim holds the complete simulation state.
type Sim struct {
	world *ecs.World
	rng   *rand.Rand
	cfg   *config.Config

	// Entity mappers over the 7 agent components
	agentMapper *ecs.Map7[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Energy,
		components.Genome,
		components.Lifecycle,
		components.Cell,
	]
	agentFilter *ecs.Filter7[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Energy,
		components.Genome,
		components.Lifecycle,
		components.Cell,
	]

	// Individual component mappers for lookups
	posMap    *ecs.Map1[components.Position]
	velMap    *ecs.Map1[components.Velocity]
	rotMap    *ecs.Map1[components.Rotation]
	energyMap *ecs.Map1[components.Energy]
	genomeMap *ecs.Map1[components.Genome]
	lifeMap   *ecs.Map1[components.Lifecycle]
	cellMap   *ecs.Map1[components.Cell]

	// Brain storage (per agent by ID)
	brains map[uint32]*neural.Brain

	grid     *systems.SpatialGrid
	parallel *parallelState

	// Scratch for the serial feeding pass, reused across ticks
	feedScratch []systems.Neighbor

	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
	output    *telemetry.OutputManager

	// State
	tick      int64
	nextID    uint32
	paused    bool
	speedMult float32
	stepDebt  float32

	// Adaptive population cap
	popCap     int
	capElapsed float64
	capFrames  int

	aliveCount  int
	corpseCount int

	// Best genome tracking
	best       BestGenome
	hasBest    bool
	bestEntity ecs.Entity
	diversity  float64

	worldW, worldH float32
}

// New creates a simulation from the given config, seeded for reproducible
// mutation and spawning, and spawns the initial population.
func New(cfg *config.Config, seed int64) *Sim {
	world := ecs.NewWorld()

	s := &Sim{
		world:     world,
		rng:       rand.New(rand.NewSource(seed)),
		cfg:       cfg,
		brains:    make(map[uint32]*neural.Brain),
		speedMult: 1,
		popCap:    cfg.Population.Cap,
		worldW:    cfg.Derived.WorldW32,
		worldH:    cfg.Derived.WorldH32,
		agentMapper: ecs.NewMap7[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Energy,
			components.Genome,
			components.Lifecycle,
			components.Cell,
		](world),
		agentFilter: ecs.NewFilter7[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Energy,
			components.Genome,
			components.Lifecycle,
			components.Cell,
		](world),
		posMap:    ecs.NewMap1[components.Position](world),
		velMap:    ecs.NewMap1[components.Velocity](world),
		rotMap:    ecs.NewMap1[components.Rotation](world),
		energyMap: ecs.NewMap1[components.Energy](world),
		genomeMap: ecs.NewMap1[components.Genome](world),
		lifeMap:   ecs.NewMap1[components.Lifecycle](world),
		cellMap:   ecs.NewMap1[components.Cell](world),
	}

	s.grid = systems.NewSpatialGrid(s.worldW, s.worldH, float32(cfg.World.BucketSize))
	s.parallel = newParallelState()
	s.feedScratch = make([]systems.Neighbor, 0, 64)
	s.perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	s.collector = telemetry.NewCollector(int64(cfg.Telemetry.WindowTicks))

	s.spawnInitialPopulation()

	return s
}

// SetOutput attaches an output manager for CSV telemetry. May be nil.
func (s *Sim) SetOutput(om *telemetry.OutputManager) {
	s.output = om
}

// Tick advances the simulation by dt wall-clock seconds. The speed
// multiplier accumulates fractional steps, so a multiplier of 0.5 runs a
// step every other call and 8 runs eight steps per call.
func (s *Sim) Tick(dt float64) {
	s.perf.RecordFrame()

	if s.paused {
		return
	}

	s.stepDebt += s.speedMult
	for s.stepDebt >= 1 {
		s.step()
		s.stepDebt--
	}

	s.updateCapacity(dt)
}

// step runs a single simulation tick.
func (s *Sim) step() {
	s.perf.StartTick()

	s.perf.StartPhase(telemetry.PhaseSpatialGrid)
	s.updateSpatialGrid()

	s.perf.StartPhase(telemetry.PhaseBehavior)
	s.updateBehaviorParallel()

	s.perf.StartPhase(telemetry.PhaseFeeding)
	s.updateFeeding()

	s.perf.StartPhase(telemetry.PhaseBirths)
	s.applyBirths()

	s.perf.StartPhase(telemetry.PhaseSweep)
	s.sweepCorpses()
	s.respawnIfExtinct()

	s.perf.StartPhase(telemetry.PhaseStats)
	s.updateStats()

	s.perf.EndTick()
	s.tick++
}

// updateSpatialGrid rebuilds the spatial index. Corpses stay in the grid:
// they are sensing targets and feeding sources until swept.
func (s *Sim) updateSpatialGrid() {
	s.grid.Clear()

	query := s.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, _, _, _, _, life, _ := query.Get()

		if life.State == components.StateRemoved {
			continue
		}
		s.grid.Insert(entity, pos.X, pos.Y)
	}
}

// TickCount returns the current simulation tick count.
func (s *Sim) TickCount() int64 {
	return s.tick
}

// Population returns the live agent count.
func (s *Sim) Population() int {
	return s.aliveCount
}

// Corpses returns the corpse count awaiting sweep.
func (s *Sim) Corpses() int {
	return s.corpseCount
}

// Cap returns the current adaptive population cap.
func (s *Sim) Cap() int {
	return s.popCap
}

// Diversity returns the variance of genome hue across live agents.
func (s *Sim) Diversity() float64 {
	return s.diversity
}

// Best returns the stored best genome snapshot, if any.
func (s *Sim) Best() (BestGenome, bool) {
	return s.best, s.hasBest
}

// Perf returns aggregated performance statistics for the current window.
func (s *Sim) Perf() telemetry.PerfStats {
	return s.perf.Stats()
}

// Close stops the worker pool and releases output files.
func (s *Sim) Close() error {
	s.parallel.stopWorkers()
	return s.output.Close()
}
