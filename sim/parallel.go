package sim

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/zeachco/cells-ai/components"
	"github.com/zeachco/cells-ai/neural"
	"github.com/zeachco/cells-ai/systems"
	"github.com/zeachco/cells-ai/telemetry"
)

// parallelThreshold is the minimum agent count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// agentSnapshot captures read-only pre-tick state for parallel processing.
type agentSnapshot struct {
	Entity ecs.Entity
	ID     uint32
	Pos    components.Position
	Vel    components.Velocity
	Rot    components.Rotation
	Energy components.Energy
	Genome components.Genome
	Life   components.Lifecycle
	Brain  *neural.Brain
}

// intent captures computed outputs to apply after the parallel phase.
type intent struct {
	NewHeading float32
	NewAngular float32
	NewVelX    float32
	NewVelY    float32
	NewPosX    float32
	NewPosY    float32
	NewEnergy  components.Energy
	NewAge     float32
	Died       bool
	WantsChild bool
}

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	Neighbors []systems.Neighbor
	Rank      systems.SensorRank
	Inputs    [neural.NumInputs]float32
}

// workChunk represents a range of snapshots for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds resources for parallel behavior computation.
type parallelState struct {
	snapshots  []agentSnapshot
	intents    []intent
	scratches  []workerScratch
	numWorkers int

	// Worker pool channels
	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState() *parallelState {
	numWorkers := runtime.GOMAXPROCS(0)
	scratches := make([]workerScratch, numWorkers)
	for i := range scratches {
		scratches[i].Neighbors = make([]systems.Neighbor, 0, 64)
	}
	return &parallelState{
		numWorkers: numWorkers,
		scratches:  scratches,
		snapshots:  make([]agentSnapshot, 0, 512),
		intents:    make([]intent, 0, 512),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(s *Sim) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(s *Sim, workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			s.computeChunk(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// updateBehaviorParallel runs sensing, decision, and physics for every
// agent against pre-tick snapshots, then applies the results serially in
// snapshot order so the merge is deterministic regardless of worker count.
func (s *Sim) updateBehaviorParallel() {
	// Phase A: build snapshots (single-threaded)
	s.parallel.snapshots = s.parallel.snapshots[:0]

	query := s.agentFilter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, vel, rot, energy, genome, life, cell := query.Get()

		if life.State == components.StateRemoved {
			continue
		}

		var brain *neural.Brain
		if life.State.Alive() {
			b, ok := s.brains[cell.ID]
			if !ok {
				continue
			}
			brain = b
		}

		s.parallel.snapshots = append(s.parallel.snapshots, agentSnapshot{
			Entity: entity,
			ID:     cell.ID,
			Pos:    *pos,
			Vel:    *vel,
			Rot:    *rot,
			Energy: *energy,
			Genome: *genome,
			Life:   *life,
			Brain:  brain,
		})
	}

	n := len(s.parallel.snapshots)
	if n == 0 {
		return
	}

	if cap(s.parallel.intents) < n {
		s.parallel.intents = make([]intent, n)
	}
	s.parallel.intents = s.parallel.intents[:n]

	// Phase B: compute, single or parallel based on agent count
	if n < parallelThreshold {
		scratch := &s.parallel.scratches[0]
		s.computeChunk(0, n, scratch)
	} else {
		s.computeParallel(n)
	}

	// Phase C: apply intents (single-threaded, preserves determinism)
	s.perf.StartPhase(telemetry.PhaseApply)
	s.applyIntents()
}

// computeParallel dispatches work to the worker pool.
func (s *Sim) computeParallel(n int) {
	if !s.parallel.running {
		s.parallel.startWorkers(s)
	}

	numWorkers := s.parallel.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		s.parallel.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-s.parallel.doneChan
	}
}

// computeChunk processes a range of snapshots for a single worker. It only
// reads pre-tick state (snapshots, spatial grid, component maps) and writes
// to its own intent slots, so chunks never race.
func (s *Sim) computeChunk(i0, i1 int, scratch *workerScratch) {
	cfg := s.cfg
	sensorRange := cfg.Derived.SensorRange32
	maxMass := float32(cfg.Genome.MassMax)

	for i := i0; i < i1; i++ {
		snap := &s.parallel.snapshots[i]
		out := &s.parallel.intents[i]
		*out = intent{}

		if snap.Life.State == components.StateCorpse {
			s.computeCorpse(snap, out)
			continue
		}

		energy := snap.Energy
		age := snap.Life.Age + cfg.Derived.AgePerTick32

		// Cap energy at mass before spending
		if energy.Value > snap.Genome.Mass {
			energy.Value = snap.Genome.Mass
		}

		// Metabolism, scaled by age
		ageMult := systems.AgeCostMultiplier(age)
		died := systems.Drain(&energy, cfg.Derived.BaseCost32*ageMult)

		// Sense: query neighbors and rank targets
		scratch.Neighbors = s.grid.QueryRadiusInto(
			scratch.Neighbors[:0],
			snap.Pos.X, snap.Pos.Y, sensorRange,
			snap.Entity, s.posMap,
		)

		scratch.Rank.Reset()
		for _, nb := range scratch.Neighbors {
			nLife := s.lifeMap.Get(nb.E)
			if nLife == nil || nLife.State == components.StateRemoved {
				continue
			}
			nEnergy := s.energyMap.Get(nb.E)
			nGenome := s.genomeMap.Get(nb.E)
			if nEnergy == nil || nGenome == nil {
				continue
			}
			scratch.Rank.Offer(systems.SensorCandidate{
				DX:     nb.DX,
				DY:     nb.DY,
				DistSq: nb.DistSq,
				Mass:   nGenome.Mass,
				Energy: nEnergy.Value,
				Corpse: nLife.State == components.StateCorpse,
			})
		}

		scratch.Rank.Encode(snap.Rot.Heading, sensorRange, maxMass, &scratch.Inputs)

		// Decide and act
		action := snap.Brain.BestAction(scratch.Inputs[:])

		heading := snap.Rot.Heading
		angular := snap.Vel.Angular
		velX := snap.Vel.X
		velY := snap.Vel.Y

		switch action {
		case neural.ActionTurnLeft:
			cost := cfg.Derived.TurnCost32 * ageMult
			if energy.Value >= cost {
				angular -= snap.Genome.TurnRate
				died = systems.Drain(&energy, cost) || died
			}
		case neural.ActionTurnRight:
			cost := cfg.Derived.TurnCost32 * ageMult
			if energy.Value >= cost {
				angular += snap.Genome.TurnRate
				died = systems.Drain(&energy, cost) || died
			}
		case neural.ActionForward:
			cost := cfg.Derived.ForwardCost32 * ageMult
			if energy.Value >= cost {
				velX = fastCos(heading) * snap.Genome.Speed
				velY = fastSin(heading) * snap.Genome.Speed
				died = systems.Drain(&energy, cost) || died
			}
		}

		// Heavier agents drift slower; floor keeps massive agents mobile
		slowdown := 200 / snap.Genome.Mass
		if slowdown < 0.5 {
			slowdown = 0.5
		}

		newPosX := wrapCoord(snap.Pos.X+velX*slowdown, s.worldW)
		newPosY := wrapCoord(snap.Pos.Y+velY*slowdown, s.worldH)
		heading = normalizeAngle(heading + angular)

		// Friction
		velX *= 0.95
		velY *= 0.95
		angular *= 0.9

		out.NewHeading = heading
		out.NewAngular = angular
		out.NewVelX = velX
		out.NewVelY = velY
		out.NewPosX = newPosX
		out.NewPosY = newPosY
		out.NewEnergy = energy
		out.NewAge = age
		out.Died = died
		out.WantsChild = !died && energy.Value > cfg.Derived.ReproThreshold32
	}
}

// computeCorpse handles drift and decay for dead agents.
func (s *Sim) computeCorpse(snap *agentSnapshot, out *intent) {
	energy := snap.Energy
	systems.Drain(&energy, s.cfg.Derived.CorpseDecay32)

	slowdown := 200 / snap.Genome.Mass
	if slowdown < 0.5 {
		slowdown = 0.5
	}

	velX := snap.Vel.X
	velY := snap.Vel.Y
	angular := snap.Vel.Angular

	out.NewPosX = wrapCoord(snap.Pos.X+velX*slowdown, s.worldW)
	out.NewPosY = wrapCoord(snap.Pos.Y+velY*slowdown, s.worldH)
	out.NewHeading = normalizeAngle(snap.Rot.Heading + angular)
	out.NewVelX = velX * 0.95
	out.NewVelY = velY * 0.95
	out.NewAngular = angular * 0.9
	out.NewEnergy = energy
	out.NewAge = snap.Life.Age
}

// applyIntents writes computed results back to components and performs the
// alive-to-corpse transition for agents that ran out of energy.
func (s *Sim) applyIntents() {
	for i := range s.parallel.snapshots {
		snap := &s.parallel.snapshots[i]
		out := &s.parallel.intents[i]

		pos := s.posMap.Get(snap.Entity)
		vel := s.velMap.Get(snap.Entity)
		rot := s.rotMap.Get(snap.Entity)
		energy := s.energyMap.Get(snap.Entity)
		life := s.lifeMap.Get(snap.Entity)

		if pos == nil || vel == nil || rot == nil || energy == nil || life == nil {
			continue
		}

		pos.X = out.NewPosX
		pos.Y = out.NewPosY
		vel.X = out.NewVelX
		vel.Y = out.NewVelY
		vel.Angular = out.NewAngular
		rot.Heading = out.NewHeading
		energy.Value = out.NewEnergy.Value
		energy.Accumulated = out.NewEnergy.Accumulated
		life.Age = out.NewAge

		if out.Died && life.State.Alive() {
			// The body becomes the edible store: scavengers drain it and
			// the rest decays until the sweep window closes.
			life.State = components.StateCorpse
			energy.Value = snap.Genome.Mass
			s.aliveCount--
			s.corpseCount++
			s.collector.RecordDeath()
		} else if life.State == components.StateGrowing && life.Age >= s.cfg.Derived.MatureAge32 {
			life.State = components.StateAdult
		}
	}
}
