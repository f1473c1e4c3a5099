package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/zeachco/cells-ai/components"
	"github.com/zeachco/cells-ai/config"
)

// testConfig loads defaults with a YAML override applied on top.
func testConfig(t *testing.T, override string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte(override), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("loading test config: %v", err)
	}
	return cfg
}

// smallWorld keeps the spatial grid cheap for tests.
const smallWorld = `
world:
  width: 1000
  height: 800
`

// allEntities drains a full query so the collected handles can be mutated
// afterwards.
func allEntities(s *Sim) []ecs.Entity {
	var out []ecs.Entity
	query := s.agentFilter.Query()
	for query.Next() {
		out = append(out, query.Entity())
	}
	return out
}

func TestInitialPopulation(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 50
  cap: 40
`)
	s := New(cfg, 1)
	defer s.Close()

	// Initial spawn respects the cap.
	if s.Population() != 40 {
		t.Errorf("population = %d, want 40", s.Population())
	}

	views := s.Agents(nil)
	if len(views) != 40 {
		t.Fatalf("views = %d, want 40", len(views))
	}
	for _, v := range views {
		if !v.Alive {
			t.Errorf("agent %d spawned dead", v.ID)
		}
		if v.X < 0 || v.X >= 1000 || v.Y < 0 || v.Y >= 800 {
			t.Errorf("agent %d outside world: (%v, %v)", v.ID, v.X, v.Y)
		}
		if v.Energy != float32(cfg.Energy.Initial) {
			t.Errorf("agent %d energy = %v, want %v", v.ID, v.Energy, cfg.Energy.Initial)
		}
	}
}

func TestEnergyStaysWithinBounds(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 60
  cap: 200
`)
	s := New(cfg, 7)
	defer s.Close()

	for i := 0; i < 200; i++ {
		s.step()

		query := s.agentFilter.Query()
		for query.Next() {
			_, _, _, energy, genome, life, cell := query.Get()
			if energy.Value < 0 {
				t.Fatalf("tick %d: agent %d energy %v below zero", i, cell.ID, energy.Value)
			}
			if life.State.Alive() && energy.Value > genome.Mass {
				t.Fatalf("tick %d: agent %d energy %v exceeds mass %v", i, cell.ID, energy.Value, genome.Mass)
			}
		}
	}
}

func TestReproductionEnergySplit(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 1
  cap: 10
`)
	s := New(cfg, 3)
	defer s.Close()

	entities := allEntities(s)
	if len(entities) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(entities))
	}
	parent := entities[0]
	s.energyMap.Get(parent).Value = 150

	s.step()

	if s.Population() != 2 {
		t.Fatalf("population = %d, want 2 after reproduction", s.Population())
	}

	parentEnergy := s.energyMap.Get(parent).Value
	parentCell := s.cellMap.Get(parent)
	if parentCell.Children != 1 {
		t.Errorf("parent children = %d, want 1", parentCell.Children)
	}

	var childEnergy float32
	query := s.agentFilter.Query()
	for query.Next() {
		_, _, _, energy, _, _, cell := query.Get()
		if cell.ID != parentCell.ID {
			childEnergy = energy.Value
		}
	}

	// The parent pays a tick of metabolism and possibly one action before
	// splitting, so allow a small margin around the exact 100/50 split.
	if childEnergy < 98 || childEnergy > 100 {
		t.Errorf("child energy = %v, want ~100", childEnergy)
	}
	if parentEnergy < 49 || parentEnergy > 50 {
		t.Errorf("parent energy = %v, want ~50", parentEnergy)
	}
	if absTest(childEnergy-2*parentEnergy) > 0.01 {
		t.Errorf("child %v is not twice parent %v", childEnergy, parentEnergy)
	}
}

func TestNoReproductionAtCap(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 2
  cap: 2
`)
	s := New(cfg, 3)
	defer s.Close()

	for _, e := range allEntities(s) {
		s.energyMap.Get(e).Value = 180
	}

	s.step()

	if s.Population() != 2 {
		t.Errorf("population = %d, want 2 (spawns at cap must be dropped)", s.Population())
	}

	// Parents keep their energy when the spawn is dropped.
	for _, e := range allEntities(s) {
		if v := s.energyMap.Get(e).Value; v < 170 {
			t.Errorf("parent energy = %v, spawn drop should not transfer energy", v)
		}
	}
}

func TestDeathBecomesCorpseThenSwept(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 2
  cap: 10
lifecycle:
  corpse_visible_ticks: 3
`)
	s := New(cfg, 5)
	defer s.Close()

	entities := allEntities(s)
	victim := entities[0]
	s.energyMap.Get(victim).Value = 0.001
	// Keep the survivor alive for the whole test.
	s.energyMap.Get(entities[1]).Value = 150

	s.step()

	life := s.lifeMap.Get(victim)
	if life == nil || life.State != components.StateCorpse {
		t.Fatalf("victim state = %v, want corpse", life)
	}
	if s.Corpses() != 1 {
		t.Errorf("corpses = %d, want 1", s.Corpses())
	}

	// Corpse survives its visibility window, then is removed.
	for i := 0; i < 3; i++ {
		s.step()
	}
	if s.world.Alive(victim) {
		t.Errorf("victim still present after sweep window")
	}
	if s.Corpses() != 0 {
		t.Errorf("corpses = %d, want 0 after sweep", s.Corpses())
	}
}

func TestRespawnAfterExtinction(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 5
  cap: 10
`)
	s := New(cfg, 9)
	defer s.Close()

	for _, e := range allEntities(s) {
		s.energyMap.Get(e).Value = 0.001
	}

	s.step()

	if s.Population() != 5 {
		t.Errorf("population = %d, want 5 after respawn", s.Population())
	}
	if s.Corpses() != 0 {
		t.Errorf("corpses = %d, want 0 after respawn", s.Corpses())
	}
}

func TestRespawnSeedsFromBestGenome(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 4
  cap: 10
`)
	s := New(cfg, 11)
	defer s.Close()

	best := BestGenome{
		Genome: components.Genome{
			Hue:         42,
			Radius:      12,
			Speed:       2,
			TurnRate:    0.1,
			ChunkSize:   50,
			SpeciesMult: 1.5,
			Mass:        200,
		},
		Fitness:      500,
		CapturedTick: 100,
	}
	s.SeedBestGenome(best)

	for _, e := range allEntities(s) {
		s.energyMap.Get(e).Value = 0.001
	}
	s.step()

	if s.Population() != 4 {
		t.Fatalf("population = %d, want 4", s.Population())
	}

	// Respawned genomes descend from the stored best: hue stays within
	// mutation variance of 42 instead of the default spawn hue.
	for _, v := range s.Agents(nil) {
		if v.Hue < 41 || v.Hue > 43 {
			t.Errorf("hue = %v, want near 42", v.Hue)
		}
	}
}

func TestResetWithBestGenome(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 6
  cap: 10
`)
	s := New(cfg, 13)
	defer s.Close()

	// Give one agent a fitness record so a best genome gets captured.
	entities := allEntities(s)
	s.energyMap.Get(entities[0]).Accumulated = 400
	s.step()

	if _, ok := s.Best(); !ok {
		t.Fatal("no best genome captured")
	}

	before := s.Agents(nil)
	s.ResetWithBestGenome()
	after := s.Agents(nil)

	if len(after) != 6 {
		t.Fatalf("population = %d, want 6 after reset", len(after))
	}
	// All fresh IDs: the old population is gone.
	oldIDs := make(map[uint32]bool)
	for _, v := range before {
		oldIDs[v.ID] = true
	}
	for _, v := range after {
		if oldIDs[v.ID] {
			t.Errorf("agent %d survived reset", v.ID)
		}
	}
}

func TestBestAgentTracksFitness(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 3
  cap: 10
`)
	s := New(cfg, 17)
	defer s.Close()

	entities := allEntities(s)
	s.energyMap.Get(entities[1]).Accumulated = 300
	s.cellMap.Get(entities[1]).Children = 2

	s.step()

	bestView, ok := s.BestAgent()
	if !ok {
		t.Fatal("no best agent")
	}
	wantID := s.cellMap.Get(entities[1]).ID
	if bestView.ID != wantID {
		t.Errorf("best agent id = %d, want %d", bestView.ID, wantID)
	}

	best, ok := s.Best()
	if !ok {
		t.Fatal("no best genome stored")
	}
	// fitness = 300 banked + 2 children x 100
	if best.Fitness < 499 || best.Fitness > 501 {
		t.Errorf("best fitness = %v, want ~500", best.Fitness)
	}
}

func TestSpeedMultiplierClamped(t *testing.T) {
	cfg := testConfig(t, smallWorld)
	s := New(cfg, 19)
	defer s.Close()

	s.SetSpeedMultiplier(100)
	if s.SpeedMultiplier() != MaxSpeedMultiplier {
		t.Errorf("multiplier = %v, want %v", s.SpeedMultiplier(), MaxSpeedMultiplier)
	}
	s.SetSpeedMultiplier(0.001)
	if s.SpeedMultiplier() != MinSpeedMultiplier {
		t.Errorf("multiplier = %v, want %v", s.SpeedMultiplier(), MinSpeedMultiplier)
	}
}

func TestFractionalSpeedSkipsFrames(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 2
  cap: 10
`)
	s := New(cfg, 21)
	defer s.Close()

	s.SetSpeedMultiplier(0.5)
	for i := 0; i < 8; i++ {
		s.Tick(0.016)
	}
	if s.TickCount() != 4 {
		t.Errorf("tick count = %d, want 4 at half speed over 8 frames", s.TickCount())
	}
}

func TestPausedSkipsTicks(t *testing.T) {
	cfg := testConfig(t, smallWorld+`
population:
  initial: 2
  cap: 10
`)
	s := New(cfg, 23)
	defer s.Close()

	s.SetPaused(true)
	for i := 0; i < 5; i++ {
		s.Tick(0.016)
	}
	if s.TickCount() != 0 {
		t.Errorf("tick count = %d, want 0 while paused", s.TickCount())
	}

	s.SetPaused(false)
	s.Tick(0.016)
	if s.TickCount() != 1 {
		t.Errorf("tick count = %d, want 1 after resume", s.TickCount())
	}
}

func absTest(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
