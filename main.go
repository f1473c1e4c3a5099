package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/zeachco/cells-ai/config"
	"github.com/zeachco/cells-ai/sim"
	"github.com/zeachco/cells-ai/storage"
	"github.com/zeachco/cells-ai/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	dbPath := flag.String("db", "", "SQLite path for best-genome archive (empty = in-memory)")
	speed := flag.Float64("speed", 1, "Simulation speed multiplier")
	logPerfSec := flag.Float64("log-perf", 10, "Seconds between perf log lines (0 = disabled)")
	archiveSec := flag.Float64("archive", 60, "Seconds between best-genome archive writes (0 = disabled)")

	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	ctx := context.Background()

	var store storage.Store
	if *dbPath != "" {
		store = storage.NewSQLiteStore(*dbPath)
	} else {
		store = storage.NewMemoryStore()
	}
	if err := store.Init(ctx); err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	s := sim.New(cfg, rngSeed)
	defer s.Close()
	s.SetSpeedMultiplier(float32(*speed))

	// Resume from the newest archived genome when one exists.
	if rec, ok, err := store.LatestBest(ctx); err != nil {
		slog.Warn("failed to read archive", "error", err)
	} else if ok {
		s.SeedBestGenome(sim.BestGenome{
			Genome:       rec.Genome,
			Weights:      rec.Weights,
			Fitness:      rec.Fitness,
			CapturedTick: rec.Tick,
		})
		slog.Info("resumed best genome", "tick", rec.Tick, "fitness", rec.Fitness)
	}

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	if om != nil {
		if err := om.WriteConfig(cfg); err != nil {
			slog.Warn("failed to write config snapshot", "error", err)
		}
		s.SetOutput(om)
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"speed", *speed,
		"max_ticks", *maxTicks,
		"population", s.Population(),
		"cap", s.Cap(),
	)

	var (
		lastFrame    = time.Now()
		perfElapsed  float64
		archElapsed  float64
		lastArchived int64 = -1
	)

	for {
		now := time.Now()
		dt := now.Sub(lastFrame).Seconds()
		lastFrame = now

		s.Tick(dt)

		if *logPerfSec > 0 {
			perfElapsed += dt
			if perfElapsed >= *logPerfSec {
				perfElapsed = 0
				s.Perf().LogStats()
			}
		}

		if *archiveSec > 0 {
			archElapsed += dt
			if archElapsed >= *archiveSec {
				archElapsed = 0
				archiveBest(ctx, store, s, &lastArchived)
			}
		}

		if *maxTicks > 0 && s.TickCount() >= *maxTicks {
			slog.Info("max ticks reached", "tick", s.TickCount())
			archiveBest(ctx, store, s, &lastArchived)
			return
		}
	}
}

// archiveBest persists the current best genome unless it was already saved.
func archiveBest(ctx context.Context, store storage.Store, s *sim.Sim, lastArchived *int64) {
	best, ok := s.Best()
	if !ok || best.CapturedTick == *lastArchived {
		return
	}

	rec := storage.BestRecord{
		Tick:       best.CapturedTick,
		Fitness:    best.Fitness,
		Genome:     best.Genome,
		Weights:    best.Weights,
		CapturedAt: time.Now().Unix(),
	}
	if err := store.SaveBest(ctx, rec); err != nil {
		slog.Warn("failed to archive best genome", "error", err)
		return
	}
	*lastArchived = best.CapturedTick
	slog.Info("archived best genome", "tick", best.CapturedTick, "fitness", best.Fitness)
}
