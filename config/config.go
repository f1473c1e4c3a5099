// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Population PopulationConfig `yaml:"population"`
	Capacity   CapacityConfig   `yaml:"capacity"`
	Energy     EnergyConfig     `yaml:"energy"`
	Genome     GenomeConfig     `yaml:"genome"`
	Sensors    SensorsConfig    `yaml:"sensors"`
	Lifecycle  LifecycleConfig  `yaml:"lifecycle"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the toroidal world dimensions and spatial grid sizing.
type WorldConfig struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	BucketSize float64 `yaml:"bucket_size"`
}

// PopulationConfig holds population sizing parameters.
type PopulationConfig struct {
	Initial int `yaml:"initial"` // agents spawned at start and on respawn
	Cap     int `yaml:"cap"`     // starting population cap
	MinCap  int `yaml:"min_cap"` // cap controller floor
	MaxCap  int `yaml:"max_cap"` // cap controller ceiling
}

// CapacityConfig holds the frame-rate-driven cap controller parameters.
type CapacityConfig struct {
	IntervalSec float64 `yaml:"interval_sec"` // wall-clock seconds between recalculations
	FPSFloor    float64 `yaml:"fps_floor"`    // below this, shrink the cap
	FPSCeiling  float64 `yaml:"fps_ceiling"`  // above this, grow the cap
	Step        float64 `yaml:"step"`         // fractional cap change per adjustment
}

// EnergyConfig holds per-tick energy economics.
type EnergyConfig struct {
	Initial        float64 `yaml:"initial"`         // spawn energy
	BaseCost       float64 `yaml:"base_cost"`       // metabolism per tick, scaled by age
	CorpseDecay    float64 `yaml:"corpse_decay"`    // corpse energy loss per tick
	TurnCost       float64 `yaml:"turn_cost"`       // turn action cost, scaled by age
	ForwardCost    float64 `yaml:"forward_cost"`    // forward action cost, scaled by age
	ReproThreshold float64 `yaml:"repro_threshold"` // energy above which reproduction triggers
}

// GenomeConfig holds inherited trait spawn ranges and mutation parameters.
// Mutated traits are clamped back into their spawn range; hue wraps instead.
type GenomeConfig struct {
	InitialHue     float64 `yaml:"initial_hue"`
	RadiusMin      float64 `yaml:"radius_min"`
	RadiusMax      float64 `yaml:"radius_max"`
	SpeedMin       float64 `yaml:"speed_min"`
	SpeedMax       float64 `yaml:"speed_max"`
	TurnRateMin    float64 `yaml:"turn_rate_min"`
	TurnRateMax    float64 `yaml:"turn_rate_max"`
	ChunkMin       float64 `yaml:"chunk_min"`
	ChunkMax       float64 `yaml:"chunk_max"`
	SpeciesMultMin float64 `yaml:"species_mult_min"`
	SpeciesMultMax float64 `yaml:"species_mult_max"`
	MassMin        float64 `yaml:"mass_min"`
	MassMax        float64 `yaml:"mass_max"`
	TraitVariance  float64 `yaml:"trait_variance"` // fraction applied per inherited trait
	BrainRateMin   float64 `yaml:"brain_rate_min"` // lower bound of per-child brain mutation rate
	BrainRateMax   float64 `yaml:"brain_rate_max"` // upper bound of per-child brain mutation rate
}

// SensorsConfig holds sensing parameters.
type SensorsConfig struct {
	Range float64 `yaml:"range"` // sensor scan radius in world units
}

// LifecycleConfig holds aging and corpse lifecycle parameters.
type LifecycleConfig struct {
	AgePerTick         float64 `yaml:"age_per_tick"`
	MatureAge          float64 `yaml:"mature_age"`           // below this, gained energy goes to growth
	FullSizeAge        float64 `yaml:"full_size_age"`        // radius reaches 100% here
	CorpseVisibleTicks int     `yaml:"corpse_visible_ticks"` // ticks a corpse stays before sweep
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowTicks int `yaml:"window_ticks"` // ticks per stats window
	PerfWindow  int `yaml:"perf_window"`  // tick samples in the perf rolling window
}

// DerivedConfig holds float32 mirrors of hot-path values.
type DerivedConfig struct {
	WorldW32         float32
	WorldH32         float32
	SensorRange32    float32
	BaseCost32       float32
	CorpseDecay32    float32
	TurnCost32       float32
	ForwardCost32    float32
	ReproThreshold32 float32
	AgePerTick32     float32
	MatureAge32      float32
	FullSizeAge32    float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived fills the float32 mirrors used by the tick pipeline.
func (c *Config) computeDerived() {
	c.Derived.WorldW32 = float32(c.World.Width)
	c.Derived.WorldH32 = float32(c.World.Height)
	c.Derived.SensorRange32 = float32(c.Sensors.Range)
	c.Derived.BaseCost32 = float32(c.Energy.BaseCost)
	c.Derived.CorpseDecay32 = float32(c.Energy.CorpseDecay)
	c.Derived.TurnCost32 = float32(c.Energy.TurnCost)
	c.Derived.ForwardCost32 = float32(c.Energy.ForwardCost)
	c.Derived.ReproThreshold32 = float32(c.Energy.ReproThreshold)
	c.Derived.AgePerTick32 = float32(c.Lifecycle.AgePerTick)
	c.Derived.MatureAge32 = float32(c.Lifecycle.MatureAge)
	c.Derived.FullSizeAge32 = float32(c.Lifecycle.FullSizeAge)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
