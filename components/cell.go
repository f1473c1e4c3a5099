package components

// Energy tracks a cell's metabolic state in absolute units.
// Value never exceeds the genome's Mass and never goes below zero.
// Accumulated is the lifetime total of banked energy, used for fitness.
type Energy struct {
	Value       float32
	Accumulated float32
}

// Genome is the inheritable trait set passed from parent to child with
// mutation. All fields except Hue are clamped to their spawn range on
// mutation; Hue wraps modulo 360 degrees instead.
type Genome struct {
	Hue         float32 `json:"hue"`          // color hue in degrees [0, 360)
	Radius      float32 `json:"radius"`       // full-grown body radius
	Speed       float32 `json:"speed"`        // forward impulse magnitude
	TurnRate    float32 `json:"turn_rate"`    // angular impulse per turn action
	ChunkSize   float32 `json:"chunk_size"`   // energy extracted per feed
	SpeciesMult float32 `json:"species_mult"` // extraction efficiency multiplier
	Mass        float32 `json:"mass"`         // maximum energy capacity
}

// Lifecycle holds aging and corpse bookkeeping.
type Lifecycle struct {
	State       State
	Age         float32 // grows by a fixed amount per tick while alive
	CorpseTicks int32   // ticks spent in the corpse state
}

// Cell bundles identity and lifetime reproduction stats.
type Cell struct {
	ID       uint32
	Children int32
}
