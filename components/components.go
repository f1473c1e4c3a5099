// Package components defines ECS components for the cell simulation.
package components

// Position represents an entity's world position on the toroidal plane.
type Position struct {
	X, Y float32
}

// Velocity represents an entity's linear and angular velocity.
type Velocity struct {
	X, Y    float32
	Angular float32
}

// Rotation represents an entity's facing direction in radians.
type Rotation struct {
	Heading float32
}

// State is the one-directional lifecycle of a cell.
// Growing -> Adult -> Corpse -> Removed; there is no resurrection.
type State uint8

const (
	StateGrowing State = iota // immature, gained energy goes to growth
	StateAdult                // mature, banks energy and can reproduce
	StateCorpse               // dead but sensor-visible and edible
	StateRemoved              // swept, about to leave the world
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateGrowing:
		return "growing"
	case StateAdult:
		return "adult"
	case StateCorpse:
		return "corpse"
	case StateRemoved:
		return "removed"
	}
	return "unknown"
}

// Alive reports whether the cell still acts (growing or adult).
func (s State) Alive() bool {
	return s == StateGrowing || s == StateAdult
}
