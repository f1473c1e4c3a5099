package systems

import "github.com/zeachco/cells-ai/components"

// AgeCostMultiplier scales the base metabolic cost with age. Returns a
// value in [1, 2]: newborns pay the base cost, agents past 100 age units
// pay double.
func AgeCostMultiplier(age float32) float32 {
	m := 1 + age/100
	if m > 2 {
		m = 2
	}
	return m
}

// CurrentRadius returns the visible radius for an agent of the given age.
// Agents start at 10% of their genome radius and grow linearly to full
// size at fullSizeAge.
func CurrentRadius(base, age, fullSizeAge float32) float32 {
	if age >= fullSizeAge {
		return base
	}
	frac := 0.1 + 0.9*(age/fullSizeAge)
	return base * frac
}

// GainEnergy applies an energy gain to an agent, clamping at the genome
// mass cap. Immature agents spend all intake on growth: the gain is
// discarded, not stored. Mature agents keep the gain and bank what
// survives the cap into the fitness accumulator.
func GainEnergy(e *components.Energy, gain, mass, age, matureAge float32) {
	if gain <= 0 || age < matureAge {
		return
	}
	before := e.Value
	e.Value += gain
	if e.Value > mass {
		e.Value = mass
	}
	e.Accumulated += e.Value - before
}

// Drain subtracts a cost from an agent's energy, clamping at zero.
// Returns true when the drain emptied the reserve.
func Drain(e *components.Energy, cost float32) bool {
	e.Value -= cost
	if e.Value <= 0 {
		e.Value = 0
		return true
	}
	return false
}
