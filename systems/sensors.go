package systems

import (
	"math"

	"github.com/zeachco/cells-ai/neural"
)

// SensorCandidate is a neighbor offered to the sensor ranking. DX, DY are
// the toroidal delta from the sensing agent; DistSq avoids a sqrt until
// encoding.
type SensorCandidate struct {
	DX, DY float32
	DistSq float32
	Mass   float32
	Energy float32
	Corpse bool
}

// betterTarget ranks a above b: corpses before living agents, then higher
// energy, then closer. Only the relative order of the top few matters, so a
// pairwise comparison is enough; no full sort happens.
func betterTarget(a, b SensorCandidate) bool {
	if a.Corpse != b.Corpse {
		return a.Corpse
	}
	if a.Energy != b.Energy {
		return a.Energy > b.Energy
	}
	return a.DistSq < b.DistSq
}

// SensorRank keeps the best candidates seen so far, one per sensor slot.
// Zero value is ready after Reset. Reuse across agents to avoid allocation.
type SensorRank struct {
	targets [neural.NumSensors]SensorCandidate
	filled  int
}

// Reset clears all slots for the next agent.
func (r *SensorRank) Reset() {
	r.filled = 0
}

// Offer inserts the candidate if it outranks a current slot, shifting
// lower-ranked targets down. Candidates beyond the slot count are dropped.
func (r *SensorRank) Offer(c SensorCandidate) {
	pos := r.filled
	for pos > 0 && betterTarget(c, r.targets[pos-1]) {
		pos--
	}
	if pos >= neural.NumSensors {
		return
	}

	end := r.filled
	if end >= neural.NumSensors {
		end = neural.NumSensors - 1
	}
	for i := end; i > pos; i-- {
		r.targets[i] = r.targets[i-1]
	}
	r.targets[pos] = c
	if r.filled < neural.NumSensors {
		r.filled++
	}
}

// Filled returns the number of occupied sensor slots.
func (r *SensorRank) Filled() int { return r.filled }

// Target returns the candidate in slot i. Valid only for i < Filled().
func (r *SensorRank) Target(i int) SensorCandidate { return r.targets[i] }

// Encode writes the normalized input vector for the network. Each occupied
// slot emits relative angle in [-1,1], distance mapped so closer reads
// higher, mass scaled by maxMass, and an alive flag in {-1, 1}. Empty slots
// read -1 across all four values.
func (r *SensorRank) Encode(heading, sensorRange, maxMass float32, inputs *[neural.NumInputs]float32) {
	for i := 0; i < neural.NumSensors; i++ {
		base := i * neural.ValuesPerSensor
		if i >= r.filled {
			inputs[base+0] = -1
			inputs[base+1] = -1
			inputs[base+2] = -1
			inputs[base+3] = -1
			continue
		}

		t := r.targets[i]

		angle := wrapAngle(float32(math.Atan2(float64(t.DY), float64(t.DX))) - heading)
		dist := float32(math.Sqrt(float64(t.DistSq)))

		inputs[base+0] = angle / math.Pi
		inputs[base+1] = (sensorRange-dist)/sensorRange*2 - 1
		inputs[base+2] = t.Mass/maxMass*2 - 1
		if t.Corpse {
			inputs[base+3] = -1
		} else {
			inputs[base+3] = 1
		}
	}
}

// wrapAngle maps a to (-π, π].
func wrapAngle(a float32) float32 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
