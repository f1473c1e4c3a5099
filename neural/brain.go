// Package neural provides the feedforward brain that maps sensed state to
// a discrete action choice.
package neural

import "math/rand"

// Network dimensions (compile-time constants for array sizing).
const (
	NumSensors      = 5
	ValuesPerSensor = 4
	NumInputs       = NumSensors * ValuesPerSensor  // 20
	NumOutputs      = 4                             // one per action
	NumHidden       = 2 * (NumInputs + NumOutputs)  // 48
)

// Mutation bounds. Every mutated weight or bias stays inside
// [-WeightClamp, WeightClamp].
const (
	WeightClamp = 2.0
	MutateDelta = 0.1
)

// Action is the closed set of things a cell can do on a tick.
type Action uint8

const (
	ActionNone Action = iota
	ActionTurnLeft
	ActionTurnRight
	ActionForward
)

// String returns a readable action name.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionTurnLeft:
		return "turn_left"
	case ActionTurnRight:
		return "turn_right"
	case ActionForward:
		return "forward"
	}
	return "unknown"
}

// Brain is a two-layer feedforward network: input -> hidden (ReLU) -> output.
// It holds no state between evaluations; output is a pure function of the
// current weights and inputs.
type Brain struct {
	W1 [NumHidden][NumInputs]float32  // input -> hidden weights
	B1 [NumHidden]float32             // hidden biases
	W2 [NumOutputs][NumHidden]float32 // hidden -> output weights
	B2 [NumOutputs]float32            // output biases
}

// NewBrain creates a brain with uniform random weights in [-1, 1).
func NewBrain(rng *rand.Rand) *Brain {
	b := &Brain{}
	for i := range b.W1 {
		for j := range b.W1[i] {
			b.W1[i][j] = rng.Float32()*2 - 1
		}
		b.B1[i] = rng.Float32()*2 - 1
	}
	for i := range b.W2 {
		for j := range b.W2[i] {
			b.W2[i][j] = rng.Float32()*2 - 1
		}
		b.B2[i] = rng.Float32()*2 - 1
	}
	return b
}

// Forward computes raw output activations for the given inputs.
// Hidden layer uses ReLU; outputs are linear (argmax follows).
func (b *Brain) Forward(inputs []float32) [NumOutputs]float32 {
	var hidden [NumHidden]float32
	for i := 0; i < NumHidden; i++ {
		sum := b.B1[i]
		for j := 0; j < NumInputs; j++ {
			sum += b.W1[i][j] * inputs[j]
		}
		if sum > 0 {
			hidden[i] = sum
		}
	}

	var outputs [NumOutputs]float32
	for i := 0; i < NumOutputs; i++ {
		sum := b.B2[i]
		for j := 0; j < NumHidden; j++ {
			sum += b.W2[i][j] * hidden[j]
		}
		outputs[i] = sum
	}

	return outputs
}

// BestAction evaluates the network and returns the argmax action.
// Ties break toward the lowest action index.
func (b *Brain) BestAction(inputs []float32) Action {
	outputs := b.Forward(inputs)
	best := 0
	for i := 1; i < NumOutputs; i++ {
		if outputs[i] > outputs[best] {
			best = i
		}
	}
	return Action(best)
}

// Mutate perturbs each weight and bias with probability rate, adding a
// uniform delta in [-MutateDelta, MutateDelta] and clamping the result to
// [-WeightClamp, WeightClamp].
func (b *Brain) Mutate(rng *rand.Rand, rate float32) {
	if rate < 0 {
		rate = 0
	} else if rate > 1 {
		rate = 1
	}

	for i := range b.W1 {
		for j := range b.W1[i] {
			if rng.Float32() < rate {
				b.W1[i][j] = clampWeight(b.W1[i][j] + perturb(rng))
			}
		}
		if rng.Float32() < rate {
			b.B1[i] = clampWeight(b.B1[i] + perturb(rng))
		}
	}

	for i := range b.W2 {
		for j := range b.W2[i] {
			if rng.Float32() < rate {
				b.W2[i][j] = clampWeight(b.W2[i][j] + perturb(rng))
			}
		}
		if rng.Float32() < rate {
			b.B2[i] = clampWeight(b.B2[i] + perturb(rng))
		}
	}
}

// Clone creates a deep copy of the network.
func (b *Brain) Clone() *Brain {
	clone := *b
	return &clone
}

func perturb(rng *rand.Rand) float32 {
	return (rng.Float32()*2 - 1) * MutateDelta
}

func clampWeight(x float32) float32 {
	if x < -WeightClamp {
		return -WeightClamp
	}
	if x > WeightClamp {
		return WeightClamp
	}
	return x
}

// BrainWeights holds flattened network weights for serialization.
type BrainWeights struct {
	W1 []float32 `json:"w1"` // [NumHidden * NumInputs]
	B1 []float32 `json:"b1"` // [NumHidden]
	W2 []float32 `json:"w2"` // [NumOutputs * NumHidden]
	B2 []float32 `json:"b2"` // [NumOutputs]
}

// MarshalWeights flattens the network weights for serialization.
func (b *Brain) MarshalWeights() BrainWeights {
	bw := BrainWeights{
		W1: make([]float32, NumHidden*NumInputs),
		B1: make([]float32, NumHidden),
		W2: make([]float32, NumOutputs*NumHidden),
		B2: make([]float32, NumOutputs),
	}

	for i := 0; i < NumHidden; i++ {
		for j := 0; j < NumInputs; j++ {
			bw.W1[i*NumInputs+j] = b.W1[i][j]
		}
	}
	copy(bw.B1, b.B1[:])

	for i := 0; i < NumOutputs; i++ {
		for j := 0; j < NumHidden; j++ {
			bw.W2[i*NumHidden+j] = b.W2[i][j]
		}
	}
	copy(bw.B2, b.B2[:])

	return bw
}

// UnmarshalWeights restores network weights from flattened form.
// Short slices leave the remaining weights untouched.
func (b *Brain) UnmarshalWeights(bw BrainWeights) {
	for i := 0; i < NumHidden; i++ {
		for j := 0; j < NumInputs; j++ {
			if i*NumInputs+j < len(bw.W1) {
				b.W1[i][j] = bw.W1[i*NumInputs+j]
			}
		}
	}
	for i := 0; i < NumHidden && i < len(bw.B1); i++ {
		b.B1[i] = bw.B1[i]
	}

	for i := 0; i < NumOutputs; i++ {
		for j := 0; j < NumHidden; j++ {
			if i*NumHidden+j < len(bw.W2) {
				b.W2[i][j] = bw.W2[i*NumHidden+j]
			}
		}
	}
	for i := 0; i < NumOutputs && i < len(bw.B2); i++ {
		b.B2[i] = bw.B2[i]
	}
}
