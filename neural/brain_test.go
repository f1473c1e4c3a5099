package neural

import (
	"math/rand"
	"testing"
)

func TestNewBrainDimensions(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := NewBrain(rng)

	if b == nil {
		t.Fatal("NewBrain returned nil")
	}
	if NumHidden != 2*(NumInputs+NumOutputs) {
		t.Errorf("NumHidden = %d, want %d", NumHidden, 2*(NumInputs+NumOutputs))
	}

	// Initial weights fall inside the clamp range.
	for i := range b.W1 {
		for j := range b.W1[i] {
			if b.W1[i][j] < -WeightClamp || b.W1[i][j] > WeightClamp {
				t.Fatalf("W1[%d][%d] = %v outside clamp range", i, j, b.W1[i][j])
			}
		}
	}
}

func TestBestActionDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := NewBrain(rng)

	inputs := make([]float32, NumInputs)
	for i := range inputs {
		inputs[i] = float32(i)/NumInputs*2 - 1
	}

	first := b.BestAction(inputs)
	for i := 0; i < 10; i++ {
		if got := b.BestAction(inputs); got != first {
			t.Fatalf("BestAction not deterministic: got %v, want %v", got, first)
		}
	}
	if first > ActionForward {
		t.Errorf("action %d out of range", first)
	}
}

func TestBestActionTieBreaksLow(t *testing.T) {
	// Zero brain: all outputs equal, argmax must pick the lowest index.
	b := &Brain{}
	inputs := make([]float32, NumInputs)

	if got := b.BestAction(inputs); got != ActionNone {
		t.Errorf("tie broke to %v, want %v", got, ActionNone)
	}
}

func TestMutateClampsWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	b := NewBrain(rng)

	// Force weights to the edge, then mutate everything repeatedly.
	for i := range b.W1 {
		for j := range b.W1[i] {
			b.W1[i][j] = WeightClamp
		}
	}
	for k := 0; k < 50; k++ {
		b.Mutate(rng, 1.0)
	}

	check := func(v float32) {
		t.Helper()
		if v < -WeightClamp || v > WeightClamp {
			t.Fatalf("value %v escaped clamp range", v)
		}
	}
	for i := range b.W1 {
		for j := range b.W1[i] {
			check(b.W1[i][j])
		}
		check(b.B1[i])
	}
	for i := range b.W2 {
		for j := range b.W2[i] {
			check(b.W2[i][j])
		}
		check(b.B2[i])
	}
}

func TestMutateZeroRateIsNoop(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	b := NewBrain(rng)
	before := *b

	b.Mutate(rng, 0)

	if *b != before {
		t.Error("Mutate(0) changed weights")
	}
}

func TestMutateChangesWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	b := NewBrain(rng)
	before := *b

	b.Mutate(rng, 1.0)

	if *b == before {
		t.Error("Mutate(1.0) left all weights unchanged")
	}
}

func TestCloneIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := NewBrain(rng)

	clone := b.Clone()
	if *clone != *b {
		t.Fatal("clone differs from original")
	}

	clone.W1[0][0] = 999
	if b.W1[0][0] == 999 {
		t.Error("clone shares storage with original")
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := NewBrain(rng)

	bw := b.MarshalWeights()
	restored := &Brain{}
	restored.UnmarshalWeights(bw)

	if *restored != *b {
		t.Error("weights did not survive marshal/unmarshal")
	}
}

func BenchmarkForward(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	brain := NewBrain(rng)

	inputs := make([]float32, NumInputs)
	for i := range inputs {
		inputs[i] = 0.5
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		brain.Forward(inputs)
	}
}
