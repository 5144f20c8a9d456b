package engine

import "testing"

func TestRouletteSkipsZeroWeights(t *testing.T) {
	rng := NewRNG(1)
	weights := []float64{0, 0, 5}
	for i := 0; i < 50; i++ {
		idx := rng.Roulette(weights, 5)
		if idx != 2 {
			t.Fatalf("Roulette with a single nonzero weight must always pick it, got %d", idx)
		}
	}
}

func TestRouletteAllZeroReturnsNegativeOne(t *testing.T) {
	rng := NewRNG(1)
	weights := []float64{0, 0, 0}
	if idx := rng.Roulette(weights, 0); idx != -1 {
		t.Fatalf("Roulette over all-zero weights = %d, want -1", idx)
	}
}

func TestRouletteFairnessOverManyDraws(t *testing.T) {
	rng := NewRNG(42)
	weights := []float64{1, 1}
	counts := [2]int{}
	const trials = 10000
	for i := 0; i < trials; i++ {
		idx := rng.Roulette(weights, 2)
		if idx < 0 || idx > 1 {
			t.Fatalf("unexpected index %d", idx)
		}
		counts[idx]++
	}
	if counts[0] < 4800 || counts[0] > 5200 {
		t.Fatalf("roulette imbalance over %d trials: %v (spec.md §8 scenario 5 tolerance)", trials, counts)
	}
}

func TestBernoulliBounds(t *testing.T) {
	rng := NewRNG(7)
	if rng.Bernoulli(0) {
		t.Fatalf("Bernoulli(0) must never succeed")
	}
	allTrue := true
	for i := 0; i < 20; i++ {
		if !rng.Bernoulli(1) {
			allTrue = false
		}
	}
	if !allTrue {
		t.Fatalf("Bernoulli(1) must always succeed")
	}
}
