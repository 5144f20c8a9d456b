package engine

import (
	"math"
	"testing"

	"github.com/danielgoncalves/evacsim/components"
)

func TestDynamicFieldMassConservedWithZeroDecay(t *testing.T) {
	rows, cols := 5, 5
	obstacles := NewIntGrid(rows, cols, components.CellEmpty)
	fire := NewIntGrid(rows, cols, components.CellEmpty)

	field := NewDynamicField(rows, cols)
	for i := 0; i < 100; i++ {
		field.AddParticle(components.Location{Row: 2, Col: 2})
	}

	for step := 0; step < 1000; step++ {
		field.Step(obstacles, fire, 0.3, 0)
		if got := field.Phi.Sum(); math.Abs(got-100) > 1e-6 {
			t.Fatalf("step %d: total mass = %v, want 100 +/- 1e-6 (spec.md §8 scenario 4)", step, got)
		}
	}
}

func TestDynamicFieldZeroInitialStaysZero(t *testing.T) {
	rows, cols := 4, 4
	obstacles := NewIntGrid(rows, cols, components.CellEmpty)
	fire := NewIntGrid(rows, cols, components.CellEmpty)
	field := NewDynamicField(rows, cols)

	field.Step(obstacles, fire, 0.3, 0.1)
	if got := field.Phi.Sum(); got != 0 {
		t.Fatalf("an empty field must stay empty after a step, got %v", got)
	}
}

func TestDynamicFieldExcludesImpassableAndFireCells(t *testing.T) {
	rows, cols := 3, 3
	obstacles := NewIntGrid(rows, cols, components.CellEmpty)
	fire := NewIntGrid(rows, cols, components.CellEmpty)
	obstacles.Set(components.Location{Row: 0, Col: 0}, components.CellImpassable)
	fire.Set(components.Location{Row: 2, Col: 2}, components.CellFire)

	field := NewDynamicField(rows, cols)
	field.AddParticle(components.Location{Row: 1, Col: 1})

	field.Step(obstacles, fire, 0.3, 0)

	if got := field.Phi.Get(components.Location{Row: 0, Col: 0}); got != 0 {
		t.Fatalf("impassable cell must not accumulate particles, got %v", got)
	}
	if got := field.Phi.Get(components.Location{Row: 2, Col: 2}); got != 0 {
		t.Fatalf("fire cell must not accumulate particles, got %v", got)
	}
}

func TestKirchnerDecayRemovesParticlesProbabilistically(t *testing.T) {
	rng := NewRNG(3)
	counts := NewIntGrid(2, 2, 0)
	counts.Set(components.Location{Row: 0, Col: 0}, 1000)

	KirchnerDecay(rng, counts, 1.0)

	if got := counts.Get(components.Location{Row: 0, Col: 0}); got != 0 {
		t.Fatalf("decay probability 1.0 must remove every particle, got %d", got)
	}
}

func TestKirchnerMultipleDiffusionDuplicatesRatherThanMoves(t *testing.T) {
	rng := NewRNG(5)
	obstacles := NewIntGrid(3, 3, components.CellEmpty)
	counts := NewIntGrid(3, 3, 0)
	counts.Set(components.Location{Row: 1, Col: 1}, 10)

	KirchnerMultipleDiffusion(rng, counts, obstacles, 1.0)

	if got := counts.Get(components.Location{Row: 1, Col: 1}); got != 10 {
		t.Fatalf("multiple_diffusion duplicates particles into neighbors rather than moving them, source must keep its original count, got %d", got)
	}
	neighbor := counts.Get(components.Location{Row: 0, Col: 1})
	if neighbor != 10 {
		t.Fatalf("with diffusionProb=1.0 every particle must duplicate into each orthogonal neighbor, got %d", neighbor)
	}
}
