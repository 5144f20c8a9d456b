package engine

import (
	"github.com/danielgoncalves/evacsim/components"
	"gonum.org/v1/gonum/floats"
)

// DynamicField is the particle-density "pheromone" field left by moving
// pedestrians: a decaying, diffusing scalar grid updated once per step
// (spec.md §4.4).
type DynamicField struct {
	Phi *FloatGrid
	aux *FloatGrid
}

// NewDynamicField allocates a dynamic field of the given size, initially
// empty.
func NewDynamicField(rows, cols int) *DynamicField {
	return &DynamicField{
		Phi: NewFloatGrid(rows, cols, 0),
		aux: NewFloatGrid(rows, cols, 0),
	}
}

// Reset zeroes the field, used when a simulation restarts (spec.md §3
// "Lifecycles").
func (f *DynamicField) Reset() {
	f.Phi.Fill(0)
}

// AddParticle deposits one unit of particle density at loc. The emission
// policy (source-cell-on-departure vs. current-cell-at-step-start) is a
// decision made by the caller (sim package); this method only performs
// the deposit.
func (f *DynamicField) AddParticle(loc components.Location) {
	if loc.Row < 0 || loc.Row >= f.Phi.Rows || loc.Col < 0 || loc.Col >= f.Phi.Cols {
		return
	}
	f.Phi.Set(loc, f.Phi.Get(loc)+1)
}

// Step applies the combined decay-and-diffusion update of spec.md §4.4:
//
//	phi'(c) = (1-alpha)(1-delta) phi(c) + alpha(1-delta)/4 * sum_{n in N4(c)} phi(n)
//
// over orthogonal neighbors only. Impassable and fire cells are excluded
// from both output and input sums. The update runs on a scratch grid and
// swaps at the end to guarantee parallel-update semantics (spec.md §5).
// After the pass the field is renormalised so the post-update total
// equals the pre-update total, unless the pre-update total was zero, in
// which case it is left at zero (spec.md §4.4, §9 normalisation guard).
func (f *DynamicField) Step(obstacles, fire *IntGrid, alpha, delta float64) {
	preTotal := floats.Sum(f.Phi.Raw())

	f.aux.Fill(0)
	rows, cols := f.Phi.Rows, f.Phi.Cols
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			loc := components.Location{Row: r, Col: c}
			if isBlockedForDynamicField(obstacles, fire, loc) {
				continue
			}

			neighborSum := 0.0
			for _, off := range orthogonalOffsets {
				n := loc.Add(off.Row, off.Col)
				if !f.Phi.InBounds(n) || isBlockedForDynamicField(obstacles, fire, n) {
					continue
				}
				neighborSum += f.Phi.Get(n)
			}

			value := (1-alpha)*(1-delta)*f.Phi.Get(loc) + alpha*(1-delta)/4*neighborSum
			f.aux.Set(loc, value)
		}
	}
	f.aux.CopyInto(f.Phi)

	if preTotal == 0 {
		return
	}
	postTotal := floats.Sum(f.Phi.Raw())
	if postTotal == 0 {
		return
	}
	scale := preTotal / postTotal
	floats.Scale(scale, f.Phi.Raw())
}

func isBlockedForDynamicField(obstacles, fire *IntGrid, loc components.Location) bool {
	if !obstacles.InBounds(loc) {
		return true
	}
	return obstacles.Get(loc) == components.CellImpassable || fire.Get(loc) == components.CellFire
}

// --- Kirchner-family particle-count kernels (spec.md §4.4) ---
//
// These operate on an explicit integer particle-count grid and are kept
// for bit-parity with earlier, non-fire-aware drivers; they are selected
// as an alternative to Step via config.DynamicKernel.

// KirchnerDecay tests each particle in counts independently with
// probability delta, removing it on success.
func KirchnerDecay(rng *RNG, counts *IntGrid, delta float64) {
	for r := 0; r < counts.Rows; r++ {
		for c := 0; c < counts.Cols; c++ {
			loc := components.Location{Row: r, Col: c}
			n := counts.Get(loc)
			if n <= 0 {
				continue
			}
			survivors := 0
			for i := 0; i < n; i++ {
				if !rng.Bernoulli(delta) {
					survivors++
				}
			}
			counts.Set(loc, survivors)
		}
	}
}

// KirchnerSingleDiffusion runs each particle through a roulette over its
// valid orthogonal neighbors (weight 1 each, plus the source cell itself
// so a particle may stay put), moving the source particle when moving is
// true rather than merely depositing a copy.
func KirchnerSingleDiffusion(rng *RNG, counts *IntGrid, obstacles *IntGrid, moving bool) {
	src := counts.Copy()
	if moving {
		counts.Fill(0)
	}

	for r := 0; r < src.Rows; r++ {
		for c := 0; c < src.Cols; c++ {
			loc := components.Location{Row: r, Col: c}
			n := src.Get(loc)
			if n <= 0 {
				continue
			}

			candidates := []components.Location{loc}
			for _, off := range orthogonalOffsets {
				cand := loc.Add(off.Row, off.Col)
				if obstacles.InBounds(cand) && obstacles.Get(cand) != components.CellImpassable {
					candidates = append(candidates, cand)
				}
			}
			weights := make([]float64, len(candidates))
			for i := range weights {
				weights[i] = 1
			}

			for i := 0; i < n; i++ {
				idx := rng.Roulette(weights, float64(len(weights)))
				if idx < 0 {
					idx = 0
				}
				dest := candidates[idx]
				if moving {
					counts.Set(dest, counts.Get(dest)+1)
				} else if !dest.Equal(loc) {
					counts.Set(dest, counts.Get(dest)+1)
				}
			}
		}
	}
}

// KirchnerMultipleDiffusion fires an independent Bernoulli trial towards
// each orthogonal neighbor for every particle, so a single particle may
// deposit into more than one neighbor cell in the same step.
func KirchnerMultipleDiffusion(rng *RNG, counts *IntGrid, obstacles *IntGrid, diffusionProb float64) {
	src := counts.Copy()
	for r := 0; r < src.Rows; r++ {
		for c := 0; c < src.Cols; c++ {
			loc := components.Location{Row: r, Col: c}
			n := src.Get(loc)
			if n <= 0 {
				continue
			}
			for _, off := range orthogonalOffsets {
				dest := loc.Add(off.Row, off.Col)
				if !obstacles.InBounds(dest) || obstacles.Get(dest) == components.CellImpassable {
					continue
				}
				for i := 0; i < n; i++ {
					if rng.Bernoulli(diffusionProb) {
						counts.Set(dest, counts.Get(dest)+1)
					}
				}
			}
		}
	}
}
