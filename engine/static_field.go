package engine

import (
	"math"

	"github.com/danielgoncalves/evacsim/components"
	"gonum.org/v1/gonum/floats"
)

// StaticFieldKind selects one of the three static-field formulations of
// spec.md §4.3.
type StaticFieldKind uint8

const (
	// Zheng is the Euclidean-min, probability-normalised form the
	// fire-aware transition model requires (spec.md §4.3, §4.6).
	Zheng StaticFieldKind = iota
	// Varas is the flood-fill wavefront-cost form.
	Varas
	// Kirchner is the Euclidean-min, inverted-distance form used by
	// earlier (non-fire) driver variants.
	Kirchner
)

// varasUnvisited marks a cell the flood fill has not yet reached. It is
// distinct from any real propagated cost (always >= 0) and from
// components.ImpassableValue.
const varasUnvisited = math.MaxFloat64

// diagonalKernel returns the flood-fill propagation cost from a cell to
// one of its eight neighbors identified by offset (dr, dc).
func diagonalKernel(dr, dc int, diagonalCost float64) float64 {
	if dr != 0 && dc != 0 {
		return diagonalCost
	}
	return 1.0
}

// ComputeVarasWeight computes one exit's flood-fill weight grid
// (spec.md §4.2 "private structure", §4.3 Varas form). Exit cells are
// seeded at cost 0 and obstacles are excluded; the fill iterates to a
// fixpoint using a two-phase (read from current, write to aux, swap)
// sweep so that one sweep's writes never influence that same sweep's
// reads.
//
// spec.md describes propagation as happening "for every cell with a
// positive value" -- taken literally that would also exclude the exit
// seed (distance 0) and the fill would never start. This implementation
// resolves that by propagating from every cell that has been *reached*
// (cost 0 or more), the flood-fill/wavefront behavior that prose is
// clearly describing.
func ComputeVarasWeight(obstacles *IntGrid, exitCells []components.Location, diagonalCost float64, preventCornerCrossing bool) *FloatGrid {
	rows, cols := obstacles.Rows, obstacles.Cols
	weight := NewFloatGrid(rows, cols, varasUnvisited)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			loc := components.Location{Row: r, Col: c}
			if obstacles.Get(loc) == components.CellImpassable {
				weight.Set(loc, components.ImpassableValue)
			}
		}
	}
	for _, e := range exitCells {
		weight.Set(e, 0)
	}

	aux := weight.Copy()
	for {
		changed := false
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				loc := components.Location{Row: r, Col: c}
				current := weight.Get(loc)
				if current == components.ImpassableValue || current == varasUnvisited {
					continue
				}
				for _, off := range mooreOffsets {
					n := loc.Add(off.Row, off.Col)
					if !weight.InBounds(n) {
						continue
					}
					if weight.Get(n) == components.ImpassableValue {
						continue
					}
					if off.Row != 0 && off.Col != 0 && !DiagonalValid(obstacles, loc, off.Row, off.Col, preventCornerCrossing) {
						continue
					}
					proposal := current + diagonalKernel(off.Row, off.Col, diagonalCost)
					existing := aux.Get(n)
					if existing == varasUnvisited || proposal < existing {
						aux.Set(n, proposal)
						changed = true
					}
				}
			}
		}
		aux.CopyInto(weight)
		if !changed {
			break
		}
	}
	return weight
}

// ComputeZhengStaticField implements spec.md §4.3's Zheng form: for
// every passable cell, d = min euclidean distance to a non-blocked exit
// cell, s = 1/(d+1), normalised so sum(s) over passable cells is 1.
// Fire, impassable and blocked-exit cells carry their own sentinels and
// are excluded from the sum.
func ComputeZhengStaticField(obstacles, exitsOnly, fire *IntGrid, unblockedExitCells []components.Location) *FloatGrid {
	rows, cols := obstacles.Rows, obstacles.Cols
	field := NewFloatGrid(rows, cols, 0)

	var passableIdx []int
	raw := field.Raw()

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			loc := components.Location{Row: r, Col: c}
			idx := r*cols + c

			if exitsOnly.Get(loc) != components.CellExit {
				if exitsOnly.Get(loc) == components.CellBlockedExit {
					raw[idx] = components.BlockedExitValue
					continue
				}
				if obstacles.Get(loc) == components.CellImpassable {
					raw[idx] = components.ImpassableValue
					continue
				}
				if fire.Get(loc) == components.CellFire {
					raw[idx] = components.FireValue
					continue
				}
			}

			d := nearestExitDistance(loc, unblockedExitCells)
			raw[idx] = 1 / (d + 1)
			passableIdx = append(passableIdx, idx)
		}
	}

	sum := floats.Sum(selectIndices(raw, passableIdx))
	if sum != 0 {
		for _, idx := range passableIdx {
			raw[idx] /= sum
		}
	}
	return field
}

// ComputeKirchnerStaticField implements spec.md §4.3's Kirchner form:
// exit cells have distance 0, every other passable cell has its
// Euclidean distance to the nearest exit, then the field is inverted
// (max - d) so higher values mean closer to an exit.
func ComputeKirchnerStaticField(obstacles, exitsOnly *IntGrid, exitCells []components.Location) *FloatGrid {
	rows, cols := obstacles.Rows, obstacles.Cols
	field := NewFloatGrid(rows, cols, components.ImpassableValue)

	maxValue := -1.0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			loc := components.Location{Row: r, Col: c}
			if exitsOnly.Get(loc) == components.CellExit {
				field.Set(loc, 0)
				if 0 > maxValue {
					maxValue = 0
				}
				continue
			}
			if obstacles.Get(loc) == components.CellImpassable {
				continue
			}
			d := nearestExitDistance(loc, exitCells)
			field.Set(loc, d)
			if d > maxValue {
				maxValue = d
			}
		}
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			loc := components.Location{Row: r, Col: c}
			if field.Get(loc) == components.ImpassableValue {
				continue
			}
			field.Set(loc, maxValue-field.Get(loc))
		}
	}
	return field
}

// ComputeDistanceToExit fills, for every passable cell, its Euclidean
// distance to the nearest of exitCells (0 for exit cells themselves).
// This feeds the transition model's risk-distance gate (spec.md §4.6),
// which is distinct from the Zheng static field's normalised weight.
func ComputeDistanceToExit(obstacles *IntGrid, exitCells []components.Location) *FloatGrid {
	rows, cols := obstacles.Rows, obstacles.Cols
	field := NewFloatGrid(rows, cols, 0)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			loc := components.Location{Row: r, Col: c}
			if obstacles.Get(loc) == components.CellImpassable {
				continue
			}
			field.Set(loc, nearestExitDistance(loc, exitCells))
		}
	}
	return field
}

func nearestExitDistance(loc components.Location, exitCells []components.Location) float64 {
	best := math.Inf(1)
	for _, e := range exitCells {
		if d := euclideanDistance(loc, e); d < best {
			best = d
		}
	}
	if math.IsInf(best, 1) {
		return 0
	}
	return best
}

func selectIndices(raw []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, v := range idx {
		out[i] = raw[v]
	}
	return out
}
