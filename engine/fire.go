package engine

import (
	"math"
	"sort"

	"github.com/danielgoncalves/evacsim/components"
)

// FireField holds the fire cell set and its derived fields (spec.md §4.5):
// the fire grid itself, an immutable initial snapshot used to reset
// between simulations, the distance-to-fire field, the fire floor field,
// and the risky/danger classification grid.
type FireField struct {
	Grid        *IntGrid
	InitialGrid *IntGrid
	Distance    *FloatGrid
	FloorField  *FloatGrid
	Risky       *IntGrid
}

// NewFireField allocates a fire field sized rows x cols with the given
// initial fire cells seeded (from the environment).
func NewFireField(rows, cols int, initialFireCells []components.Location) *FireField {
	grid := NewIntGrid(rows, cols, components.CellEmpty)
	for _, c := range initialFireCells {
		grid.Set(c, components.CellFire)
	}
	return &FireField{
		Grid:        grid,
		InitialGrid: grid.Copy(),
		Distance:    NewFloatGrid(rows, cols, 0),
		FloorField:  NewFloatGrid(rows, cols, 0),
		Risky:       NewIntGrid(rows, cols, components.RiskNone),
	}
}

// Reset restores the fire grid to its initial snapshot (spec.md §3
// "Lifecycles": "The fire grid is reset to the initial-fire snapshot at
// the start of each per-set simulation").
func (f *FireField) Reset() {
	f.InitialGrid.CopyInto(f.Grid)
}

// HasFire reports whether any cell is currently on fire.
func (f *FireField) HasFire() bool {
	for r := 0; r < f.Grid.Rows; r++ {
		for c := 0; c < f.Grid.Cols; c++ {
			if f.Grid.Get(components.Location{Row: r, Col: c}) == components.CellFire {
				return true
			}
		}
	}
	return false
}

// Spread advances the fire by one Moore-8 step (spec.md §4.5): every
// currently-on-fire cell stays on fire, and every passable (non-obstacle,
// empty) 8-neighbor of a fire cell catches fire. Fire cells are monotone
// -- they never extinguish. Spread reports whether any new cell caught
// fire (a topology change the driver must react to).
func (f *FireField) Spread(obstacles *IntGrid) bool {
	scratch := f.Grid.Copy()
	changed := false

	for r := 0; r < f.Grid.Rows; r++ {
		for c := 0; c < f.Grid.Cols; c++ {
			loc := components.Location{Row: r, Col: c}
			if f.Grid.Get(loc) != components.CellFire {
				continue
			}
			for _, off := range mooreOffsets {
				n := loc.Add(off.Row, off.Col)
				if !obstacles.InBounds(n) {
					continue
				}
				if obstacles.Get(n) == components.CellImpassable {
					continue
				}
				if f.Grid.Get(n) == components.CellFire {
					continue
				}
				scratch.Set(n, components.CellFire)
				changed = true
			}
		}
	}

	scratch.CopyInto(f.Grid)
	return changed
}

// coordinateSet groups every fire cell sharing one "main" coordinate
// (a row, or a column) with its sorted "secondary" coordinates, used by
// ComputeDistanceToFire's binary-search neighbor lookup (spec.md §4.5,
// "main+secondary coordinate-set index").
type coordinateSet struct {
	main      int
	secondary []int // sorted ascending
}

// buildCoordinateIndex groups fire cells by row (byRow=true, main=row,
// secondary=sorted columns) or by column (byRow=false, main=column,
// secondary=sorted rows). The result is sorted ascending by main, and
// each set's secondary slice is sorted ascending, both for free, because
// cells are visited in row-major (or column-major) order.
func buildCoordinateIndex(fire *IntGrid, byRow bool) []coordinateSet {
	var sets []coordinateSet

	if byRow {
		for r := 0; r < fire.Rows; r++ {
			var cols []int
			for c := 0; c < fire.Cols; c++ {
				if fire.Get(components.Location{Row: r, Col: c}) == components.CellFire {
					cols = append(cols, c)
				}
			}
			if len(cols) > 0 {
				sets = append(sets, coordinateSet{main: r, secondary: cols})
			}
		}
		return sets
	}

	for c := 0; c < fire.Cols; c++ {
		var rows []int
		for r := 0; r < fire.Rows; r++ {
			if fire.Get(components.Location{Row: r, Col: c}) == components.CellFire {
				rows = append(rows, r)
			}
		}
		if len(rows) > 0 {
			sets = append(sets, coordinateSet{main: c, secondary: rows})
		}
	}
	return sets
}

// adjacentSets returns up to three sets whose main coordinate is closest
// to coordinate: the exact match plus its immediate predecessor/successor
// if coordinate matches a set exactly, the two straddling sets if it
// falls between two, or the single nearest edge set otherwise.
func adjacentSets(sets []coordinateSet, coordinate int) []coordinateSet {
	if len(sets) == 0 {
		return nil
	}
	idx := sort.Search(len(sets), func(i int) bool { return sets[i].main >= coordinate })

	if idx < len(sets) && sets[idx].main == coordinate {
		var out []coordinateSet
		if idx > 0 {
			out = append(out, sets[idx-1])
		}
		out = append(out, sets[idx])
		if idx+1 < len(sets) {
			out = append(out, sets[idx+1])
		}
		return out
	}
	if idx == 0 {
		return []coordinateSet{sets[0]}
	}
	if idx == len(sets) {
		return []coordinateSet{sets[len(sets)-1]}
	}
	return []coordinateSet{sets[idx-1], sets[idx]}
}

// adjacentSecondary returns up to three secondary coordinates of set
// closest to coordinate, using the same straddle rule as adjacentSets.
func adjacentSecondary(set coordinateSet, coordinate int) []int {
	vals := set.secondary
	if len(vals) == 0 {
		return nil
	}
	idx := sort.Search(len(vals), func(i int) bool { return vals[i] >= coordinate })

	if idx < len(vals) && vals[idx] == coordinate {
		var out []int
		if idx > 0 {
			out = append(out, vals[idx-1])
		}
		out = append(out, vals[idx])
		if idx+1 < len(vals) {
			out = append(out, vals[idx+1])
		}
		return out
	}
	if idx == 0 {
		return []int{vals[0]}
	}
	if idx == len(vals) {
		return []int{vals[len(vals)-1]}
	}
	return []int{vals[idx-1], vals[idx]}
}

// ComputeDistanceToFire fills f.Distance with, for every non-fire cell,
// the Euclidean distance to the nearest fire cell, using the
// main+secondary coordinate-set index so candidates are found via a
// handful of binary searches rather than a linear scan over every fire
// cell (spec.md §4.5, a stated performance requirement when fire covers
// a large area). Fire cells keep distance 0. If there is no fire at all,
// every cell is left at 0.
func (f *FireField) ComputeDistanceToFire() {
	f.Distance.Fill(0)
	if !f.HasFire() {
		return
	}

	rowSets := buildCoordinateIndex(f.Grid, true)
	colSets := buildCoordinateIndex(f.Grid, false)

	for r := 0; r < f.Grid.Rows; r++ {
		for c := 0; c < f.Grid.Cols; c++ {
			loc := components.Location{Row: r, Col: c}
			if f.Grid.Get(loc) == components.CellFire {
				continue
			}

			minDist := math.Inf(1)

			for _, rs := range adjacentSets(rowSets, r) {
				for _, col := range adjacentSecondary(rs, c) {
					d := euclideanDistance(loc, components.Location{Row: rs.main, Col: col})
					if d < minDist {
						minDist = d
					}
				}
			}
			for _, cs := range adjacentSets(colSets, c) {
				for _, row := range adjacentSecondary(cs, r) {
					d := euclideanDistance(loc, components.Location{Row: row, Col: cs.main})
					if d < minDist {
						minDist = d
					}
				}
			}

			f.Distance.Set(loc, minDist)
		}
	}
}

// ComputeFloorField derives the fire floor field from the current
// distance-to-fire grid (spec.md §4.5): for each passable cell whose
// distance to fire is <= gamma, f = 1/d, normalised so sum(f) = 1 over
// the affected region. If fire is not present, f is left at 0 everywhere
// (the transition model then treats the fire exponent as 1).
func (f *FireField) ComputeFloorField(obstacles, exitsOnly *IntGrid, firePresent bool, gamma float64) {
	f.FloorField.Fill(0)
	if !firePresent {
		return
	}

	sum := 0.0
	for r := 0; r < f.Grid.Rows; r++ {
		for c := 0; c < f.Grid.Cols; c++ {
			loc := components.Location{Row: r, Col: c}
			if f.Distance.Get(loc) > gamma || f.Grid.Get(loc) == components.CellFire {
				continue
			}
			if obstacles.Get(loc) == components.CellImpassable && exitsOnly.Get(loc) != components.CellExit {
				continue
			}
			d := f.Distance.Get(loc)
			if d == 0 {
				continue // avoid division by zero; fire-adjacent exit cells etc.
			}
			v := 1 / d
			f.FloorField.Set(loc, v)
			sum += v
		}
	}

	if sum == 0 {
		return
	}
	for r := 0; r < f.Grid.Rows; r++ {
		for c := 0; c < f.Grid.Cols; c++ {
			loc := components.Location{Row: r, Col: c}
			if f.FloorField.Get(loc) != 0 {
				f.FloorField.Set(loc, f.FloorField.Get(loc)/sum)
			}
		}
	}
}

// ClassifyRisky fills f.Risky per spec.md §4.5: every passable cell with
// distance-to-fire < 1.5 is DANGER; every passable cell orthogonally
// adjacent to an obstacle that is itself within distance 3 of fire, and
// whose own distance-to-fire is < 1.5, is RISKY. All other cells are
// NONE. If fire is not present, every cell is NONE.
func (f *FireField) ClassifyRisky(obstacles *IntGrid, firePresent bool) {
	f.Risky.Fill(components.RiskNone)
	if !firePresent {
		return
	}

	for r := 0; r < f.Grid.Rows; r++ {
		for c := 0; c < f.Grid.Cols; c++ {
			loc := components.Location{Row: r, Col: c}
			if obstacles.Get(loc) == components.CellImpassable || f.Grid.Get(loc) == components.CellFire {
				continue
			}
			if f.Distance.Get(loc) < 1.5 {
				f.Risky.Set(loc, components.RiskDanger)
			}
		}
	}

	for r := 0; r < f.Grid.Rows; r++ {
		for c := 0; c < f.Grid.Cols; c++ {
			loc := components.Location{Row: r, Col: c}
			if obstacles.Get(loc) != components.CellImpassable || f.Distance.Get(loc) > 3 {
				continue
			}
			for _, off := range orthogonalOffsets {
				n := loc.Add(off.Row, off.Col)
				if !obstacles.InBounds(n) {
					continue
				}
				if obstacles.Get(n) == components.CellImpassable || f.Grid.Get(n) == components.CellFire {
					continue
				}
				if f.Distance.Get(n) < 1.5 {
					f.Risky.Set(n, components.RiskRisky)
				}
			}
		}
	}
}
