// Package engine implements the floor-field simulation core: grid and
// random primitives, the exit registry, the static/dynamic/fire fields,
// the per-pedestrian transition-probability model, and the conflict
// resolver (spec.md §4).
package engine

import "github.com/danielgoncalves/evacsim/components"

// IntGrid is a rectangular grid of integer cell values, stored row-major.
// It backs the obstacle, exits-only, pedestrian-position, heatmap,
// risky-cells, and fire grids (spec.md §3).
type IntGrid struct {
	Rows, Cols int
	cells      []int
}

// NewIntGrid allocates a rows x cols grid filled with fill.
func NewIntGrid(rows, cols, fill int) *IntGrid {
	g := &IntGrid{Rows: rows, Cols: cols, cells: make([]int, rows*cols)}
	g.Fill(fill)
	return g
}

func (g *IntGrid) index(loc components.Location) int { return loc.Row*g.Cols + loc.Col }

// InBounds reports whether loc is within the grid.
func (g *IntGrid) InBounds(loc components.Location) bool {
	return loc.Row >= 0 && loc.Row < g.Rows && loc.Col >= 0 && loc.Col < g.Cols
}

// Get returns the value at loc. Out-of-bounds reads return CellImpassable,
// so boundary checks that forget InBounds fail safe rather than panic.
func (g *IntGrid) Get(loc components.Location) int {
	if !g.InBounds(loc) {
		return components.CellImpassable
	}
	return g.cells[g.index(loc)]
}

// Set writes value at loc. It is a no-op if loc is out of bounds.
func (g *IntGrid) Set(loc components.Location, value int) {
	if !g.InBounds(loc) {
		return
	}
	g.cells[g.index(loc)] = value
}

// Fill sets every cell to value.
func (g *IntGrid) Fill(value int) {
	for i := range g.cells {
		g.cells[i] = value
	}
}

// Copy returns a deep copy of g.
func (g *IntGrid) Copy() *IntGrid {
	out := &IntGrid{Rows: g.Rows, Cols: g.Cols, cells: make([]int, len(g.cells))}
	copy(out.cells, g.cells)
	return out
}

// CopyInto copies g's contents into dst, which must have the same dims.
func (g *IntGrid) CopyInto(dst *IntGrid) {
	copy(dst.cells, g.cells)
}

// StructuralCopy copies only the non-empty cells of g into dst, leaving
// dst's existing empty cells untouched (spec.md §4.1, "structural copy").
func (g *IntGrid) StructuralCopy(dst *IntGrid) {
	for i, v := range g.cells {
		if v != components.CellEmpty {
			dst.cells[i] = v
		}
	}
}

// Sum returns the element-wise integer sum of all cells.
func (g *IntGrid) Sum() int {
	total := 0
	for _, v := range g.cells {
		total += v
	}
	return total
}

// FloatGrid is a rectangular grid of float64 cell values, stored
// row-major. It backs the static/dynamic/fire floor fields and the
// distance-to-exit/distance-to-fire grids (spec.md §3).
type FloatGrid struct {
	Rows, Cols int
	cells      []float64
}

// NewFloatGrid allocates a rows x cols grid filled with fill.
func NewFloatGrid(rows, cols int, fill float64) *FloatGrid {
	g := &FloatGrid{Rows: rows, Cols: cols, cells: make([]float64, rows*cols)}
	g.Fill(fill)
	return g
}

func (g *FloatGrid) index(loc components.Location) int { return loc.Row*g.Cols + loc.Col }

// InBounds reports whether loc is within the grid.
func (g *FloatGrid) InBounds(loc components.Location) bool {
	return loc.Row >= 0 && loc.Row < g.Rows && loc.Col >= 0 && loc.Col < g.Cols
}

// Get returns the value at loc, or NoValue if loc is out of bounds.
func (g *FloatGrid) Get(loc components.Location) float64 {
	if !g.InBounds(loc) {
		return components.NoValue
	}
	return g.cells[g.index(loc)]
}

// Set writes value at loc. It is a no-op if loc is out of bounds.
func (g *FloatGrid) Set(loc components.Location, value float64) {
	if !g.InBounds(loc) {
		return
	}
	g.cells[g.index(loc)] = value
}

// Fill sets every cell to value.
func (g *FloatGrid) Fill(value float64) {
	for i := range g.cells {
		g.cells[i] = value
	}
}

// Copy returns a deep copy of g.
func (g *FloatGrid) Copy() *FloatGrid {
	out := &FloatGrid{Rows: g.Rows, Cols: g.Cols, cells: make([]float64, len(g.cells))}
	copy(out.cells, g.cells)
	return out
}

// Raw exposes the underlying row-major backing slice, for bulk numeric
// operations (gonum/floats) that operate on []float64 directly.
func (g *FloatGrid) Raw() []float64 { return g.cells }

// CopyInto copies g's contents into dst, which must have the same dims.
func (g *FloatGrid) CopyInto(dst *FloatGrid) {
	copy(dst.cells, g.cells)
}

// Sum returns the sum of all cells whose value is not one of the
// sentinel values (ImpassableValue, FireValue, BlockedExitValue, NoValue).
func (g *FloatGrid) Sum() float64 {
	total := 0.0
	for _, v := range g.cells {
		if isSentinelFloat(v) {
			continue
		}
		total += v
	}
	return total
}

func isSentinelFloat(v float64) bool {
	return v == components.ImpassableValue || v == components.FireValue ||
		v == components.BlockedExitValue || v == components.NoValue
}

// orthogonalOffsets are the four von-Neumann neighbor offsets, in the
// fixed order used throughout the engine (north, south, west, east).
var orthogonalOffsets = [4]components.Location{
	{Row: -1, Col: 0}, {Row: 1, Col: 0}, {Row: 0, Col: -1}, {Row: 0, Col: 1},
}

// mooreOffsets are the eight Moore-neighborhood offsets.
var mooreOffsets = [8]components.Location{
	{Row: -1, Col: -1}, {Row: -1, Col: 0}, {Row: -1, Col: 1},
	{Row: 0, Col: -1}, {Row: 0, Col: 1},
	{Row: 1, Col: -1}, {Row: 1, Col: 0}, {Row: 1, Col: 1},
}

// DiagonalValid reports whether a diagonal step from origin by (dr, dc)
// (dr != 0 and dc != 0) is a legal move, per spec.md §4.1: by default the
// step is valid when at least one of the two orthogonal neighbors is
// passable, and invalid only when both are impassable; when
// preventCornerCrossing is set, both orthogonal neighbors must be
// passable.
func DiagonalValid(obstacles *IntGrid, origin components.Location, dr, dc int, preventCornerCrossing bool) bool {
	if dr == 0 || dc == 0 {
		return true
	}
	rowNeighbor := obstacles.Get(origin.Add(dr, 0))
	colNeighbor := obstacles.Get(origin.Add(0, dc))
	rowBlocked := rowNeighbor == components.CellImpassable
	colBlocked := colNeighbor == components.CellImpassable

	if preventCornerCrossing {
		return !rowBlocked && !colBlocked
	}
	return !rowBlocked || !colBlocked
}
