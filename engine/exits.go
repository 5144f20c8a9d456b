package engine

import "github.com/danielgoncalves/evacsim/components"

// Exit is a contiguous line of door cells sharing one aggregate weight
// field and blocked-by-fire flag (spec.md §3).
type Exit struct {
	Cells []components.Location

	// BlockedByFire is monotone non-decreasing within one simulation
	// (spec.md §3 invariant 6): once set, never cleared except by a
	// caller-driven reset between simulations.
	BlockedByFire bool

	// VarasWeight holds a flood-fill weight grid for this exit (spec.md
	// §4.3). Nothing in this repository assigns it: the sim package's
	// Varas form recomputes each exit's weight with ComputeVarasWeight on
	// every static-field recompute.
	VarasWeight *FloatGrid

	// PrivateStructure is a per-exit copy of the obstacle grid with only
	// this exit's own cells marked CellExit (spec.md §4.2).
	PrivateStructure *IntGrid
}

// NewExit creates a new exit containing a single cell.
func NewExit(cell components.Location) *Exit {
	return &Exit{Cells: []components.Location{cell}}
}

// Expand appends another cell to this exit.
func (e *Exit) Expand(cell components.Location) {
	e.Cells = append(e.Cells, cell)
}

// BuildPrivateStructure derives e's private structure grid from the
// shared obstacle grid: a deep copy with e's own cells marked CellExit.
func (e *Exit) BuildPrivateStructure(obstacles *IntGrid) {
	e.PrivateStructure = obstacles.Copy()
	for _, c := range e.Cells {
		e.PrivateStructure.Set(c, components.CellExit)
	}
}

// Accessible reports whether at least one of e's cells has an orthogonal
// (non-diagonal) neighbor that is neither impassable nor another exit
// cell (spec.md §4.2).
func (e *Exit) Accessible(obstacles, exitsOnly *IntGrid) bool {
	for _, c := range e.Cells {
		for _, off := range orthogonalOffsets {
			n := c.Add(off.Row, off.Col)
			if !obstacles.InBounds(n) {
				continue
			}
			if obstacles.Get(n) == components.CellImpassable {
				continue
			}
			if exitsOnly.Get(n) == components.CellExit || exitsOnly.Get(n) == components.CellBlockedExit {
				continue
			}
			return true
		}
	}
	return false
}

// RefreshBlockedByFire recomputes e.BlockedByFire: it becomes blocked
// when every orthogonal neighbor of every exit cell is either an
// obstacle, another exit cell, or a fire cell (spec.md §4.2). Blocking is
// monotone: once true, this never flips back to false within the same
// simulation (the caller resets BlockedByFire directly between
// simulations, per spec.md §4.9 step 4 "reset: ... exit blocked-flags
// cleared").
func (e *Exit) RefreshBlockedByFire(obstacles, exitsOnly, fire *IntGrid) {
	if e.BlockedByFire {
		return
	}

	for _, c := range e.Cells {
		for _, off := range orthogonalOffsets {
			n := c.Add(off.Row, off.Col)
			if !obstacles.InBounds(n) {
				continue
			}
			if obstacles.Get(n) == components.CellImpassable {
				continue
			}
			if exitsOnly.Get(n) == components.CellExit || exitsOnly.Get(n) == components.CellBlockedExit {
				continue
			}
			if fire.Get(n) == components.CellFire {
				continue
			}
			return // found a free, non-fire, non-exit, passable neighbor
		}
	}
	e.BlockedByFire = true
}

// ExitSet is the aggregate door-set for one simulation set (spec.md §3).
type ExitSet struct {
	Exits []*Exit
}

// NewExitSet returns an empty exit set.
func NewExitSet() *ExitSet {
	return &ExitSet{}
}

// Add registers a new single-cell exit and returns it.
func (s *ExitSet) Add(cell components.Location) *Exit {
	e := NewExit(cell)
	s.Exits = append(s.Exits, e)
	return e
}

// BuildPrivateStructures derives every exit's private structure grid.
func (s *ExitSet) BuildPrivateStructures(obstacles *IntGrid) {
	for _, e := range s.Exits {
		e.BuildPrivateStructure(obstacles)
	}
}

// AllAccessible reports whether every exit in the set is accessible; the
// driver skips the whole simulation set (spec.md §4.9) otherwise.
func (s *ExitSet) AllAccessible(obstacles, exitsOnly *IntGrid) bool {
	for _, e := range s.Exits {
		if !e.Accessible(obstacles, exitsOnly) {
			return false
		}
	}
	return true
}

// RefreshBlockedByFire refreshes every exit's blocked flag and returns
// true if any exit's blocked status newly became true on this call
// (i.e. the effective door topology changed).
func (s *ExitSet) RefreshBlockedByFire(obstacles, exitsOnly, fire *IntGrid) bool {
	changed := false
	for _, e := range s.Exits {
		was := e.BlockedByFire
		e.RefreshBlockedByFire(obstacles, exitsOnly, fire)
		if e.BlockedByFire && !was {
			changed = true
		}
	}
	return changed
}

// ResetBlocked clears every exit's blocked-by-fire flag, called between
// simulations of the same set (spec.md §3 "Lifecycles").
func (s *ExitSet) ResetBlocked() {
	for _, e := range s.Exits {
		e.BlockedByFire = false
	}
}

// UnblockedCells returns the cells of every exit that is not currently
// blocked by fire -- the set §4.3 calls "non-blocked exit cells".
func (s *ExitSet) UnblockedCells() []components.Location {
	var cells []components.Location
	for _, e := range s.Exits {
		if e.BlockedByFire {
			continue
		}
		cells = append(cells, e.Cells...)
	}
	return cells
}

// MarkOnGrid stamps every exit's cells onto an exits-only int grid,
// writing CellBlockedExit for blocked exits and CellExit otherwise.
func (s *ExitSet) MarkOnGrid(g *IntGrid) {
	for _, e := range s.Exits {
		v := components.CellExit
		if e.BlockedByFire {
			v = components.CellBlockedExit
		}
		for _, c := range e.Cells {
			g.Set(c, v)
		}
	}
}

// ContainsCell reports whether loc belongs to any exit in the set, and
// returns that exit.
func (s *ExitSet) ContainsCell(loc components.Location) (*Exit, bool) {
	for _, e := range s.Exits {
		for _, c := range e.Cells {
			if c.Equal(loc) {
				return e, true
			}
		}
	}
	return nil, false
}
