package engine

import (
	"github.com/danielgoncalves/evacsim/components"
)

// targetConflict records every pedestrian id that claimed the same
// target cell in one step (spec.md §4.7 "Target conflicts").
type targetConflict struct {
	ids []uint32
}

// ResolveTargetConflicts implements spec.md §4.7's target-conflict scan
// and resolution: pedestrians are scanned in ascending id order via a
// scratch grid that records, per cell, either 0 (unclaimed), a positive
// pedestrian id (claimed by exactly one pedestrian so far), or
// -(conflictIndex+1) once a second claimant appears. After the scan, each
// conflict is resolved with friction probability mu (all participants
// denied) or a roulette among equal weights (one winner); every
// non-winner transitions MOVING -> STOPPED.
func ResolveTargetConflicts(rng *RNG, positions *PedestrianSet, scratch *IntGrid, mu float64) {
	scratch.Fill(components.CellEmpty)
	var conflicts []targetConflict

	positions.EachOrdered(func(p *components.Pedestrian) {
		if p.State != components.Moving {
			return
		}
		claim := scratch.Get(p.Target)
		switch {
		case claim == components.CellEmpty:
			scratch.Set(p.Target, int(p.ID))
		case claim > 0:
			conflicts = append(conflicts, targetConflict{ids: []uint32{uint32(claim), p.ID}})
			scratch.Set(p.Target, -(len(conflicts)))
		default:
			idx := -claim - 1
			conflicts[idx].ids = append(conflicts[idx].ids, p.ID)
		}
	})

	for _, conflict := range conflicts {
		var winner uint32
		if !rng.Bernoulli(mu) {
			weights := make([]float64, len(conflict.ids))
			for i := range weights {
				weights[i] = 1
			}
			idx := rng.Roulette(weights, float64(len(weights)))
			if idx >= 0 {
				winner = conflict.ids[idx]
			}
		}
		for _, id := range conflict.ids {
			if id == winner {
				continue
			}
			if ped := positions.ByID(id); ped != nil {
				ped.State = components.Stopped
			}
		}
	}
}

// ResolveCrossingConflicts implements spec.md §4.7's path-crossing ("X")
// conflict check, used only by the non-fire models. Scanning the
// pedestrian-position grid in row-major order, for each pedestrian at
// (i,h) it looks at the pedestrian (if any) immediately to the east
// (i,h+1) and immediately to the south (i+1,h); if their current->target
// segments cross, a fair coin decides which one transitions to STOPPED.
func ResolveCrossingConflicts(rng *RNG, positions *PedestrianSet, grid *IntGrid) {
	for r := 0; r < grid.Rows; r++ {
		for c := 0; c < grid.Cols; c++ {
			id := grid.Get(components.Location{Row: r, Col: c})
			if id <= 0 {
				continue
			}
			p := positions.ByID(uint32(id))
			if p == nil || p.State != components.Moving {
				continue
			}

			checkPair(rng, positions, grid, p, r, c+1)
			checkPair(rng, positions, grid, p, r+1, c)
		}
	}
}

func checkPair(rng *RNG, positions *PedestrianSet, grid *IntGrid, p *components.Pedestrian, nr, nc int) {
	neighborLoc := components.Location{Row: nr, Col: nc}
	if !grid.InBounds(neighborLoc) {
		return
	}
	neighborID := grid.Get(neighborLoc)
	if neighborID <= 0 {
		return
	}
	q := positions.ByID(uint32(neighborID))
	if q == nil || q.State != components.Moving {
		return
	}

	if !segmentsCross(p.Current, p.Target, q.Current, q.Target) {
		return
	}

	if rng.Bernoulli(0.5) {
		p.State = components.Stopped
	} else {
		q.State = components.Stopped
	}
}

// segmentsCross implements spec.md §4.7's slope-intercept crossing test:
// two current->target segments qualify iff both lines are non-vertical
// and non-horizontal, their slopes differ, the intersection point lies
// strictly inside both open segments in x and y, and the intersection
// does not equal either pedestrian's target (that case is a simple target
// conflict, already handled).
func segmentsCross(c1, t1, c2, t2 components.Location) bool {
	dx1, dy1 := float64(t1.Col-c1.Col), float64(t1.Row-c1.Row)
	dx2, dy2 := float64(t2.Col-c2.Col), float64(t2.Row-c2.Row)

	if dx1 == 0 || dy1 == 0 || dx2 == 0 || dy2 == 0 {
		return false
	}

	slope1 := dy1 / dx1
	slope2 := dy2 / dx2
	if slope1 == slope2 {
		return false
	}

	intercept1 := float64(c1.Row) - slope1*float64(c1.Col)
	intercept2 := float64(c2.Row) - slope2*float64(c2.Col)

	x := (intercept2 - intercept1) / (slope1 - slope2)
	y := slope1*x + intercept1

	if !strictlyBetween(x, float64(c1.Col), float64(t1.Col)) || !strictlyBetween(y, float64(c1.Row), float64(t1.Row)) {
		return false
	}
	if !strictlyBetween(x, float64(c2.Col), float64(t2.Col)) || !strictlyBetween(y, float64(c2.Row), float64(t2.Row)) {
		return false
	}

	if x == float64(t1.Col) && y == float64(t1.Row) {
		return false
	}
	if x == float64(t2.Col) && y == float64(t2.Row) {
		return false
	}
	return true
}

func strictlyBetween(v, a, b float64) bool {
	if a > b {
		a, b = b, a
	}
	return v > a && v < b
}
